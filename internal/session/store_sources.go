package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"lectern/internal/transcript"
)

// GetSource returns the source attached to a session or nil when absent.
func (s *Store) GetSource(ctx context.Context, sessionID string) (*Source, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, video_url, title, description, source_description,
		        total_duration_seconds, segments_json, created_at, updated_at
		   FROM sources WHERE session_id = ?`, sessionID)

	var (
		src                     Source
		videoURL, desc, srcDesc sql.NullString
		segmentsJSON            sql.NullString
		duration                sql.NullFloat64
		created, updated        string
	)
	err := row.Scan(&src.ID, &src.SessionID, &videoURL, &src.Title, &desc, &srcDesc,
		&duration, &segmentsJSON, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}
	src.VideoURL = videoURL.String
	src.Description = desc.String
	src.SourceDescription = srcDesc.String
	if duration.Valid {
		d := duration.Float64
		src.TotalDurationSeconds = &d
	}
	if segmentsJSON.Valid && strings.TrimSpace(segmentsJSON.String) != "" {
		if err := json.Unmarshal([]byte(segmentsJSON.String), &src.Segments); err != nil {
			return nil, fmt.Errorf("decode segments: %w", err)
		}
	}
	src.CreatedAt = parseTime(created)
	src.UpdatedAt = parseTime(updated)
	return &src, nil
}

// SaveTranscript stores the acquired segments on the source.
func (s *Store) SaveTranscript(ctx context.Context, sourceID string, segments []transcript.Segment) error {
	encoded, err := json.Marshal(segments)
	if err != nil {
		return fmt.Errorf("encode segments: %w", err)
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE sources SET segments_json = ?, updated_at = ? WHERE id = ?`,
		string(encoded), s.timestamp(), sourceID)
	if err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}
	return requireRow(res, sourceID)
}

// SaveA1Metadata mirrors the A1 stage output onto the source. Blank fields
// leave the stored values untouched.
func (s *Store) SaveA1Metadata(ctx context.Context, sourceID string, meta A1Metadata) error {
	var segments sql.NullString
	if len(meta.Segments) > 0 {
		encoded, err := json.Marshal(meta.Segments)
		if err != nil {
			return fmt.Errorf("encode segments: %w", err)
		}
		segments = sql.NullString{String: string(encoded), Valid: true}
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE sources SET
		    title = COALESCE(?, title),
		    description = COALESCE(?, description),
		    source_description = COALESCE(?, source_description),
		    total_duration_seconds = COALESCE(?, total_duration_seconds),
		    segments_json = COALESCE(?, segments_json),
		    updated_at = ?
		  WHERE id = ?`,
		nullableString(meta.Title), nullableString(meta.VideoDescription), nullableString(meta.SourceDescription),
		nullableFloat(meta.TotalDurationSeconds), segments, s.timestamp(), sourceID)
	if err != nil {
		return fmt.Errorf("save a1 metadata: %w", err)
	}
	return requireRow(res, sourceID)
}

// PersistStageOutput stores a stage result verbatim, replacing any earlier
// output of the same stage.
func (s *Store) PersistStageOutput(ctx context.Context, sourceID, stage string, payload json.RawMessage) error {
	if !json.Valid(payload) {
		return fmt.Errorf("persist %s output: payload is not valid JSON", stage)
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO stage_outputs (source_id, stage, payload_json, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(source_id, stage) DO UPDATE SET payload_json = excluded.payload_json, created_at = excluded.created_at`,
		sourceID, stage, string(payload), s.timestamp())
	if err != nil {
		return fmt.Errorf("persist %s output: %w", stage, err)
	}
	return nil
}

// StageOutputs returns every persisted stage output for the source ordered by
// creation time.
func (s *Store) StageOutputs(ctx context.Context, sourceID string) ([]StageOutput, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT stage, payload_json, created_at FROM stage_outputs WHERE source_id = ? ORDER BY created_at, stage`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("stage outputs: %w", err)
	}
	defer rows.Close()

	var out []StageOutput
	for rows.Next() {
		var stage, payload, created string
		if err := rows.Scan(&stage, &payload, &created); err != nil {
			return nil, fmt.Errorf("scan stage output: %w", err)
		}
		out = append(out, StageOutput{Stage: stage, Payload: json.RawMessage(payload), CreatedAt: parseTime(created)})
	}
	return out, rows.Err()
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: source %s", ErrNotFound, id)
	}
	return nil
}
