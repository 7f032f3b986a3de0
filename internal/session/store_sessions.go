package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// CreateSession inserts a session in StatusInitiated together with its source.
func (s *Store) CreateSession(ctx context.Context, req NewSession) (*Session, *Source, error) {
	now := s.timestamp()
	sess := &Session{ID: uuid.NewString(), Status: StatusInitiated}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = DefaultSourceTitle
	}
	src := &Source{
		ID:                uuid.NewString(),
		SessionID:         sess.ID,
		VideoURL:          strings.TrimSpace(req.VideoURL),
		Title:             title,
		SourceDescription: strings.TrimSpace(req.SourceDescription),
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (id, status, created_at, updated_at) VALUES (?, ?, ?, ?)`,
			sess.ID, string(sess.Status), now, now,
		); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sources (id, session_id, video_url, title, source_description, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			src.ID, src.SessionID, nullableString(src.VideoURL), src.Title, nullableString(src.SourceDescription), now, now,
		); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO status_history (session_id, status, recorded_at) VALUES (?, ?, ?)`,
			sess.ID, string(sess.Status), now,
		)
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create session: %w", err)
	}
	sess.CreatedAt = parseTime(now)
	sess.UpdatedAt = sess.CreatedAt
	src.CreatedAt = sess.CreatedAt
	src.UpdatedAt = sess.CreatedAt
	return sess, src, nil
}

// UpdateStatus records a non-error progress status.
func (s *Store) UpdateStatus(ctx context.Context, sessionID string, status Status) error {
	return s.transition(ctx, sessionID, status, "")
}

// RecordError records a terminal error status with a human readable cause.
func (s *Store) RecordError(ctx context.Context, sessionID string, status Status, message string) error {
	if !status.IsError() {
		return fmt.Errorf("%w: %s is not an error status", ErrInvalidTransition, status)
	}
	return s.transition(ctx, sessionID, status, message)
}

// transition applies one status write. It refuses writes to terminal
// sessions and writes outside the transition table.
func (s *Store) transition(ctx context.Context, sessionID string, to Status, message string) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, to)
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var current string
		err := tx.QueryRowContext(ctx, `SELECT status FROM sessions WHERE id = ?`, sessionID).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrNotFound, sessionID)
		}
		if err != nil {
			return err
		}
		from := Status(current)
		if from.IsTerminal() {
			return fmt.Errorf("%w: %s is %s", ErrTerminal, sessionID, from)
		}
		if !CanTransition(from, to) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
		}
		now := s.timestamp()
		res, err := tx.ExecContext(ctx,
			`UPDATE sessions SET status = ?, error_message = ?, updated_at = ? WHERE id = ? AND status = ?`,
			string(to), nullableString(message), now, sessionID, current,
		)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("%w: %s changed concurrently", ErrInvalidTransition, sessionID)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO status_history (session_id, status, message, recorded_at) VALUES (?, ?, ?, ?)`,
			sessionID, string(to), nullableString(message), now,
		)
		return err
	})
}

// GetSession returns the session or nil when it does not exist.
func (s *Store) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, error_message, created_at, updated_at FROM sessions WHERE id = ?`, sessionID)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// List returns sessions newest first, optionally filtered by status.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Session, error) {
	ctx = ensureContext(ctx)
	query := `SELECT id, status, error_message, created_at, updated_at FROM sessions`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, st := range statuses {
			placeholders[i] = "?"
			args = append(args, string(st))
		}
		query += ` WHERE status IN (` + strings.Join(placeholders, ",") + `)`
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// History returns every accepted status write for the session, oldest first.
func (s *Store) History(ctx context.Context, sessionID string) ([]HistoryEntry, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, message, recorded_at FROM status_history WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("status history: %w", err)
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var (
			status, recorded string
			message          sql.NullString
		)
		if err := rows.Scan(&status, &message, &recorded); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, HistoryEntry{Status: Status(status), Message: message.String, RecordedAt: parseTime(recorded)})
	}
	return out, rows.Err()
}

// FailInterrupted moves every non-terminal session to StatusErrorPipeline.
// Sessions for which live reports true are left alone.
// The daemon calls it on start-up: runs never resume, so anything still
// active belonged to a process that exited mid-run.
func (s *Store) FailInterrupted(ctx context.Context, live func(sessionID string) bool) (int64, error) {
	var active []Status
	for _, st := range AllStatuses() {
		if !st.IsTerminal() {
			active = append(active, st)
		}
	}
	sessions, err := s.List(ctx, active...)
	if err != nil {
		return 0, err
	}
	var failed int64
	for _, sess := range sessions {
		if live != nil && live(sess.ID) {
			continue
		}
		err := s.RecordError(ctx, sess.ID, StatusErrorPipeline, "interrupted: process exited before the run finished")
		if err != nil && !errors.Is(err, ErrTerminal) {
			return failed, err
		}
		if err == nil {
			failed++
		}
	}
	return failed, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	var (
		id, status, created, updated string
		message                      sql.NullString
	)
	if err := row.Scan(&id, &status, &message, &created, &updated); err != nil {
		return nil, err
	}
	return &Session{
		ID:           id,
		Status:       Status(status),
		ErrorMessage: message.String,
		CreatedAt:    parseTime(created),
		UpdatedAt:    parseTime(updated),
	}, nil
}
