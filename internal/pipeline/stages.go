package pipeline

import (
	"context"
	"fmt"

	"lectern/internal/logging"
	"lectern/internal/session"
	"lectern/internal/stageexec"
	"lectern/internal/stages"
	"lectern/internal/transcript"
)

// runStages runs A1, A2, B and D strictly in order. Each output is persisted
// before the next stage starts and feeds the stages after it.
func (r *run) runStages(ctx context.Context, segments []transcript.Segment) error {
	in := stages.Input{
		SessionID:         r.req.SessionID,
		VideoID:           r.req.SourceID,
		Title:             r.req.Title,
		SourceDescription: r.req.SourceDescription,
		Segments:          segments,
	}
	for _, name := range stages.Order {
		out, err := stageexec.Run(ctx, stageexec.Options{
			Logger:    r.driver.logger,
			Store:     r.driver.store,
			Processor: r.driver.stages.Get(name),
			Stage:     name,
			SessionID: r.req.SessionID,
			SourceID:  r.req.SourceID,
			Input:     in,
		})
		if err != nil {
			return err
		}
		switch name {
		case stages.A1:
			in.A1 = out
			if err := r.saveA1Metadata(ctx, out); err != nil {
				return err
			}
		case stages.A2:
			in.A2 = out
		case stages.B:
			in.B = out
		}
	}
	return nil
}

func (r *run) saveA1Metadata(ctx context.Context, out []byte) error {
	res, err := stages.ParseA1(out)
	if err != nil {
		logging.WarnWithContext(r.logger, "a1 metadata unreadable; source keeps submitted values", "a1_metadata",
			logging.Error(err),
			logging.String(logging.FieldImpact, "source title and description not updated"),
		)
		return nil
	}
	meta := session.A1Metadata{
		Title:                res.Title,
		VideoDescription:     res.VideoDescription,
		SourceDescription:    res.SourceDescription,
		TotalDurationSeconds: res.TotalDurationSeconds,
		Segments:             res.Segments,
	}
	if err := r.driver.store.SaveA1Metadata(ctx, r.req.SourceID, meta); err != nil {
		return fmt.Errorf("save a1 metadata: %w", err)
	}
	return nil
}
