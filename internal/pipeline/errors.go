package pipeline

import (
	"context"
	"errors"

	"lectern/internal/logging"
	"lectern/internal/media"
	"lectern/internal/services"
	"lectern/internal/session"
	"lectern/internal/stageexec"
)

var (
	// ErrInputValidation means the request carried no usable input.
	ErrInputValidation = errors.New("no valid input")
	// ErrASRMisconfigured means speech recognition cannot run without configuration.
	ErrASRMisconfigured = errors.New("speech recognition not configured")

	errDownload = errors.New("video download failed")
	errASR      = errors.New("speech recognition failed")
)

// StatusFor maps a run error to the terminal status recorded for it.
func StatusFor(err error) session.Status {
	var stageErr *stageexec.StageError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInputValidation):
		return session.StatusErrorNoValidInput
	case errors.Is(err, media.ErrDownloadTool):
		return session.StatusErrorDownloadTool
	case errors.Is(err, media.ErrDownloadMissing):
		return session.StatusErrorDownloadMissing
	case errors.Is(err, errDownload):
		return session.StatusErrorDownload
	case errors.Is(err, media.ErrExtraction):
		return session.StatusErrorAudioExtraction
	case errors.Is(err, ErrASRMisconfigured):
		return session.StatusErrorASRMisconfigured
	case errors.Is(err, errASR):
		return session.StatusErrorASRFailed
	case errors.As(err, &stageErr):
		return stageErr.Status
	default:
		return session.StatusErrorPipeline
	}
}

// fail records the terminal status for err. Only the first failure of a run
// is recorded and logged.
func (r *run) fail(ctx context.Context, err error) {
	if r.failed || err == nil {
		return
	}
	r.failed = true
	status := StatusFor(err)

	attrs := []logging.Attr{
		logging.String("resolved_status", string(status)),
		logging.String(logging.FieldErrorKind, services.Kind(err)),
		logging.String(logging.FieldErrorHint, services.Hint(err)),
		logging.Error(err),
	}
	var stageErr *stageexec.StageError
	if errors.As(err, &stageErr) {
		attrs = append(attrs, logging.String(logging.FieldStage, string(stageErr.Stage)))
	}
	logging.ErrorWithContext(r.logger, "session failed", "session_failure", attrs...)

	if recErr := r.driver.store.RecordError(ctx, r.req.SessionID, status, stageexec.Message(err)); recErr != nil {
		if errors.Is(recErr, session.ErrTerminal) {
			r.logger.Debug("session already terminal; failure not recorded", logging.Error(recErr))
			return
		}
		r.logger.Error("failed to record session failure", logging.Error(recErr))
	}
}
