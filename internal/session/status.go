package session

import (
	"errors"
	"slices"
)

// Status is the coarse progress value recorded for a session.
type Status string

const (
	StatusInitiated Status = "processing_initiated"

	StatusVideoStarted      Status = "bili_processing_started"
	StatusDownloadActive    Status = "bili_download_active"
	StatusDownloadDone      Status = "bili_download_success"
	StatusExtractionActive  Status = "bili_audio_extraction_active"
	StatusExtractionDone    Status = "bili_audio_extraction_success"
	StatusASRActive         Status = "bili_asr_active"
	StatusASRDone           Status = "bili_asr_success"
	StatusTranscriptStarted Status = "transcript_processing_started"

	StatusA1Active Status = "a1_preprocessing_active"
	StatusA1Done   Status = "a1_preprocessing_complete"
	StatusA2Active Status = "a2_extraction_active"
	StatusA2Done   Status = "a2_extraction_complete"
	StatusBActive  Status = "note_generation_active"
	StatusBDone    Status = "note_generation_complete"
	StatusDActive  Status = "knowledge_cues_generation_active"
	StatusDDone    Status = "knowledge_cues_generation_complete"

	StatusComplete Status = "all_processing_complete"

	StatusErrorNoValidInput     Status = "error_no_valid_input"
	StatusErrorDownloadTool     Status = "error_bili_download_yt_dlp_failed"
	StatusErrorDownloadMissing  Status = "error_bili_download_file_missing"
	StatusErrorDownload         Status = "error_bili_download"
	StatusErrorAudioExtraction  Status = "error_audio_extraction"
	StatusErrorASRMisconfigured Status = "error_asr_misconfigured"
	StatusErrorASRFailed        Status = "error_bili_asr_failed"
	StatusErrorA1               Status = "error_in_a1_llm"
	StatusErrorA2               Status = "error_in_a2_llm"
	StatusErrorB                Status = "error_in_b_llm"
	StatusErrorD                Status = "error_in_d_llm"
	StatusErrorPipeline         Status = "error_pipeline_failed"
)

// Phase groups statuses into the coarse lifecycle of a session.
type Phase string

const (
	PhaseInitial     Phase = "initial"
	PhaseAcquisition Phase = "acquisition"
	PhaseGeneration  Phase = "generation"
	PhaseTerminal    Phase = "terminal"
)

var (
	// ErrInvalidTransition is returned when a status write is not allowed from the current status.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrTerminal is returned when a write targets a session that already reached a terminal status.
	ErrTerminal = errors.New("session already terminal")
	// ErrUnknownStatus is returned for values outside the status set.
	ErrUnknownStatus = errors.New("unknown status")
)

var phases = map[Status]Phase{
	StatusInitiated: PhaseInitial,

	StatusVideoStarted:      PhaseAcquisition,
	StatusDownloadActive:    PhaseAcquisition,
	StatusDownloadDone:      PhaseAcquisition,
	StatusExtractionActive:  PhaseAcquisition,
	StatusExtractionDone:    PhaseAcquisition,
	StatusASRActive:         PhaseAcquisition,
	StatusASRDone:           PhaseAcquisition,
	StatusTranscriptStarted: PhaseAcquisition,

	StatusA1Active: PhaseGeneration,
	StatusA1Done:   PhaseGeneration,
	StatusA2Active: PhaseGeneration,
	StatusA2Done:   PhaseGeneration,
	StatusBActive:  PhaseGeneration,
	StatusBDone:    PhaseGeneration,
	StatusDActive:  PhaseGeneration,
	StatusDDone:    PhaseGeneration,

	StatusComplete:              PhaseTerminal,
	StatusErrorNoValidInput:     PhaseTerminal,
	StatusErrorDownloadTool:     PhaseTerminal,
	StatusErrorDownloadMissing:  PhaseTerminal,
	StatusErrorDownload:         PhaseTerminal,
	StatusErrorAudioExtraction:  PhaseTerminal,
	StatusErrorASRMisconfigured: PhaseTerminal,
	StatusErrorASRFailed:        PhaseTerminal,
	StatusErrorA1:               PhaseTerminal,
	StatusErrorA2:               PhaseTerminal,
	StatusErrorB:                PhaseTerminal,
	StatusErrorD:                PhaseTerminal,
	StatusErrorPipeline:         PhaseTerminal,
}

// transitions lists the successors of every non-terminal status. Every
// non-terminal status may additionally move to StatusErrorPipeline.
var transitions = map[Status][]Status{
	StatusInitiated:         {StatusVideoStarted, StatusTranscriptStarted, StatusErrorNoValidInput},
	StatusVideoStarted:      {StatusDownloadActive},
	StatusDownloadActive:    {StatusDownloadDone, StatusErrorDownloadTool, StatusErrorDownloadMissing, StatusErrorDownload},
	StatusDownloadDone:      {StatusExtractionActive},
	StatusExtractionActive:  {StatusExtractionDone, StatusErrorAudioExtraction},
	StatusExtractionDone:    {StatusASRActive},
	StatusASRActive:         {StatusASRDone, StatusErrorASRMisconfigured, StatusErrorASRFailed},
	StatusASRDone:           {StatusA1Active},
	StatusTranscriptStarted: {StatusA1Active, StatusErrorNoValidInput},
	StatusA1Active:          {StatusA1Done, StatusErrorA1},
	StatusA1Done:            {StatusA2Active},
	StatusA2Active:          {StatusA2Done, StatusErrorA2},
	StatusA2Done:            {StatusBActive},
	StatusBActive:           {StatusBDone, StatusErrorB},
	StatusBDone:             {StatusDActive},
	StatusDActive:           {StatusDDone, StatusErrorD},
	StatusDDone:             {StatusComplete},
}

// AllStatuses returns every known status in lifecycle order.
func AllStatuses() []Status {
	return []Status{
		StatusInitiated,
		StatusVideoStarted, StatusDownloadActive, StatusDownloadDone,
		StatusExtractionActive, StatusExtractionDone, StatusASRActive, StatusASRDone,
		StatusTranscriptStarted,
		StatusA1Active, StatusA1Done, StatusA2Active, StatusA2Done,
		StatusBActive, StatusBDone, StatusDActive, StatusDDone,
		StatusComplete,
		StatusErrorNoValidInput, StatusErrorDownloadTool, StatusErrorDownloadMissing, StatusErrorDownload,
		StatusErrorAudioExtraction, StatusErrorASRMisconfigured, StatusErrorASRFailed,
		StatusErrorA1, StatusErrorA2, StatusErrorB, StatusErrorD, StatusErrorPipeline,
	}
}

// ParseStatus validates a raw status string.
func ParseStatus(raw string) (Status, bool) {
	s := Status(raw)
	_, ok := phases[s]
	return s, ok
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := phases[s]
	return ok
}

// Phase returns the lifecycle phase of s. Unknown values report PhaseTerminal
// so callers never keep writing to a session in an unrecognized state.
func (s Status) Phase() Phase {
	if p, ok := phases[s]; ok {
		return p
	}
	return PhaseTerminal
}

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s.Phase() == PhaseTerminal
}

// IsError reports whether s is one of the error statuses.
func (s Status) IsError() bool {
	return s.IsTerminal() && s != StatusComplete
}

// CanTransition reports whether a session may move from -> to.
func CanTransition(from, to Status) bool {
	if !from.Valid() || !to.Valid() || from.IsTerminal() {
		return false
	}
	if to == StatusErrorPipeline {
		return true
	}
	return slices.Contains(transitions[from], to)
}
