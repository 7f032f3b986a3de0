package xfyun

// State tracks an ASR task through the remote protocol.
type State string

const (
	StateNew        State = "new"
	StateRegistered State = "registered"
	StateUploading  State = "uploading"
	StateMerged     State = "merged"
	StatePolling    State = "polling"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Task is the transient record of one remote transcription. It only lives
// for the duration of Client.Transcribe.
type Task struct {
	TaskID         string
	FileName       string
	TotalBytes     int64
	SliceCount     int64
	BytesUploaded  int64
	LastPollStatus int
	Polls          int
	State          State
}

const (
	progressCompleted = 9
)

type progressClass int

const (
	progressInFlight progressClass = iota
	progressDone
	progressFailed
	progressUnknown
)

func classifyProgress(status int) progressClass {
	switch {
	case status >= 0 && status <= 5:
		return progressInFlight
	case status == progressCompleted:
		return progressDone
	case status == -1, status == 6, status == 7, status == 8:
		return progressFailed
	default:
		return progressUnknown
	}
}
