package stages

import (
	"context"
	"encoding/json"

	"lectern/internal/transcript"
)

// Name identifies one generation stage.
type Name string

const (
	A1 Name = "a1"
	A2 Name = "a2"
	B  Name = "b"
	D  Name = "d"
)

// Order lists the stages in execution order.
var Order = []Name{A1, A2, B, D}

// Input carries everything a stage may consume. Prior stage outputs are
// passed verbatim as persisted.
type Input struct {
	SessionID         string
	VideoID           string
	Title             string
	SourceDescription string
	Segments          []transcript.Segment
	A1                json.RawMessage
	A2                json.RawMessage
	B                 json.RawMessage
}

// Processor turns an Input into one stage output.
type Processor interface {
	Process(ctx context.Context, in Input) (json.RawMessage, error)
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, in Input) (json.RawMessage, error)

// Process calls f.
func (f ProcessorFunc) Process(ctx context.Context, in Input) (json.RawMessage, error) {
	return f(ctx, in)
}

// Set holds one processor per stage.
type Set struct {
	A1 Processor
	A2 Processor
	B  Processor
	D  Processor
}

// Get returns the processor registered for name.
func (s Set) Get(name Name) Processor {
	switch name {
	case A1:
		return s.A1
	case A2:
		return s.A2
	case B:
		return s.B
	case D:
		return s.D
	default:
		return nil
	}
}

// Health summarizes the readiness of the generation stages.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy constructs a ready Health record.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy constructs an unhealthy Health record with context detail.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}
