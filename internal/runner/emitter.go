package runner

import (
	"context"

	"github.com/Vansh-04/buildfirst/internal/artifact"
)

// RunEventType classifies a pipeline event.
type RunEventType int

const (
	EventTypeUnspecified RunEventType = iota
	EventTypeStageStart
	EventTypeStageDone
	EventTypeHeal
	EventTypeComplete
	EventTypeError
)

// RunEvent carries the run status as of the event.
type RunEvent struct {
	Type    RunEventType
	Stage   string
	Message string
	Status  artifact.RunStatus
}

// RunEventEmitter receives events while a run executes.
type RunEventEmitter interface {
	Emit(event RunEvent)
}

type emitterKey struct{}

// WithEmitter attaches an emitter to the context.
func WithEmitter(ctx context.Context, emitter RunEventEmitter) context.Context {
	return context.WithValue(ctx, emitterKey{}, emitter)
}

// EmitterFrom retrieves the emitter from context, or returns a no-op emitter.
func EmitterFrom(ctx context.Context) RunEventEmitter {
	if e, ok := ctx.Value(emitterKey{}).(RunEventEmitter); ok {
		return e
	}
	return noopEmitter{}
}

type noopEmitter struct{}

func (noopEmitter) Emit(RunEvent) {}

// ChannelEmitter sends events to a channel without blocking the run.
type ChannelEmitter struct {
	Ch chan<- RunEvent
}

func (e *ChannelEmitter) Emit(event RunEvent) {
	select {
	case e.Ch <- event:
	default:
	}
}
