package channel

import (
	"encoding/json"

	"github.com/rs/zerolog"
)

// Handlers holds the callbacks the router dispatches into. Nil handlers are
// skipped; the message is logged and dropped.
type Handlers struct {
	SessionInit func(SessionInit)
	ToolResult  func(ToolResult)
	Emotion     func(EmotionEvent)
}

// Router demultiplexes inbound channel payloads by their "type" field.
// Decoding is defensive: a malformed payload is logged and dropped, it never
// propagates an error back to the transport and never closes the channel.
type Router struct {
	handlers Handlers
	logger   zerolog.Logger
}

// NewRouter creates an inbound message router.
func NewRouter(handlers Handlers, logger zerolog.Logger) *Router {
	return &Router{
		handlers: handlers,
		logger:   logger,
	}
}

// HandleRaw parses a raw inbound payload and invokes the matching handler.
func (r *Router) HandleRaw(data []byte) {
	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		r.logger.Warn().Err(err).Msg("Dropping malformed inbound message")
		return
	}

	switch envelope.Type {
	case TypeSessionInit:
		var msg SessionInit
		if err := json.Unmarshal(data, &msg); err != nil {
			r.logger.Warn().Err(err).Msg("Dropping malformed session_init")
			return
		}
		if r.handlers.SessionInit == nil {
			r.logger.Debug().Msg("No session_init handler registered")
			return
		}
		r.handlers.SessionInit(msg)

	case TypeToolResult:
		var msg ToolResult
		if err := json.Unmarshal(data, &msg); err != nil {
			r.logger.Warn().Err(err).Msg("Dropping malformed tool_result")
			return
		}
		if r.handlers.ToolResult == nil {
			r.logger.Debug().Str("requestId", msg.RequestID).Msg("No tool_result handler registered")
			return
		}
		r.handlers.ToolResult(msg)

	case TypeEmotionDetected:
		var msg EmotionEvent
		if err := json.Unmarshal(data, &msg); err != nil {
			r.logger.Warn().Err(err).Msg("Dropping malformed emotion_detected")
			return
		}
		if r.handlers.Emotion == nil {
			r.logger.Debug().Msg("No emotion handler registered")
			return
		}
		r.handlers.Emotion(msg)

	default:
		r.logger.Info().Str("type", envelope.Type).Msg("Ignoring inbound message type")
	}
}
