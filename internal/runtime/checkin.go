package runtime

import (
	"github.com/HarithHaroon/voice-command-agent-sub000/pkg/channel"
)

// handleEmotion runs the emotion check-in side flow. A detected emotion
// prompts the assistant to ask a check-in question; the next user turn is
// captured as the answer and pushed back to the client attached to the
// original event. Check-ins are suppressed mid-handoff and while a
// previous check-in is still awaiting its answer.
func (s *Session) handleEmotion(ev channel.EmotionEvent) {
	if s.state.Transitioning() {
		s.metrics.CheckInsDroppedTotal.Inc()
		s.logger.Debug().
			Str("emotion", ev.EmotionType).
			Msg("Handoff in progress, check-in suppressed")
		return
	}

	s.checkinMu.Lock()
	if s.awaitingCheckIn {
		s.checkinMu.Unlock()
		s.metrics.CheckInsDroppedTotal.Inc()
		s.logger.Debug().
			Str("emotion", ev.EmotionType).
			Msg("Check-in already awaiting an answer, new event dropped")
		return
	}
	event := ev
	s.pendingCheckIn = &event
	s.awaitingCheckIn = true
	s.checkinMu.Unlock()

	question := ev.CheckInMessage
	if question == "" {
		question = "I noticed you might not be feeling your best. How are you doing right now?"
	}

	s.metrics.CheckInsTotal.Inc()
	s.logger.Info().
		Str("emotion", ev.EmotionType).
		Str("severity", ev.Severity).
		Msg("Emotion detected, checking in")
	s.Speak(question)
}

// captureCheckInResponse consumes a user turn as the answer to a pending
// check-in. Returns true when the turn was captured.
func (s *Session) captureCheckInResponse(userText string) bool {
	s.checkinMu.Lock()
	defer s.checkinMu.Unlock()

	if !s.awaitingCheckIn || s.pendingCheckIn == nil {
		return false
	}

	update := channel.UpdateEmotionEvent{
		Type:          channel.TypeUpdateEmotionEvent,
		Timestamp:     s.pendingCheckIn.Timestamp,
		AgentQuestion: s.pendingCheckIn.CheckInMessage,
		UserResponse:  userText,
	}
	if err := s.server.Send(update); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to push check-in answer to client")
	}

	s.pendingCheckIn = nil
	s.awaitingCheckIn = false
	s.metrics.CheckInResponsesTotal.Inc()
	return true
}
