package handler

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"vocabsrs/internal/domain"
	"vocabsrs/internal/metrics"
	"vocabsrs/internal/session"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// cleanCallbackData removes all non-printable characters from callback data
func cleanCallbackData(data string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, strings.TrimSpace(data))
}

// handleEditError handles errors from c.Edit() - if message is not modified, just acknowledge callback
// Otherwise, acknowledge callback and return error so caller can send new message
func (h *Handler) handleEditError(err error, c tele.Context, userID int64) error {
	if err == nil {
		return nil
	}

	// Already edited by another callback
	if strings.Contains(err.Error(), "message is not modified") {
		h.logger.Debug("Message already modified by another callback, acknowledging",
			zap.Int64("user_id", userID),
			zap.String("callback_id", c.Callback().ID),
		)
		_ = c.Respond()
		return nil
	}

	h.logger.Warn("Failed to edit message, sending new",
		zap.Error(err),
		zap.Int64("user_id", userID),
		zap.String("callback_id", c.Callback().ID),
	)
	// Always acknowledge callback before sending new message
	if ackErr := c.Respond(); ackErr != nil {
		h.logger.Warn("Failed to acknowledge callback", zap.Error(ackErr))
	}
	return err
}

// reply edits the message behind a callback, or sends a new one for commands
func (h *Handler) reply(c tele.Context, userID int64, text string, markup *tele.ReplyMarkup) error {
	if c.Callback() == nil {
		return c.Send(text, markup)
	}
	if err := c.Edit(text, markup); err != nil {
		if handleErr := h.handleEditError(err, c, userID); handleErr == nil {
			return nil
		}
		return c.Send(text, markup)
	}
	return c.Respond()
}

// fail reports an error as an alert on callbacks and as a message otherwise
func (h *Handler) fail(c tele.Context, text string) error {
	if c.Callback() == nil {
		return c.Send(text)
	}
	return c.Respond(&tele.CallbackResponse{Text: text, ShowAlert: true})
}

// handleCallback handles ALL callback queries
func (h *Handler) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		h.logger.Warn("handleCallback: callback is nil")
		return nil
	}

	// Clean data from all non-printable characters
	data := cleanCallbackData(callback.Data)
	h.logger.Debug("handleCallback: Processing callback",
		zap.String("data", data),
		zap.String("id", callback.ID),
		zap.String("unique", callback.Unique),
		zap.Int64("user_id", c.Sender().ID),
	)

	unique := callback.Unique
	if unique == "" {
		// Buttons whose unique did not come through carry it in the data
		unique, data, _ = strings.Cut(data, "|")
	}

	switch unique {
	case btnReviewDue.Unique:
		return h.handleReviewDue(c)
	case btnCram.Unique:
		return h.handleCram(c)
	case btnReverse.Unique:
		return h.handleReverse(c)
	case btnStats.Unique:
		return h.handleStats(c)
	case btnShowAnswer.Unique:
		return h.handleShowAnswer(c)
	case btnRate.Unique:
		return h.rate(c, data)
	case btnEndSession.Unique:
		return h.handleEndSession(c)
	case btnMainMenu.Unique:
		return h.handleStart(c)
	}

	// If it's not handled, acknowledge it anyway
	h.logger.Warn("Unhandled callback in handleCallback",
		zap.String("data", data),
		zap.String("unique", callback.Unique),
	)
	return c.Respond()
}

func (h *Handler) handleReviewDue(c tele.Context) error {
	return h.startSession(c, session.Options{Mode: session.ModeSRS, Direction: session.DirectionForward})
}

func (h *Handler) handleCram(c tele.Context) error {
	return h.startSession(c, session.Options{Mode: session.ModeCram, Direction: session.DirectionForward})
}

func (h *Handler) handleReverse(c tele.Context) error {
	return h.startSession(c, session.Options{Mode: session.ModeSRS, Direction: session.DirectionReverse})
}

// startSession snapshots a queue and shows its first card
func (h *Handler) startSession(c tele.Context, opts session.Options) error {
	userID := c.Sender().ID
	unlock := h.lockUser(userID)
	defer unlock()

	h.abandonSession(userID)

	opts.Limit = h.sessionLimit
	now := h.reviews.Now()
	s, err := session.Start(context.Background(), session.New(userID, opts), h.reviews, now)
	if err != nil {
		h.logger.Error("Failed to start session",
			zap.Int64("user_id", userID),
			zap.Stringer("mode", opts.Mode),
			zap.Error(err),
		)
		return h.fail(c, msgQueueFailure)
	}

	if s.State == session.StateComplete {
		text := msgNothingDue
		if opts.Mode == session.ModeCram {
			text = msgNothingCram
		}
		return h.reply(c, userID, text, mainMenuMarkup())
	}

	h.logger.Info("Session started",
		zap.Int64("user_id", userID),
		zap.String("session_id", s.ID.String()),
		zap.Stringer("mode", opts.Mode),
		zap.Stringer("direction", opts.Direction),
		zap.Int("cards", len(s.Cards)),
	)
	return h.showPrompt(c, userID, s, "")
}

// showPrompt stores the session and shows the unflipped current card
func (h *Handler) showPrompt(c tele.Context, userID int64, s session.Session, notice string) error {
	state := domain.StateReviewing
	if s.Options.Direction == session.DirectionReverse {
		state = domain.StateWaitingAnswer
	}
	h.SetState(userID, ChatState{State: state, Session: &s, LastActive: h.reviews.Now()})

	card, _ := s.Current()
	return h.reply(c, userID, notice+formatPrompt(s, card), promptMarkup())
}

// showAnswer stores the session and shows the flipped current card
func (h *Handler) showAnswer(c tele.Context, userID int64, s session.Session) error {
	h.SetState(userID, ChatState{State: domain.StateReviewing, Session: &s, LastActive: h.reviews.Now()})

	card, _ := s.Current()
	return h.reply(c, userID, formatAnswer(s, card), ratingMarkup())
}

// handleShowAnswer flips the current card
func (h *Handler) handleShowAnswer(c tele.Context) error {
	userID := c.Sender().ID
	unlock := h.lockUser(userID)
	defer unlock()

	state := h.GetState(userID)
	if state.Session == nil {
		return h.reply(c, userID, msgNoSession, mainMenuMarkup())
	}

	s, err := session.Flip(*state.Session)
	if err != nil {
		return h.reply(c, userID, msgNoSession, mainMenuMarkup())
	}
	return h.showAnswer(c, userID, s)
}

func (h *Handler) handleRate(c tele.Context) error {
	return h.rate(c, cleanCallbackData(c.Callback().Data))
}

// rate records the rating of the current card and moves on
func (h *Handler) rate(c tele.Context, data string) error {
	userID := c.Sender().ID
	unlock := h.lockUser(userID)
	defer unlock()

	rating, err := domain.ParseRating(data)
	if err != nil {
		h.logger.Warn("Invalid rating callback", zap.String("data", data))
		return c.Respond()
	}

	state := h.GetState(userID)
	if state.Session == nil {
		return h.reply(c, userID, msgNoSession, mainMenuMarkup())
	}

	now := h.reviews.Now()
	s, err := session.Rate(context.Background(), *state.Session, h.reviews, rating, now)
	switch {
	case errors.Is(err, session.ErrNotFlipped):
		return h.fail(c, msgShowFirst)
	case err != nil:
		h.logger.Error("Failed to record rating",
			zap.Int64("user_id", userID),
			zap.String("session_id", s.ID.String()),
			zap.Error(err),
		)
		// The card stays flipped so the same button retries with the same review time
		h.SetState(userID, ChatState{State: state.State, Session: &s, LastActive: h.reviews.Now()})
		return h.fail(c, msgRetrySave)
	}

	if s.State == session.StateComplete {
		return h.finishSession(c, userID, s, metrics.OutcomeCompleted)
	}

	notice := ""
	if rated := s.Cards[s.Cursor-1]; rated.Result != nil {
		notice = formatSaved(rated.Result.NextReviewDate, now)
	}
	return h.showPrompt(c, userID, s, notice)
}

// handleEndSession abandons the running session and shows what was done
func (h *Handler) handleEndSession(c tele.Context) error {
	userID := c.Sender().ID
	unlock := h.lockUser(userID)
	defer unlock()

	state := h.GetState(userID)
	if state.Session == nil {
		return h.reply(c, userID, msgMainMenu, mainMenuMarkup())
	}

	s := session.Abandon(*state.Session, h.reviews.Now())
	return h.finishSession(c, userID, s, metrics.OutcomeAbandoned)
}

// finishSession shows the summary of a completed session
func (h *Handler) finishSession(c tele.Context, userID int64, s session.Session, outcome string) error {
	h.ResetState(userID)
	metrics.SessionsTotal.WithLabelValues(outcome).Inc()

	h.logger.Info("Session finished",
		zap.Int64("user_id", userID),
		zap.String("session_id", s.ID.String()),
		zap.String("outcome", outcome),
		zap.Int("reviewed", s.Stats.Reviewed),
		zap.Int("accuracy", s.Stats.Accuracy()),
	)
	return h.reply(c, userID, formatSummary(s), mainMenuMarkup())
}
