package handler

import (
	"context"
	"strings"

	"vocabsrs/internal/domain"
	"vocabsrs/internal/session"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// handleText handles all text messages based on state
func (h *Handler) handleText(c tele.Context) error {
	userID := c.Sender().ID
	text := strings.TrimSpace(c.Text())
	ctx := context.Background()

	// Ignore commands (starting with /)
	if strings.HasPrefix(text, "/") {
		return nil
	}

	// Ensure learner exists
	if err := h.authService.EnsureLearnerExists(ctx, userID); err != nil {
		h.logger.Error("Failed to ensure learner exists", zap.Error(err))
		return nil
	}

	// Check authorization first
	authorized, err := h.authService.IsAuthorized(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to check authorization", zap.Error(err))
		return c.Send(msgError)
	}

	// If not authorized, check password
	if !authorized {
		if !h.authService.CheckPassword(text) {
			return c.Send(msgWrongPass)
		}

		if err := h.authService.AuthorizeLearner(ctx, userID); err != nil {
			h.logger.Error("Failed to authorize learner", zap.Error(err))
			return c.Send(msgError)
		}

		h.logger.Info("Learner authorized", zap.Int64("user_id", userID))
		h.ResetState(userID)
		return c.Send(msgAccessGiven, mainMenuMarkup())
	}

	unlock := h.lockUser(userID)
	defer unlock()

	state := h.GetState(userID)
	if state.State != domain.StateWaitingAnswer || state.Session == nil {
		return c.Send(msgUseMenu, mainMenuMarkup())
	}

	s, err := session.SubmitAnswer(*state.Session, text)
	if err != nil {
		h.logger.Debug("Typed answer not accepted",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return c.Send(msgUseMenu, mainMenuMarkup())
	}

	return h.showAnswer(c, userID, s)
}
