package handler

import (
	"context"

	"vocabsrs/internal/domain"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const (
	msgError        = "Something went wrong. Please try again later."
	msgAskPassword  = "Hi! This bot is private. Send the password to continue:"
	msgMainMenu     = "🏠 Main menu\n\nChoose what to do:"
	msgAccessGiven  = "✅ Access granted!\n\n" + msgMainMenu
	msgWrongPass    = "Wrong password"
	msgUseMenu      = "Use the menu below to start a review."
	msgNoSession    = "No review in progress."
	msgShowFirst    = "Show the answer first"
	msgRetrySave    = "Could not save your rating. Tap it again to retry."
	msgNothingDue   = "🎉 Nothing to review right now."
	msgNothingCram  = "No vocabulary to cram yet."
	msgQueueFailure = "Could not load your cards. Please try again."
)

// handleStart handles /start command
func (h *Handler) handleStart(c tele.Context) error {
	userID := c.Sender().ID
	ctx := context.Background()

	h.logger.Info("User started bot",
		zap.Int64("user_id", userID),
		zap.String("username", c.Sender().Username),
	)

	// Ensure learner exists in database
	if err := h.authService.EnsureLearnerExists(ctx, userID); err != nil {
		h.logger.Error("Failed to ensure learner exists", zap.Error(err))
		return c.Send(msgError)
	}

	// Check if authorized
	authorized, err := h.authService.IsAuthorized(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to check authorization", zap.Error(err))
		return c.Send(msgError)
	}

	if !authorized {
		// Request password
		h.SetState(userID, ChatState{State: domain.StateWaitingPassword})
		return c.Send(msgAskPassword)
	}

	// Leaving for the menu ends any running session
	h.abandonSession(userID)
	return h.reply(c, userID, msgMainMenu, mainMenuMarkup())
}

// handleStats shows progress counts and the upcoming week
func (h *Handler) handleStats(c tele.Context) error {
	userID := c.Sender().ID
	ctx := context.Background()

	stats, err := h.stats.Stats(ctx, userID, nil)
	if err != nil {
		h.logger.Error("Failed to load stats", zap.Int64("user_id", userID), zap.Error(err))
		return h.fail(c, msgError)
	}
	days, err := h.stats.Forecast(ctx, userID, forecastDays)
	if err != nil {
		h.logger.Error("Failed to load forecast", zap.Int64("user_id", userID), zap.Error(err))
		return h.fail(c, msgError)
	}

	return h.reply(c, userID, formatProgress(stats, days, h.reviews.Now()), backMarkup())
}
