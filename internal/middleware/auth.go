package middleware

import (
	"context"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const (
	msgError       = "Something went wrong. Please try again later."
	msgAskPassword = "Hi! This bot is private. Send the password to continue:"
)

// Authorizer decides who may use the bot
type Authorizer interface {
	EnsureLearnerExists(ctx context.Context, learnerID int64) error
	IsAuthorized(ctx context.Context, learnerID int64) (bool, error)
}

// AuthMiddleware creates authentication middleware.
// Plain text always passes so the password can be typed.
func AuthMiddleware(auth Authorizer, logger *zap.Logger) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Sender() == nil {
				return nil
			}
			userID := c.Sender().ID
			ctx := context.Background()

			// Ensure learner exists
			if err := auth.EnsureLearnerExists(ctx, userID); err != nil {
				logger.Error("Failed to ensure learner exists in middleware", zap.Error(err))
				return c.Send(msgError)
			}

			// Check authorization
			authorized, err := auth.IsAuthorized(ctx, userID)
			if err != nil {
				logger.Error("Failed to check authorization in middleware", zap.Error(err))
				return c.Send(msgError)
			}

			if authorized || isPasswordAttempt(c) {
				return next(c)
			}

			logger.Debug("Unauthorized update blocked", zap.Int64("user_id", userID))
			if c.Callback() != nil {
				return c.Respond(&tele.CallbackResponse{Text: msgAskPassword, ShowAlert: true})
			}
			return c.Send(msgAskPassword)
		}
	}
}

// isPasswordAttempt lets /start and plain text through to the password flow
func isPasswordAttempt(c tele.Context) bool {
	if c.Callback() != nil || c.Message() == nil {
		return false
	}
	text := c.Text()
	return text == "/start" || (text != "" && text[0] != '/')
}
