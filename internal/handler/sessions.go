package handler

import (
	"time"

	"vocabsrs/internal/metrics"
	"vocabsrs/internal/session"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const forecastDays = 7

// abandonSession drops the chat's running session, if any
func (h *Handler) abandonSession(userID int64) {
	state := h.GetState(userID)
	h.ResetState(userID)
	if state.Session == nil {
		return
	}

	s := session.Abandon(*state.Session, h.reviews.Now())
	metrics.SessionsTotal.WithLabelValues(metrics.OutcomeAbandoned).Inc()
	h.logger.Info("Session abandoned",
		zap.Int64("user_id", userID),
		zap.String("session_id", s.ID.String()),
		zap.Int("reviewed", s.Stats.Reviewed),
	)
}

// ExpireIdle abandons sessions with no activity for longer than maxIdle
// and returns how many were dropped. Ratings already stored are kept.
func (h *Handler) ExpireIdle(now time.Time, maxIdle time.Duration) int {
	h.stateMux.RLock()
	var idle []int64
	for userID, state := range h.states {
		if state.Session != nil && now.Sub(state.LastActive) > maxIdle {
			idle = append(idle, userID)
		}
	}
	h.stateMux.RUnlock()

	expired := 0
	for _, userID := range idle {
		if h.expire(userID, now, maxIdle) {
			expired++
		}
	}
	return expired
}

// expire drops one chat's session under the chat lock. A transition that
// was running when the sweep started refreshes LastActive and wins.
func (h *Handler) expire(userID int64, now time.Time, maxIdle time.Duration) bool {
	unlock := h.lockUser(userID)
	defer unlock()

	state := h.GetState(userID)
	if state.Session == nil || now.Sub(state.LastActive) <= maxIdle {
		return false
	}
	h.ResetState(userID)

	s := session.Abandon(*state.Session, now)
	metrics.SessionsTotal.WithLabelValues(metrics.OutcomeExpired).Inc()
	h.logger.Info("Idle session expired",
		zap.Int64("user_id", userID),
		zap.String("session_id", s.ID.String()),
		zap.Int("reviewed", s.Stats.Reviewed),
		zap.Duration("idle", now.Sub(state.LastActive)),
	)
	return true
}

// NotifyDue sends the daily reminder to one learner
func (h *Handler) NotifyDue(learnerID int64, dueCount int) error {
	_, err := h.bot.Send(tele.ChatID(learnerID), formatReminder(dueCount), mainMenuMarkup())
	return err
}
