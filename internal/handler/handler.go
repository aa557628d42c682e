package handler

import (
	"context"
	"sync"
	"time"

	"vocabsrs/internal/domain"
	"vocabsrs/internal/service"
	"vocabsrs/internal/session"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// Reviews builds queues and records ratings for bot sessions
type Reviews interface {
	session.QueueSource
	session.Recorder
	Now() time.Time
}

// Stats reports learner progress
type Stats interface {
	Stats(ctx context.Context, learnerID int64, levels []string) (domain.ProgressStats, error)
	Forecast(ctx context.Context, learnerID int64, horizon int) ([]domain.Day, error)
}

// ChatState is what the bot remembers about one chat
type ChatState struct {
	State      domain.UserState
	Session    *session.Session
	LastActive time.Time
}

// Handler manages all bot interactions
type Handler struct {
	bot          *tele.Bot
	authService  *service.AuthService
	reviews      Reviews
	stats        Stats
	sessionLimit int
	logger       *zap.Logger

	// User states (in-memory state machine)
	states   map[int64]*ChatState
	stateMux sync.RWMutex

	// Per-user locks so one chat never runs two transitions at once
	callbackLocks map[int64]*sync.Mutex
	callbackMux   sync.Mutex
}

// NewHandler creates a new handler instance
func NewHandler(
	bot *tele.Bot,
	authService *service.AuthService,
	reviews Reviews,
	stats Stats,
	sessionLimit int,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		bot:           bot,
		authService:   authService,
		reviews:       reviews,
		stats:         stats,
		sessionLimit:  sessionLimit,
		logger:        logger,
		states:        make(map[int64]*ChatState),
		callbackLocks: make(map[int64]*sync.Mutex),
	}
}

// RegisterHandlers registers all bot handlers
func (h *Handler) RegisterHandlers() {
	// Commands
	h.bot.Handle("/start", h.handleStart)
	h.bot.Handle("/stats", h.handleStats)

	// Text messages
	h.bot.Handle(tele.OnText, h.handleText)

	// Callback queries (inline buttons)
	h.bot.Handle(&btnReviewDue, h.handleReviewDue)
	h.bot.Handle(&btnCram, h.handleCram)
	h.bot.Handle(&btnReverse, h.handleReverse)
	h.bot.Handle(&btnStats, h.handleStats)
	h.bot.Handle(&btnShowAnswer, h.handleShowAnswer)
	h.bot.Handle(&btnRate, h.handleRate)
	h.bot.Handle(&btnEndSession, h.handleEndSession)
	h.bot.Handle(&btnMainMenu, h.handleStart)

	// Generic callback handler for dynamic data
	h.bot.Handle(tele.OnCallback, h.handleCallback)
}

// GetState returns user's current state
func (h *Handler) GetState(userID int64) ChatState {
	h.stateMux.RLock()
	defer h.stateMux.RUnlock()

	state, exists := h.states[userID]
	if !exists {
		return ChatState{State: domain.StateIdle}
	}
	return *state
}

// SetState sets user's state
func (h *Handler) SetState(userID int64, state ChatState) {
	h.stateMux.Lock()
	defer h.stateMux.Unlock()
	h.states[userID] = &state
}

// ResetState resets user to idle state
func (h *Handler) ResetState(userID int64) {
	h.stateMux.Lock()
	defer h.stateMux.Unlock()
	delete(h.states, userID)
}

// lockUser serialises transitions for one chat
func (h *Handler) lockUser(userID int64) func() {
	h.callbackMux.Lock()
	lock, exists := h.callbackLocks[userID]
	if !exists {
		lock = &sync.Mutex{}
		h.callbackLocks[userID] = lock
	}
	h.callbackMux.Unlock()

	lock.Lock()
	return lock.Unlock
}

// Inline keyboard buttons
var (
	btnReviewDue = tele.Btn{
		Unique: "review_due",
		Text:   "📚 Review due",
	}
	btnCram = tele.Btn{
		Unique: "cram",
		Text:   "⚡ Cram",
	}
	btnReverse = tele.Btn{
		Unique: "reverse",
		Text:   "🔁 Reverse review",
	}
	btnStats = tele.Btn{
		Unique: "stats",
		Text:   "📊 Stats",
	}
	btnShowAnswer = tele.Btn{
		Unique: "show_answer",
		Text:   "👀 Show answer",
	}
	btnRate = tele.Btn{
		Unique: "rate",
	}
	btnEndSession = tele.Btn{
		Unique: "end_session",
		Text:   "⏹ End session",
	}
	btnMainMenu = tele.Btn{
		Unique: "main_menu",
		Text:   "🏠 Main menu",
	}
)

var ratingLabels = map[domain.Rating]string{
	domain.RatingAgain: "❌ Again",
	domain.RatingHard:  "😓 Hard",
	domain.RatingGood:  "🙂 Good",
	domain.RatingEasy:  "😎 Easy",
}

// mainMenuMarkup returns the main menu keyboard
func mainMenuMarkup() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(btnReviewDue),
		menu.Row(btnCram, btnReverse),
		menu.Row(btnStats),
	)
	return menu
}

// promptMarkup is shown under an unflipped card
func promptMarkup() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(btnShowAnswer),
		markup.Row(btnEndSession),
	)
	return markup
}

// ratingMarkup is shown under a flipped card
func ratingMarkup() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	row := tele.Row{}
	for _, r := range domain.Ratings {
		row = append(row, markup.Data(ratingLabels[r], btnRate.Unique, r.String()))
	}
	markup.Inline(row, markup.Row(btnEndSession))
	return markup
}

func backMarkup() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(btnMainMenu))
	return markup
}
