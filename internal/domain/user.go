package domain

import "time"

// Learner represents a bot user allowed to review
type Learner struct {
	ID         int64
	Authorized bool
	CreatedAt  time.Time
}

// UserState represents user's current interaction state in the bot
type UserState string

const (
	StateIdle            UserState = "idle"
	StateWaitingPassword UserState = "waiting_password"
	StateReviewing       UserState = "reviewing"
	StateWaitingAnswer   UserState = "waiting_answer"
)
