package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"vocabsrs/internal/domain"
	"vocabsrs/internal/repository"
	"vocabsrs/internal/srs"

	"github.com/google/uuid"
)

var (
	ErrAlreadyStarted = errors.New("session already started")
	ErrNotActive      = errors.New("session is not active")
	ErrNotFlipped     = errors.New("card must be flipped before rating")
	ErrAlreadyFlipped = errors.New("card is already flipped")
	ErrNoAnswer       = errors.New("typed answers are only taken in reverse direction")
	ErrInvalidRating  = domain.ErrInvalidRating
)

// State is the lifecycle stage of a session
type State int

const (
	StateSetup State = iota
	StateActive
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateComplete:
		return "complete"
	}
	return "setup"
}

// Mode selects how the queue is built
type Mode int

const (
	// ModeSRS reviews the due queue
	ModeSRS Mode = iota
	// ModeCram reviews every matching item regardless of due date
	ModeCram
)

func (m Mode) String() string {
	if m == ModeCram {
		return "cram"
	}
	return "srs"
}

// Direction selects what the learner is prompted with
type Direction int

const (
	// DirectionForward shows the term and asks for its meaning
	DirectionForward Direction = iota
	// DirectionReverse shows the translation and asks the learner to type the term
	DirectionReverse
)

func (d Direction) String() string {
	if d == DirectionReverse {
		return "reverse"
	}
	return "forward"
}

// CardState is the per-card stage within an active session
type CardState int

const (
	CardUnseen CardState = iota
	CardFlipped
	CardRated
)

// QueueSource builds review queues
type QueueSource interface {
	ListDue(ctx context.Context, learnerID int64, opts srs.DueOptions) ([]srs.DueItem, error)
	CramQueue(ctx context.Context, learnerID int64, levels []string, limit int) ([]srs.DueItem, error)
}

// Recorder persists one rating through the scheduler and the progress store.
// A review that is not newer than the stored one fails with repository.ErrConflict.
type Recorder interface {
	SubmitReview(ctx context.Context, learnerID int64, vocabularyID string, rating domain.Rating, reviewedAt time.Time) (*domain.ProgressRecord, error)
	GetProgress(ctx context.Context, learnerID int64, vocabularyID string) (*domain.ProgressRecord, error)
}

// Options are chosen during setup
type Options struct {
	Mode      Mode
	Direction Direction
	Levels    []string
	// Limit caps the queue; zero leaves it to the queue source
	Limit      int
	ExcludeNew bool
}

// Card is one queue entry
type Card struct {
	Item domain.VocabularyItem
	// Progress is the state before this session; nil for new items
	Progress *domain.ProgressRecord
	// Result is the stored state after rating
	Result  *domain.ProgressRecord
	State   CardState
	Answer  string
	Correct bool
	Rating  domain.Rating
	// ReviewedAt is fixed by the first rating attempt and reused on retries
	ReviewedAt time.Time
}

// Session is one study session. It is a value: every transition returns
// a new Session and leaves its input untouched.
type Session struct {
	ID        uuid.UUID
	LearnerID int64
	Options   Options
	State     State
	Cards     []Card
	Cursor    int
	Stats     Stats
}

// New creates a session in setup
func New(learnerID int64, opts Options) Session {
	opts.Levels = slices.Clone(opts.Levels)
	return Session{
		ID:        uuid.New(),
		LearnerID: learnerID,
		Options:   opts,
		State:     StateSetup,
	}
}

// Start snapshots the queue and moves the session to active.
// An empty queue completes the session immediately.
func Start(ctx context.Context, s Session, src QueueSource, now time.Time) (Session, error) {
	if s.State != StateSetup {
		return s, ErrAlreadyStarted
	}

	var (
		queue []srs.DueItem
		err   error
	)
	switch s.Options.Mode {
	case ModeCram:
		queue, err = src.CramQueue(ctx, s.LearnerID, s.Options.Levels, s.Options.Limit)
	default:
		queue, err = src.ListDue(ctx, s.LearnerID, srs.DueOptions{
			Limit:      s.Options.Limit,
			Levels:     s.Options.Levels,
			ExcludeNew: s.Options.ExcludeNew,
		})
	}
	if err != nil {
		return s, fmt.Errorf("build queue: %w", err)
	}

	next := s
	next.Cards = make([]Card, 0, len(queue))
	for _, q := range queue {
		next.Cards = append(next.Cards, Card{Item: q.Item, Progress: q.Progress})
	}
	next.Cursor = 0
	next.Stats = Stats{StartTime: now}

	if len(next.Cards) == 0 {
		next.State = StateComplete
		next.Stats.EndTime = now
		return next, nil
	}
	next.State = StateActive
	return next, nil
}

// Current returns the card under the cursor
func (s Session) Current() (Card, bool) {
	if s.State != StateActive || s.Cursor >= len(s.Cards) {
		return Card{}, false
	}
	return s.Cards[s.Cursor], true
}

// Remaining counts cards not yet rated
func (s Session) Remaining() int {
	if s.Cursor >= len(s.Cards) {
		return 0
	}
	return len(s.Cards) - s.Cursor
}

// Flip reveals the current card. Flipping a flipped card changes nothing.
func Flip(s Session) (Session, error) {
	if s.State != StateActive {
		return s, ErrNotActive
	}
	if s.Cards[s.Cursor].State != CardUnseen {
		return s, nil
	}

	next := s.withCards()
	next.Cards[next.Cursor].State = CardFlipped
	return next, nil
}

// SubmitAnswer records a typed answer for a reverse-direction card and flips it
func SubmitAnswer(s Session, answer string) (Session, error) {
	if s.State != StateActive {
		return s, ErrNotActive
	}
	if s.Options.Direction != DirectionReverse {
		return s, ErrNoAnswer
	}
	if s.Cards[s.Cursor].State != CardUnseen {
		return s, ErrAlreadyFlipped
	}

	next := s.withCards()
	card := &next.Cards[next.Cursor]
	card.Answer = answer
	card.Correct = CheckAnswer(card.Item, answer)
	card.State = CardFlipped
	return next, nil
}

// Rate stores the rating for the current card and advances the cursor.
// Rating past the end of the queue is a no-op.
//
// When the recorder fails the returned session keeps the card flipped and
// remembers the review time, so a retry sends the same timestamp. A conflict
// means the review was already stored: the stored record is taken as the
// result and the card advances once.
func Rate(ctx context.Context, s Session, rec Recorder, rating domain.Rating, now time.Time) (Session, error) {
	if s.State == StateComplete || (s.State == StateActive && s.Cursor >= len(s.Cards)) {
		return s, nil
	}
	if s.State != StateActive {
		return s, ErrNotActive
	}
	if !rating.IsValid() {
		return s, fmt.Errorf("%w: %d", ErrInvalidRating, int(rating))
	}

	card := s.Cards[s.Cursor]
	if card.State != CardFlipped {
		return s, ErrNotFlipped
	}

	next := s.withCards()
	rated := &next.Cards[next.Cursor]
	if rated.ReviewedAt.IsZero() {
		rated.ReviewedAt = now
	}

	result, err := rec.SubmitReview(ctx, s.LearnerID, card.Item.ID, rating, rated.ReviewedAt)
	if errors.Is(err, repository.ErrConflict) {
		result, err = rec.GetProgress(ctx, s.LearnerID, card.Item.ID)
	}
	if err != nil {
		return next, fmt.Errorf("record %s: %w", card.Item.ID, err)
	}

	correct := rating.IsCorrect()
	if s.Options.Direction == DirectionReverse {
		correct = card.Correct
	}

	rated.State = CardRated
	rated.Rating = rating
	rated.Result = result
	rated.Correct = correct

	next.Stats = next.Stats.record(rating, correct)
	next.Cursor++
	if next.Cursor >= len(next.Cards) {
		next.State = StateComplete
		next.Stats.EndTime = now
	}
	return next, nil
}

// Abandon ends the session early. Ratings already stored are kept.
func Abandon(s Session, now time.Time) Session {
	if s.State == StateComplete {
		return s
	}
	next := s
	next.State = StateComplete
	if next.Stats.StartTime.IsZero() {
		next.Stats.StartTime = now
	}
	next.Stats.EndTime = now
	return next
}

// Abandoned reports whether the session ended before every card was rated
func (s Session) Abandoned() bool {
	return s.State == StateComplete && s.Cursor < len(s.Cards)
}

func (s Session) withCards() Session {
	next := s
	next.Cards = slices.Clone(s.Cards)
	return next
}
