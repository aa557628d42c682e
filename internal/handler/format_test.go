package handler

import (
	"testing"
	"time"

	"vocabsrs/internal/domain"
	"vocabsrs/internal/session"

	"github.com/stretchr/testify/assert"
)

var testNow = time.Date(2024, 11, 4, 20, 0, 0, 0, time.UTC)

func testSession(opts session.Options) session.Session {
	s := session.New(5, opts)
	s.State = session.StateActive
	s.Cards = []session.Card{
		{Item: domain.VocabularyItem{ID: "V1", Term: "水", Reading: "みず", Romanization: "mizu", Translation: "water"}},
		{Item: domain.VocabularyItem{ID: "V2", Term: "火", Reading: "ひ", Romanization: "hi", Translation: "fire"}},
	}
	return s
}

func TestFormatPrompt(t *testing.T) {
	forward := testSession(session.Options{})
	card, _ := forward.Current()
	assert.Equal(t, "📚 Review 1/2\n\n📝 水\n\n🆕 New word", formatPrompt(forward, card))

	reverse := testSession(session.Options{Direction: session.DirectionReverse})
	card, _ = reverse.Current()
	assert.Equal(t, "🔁 Reverse 1/2\n\n🔤 water\n\nType the word.", formatPrompt(reverse, card))

	cram := testSession(session.Options{Mode: session.ModeCram})
	cram.Cursor = 1
	card, _ = cram.Current()
	card.Progress = &domain.ProgressRecord{VocabularyID: "V2"}
	assert.Equal(t, "⚡ Cram 2/2\n\n📝 火", formatPrompt(cram, card))
}

func TestFormatAnswer(t *testing.T) {
	s := testSession(session.Options{Direction: session.DirectionReverse})

	tests := []struct {
		name     string
		answer   string
		correct  bool
		contains string
	}{
		{"correct", "mizu", true, "✅ Correct!"},
		{"wrong", "mazu", false, "❌ Not quite, you wrote: mazu"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := s.Cards[0]
			card.Answer = tt.answer
			card.Correct = tt.correct

			text := formatAnswer(s, card)
			assert.Contains(t, text, tt.contains)
			assert.Contains(t, text, "📝 水 (みず)\n🔡 mizu\n🔄 water")
		})
	}

	t.Run("revealed without answer", func(t *testing.T) {
		text := formatAnswer(s, s.Cards[0])
		assert.NotContains(t, text, "Correct")
		assert.NotContains(t, text, "Not quite")
	})
}

func TestFormatSummary(t *testing.T) {
	s := testSession(session.Options{})
	s.State = session.StateComplete
	s.Cursor = 2
	s.Stats = session.Stats{
		Reviewed:  2,
		Correct:   1,
		Incorrect: 1,
		Again:     1,
		Good:      1,
		StartTime: testNow,
		EndTime:   testNow.Add(90 * time.Second),
	}

	text := formatSummary(s)
	assert.Contains(t, text, "🏁 Session complete!")
	assert.Contains(t, text, "Accuracy: 50%")
	assert.Contains(t, text, "❌ Again 1 · 😓 Hard 0 · 🙂 Good 1 · 😎 Easy 0")
	assert.Contains(t, text, "Time: 1m30s")

	abandoned := session.Abandon(testSession(session.Options{}), testNow)
	text = formatSummary(abandoned)
	assert.Contains(t, text, "ended early")
	assert.Contains(t, text, "Reviewed: 0")
	assert.NotContains(t, text, "Accuracy")
}

func TestFormatProgress(t *testing.T) {
	stats := domain.ProgressStats{DueToday: 3, Mastered: 1, Learning: 4, New: 2, Total: 7}
	days := []domain.Day{
		{Date: domain.StartOfDay(testNow), CardCount: 3},
		{Date: domain.StartOfDay(testNow).AddDate(0, 0, 1), CardCount: 2},
	}

	text := formatProgress(stats, days, testNow)
	assert.Contains(t, text, "Due today: 3")
	assert.Contains(t, text, "Mastered: 1")
	assert.Contains(t, text, "today: 3")
	assert.Contains(t, text, "tomorrow: 2")

	assert.NotContains(t, formatProgress(stats, nil, testNow), "Coming up")
}

func TestFormatSavedAndReminder(t *testing.T) {
	assert.Equal(t, "💾 Saved. Next review tomorrow.\n\n", formatSaved(domain.StartOfDay(testNow).AddDate(0, 0, 1), testNow))
	assert.Equal(t, "💾 Saved. Next review in 6 days.\n\n", formatSaved(domain.StartOfDay(testNow).AddDate(0, 0, 6), testNow))

	assert.Equal(t, "⏰ 1 card is waiting for review today.", formatReminder(1))
	assert.Equal(t, "⏰ 12 cards are waiting for review today.", formatReminder(12))
}
