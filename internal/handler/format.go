package handler

import (
	"fmt"
	"strings"
	"time"

	"vocabsrs/internal/domain"
	"vocabsrs/internal/session"
)

func formatPrompt(s session.Session, card session.Card) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d/%d\n\n", modeTitle(s.Options), s.Cursor+1, len(s.Cards))

	if s.Options.Direction == session.DirectionReverse {
		fmt.Fprintf(&b, "🔤 %s\n\nType the word.", card.Item.Translation)
		return b.String()
	}

	b.WriteString("📝 " + card.Item.Term)
	if card.Progress == nil {
		b.WriteString("\n\n🆕 New word")
	}
	return b.String()
}

func formatAnswer(s session.Session, card session.Card) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d/%d\n\n", modeTitle(s.Options), s.Cursor+1, len(s.Cards))

	if s.Options.Direction == session.DirectionReverse {
		switch {
		case card.Answer == "":
		case card.Correct:
			b.WriteString("✅ Correct!\n\n")
		default:
			fmt.Fprintf(&b, "❌ Not quite, you wrote: %s\n\n", card.Answer)
		}
	}

	b.WriteString("📝 " + card.Item.Term)
	if card.Item.Reading != "" && card.Item.Reading != card.Item.Term {
		fmt.Fprintf(&b, " (%s)", card.Item.Reading)
	}
	if card.Item.Romanization != "" {
		fmt.Fprintf(&b, "\n🔡 %s", card.Item.Romanization)
	}
	fmt.Fprintf(&b, "\n🔄 %s\n\nHow well did you remember it?", card.Item.Translation)
	return b.String()
}

func formatSaved(next, now time.Time) string {
	return fmt.Sprintf("💾 Saved. Next review %s.\n\n", domain.Day{Date: next}.DisplayString(now))
}

func formatSummary(s session.Session) string {
	st := s.Stats
	var b strings.Builder

	if s.Abandoned() {
		b.WriteString("⏹ Session ended early\n\n")
	} else {
		b.WriteString("🏁 Session complete!\n\n")
	}

	fmt.Fprintf(&b, "Reviewed: %d\n", st.Reviewed)
	if st.Reviewed > 0 {
		fmt.Fprintf(&b, "Correct: %d\nIncorrect: %d\nAccuracy: %d%%\n", st.Correct, st.Incorrect, st.Accuracy())
		parts := make([]string, 0, len(domain.Ratings))
		for _, r := range domain.Ratings {
			parts = append(parts, fmt.Sprintf("%s %d", ratingLabels[r], st.Count(r)))
		}
		b.WriteString(strings.Join(parts, " · ") + "\n")
	}
	if d := st.Duration(); d > 0 {
		fmt.Fprintf(&b, "Time: %s\n", d.Round(time.Second))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatProgress(stats domain.ProgressStats, days []domain.Day, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Your progress\n\nDue today: %d\nLearning: %d\nMastered: %d\nNew: %d\nTotal: %d",
		stats.DueToday, stats.Learning, stats.Mastered, stats.New, stats.Total)

	if len(days) > 0 {
		b.WriteString("\n\n📅 Coming up:")
		for _, d := range days {
			fmt.Fprintf(&b, "\n%s: %d", d.DisplayString(now), d.CardCount)
		}
	}
	return b.String()
}

func formatReminder(dueCount int) string {
	if dueCount == 1 {
		return "⏰ 1 card is waiting for review today."
	}
	return fmt.Sprintf("⏰ %d cards are waiting for review today.", dueCount)
}

func modeTitle(opts session.Options) string {
	switch {
	case opts.Mode == session.ModeCram:
		return "⚡ Cram"
	case opts.Direction == session.DirectionReverse:
		return "🔁 Reverse"
	}
	return "📚 Review"
}
