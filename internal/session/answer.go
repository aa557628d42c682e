package session

import (
	"strings"

	"vocabsrs/internal/domain"
)

// CheckAnswer reports whether a typed answer matches one of the item's
// accepted forms after trimming and case folding
func CheckAnswer(item domain.VocabularyItem, answer string) bool {
	answer = normalize(answer)
	if answer == "" {
		return false
	}
	for _, form := range item.AcceptedForms() {
		if strings.EqualFold(normalize(form), answer) {
			return true
		}
	}
	return false
}

// normalize trims and collapses inner runs of whitespace
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
