package domain

import "strings"

// VocabularyItem is a read-only catalog entry
type VocabularyItem struct {
	ID           string `json:"id" yaml:"id"`
	Term         string `json:"term" yaml:"term"`
	Reading      string `json:"reading,omitempty" yaml:"reading"`
	Romanization string `json:"romanization,omitempty" yaml:"romanization"`
	Translation  string `json:"translation" yaml:"translation"`
	Level        string `json:"level,omitempty" yaml:"level"`
}

// AcceptedForms returns the surface forms a learner may type to recall the item
func (v VocabularyItem) AcceptedForms() []string {
	forms := make([]string, 0, 3)
	for _, f := range []string{v.Term, v.Reading, v.Romanization} {
		if strings.TrimSpace(f) != "" {
			forms = append(forms, f)
		}
	}
	return forms
}

// MatchesLevel reports whether the item carries one of the given level tags.
// An empty filter matches everything.
func (v VocabularyItem) MatchesLevel(levels []string) bool {
	if len(levels) == 0 {
		return true
	}
	for _, l := range levels {
		if strings.EqualFold(l, v.Level) {
			return true
		}
	}
	return false
}
