package moderation

import (
	"slices"
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Filter rejects message bodies containing a banned word.
// Bodies are never rewritten: a match refuses the whole send.
type Filter struct {
	matcher *goahocorasick.Machine
	words   int
}

// NewFilter builds the automaton over the normalized banned words.
// It returns a nil filter when no usable word is given.
func NewFilter(bannedWords []string) (*Filter, error) {
	words := make([]string, 0, len(bannedWords))
	for _, word := range bannedWords {
		if pattern := normalize(strings.TrimSpace(word)); len(pattern) > 0 {
			words = append(words, string(pattern))
		}
	}
	slices.Sort(words)
	words = slices.Compact(words)
	patterns := make([][]rune, len(words))
	for i, word := range words {
		patterns[i] = []rune(word)
	}
	if len(patterns) == 0 {
		return nil, nil
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Filter{matcher: m, words: len(patterns)}, nil
}

// Rejects reports whether body contains a banned word once punctuation,
// spacing and leet substitutions are ignored.
func (f *Filter) Rejects(body string) bool {
	if f == nil {
		return false
	}
	text := normalize(body)
	if len(text) == 0 {
		return false
	}
	return len(f.matcher.MultiPatternSearch(text, true)) > 0
}

// Size is the number of banned words loaded.
func (f *Filter) Size() int {
	if f == nil {
		return 0
	}
	return f.words
}

func normalize(input string) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		r = unleet(r)
		if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
			continue
		}
		out = append(out, unicode.ToLower(r))
	}
	return out
}

func unleet(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}
