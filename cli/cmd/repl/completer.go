package repl

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{"help", "vars", "funcs", "let", "clear", "quit"}

// isWordBoundary reports whether r separates words of a template
// expression. Dots and hyphens belong to words.
func isWordBoundary(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '(', ')', '"', ';':
		return true
	}

	return false
}

// wordBounds returns the word around cursor and its byte offsets in input.
// The word is empty when the cursor sits between two boundaries.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(max(cursor, 0), len(input))

	start = cursor
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor
	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// completion is what the completer offers for the word at the cursor.
type completion int

const (
	completeNone completion = iota
	completeHandler
	completeVariable
	completeCommand
)

// classify decides what the word starting at start completes to: a
// handler name directly after '(', a variable for words starting with '$'.
func classify(input, word string, start int) completion {
	switch {
	case strings.HasPrefix(word, "$"):
		return completeVariable
	case start > 0 && input[start-1] == '(':
		return completeHandler
	}

	return completeNone
}

// variableParent returns the path whose members complete word: "$" for a
// top-level reference and the text before the last dot otherwise.
func variableParent(word string) string {
	if i := strings.LastIndexByte(word, '.'); i > 0 {
		return word[:i]
	}

	return "$"
}

// computeMatches calculates the fuzzy matches for the word at the cursor,
// ranked best first. An empty word directly after '(' or a word ending in
// '.' or consisting of "$" alone lists every candidate unfiltered.
func (m model) computeMatches() (matches fuzzy.Matches, wordStart, wordEnd int) {
	input := m.input.Value()
	word, start, end := wordBounds(input, m.input.Position())

	kind := completeCommand
	if m.mode == modeEval {
		kind = classify(input, word, start)
	}

	var candidates []string

	switch kind {
	case completeCommand:
		if word == "" || strings.TrimSpace(input[:start]) != "" {
			return nil, start, end
		}

		candidates = ctrlCommands

	case completeHandler:
		candidates = m.session.Funcs()

	case completeVariable:
		candidates = m.session.Members(variableParent(word))

	default:
		return nil, start, end
	}

	if len(candidates) == 0 {
		return nil, start, end
	}

	if word == "" || word == "$" || strings.HasSuffix(word, ".") {
		matches = make(fuzzy.Matches, len(candidates))
		for i, c := range candidates {
			matches[i] = fuzzy.Match{Str: c, Index: i}
		}

		return matches, start, end
	}

	return fuzzy.Find(word, candidates), start, end
}

// renderCandidateBar builds the single-line completion bar, ellipsized to
// fit width. Matched characters are highlighted and the selected
// candidate is shown inverted while tab-cycling.
func renderCandidateBar(matches fuzzy.Matches, selected int, cycling bool, width int) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	ellipsis := hintStyle.Render("...")
	room := width - lipgloss.Width(ellipsis)

	var (
		b    strings.Builder
		used int
	)

	for i, match := range matches {
		item := renderCandidate(match, cycling && i == selected)

		w := lipgloss.Width(item)
		if i > 0 {
			w += len(sep)
		}

		if i > 0 && used+w > room && i < len(matches)-1 {
			b.WriteString(sep + ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(item)

		used += w
	}

	return b.String()
}

func renderCandidate(match fuzzy.Match, selected bool) string {
	base, hit := suggestionStyle, matchStyle
	if selected {
		base, hit = selectedStyle, selectedStyle.Bold(true)
	}

	matched := make(map[int]bool, len(match.MatchedIndexes))
	for _, i := range match.MatchedIndexes {
		matched[i] = true
	}

	var b strings.Builder

	for i, r := range match.Str {
		if matched[i] {
			b.WriteString(hit.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}

	return b.String()
}
