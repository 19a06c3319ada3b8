package repl

import (
	"slices"
	"testing"
)

func TestWordBounds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		cursor    int
		wantWord  string
		wantStart int
		wantEnd   int
	}{
		{"simple", "foo", 3, "foo", 0, 3},
		{"after_paren", "(fo", 3, "fo", 1, 3},
		{"nested", "(p (ge", 6, "ge", 4, 6},
		{"variable", "(p $ti", 6, "$ti", 3, 6},
		{"dotted", "(p $site.na", 11, "$site.na", 3, 11},
		{"trailing_dot", "$site.", 6, "$site.", 0, 6},
		{"hyphenated", "(is-se", 6, "is-se", 1, 6},
		{"quoted", `(p "x`, 5, "x", 4, 5},
		{"empty_after_paren", "(", 1, "", 1, 1},
		{"empty_after_space", "(p ", 3, "", 3, 3},
		{"mid_word", "(foobar)", 3, "foobar", 1, 7},
		{"cursor_clamped", "ab", 9, "ab", 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			word, start, end := wordBounds(tt.input, tt.cursor)
			if word != tt.wantWord || start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("wordBounds(%q, %d) = (%q, %d, %d), want (%q, %d, %d)",
					tt.input, tt.cursor, word, start, end,
					tt.wantWord, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  completion
	}{
		{"(fo", completeHandler},
		{"(", completeHandler},
		{"(p $x", completeVariable},
		{"($x", completeVariable},
		{"(p fo", completeNone},
		{"fo", completeNone},
	}

	for _, tt := range tests {
		word, start, _ := wordBounds(tt.input, len(tt.input))
		if got := classify(tt.input, word, start); got != tt.want {
			t.Errorf("classify(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestVariableParent(t *testing.T) {
	t.Parallel()

	for word, want := range map[string]string{
		"$":        "$",
		"$ti":      "$",
		"$site.":   "$site",
		"$site.na": "$site",
		"$a.b.c":   "$a.b",
		"$a.b.":    "$a.b",
	} {
		if got := variableParent(word); got != want {
			t.Errorf("variableParent(%q) = %q, want %q", word, got, want)
		}
	}
}

func TestComputeMatches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		mode  inputMode
		input string
		want  []string // expected members of the match set
		none  bool
	}{
		{"all handlers", modeEval, "(", []string{"for", "get", "html"}, false},
		{"handler prefix", modeEval, "(ge", []string{"get", "gte"}, false},
		{"top variables", modeEval, "(p $", []string{"$title", "$site"}, false},
		{"members", modeEval, "$site.", []string{"$site.name", "$site.url"}, false},
		{"member prefix", modeEval, "$site.u", []string{"$site.url"}, false},
		{"scalar parent", modeEval, "$title.", nil, true},
		{"plain word", modeEval, "(p wo", nil, true},
		{"command", modeCtrl, "he", []string{"help"}, false},
		{"command args", modeCtrl, "let ti", nil, true},
		{"empty command", modeCtrl, "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := newTestModel(t)
			if tt.mode != m.mode {
				m = m.switchMode(tt.mode)
			}

			m.input.SetValue(tt.input)
			m.input.CursorEnd()

			matches, _, _ := m.computeMatches()

			if tt.none {
				if len(matches) != 0 {
					t.Fatalf("unexpected matches %v", matches)
				}

				return
			}

			var got []string
			for _, match := range matches {
				got = append(got, match.Str)
			}

			for _, w := range tt.want {
				if !slices.Contains(got, w) {
					t.Errorf("matches %v missing %q", got, w)
				}
			}
		})
	}
}

func TestRenderCandidateBar(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	m.input.SetValue("(")
	m.input.CursorEnd()

	matches, _, _ := m.computeMatches()

	if bar := renderCandidateBar(matches, 0, false, 0); bar != "" {
		t.Errorf("zero width bar = %q", bar)
	}

	wide := renderCandidateBar(matches, 0, false, 1000)
	narrow := renderCandidateBar(matches, 0, false, 20)

	if len(narrow) >= len(wide) {
		t.Errorf("narrow bar not truncated: %q", narrow)
	}
}
