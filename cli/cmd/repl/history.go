package repl

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"slices"
	"strings"
	"sync"
)

const (
	baseHistory = "history.utf8"
	maxHistory  = 1000
)

// Entry is one history line and the mode it was entered in.
type Entry struct {
	Line string
	Mode inputMode
}

var modePrefix = map[inputMode]string{
	modeEval: "E:",
	modeCtrl: "C:",
}

func (e Entry) String() string { return modePrefix[e.Mode] + e.Line }

func parseEntry(line string) Entry {
	for mode, prefix := range modePrefix {
		if s, ok := strings.CutPrefix(line, prefix); ok {
			return Entry{Line: s, Mode: mode}
		}
	}

	return Entry{Line: line, Mode: modeEval}
}

// History is the list of entered lines, persisted one per line with a mode
// prefix. An empty path keeps history in memory only.
type History struct {
	mu      sync.RWMutex
	path    string
	entries []Entry
}

// NewHistory returns an empty History persisted at path.
func NewHistory(path string) *History {
	return &History{path: path}
}

// Load replaces the entries with the contents of the history file. A
// missing file is not an error. Only the newest entries are kept.
func (h *History) Load() error {
	if h.path == "" {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	f, err := os.Open(h.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return err
	}
	defer f.Close()

	h.entries = h.entries[:0]

	s := bufio.NewScanner(f)
	for s.Scan() {
		if line := strings.TrimSpace(s.Text()); line != "" {
			h.entries = append(h.entries, parseEntry(line))
		}
	}

	if n := len(h.entries); n > maxHistory {
		h.entries = slices.Clone(h.entries[n-maxHistory:])
	}

	return s.Err()
}

// Add records line as the newest entry. An earlier identical entry is
// moved rather than repeated.
func (h *History) Add(line string, mode inputMode) error {
	e := Entry{Line: strings.TrimSpace(line), Mode: mode}
	if e.Line == "" {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if n := len(h.entries); n > 0 && h.entries[n-1] == e {
		return nil
	}

	i := slices.Index(h.entries, e)
	if i >= 0 {
		h.entries = slices.Delete(h.entries, i, i+1)
	}

	h.entries = append(h.entries, e)

	if i >= 0 || len(h.entries) > maxHistory {
		if len(h.entries) > maxHistory {
			h.entries = slices.Delete(h.entries, 0, len(h.entries)-maxHistory)
		}

		return h.save()
	}

	return h.append(e)
}

// Entry returns the entry at index i, oldest first.
func (h *History) Entry(i int) (Entry, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if i < 0 || i >= len(h.entries) {
		return Entry{}, false
	}

	return h.entries[i], true
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.entries)
}

// append must be called with h.mu held.
func (h *History) append(e Entry) error {
	if h.path == "" {
		return nil
	}

	f, err := os.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}

	_, err = f.WriteString(e.String() + "\n")

	return errors.Join(err, f.Close())
}

// save must be called with h.mu held.
func (h *History) save() error {
	if h.path == "" {
		return nil
	}

	var b strings.Builder

	for _, e := range h.entries {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}

	return os.WriteFile(h.path, []byte(b.String()), 0o600)
}
