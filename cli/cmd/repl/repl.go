package repl

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/sxt/log"
)

const (
	evalPrompt = "» "
	ctrlPrompt = ": "
)

const helpMessage = `
Commands (press Esc to toggle mode):

  help              Print this message
  vars              List the context variables
  funcs             List the registered handlers
  let NAME VALUE    Bind a variable (dotted names nest, values are YAML scalars)
  clear             Clear screen
  quit              Exit REPL

Usage:
  Type a template expression such as (p "hi " $name) to render it
  Completions appear after '(' for handlers and on '$' for variables
  Press Tab / Shift-Tab to cycle through candidates, Enter to accept
  Use Up/Down arrows for history navigation
  Press Ctrl+C on empty line or Ctrl+D to exit
`

// inputMode represents the current input mode.
type inputMode int

const (
	modeEval inputMode = iota
	modeCtrl
)

// Styles.
var (
	promptStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	matchStyle      = suggestionStyle.Bold(true)
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
)

// Run starts the REPL over session, keeping history in cacheDir. An empty
// cacheDir keeps history in memory.
func Run(ctx context.Context, session *Session, cacheDir string, logger log.Logger) error {
	var path string
	if cacheDir != "" {
		path = filepath.Join(cacheDir, baseHistory)
	}

	history := NewHistory(path)
	if err := history.Load(); err != nil {
		logger.WarnContext(ctx, "could not load history",
			slog.String("path", path),
			slog.Any("error", err),
		)
	}

	logger.TraceContext(ctx, "repl start",
		slog.String("history", path),
		slog.Int("entries", history.Len()),
	)

	_, err := tea.NewProgram(newModel(ctx, session, history, logger), tea.WithContext(ctx)).Run()

	return err
}

const defaultWidth = 80

// model is the Bubble Tea model for the REPL.
type model struct {
	ctx     func() context.Context
	session *Session
	history *History
	logger  log.Logger
	input   textinput.Model
	mode    inputMode
	saved   [2]string // input of the inactive mode
	width   int

	histIdx int // history.Len() when not browsing

	matches   fuzzy.Matches
	wordStart int
	wordEnd   int
	selected  int
	cycling   bool
	preCycle  string // input before tab-cycling began
	preCursor int

	quitting bool
}

func newModel(ctx context.Context, session *Session, history *History, logger log.Logger) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(evalPrompt)
	ti.CharLimit = 4096
	ti.Width = defaultWidth
	ti.Focus()

	return model{
		ctx:     func() context.Context { return ctx },
		session: session,
		history: history,
		logger:  logger,
		input:   ti,
		width:   defaultWidth,
		histIdx: history.Len(),
	}
}

func (m model) Init() tea.Cmd { return textinput.Blink }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(msg.Width-len(evalPrompt)-2, 1)

		return m, nil
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var hint string

	switch {
	case m.histIdx < m.history.Len():
		hint = hintStyle.Render(fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.histIdx+1)),
			m.history.Len()))

	case strings.TrimSpace(m.input.Value()) == "" && m.mode == modeEval:
		hint = hintStyle.Render("Type an expression or press Esc for commands")

	case strings.TrimSpace(m.input.Value()) == "":
		hint = hintStyle.Render("Type: " + strings.Join(ctrlCommands, ", ") + " (press Esc to return)")

	default:
		hint = renderCandidateBar(m.matches, m.selected, m.cycling, m.width)
	}

	return m.input.View() + "\n" + hint + "\n"
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.cycling = false
		m.histIdx = m.history.Len()
		m.refresh()

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if m.cycling && len(m.matches) > 0 {
			m.cycling = false
			m.refresh()

			return m, nil
		}

		return m.submit()

	case tea.KeyTab:
		return m.cycle(1), nil

	case tea.KeyShiftTab:
		return m.cycle(-1), nil

	case tea.KeyUp:
		return m.browse(-1), nil

	case tea.KeyDown:
		return m.browse(1), nil

	case tea.KeyEsc:
		if m.cycling {
			m.cycling = false
			m.input.SetValue(m.preCycle)
			m.input.SetCursor(m.preCursor)
			m.refresh()

			return m, nil
		}

		return m.switchMode(1 - m.mode), nil
	}

	var cmd tea.Cmd

	m.cycling = false
	m.histIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	m.refresh()

	return m, cmd
}

// cycle moves the selection by step through the matches, replacing the
// word at the cursor. A single match is accepted at once.
func (m model) cycle(step int) model {
	n := len(m.matches)
	if n == 0 {
		return m
	}

	if n == 1 {
		m.replaceWord(m.matches[0].Str)
		m.cycling = false
		m.matches = nil

		return m
	}

	if !m.cycling {
		m.cycling = true
		m.preCycle = m.input.Value()
		m.preCursor = m.input.Position()

		m.selected = -1
		if step < 0 {
			m.selected = 0
		}
	}

	m.selected = (m.selected + step + n) % n
	m.replaceWord(m.matches[m.selected].Str)

	return m
}

func (m *model) replaceWord(s string) {
	v := m.input.Value()

	m.input.SetValue(v[:m.wordStart] + s + v[m.wordEnd:])
	m.input.SetCursor(m.wordStart + len(s))
	m.wordEnd = m.wordStart + len(s)
}

func (m *model) refresh() {
	m.matches, m.wordStart, m.wordEnd = m.computeMatches()

	if !m.cycling {
		m.selected = -1
	}
}

// browse moves through history by step, switching to the mode each entry
// was entered in. Moving past the newest entry clears the input.
func (m model) browse(step int) model {
	i := m.histIdx + step
	if i < 0 || i > m.history.Len() {
		return m
	}

	m.histIdx = i
	m.cycling = false

	e, ok := m.history.Entry(i)
	if !ok {
		m.input.SetValue("")
		m.refresh()

		return m
	}

	if e.Mode != m.mode {
		m = m.switchMode(e.Mode)
	}

	m.input.SetValue(e.Line)
	m.input.CursorEnd()
	m.refresh()

	return m
}

func (m model) switchMode(mode inputMode) model {
	if mode == m.mode {
		return m
	}

	m.saved[m.mode] = m.input.Value()
	m.mode = mode

	if mode == modeEval {
		m.input.Prompt = promptStyle.Render(evalPrompt)
	} else {
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
	}

	m.input.SetValue(m.saved[mode])
	m.input.CursorEnd()
	m.refresh()

	return m
}

func (m model) submit() (model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return m, nil
	}

	if err := m.history.Add(input, m.mode); err != nil {
		m.logger.WarnContext(m.ctx(), "could not save history", slog.Any("error", err))
	}

	m.histIdx = m.history.Len()
	m.input.SetValue("")
	m.refresh()

	if m.mode == modeCtrl {
		echo := tea.Println(ctrlPromptStyle.Render(ctrlPrompt) + input)

		out, act := m.command(input)

		switch act {
		case actQuit:
			m.quitting = true

			return m, tea.Sequence(echo, tea.Quit)
		case actClear:
			return m, tea.ClearScreen
		}

		return m, tea.Sequence(echo, tea.Println(out))
	}

	return m, tea.Sequence(
		tea.Println(promptStyle.Render(evalPrompt)+input),
		tea.Println(m.eval(input)),
	)
}

// eval renders input and returns the styled result or error.
func (m model) eval(input string) string {
	out, err := m.session.Eval(m.ctx(), input)
	if err != nil {
		m.logger.TraceContext(m.ctx(), "repl eval failed", slog.Any("error", err))

		return errorStyle.Render("error: " + err.Error())
	}

	m.logger.TraceContext(m.ctx(), "repl eval", slog.Int("bytes", len(out)))

	return resultStyle.Render(out)
}

type action int

const (
	actPrint action = iota
	actClear
	actQuit
)

// command runs a control-mode command and returns its output.
func (m model) command(input string) (string, action) {
	name, args, _ := strings.Cut(input, " ")
	args = strings.TrimSpace(args)

	m.logger.TraceContext(m.ctx(), "repl command",
		slog.String("command", name),
		slog.String("args", args),
	)

	switch name {
	case "q", "quit", "exit":
		return "", actQuit

	case "c", "clear":
		return "", actClear

	case "h", "help":
		return helpMessage, actPrint

	case "v", "vars":
		return listing(m.session.Vars()), actPrint

	case "f", "funcs":
		return listing(m.session.Funcs()), actPrint

	case "let":
		key, value, ok := strings.Cut(args, " ")
		if !ok || key == "" {
			return errorStyle.Render(ErrUsage.Error() + ": let NAME VALUE"), actPrint
		}

		if err := m.session.Let(key, strings.TrimSpace(value)); err != nil {
			return errorStyle.Render("error: " + err.Error()), actPrint
		}

		return resultStyle.Render("$" + strings.TrimPrefix(key, "$") + " bound"), actPrint
	}

	return errorStyle.Render(ErrUnknownCommand.Error() + ": " + name), actPrint
}

func listing(lines []string) string {
	if len(lines) == 0 {
		return hintStyle.Render("  (none)")
	}

	var b strings.Builder

	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}

		b.WriteString("  " + l)
	}

	return b.String()
}
