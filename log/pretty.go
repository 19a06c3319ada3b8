package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// palette styles the parts of a pretty record. Styles render plain text
// when the output is not a color terminal.
type palette struct {
	key, str, num, yes, no, dur, when, null lipgloss.Style

	levels map[slog.Level]lipgloss.Style
}

func newPalette(w io.Writer) *palette {
	r := lipgloss.NewRenderer(w)
	fg := func(c string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(c))
	}

	return &palette{
		key:  fg("8"),
		str:  fg("6"),
		num:  fg("3"),
		yes:  fg("2"),
		no:   fg("1"),
		dur:  fg("5"),
		when: fg("4"),
		null: fg("8"),
		levels: map[slog.Level]lipgloss.Style{
			slog.Level(LevelTrace): fg("5"),
			slog.LevelDebug:        fg("4"),
			slog.LevelInfo:         fg("2"),
			slog.LevelWarn:         fg("3").Bold(true),
			slog.LevelError:        fg("1").Bold(true),
		},
	}
}

func (p *palette) level(l slog.Level) lipgloss.Style {
	for _, step := range []slog.Level{
		slog.LevelError, slog.LevelWarn, slog.LevelInfo, slog.LevelDebug,
	} {
		if l >= step {
			return p.levels[step]
		}
	}

	return p.levels[slog.Level(LevelTrace)]
}

// prettyBase holds what the text and JSON handlers share: options, output,
// styles, and the attributes and groups accumulated by WithAttrs and
// WithGroup.
type prettyBase struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	style  *palette
	attrs  []slog.Attr // keys already qualified by group
	prefix string      // open groups joined with '.'
}

func newPrettyBase(w io.Writer, opts *slog.HandlerOptions) prettyBase {
	return prettyBase{
		opts:  *opts,
		mu:    &sync.Mutex{},
		w:     w,
		style: newPalette(w),
	}
}

func (b prettyBase) enabled(level slog.Level) bool {
	lowest := slog.LevelInfo
	if b.opts.Level != nil {
		lowest = b.opts.Level.Level()
	}

	return level >= lowest
}

func (b prettyBase) withAttrs(attrs []slog.Attr) prettyBase {
	b.attrs = append(b.attrs[:len(b.attrs):len(b.attrs)], b.flatten(b.prefix, attrs)...)

	return b
}

func (b prettyBase) withGroup(name string) prettyBase {
	if name != "" {
		b.prefix += name + "."
	}

	return b
}

// flatten resolves values and expands groups into dotted keys. Empty
// attributes and empty groups are dropped.
func (b prettyBase) flatten(prefix string, attrs []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, 0, len(attrs))

	for _, a := range attrs {
		a.Value = a.Value.Resolve()

		if a.Value.Kind() == slog.KindGroup {
			group := prefix
			if a.Key != "" {
				group += a.Key + "."
			}

			out = append(out, b.flatten(group, a.Value.Group())...)

			continue
		}

		if a.Equal(slog.Attr{}) {
			continue
		}

		a.Key = prefix + a.Key
		out = append(out, a)
	}

	return out
}

// header returns the builtin attributes of r after ReplaceAttr.
func (b prettyBase) header(r slog.Record) []slog.Attr {
	attrs := make([]slog.Attr, 0, 4)

	add := func(a slog.Attr) {
		if b.opts.ReplaceAttr != nil {
			a = b.opts.ReplaceAttr(nil, a)
		}

		if a.Key != "" {
			attrs = append(attrs, a)
		}
	}

	if !r.Time.IsZero() {
		add(slog.Time(slog.TimeKey, r.Time))
	}

	add(slog.Any(slog.LevelKey, r.Level))

	if b.opts.AddSource && r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		add(slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", frame.File, frame.Line)))
	}

	add(slog.String(slog.MessageKey, r.Message))

	return attrs
}

// body returns the handler and record attributes.
func (b prettyBase) body(r slog.Record) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(b.attrs)+r.NumAttrs())
	attrs = append(attrs, b.attrs...)

	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, b.flatten(b.prefix, []slog.Attr{a})...)

		return true
	})

	return attrs
}

func (b prettyBase) write(buf *bytes.Buffer) error {
	buf.WriteByte('\n')

	b.mu.Lock()
	defer b.mu.Unlock()

	_, err := b.w.Write(buf.Bytes())

	return err
}

// prettyTextHandler writes one line of key=value pairs per record with
// unquoted, colored values.
type prettyTextHandler struct{ prettyBase }

func newPrettyTextHandler(w io.Writer, opts *slog.HandlerOptions) *prettyTextHandler {
	return &prettyTextHandler{newPrettyBase(w, opts)}
}

func (h *prettyTextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.enabled(level)
}

func (h *prettyTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &prettyTextHandler{h.withAttrs(attrs)}
}

func (h *prettyTextHandler) WithGroup(name string) slog.Handler {
	return &prettyTextHandler{h.withGroup(name)}
}

func (h *prettyTextHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)

	for _, a := range h.header(r) {
		h.writeAttr(buf, a, r.Level)
	}

	for _, a := range h.body(r) {
		h.writeAttr(buf, a, r.Level)
	}

	return h.write(buf)
}

func (h *prettyTextHandler) writeAttr(buf *bytes.Buffer, a slog.Attr, level slog.Level) {
	if buf.Len() > 0 {
		buf.WriteByte(' ')
	}

	buf.WriteString(h.style.key.Render(a.Key))
	buf.WriteByte('=')

	if a.Key == slog.LevelKey {
		buf.WriteString(h.style.level(level).Render(a.Value.String()))

		return
	}

	buf.WriteString(h.styleValue(a.Value))
}

func (h *prettyTextHandler) styleValue(v slog.Value) string {
	p := h.style

	switch v.Kind() {
	case slog.KindInt64:
		return p.num.Render(strconv.FormatInt(v.Int64(), 10))
	case slog.KindUint64:
		return p.num.Render(strconv.FormatUint(v.Uint64(), 10))
	case slog.KindFloat64:
		return p.num.Render(strconv.FormatFloat(v.Float64(), 'g', -1, 64))
	case slog.KindBool:
		if v.Bool() {
			return p.yes.Render("true")
		}

		return p.no.Render("false")
	case slog.KindDuration:
		return p.dur.Render(v.Duration().String())
	case slog.KindTime:
		return p.when.Render(v.Time().Format(time.RFC3339))
	}

	if v.Kind() == slog.KindAny && v.Any() == nil {
		return p.null.Render("<nil>")
	}

	return p.str.Render(v.String())
}

// prettyJSONHandler writes each record as an indented JSON object with
// colored values.
type prettyJSONHandler struct{ prettyBase }

func newPrettyJSONHandler(w io.Writer, opts *slog.HandlerOptions) *prettyJSONHandler {
	return &prettyJSONHandler{newPrettyBase(w, opts)}
}

func (h *prettyJSONHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.enabled(level)
}

func (h *prettyJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &prettyJSONHandler{h.withAttrs(attrs)}
}

func (h *prettyJSONHandler) WithGroup(name string) slog.Handler {
	return &prettyJSONHandler{h.withGroup(name)}
}

func (h *prettyJSONHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)
	buf.WriteString("{")

	first := true
	field := func(a slog.Attr) {
		if !first {
			buf.WriteByte(',')
		}

		first = false

		buf.WriteString("\n  ")
		buf.WriteString(h.style.key.Render(quote(a.Key)))
		buf.WriteString(": ")

		if a.Key == slog.LevelKey {
			buf.WriteString(h.style.level(r.Level).Render(quote(a.Value.String())))

			return
		}

		buf.WriteString(h.styleValue(a.Value))
	}

	for _, a := range h.header(r) {
		field(a)
	}

	for _, a := range h.body(r) {
		field(a)
	}

	buf.WriteString("\n}")

	return h.write(buf)
}

func (h *prettyJSONHandler) styleValue(v slog.Value) string {
	p := h.style

	switch v.Kind() {
	case slog.KindString:
		return p.str.Render(quote(v.String()))
	case slog.KindInt64, slog.KindUint64, slog.KindFloat64:
		return p.num.Render(v.String())
	case slog.KindBool:
		if v.Bool() {
			return p.yes.Render("true")
		}

		return p.no.Render("false")
	case slog.KindDuration:
		return p.dur.Render(quote(v.Duration().String()))
	case slog.KindTime:
		return p.when.Render(quote(v.Time().Format(time.RFC3339Nano)))
	}

	switch a := v.Any().(type) {
	case nil:
		return p.null.Render("null")
	case error:
		return p.str.Render(quote(a.Error()))
	case json.Marshaler, map[string]any, []any:
		if b, err := json.Marshal(a); err == nil {
			return p.str.Render(string(b))
		}
	}

	return p.str.Render(quote(v.String()))
}

func quote(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return strconv.Quote(s)
	}

	return string(b)
}
