// Package prompt implements the interactive currency picker: a raw-mode
// terminal loop pairing an input line with the grouped result list below
// it, arrow-key navigation and Enter to confirm.
package prompt

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"coinvert/internals/core/domain"
	"coinvert/internals/search"
	"coinvert/internals/selection"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	ErrNotTerminal = errors.New("standard input is not a terminal")
	ErrAborted     = errors.New("aborted")
)

// Searcher is the slice of the converter service the picker needs.
type Searcher interface {
	Search(query string) domain.SearchResult
	Popular() domain.SearchResult
}

const (
	hideCursor = "\x1b[?25l"
	showCursor = "\x1b[?25h"
	clearDown  = "\x1b[J"

	// visibleRows keeps the frame short enough to redraw in place even on
	// small terminals; the cursor scrolls the window over the full list.
	visibleRows = 10
)

var (
	labelStyle     = lipgloss.NewStyle().Bold(true)
	groupStyle     = lipgloss.NewStyle().Faint(true)
	noResultsStyle = lipgloss.NewStyle().Faint(true).Italic(true)
	highlightStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#8839EC", Dark: "#EE6FF8"})
)

type Picker struct {
	src Searcher
	in  *os.File
	out io.Writer
}

func NewPicker(src Searcher) *Picker {
	return &Picker{src: src, in: os.Stdin, out: os.Stdout}
}

// Run drives one interactive selection against tr. It returns the chosen
// entry with ok=true on Enter, ok=false when the picker was dismissed
// with Escape, and ErrAborted on Ctrl-C. tr may be nil for a detached
// picker; otherwise every edit and the final choice flow through it.
func (p *Picker) Run(label string, tr *selection.Tracker) (domain.CurrencyEntry, bool, error) {
	fd := int(p.in.Fd())
	if !term.IsTerminal(fd) {
		return domain.CurrencyEntry{}, false, ErrNotTerminal
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return domain.CurrencyEntry{}, false, fmt.Errorf("entering raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	fmt.Fprint(p.out, hideCursor)
	defer fmt.Fprint(p.out, showCursor)

	s := newSession(p.src, tr, label)
	prev := 0
	buf := make([]byte, 64)
	for !s.done {
		frame := s.view()
		p.redraw(frame, prev)
		prev = len(frame)

		n, err := p.in.Read(buf)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return domain.CurrencyEntry{}, false, fmt.Errorf("reading key: %w", err)
		}
		for _, ev := range decode(buf[:n]) {
			s.handle(ev)
			if s.done {
				break
			}
		}
	}

	p.redraw([]string{s.finalLine()}, prev)
	fmt.Fprint(p.out, "\r\n")

	if s.aborted {
		return domain.CurrencyEntry{}, false, ErrAborted
	}
	return s.choice, s.accepted, nil
}

// redraw replaces the previously written frame in place. Raw mode leaves
// the terminal cursor at the end of the last line written, so the frame
// is rewound by prev-1 lines before clearing downward.
func (p *Picker) redraw(lines []string, prev int) {
	var b strings.Builder
	b.WriteString("\r")
	if prev > 1 {
		fmt.Fprintf(&b, "\x1b[%dA", prev-1)
	}
	b.WriteString(clearDown)
	b.WriteString(strings.Join(lines, "\r\n"))
	fmt.Fprint(p.out, b.String())
}

// session is the picker's state machine, separated from the terminal so
// it can be driven by synthetic key events.
type session struct {
	src     Searcher
	tracker *selection.Tracker
	label   string
	query   []rune
	result  domain.SearchResult
	rows    []domain.CurrencyEntry
	cursor  search.Cursor

	done     bool
	accepted bool
	aborted  bool
	choice   domain.CurrencyEntry
}

func newSession(src Searcher, tr *selection.Tracker, label string) *session {
	s := &session{src: src, tracker: tr, label: label, cursor: search.NewCursor(0)}
	s.refresh()
	return s
}

func (s *session) handle(ev KeyEvent) {
	switch ev.Key {
	case KeyRune:
		s.query = append(s.query, ev.Rune)
		s.edited()
	case KeyBackspace:
		if len(s.query) > 0 {
			s.query = s.query[:len(s.query)-1]
			s.edited()
		}
	case KeyUp:
		s.cursor.Up()
	case KeyDown:
		s.cursor.Down()
	case KeyEnter:
		pos := s.cursor.Pos()
		if pos < 0 || pos >= len(s.rows) {
			return
		}
		s.choice = s.rows[pos]
		s.accepted = true
		s.done = true
		if s.tracker != nil {
			s.tracker.Select(s.choice)
		}
	case KeyEsc:
		s.done = true
	case KeyCtrlC:
		s.aborted = true
		s.done = true
	}
}

func (s *session) edited() {
	if s.tracker != nil {
		s.tracker.Input(string(s.query))
	}
	s.refresh()
}

// refresh re-runs the match for the current query and rebinds the cursor
// to the new rows. An empty query falls back to the popular picks.
func (s *session) refresh() {
	q := strings.TrimSpace(string(s.query))
	if q == "" {
		s.result = s.src.Popular()
	} else {
		s.result = s.src.Search(q)
	}
	s.rows = s.rows[:0]
	s.rows = append(s.rows, s.result.Fiat...)
	s.rows = append(s.rows, s.result.Crypto...)
	s.cursor.Reset(len(s.rows))
}

// window returns the half-open row range currently visible, sliding so
// the highlighted row stays inside it.
func (s *session) window() (int, int) {
	if len(s.rows) <= visibleRows {
		return 0, len(s.rows)
	}
	start := 0
	if pos := s.cursor.Pos(); pos >= visibleRows {
		start = pos - visibleRows + 1
	}
	end := start + visibleRows
	if end > len(s.rows) {
		end = len(s.rows)
	}
	return start, end
}

func (s *session) view() []string {
	lines := []string{labelStyle.Render(s.label+":") + " " + string(s.query)}
	start, end := s.window()
	if start > 0 {
		lines = append(lines, groupStyle.Render("  …"))
	}
	var prev domain.Kind
	for i := start; i < end; i++ {
		e := s.rows[i]
		if i == start || e.Kind != prev {
			lines = append(lines, groupStyle.Render("  "+groupTitle(e.Kind)))
		}
		prev = e.Kind
		lines = append(lines, s.renderRow(e, i))
	}
	if end < len(s.rows) {
		lines = append(lines, groupStyle.Render("  …"))
	}
	if s.result.NoMatches {
		lines = append(lines, noResultsStyle.Render("  no results"))
	}
	return lines
}

func (s *session) renderRow(e domain.CurrencyEntry, idx int) string {
	text := selection.Canonical(e)
	if idx == s.cursor.Pos() {
		return highlightStyle.Render("  > " + text)
	}
	return "    " + text
}

// finalLine is what the picker leaves behind in the scrollback.
func (s *session) finalLine() string {
	text := string(s.query)
	switch {
	case s.accepted:
		text = selection.Canonical(s.choice)
	case s.tracker != nil && s.tracker.Confirmed():
		text = s.tracker.Text()
	}
	return labelStyle.Render(s.label+":") + " " + text
}

func groupTitle(k domain.Kind) string {
	if k == domain.Crypto {
		return "Crypto"
	}
	return "Fiat"
}
