// Package selection owns the per-field selection state: the canonical
// "CODE - Name" text a chosen entry pins to an input, and the rule that
// any edit away from that text voids the choice.
package selection

import (
	"fmt"
	"strings"

	"coinvert/internals/core/domain"
)

// Canonical returns the display text a confirmed selection pins to its
// input field.
func Canonical(e domain.CurrencyEntry) string {
	return fmt.Sprintf("%s - %s", e.Code, e.Name)
}

// Parse recovers the entry a field's text denotes: either the canonical
// "CODE - Name" form, exactly as pinned, or a bare catalog code in any
// case. Anything else yields no entry, so edited text still needs a
// fresh selection.
func Parse(text string, cat *domain.Catalog) (domain.CurrencyEntry, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return domain.CurrencyEntry{}, false
	}

	code, _, pinned := strings.Cut(trimmed, " - ")
	e, ok := cat.Lookup(code)
	if !ok {
		return domain.CurrencyEntry{}, false
	}
	if pinned && trimmed != Canonical(e) {
		return domain.CurrencyEntry{}, false
	}
	return e, true
}

// Tracker holds one input field's text and its confirmed selection, if
// any. The zero value is an empty unconfirmed field.
type Tracker struct {
	text      string
	entry     domain.CurrencyEntry
	confirmed bool
}

// Select confirms entry and canonicalizes the field text.
func (t *Tracker) Select(e domain.CurrencyEntry) {
	t.entry = e
	t.text = Canonical(e)
	t.confirmed = true
}

// Input records a keystroke's resulting text. Text that no longer equals
// the canonical form drops the confirmation, forcing a re-selection
// before a conversion may proceed.
func (t *Tracker) Input(text string) {
	t.text = text
	if t.confirmed && text != Canonical(t.entry) {
		t.confirmed = false
	}
}

// Clear empties the field and drops any confirmation.
func (t *Tracker) Clear() {
	*t = Tracker{}
}

// Text returns the field's current text.
func (t *Tracker) Text() string {
	return t.text
}

// Confirmed reports whether the field holds a confirmed selection.
func (t *Tracker) Confirmed() bool {
	return t.confirmed
}

// Selection returns the confirmed selection, or ok=false when the field
// has none.
func (t *Tracker) Selection() (domain.Selection, bool) {
	if !t.confirmed {
		return domain.Selection{}, false
	}
	return t.entry.Selection(), true
}

// Entry returns the confirmed catalog entry, or ok=false when the field
// has none.
func (t *Tracker) Entry() (domain.CurrencyEntry, bool) {
	if !t.confirmed {
		return domain.CurrencyEntry{}, false
	}
	return t.entry, true
}
