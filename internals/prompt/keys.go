package prompt

import (
	"unicode"
	"unicode/utf8"
)

type Key uint8

const (
	KeyRune Key = iota
	KeyUp
	KeyDown
	KeyEnter
	KeyEsc
	KeyBackspace
	KeyCtrlC
)

// KeyEvent is one decoded keypress. Rune is only set for KeyRune.
type KeyEvent struct {
	Key  Key
	Rune rune
}

// decode translates the bytes of a single raw-mode read into key events.
// Terminals deliver a whole escape sequence in one read, so a lone ESC
// byte is the Escape key itself rather than the start of a sequence.
func decode(buf []byte) []KeyEvent {
	if len(buf) == 0 {
		return nil
	}
	if buf[0] == 0x1b {
		if len(buf) == 1 {
			return []KeyEvent{{Key: KeyEsc}}
		}
		if len(buf) >= 3 && buf[1] == '[' {
			switch buf[2] {
			case 'A':
				return []KeyEvent{{Key: KeyUp}}
			case 'B':
				return []KeyEvent{{Key: KeyDown}}
			}
		}
		// Unrecognized sequences (function keys, left/right arrows) are
		// swallowed so they cannot leak garbage into the query.
		return nil
	}

	var events []KeyEvent
	for i := 0; i < len(buf); {
		r, size := utf8.DecodeRune(buf[i:])
		i += size
		switch {
		case r == '\r' || r == '\n':
			events = append(events, KeyEvent{Key: KeyEnter})
		case r == 0x7f || r == '\b':
			events = append(events, KeyEvent{Key: KeyBackspace})
		case r == 0x03:
			events = append(events, KeyEvent{Key: KeyCtrlC})
		case unicode.IsPrint(r):
			events = append(events, KeyEvent{Key: KeyRune, Rune: r})
		}
	}
	return events
}
