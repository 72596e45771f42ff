package highlight

import "strings"

// ControlPicture returns the visible stand-in drawn for a C0 control
// character or DEL. Tab, newline and carriage return are laid out by the
// editor and have no stand-in.
func ControlPicture(r rune) (rune, bool) {
	switch {
	case r == '\t' || r == '\n' || r == '\r':
		return 0, false
	case r < 0x20:
		return 0x2400 + r, true
	case r == 0x7f:
		return 0x2421, true
	}
	return 0, false
}

// Visible replaces control characters in text with their pictures so no
// document byte reaches the terminal as a control sequence.
func Visible(text string) string {
	if strings.IndexFunc(text, isControl) < 0 {
		return text
	}
	return strings.Map(func(r rune) rune {
		if p, ok := ControlPicture(r); ok {
			return p
		}
		return r
	}, text)
}

func isControl(r rune) bool {
	_, ok := ControlPicture(r)
	return ok
}
