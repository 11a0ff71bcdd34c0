package training

import (
	"strings"
	"unicode"
)

// Finger is the finger that types a key on a US QWERTY board.
type Finger int

const (
	FingerUnknown Finger = iota
	FingerPinky
	FingerRing
	FingerMiddle
	FingerLeftIndex
	FingerRightIndex
	FingerThumb
)

func (f Finger) String() string {
	switch f {
	case FingerPinky:
		return "Pinky"
	case FingerRing:
		return "Ring"
	case FingerMiddle:
		return "Middle"
	case FingerLeftIndex:
		return "L_Index"
	case FingerRightIndex:
		return "R_Index"
	case FingerThumb:
		return "Thumb"
	default:
		return "?"
	}
}

var fingerKeys = []struct {
	finger Finger
	keys   string
}{
	{FingerPinky, "~`1!qQaAzZ"},
	{FingerRing, "2@wWsSxX"},
	{FingerMiddle, "3#eEdDcC"},
	{FingerLeftIndex, "4$5%rRtTfFgGvVbB"},
	{FingerThumb, " "},
	{FingerRightIndex, "6^7&yYuUhHjJnNmM"},
	{FingerMiddle, "8*iIkK,<"},
	{FingerRing, "9(oOlL.>"},
	{FingerPinky, "0)-_=+pP[{]}\\|;:'\"/?"},
}

// FingerFor returns the finger responsible for r.
func FingerFor(r rune) Finger {
	for _, fk := range fingerKeys {
		if strings.ContainsRune(fk.keys, r) {
			return fk.finger
		}
	}
	return FingerUnknown
}

// KeyClass is the character class of a key.
type KeyClass int

const (
	ClassSymbol KeyClass = iota
	ClassLower
	ClassUpper
	ClassDigit
	ClassPunct
)

func (c KeyClass) String() string {
	switch c {
	case ClassLower:
		return "Lower"
	case ClassUpper:
		return "Upper"
	case ClassDigit:
		return "Number"
	case ClassPunct:
		return "Punct"
	default:
		return "Symbol"
	}
}

const punctKeys = ",.?\"'-:;"

// ClassOf returns the character class of r.
func ClassOf(r rune) KeyClass {
	switch {
	case unicode.IsLetter(r) && unicode.IsLower(r):
		return ClassLower
	case unicode.IsLetter(r):
		return ClassUpper
	case unicode.IsDigit(r):
		return ClassDigit
	case strings.ContainsRune(punctKeys, r):
		return ClassPunct
	default:
		return ClassSymbol
	}
}

// LayoutCell is one position in the keyboard drawing. Label cells are
// rendered verbatim; key cells carry the rune they represent.
type LayoutCell struct {
	Label string
	Key   rune
	IsKey bool
}

// LayoutRow pairs the shifted and unshifted rows of one physical row.
type LayoutRow struct {
	Shifted []LayoutCell
	Normal  []LayoutCell
}

func cells(labels ...string) []LayoutCell {
	out := make([]LayoutCell, len(labels))
	for i, s := range labels {
		runes := []rune(s)
		if len(runes) == 1 && s != " " {
			out[i] = LayoutCell{Key: runes[0], IsKey: true}
			continue
		}
		out[i] = LayoutCell{Label: s}
	}
	return out
}

const (
	layoutIndent = "       "
	layoutEmpty  = "           "
)

// Layout is a US QWERTY keyboard, top row first.
var Layout = []LayoutRow{
	{
		Shifted: cells(layoutIndent, "~", "!", "@", "#", "$", "%", "^", "&", "*", "(", ")", "_", "+", " [ BACKSPACE ] "),
		Normal:  cells(layoutIndent, "`", "1", "2", "3", "4", "5", "6", "7", "8", "9", "0", "-", "="),
	},
	{
		Shifted: cells(" [  TAB  ] ", "Q", "W", "E", "R", "T", "Y", "U", "I", "O", "P", "{", "}", "|"),
		Normal:  cells(layoutEmpty, "q", "w", "e", "r", "t", "y", "u", "i", "o", "p", "[", "]", "\\"),
	},
	{
		Shifted: cells(" [  CAPS  ] ", "A", "S", "D", "F", "G", "H", "J", "K", "L", ":", "\"", " [  ENTER  ] "),
		Normal:  cells(layoutEmpty+" ", "a", "s", "d", "f", "g", "h", "j", "k", "l", ";", "'"),
	},
	{
		Shifted: cells(" [ L_SHIFT ] ", "Z", "X", "C", "V", "B", "N", "M", "<", ">", "?", " [ R_SHIFT ] "),
		Normal:  cells(layoutEmpty+"  ", "z", "x", "c", "v", "b", "n", "m", ",", ".", "/"),
	},
}
