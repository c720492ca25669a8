package annotation

import (
	"fmt"
	"math"
)

// Symbol is the direction a body-position code resolves to.
type Symbol int

const (
	Unknown Symbol = iota
	Up
	Down
	Left
	Right
)

func (s Symbol) String() string {
	switch s {
	case Up:
		return "Up (Supine)"
	case Down:
		return "Down (Prone)"
	case Left:
		return "Left"
	case Right:
		return "Right"
	default:
		return "Unknown"
	}
}

// Glyph is the single character drawn at the annotation point.
func (s Symbol) Glyph() string {
	switch s {
	case Up:
		return "↑"
	case Down:
		return "↓"
	case Left:
		return "←"
	case Right:
		return "→"
	default:
		return "?"
	}
}

// ASCII is a fallback glyph for surfaces without arrow glyphs.
func (s Symbol) ASCII() string {
	switch s {
	case Up:
		return "^"
	case Down:
		return "v"
	case Left:
		return "<"
	case Right:
		return ">"
	default:
		return "?"
	}
}

// Vector is the unit displacement of the arrow, (0, 0) for Unknown.
func (s Symbol) Vector() (dx, dy float64) {
	switch s {
	case Up:
		return 0, 1
	case Down:
		return 0, -1
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	default:
		return 0, 0
	}
}

// CodeTable maps raw body-position codes to symbols.
type CodeTable map[int]Symbol

var (
	// IndexedCodes is used by recorded files (codes 0..3).
	IndexedCodes = CodeTable{0: Up, 1: Left, 2: Right, 3: Down}
	// BandedCodes is used by the streaming device (codes 10..40).
	BandedCodes = CodeTable{10: Up, 20: Down, 30: Left, 40: Right}
)

// Lookup truncates code to an integer and resolves it; codes outside the
// table, and non-finite codes, are Unknown.
func (t CodeTable) Lookup(code float64) Symbol {
	if math.IsNaN(code) || math.IsInf(code, 0) {
		return Unknown
	}
	if s, ok := t[int(math.Trunc(code))]; ok {
		return s
	}
	return Unknown
}

// TableByName returns one of the built-in tables.
func TableByName(name string) (CodeTable, error) {
	switch name {
	case "", "indexed":
		return IndexedCodes, nil
	case "banded":
		return BandedCodes, nil
	default:
		return nil, fmt.Errorf("unknown code table %q", name)
	}
}
