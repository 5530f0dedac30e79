package tn5250

// Display attribute byte values. Every cell carries one of these; fields
// carry the attribute applied to their data cells.
const (
	AttrNormal        byte = 0x20
	AttrReverse       byte = 0x21
	AttrHighIntensity byte = 0x22
	AttrUnderscore    byte = 0x24
	AttrBlink         byte = 0x25
	AttrColumnSep     byte = 0x26
	AttrInvisible     byte = 0x27
)

// Field format word bits. The first format byte carries the protection flag
// and the character-class restriction in its low bits.
const (
	// FieldBypass marks a protected field the operator cannot type into
	FieldBypass byte = 0x20

	FieldAlpha         byte = 0x00
	FieldNumericShift  byte = 0x03
	FieldDigitsOnly    byte = 0x05
	FieldSignedNumeric byte = 0x07

	fieldClassMask byte = 0x07
)

// MaxFieldLength is the hard cap on a single field's length. The length of
// a decoded field is inferred by scanning forward in the data stream, and
// the scan never runs past this many cells.
const MaxFieldLength = 132

// Field is one data-entry or display region: a contiguous run of cells on a
// single row. Protected fields display data; input-capable fields accept
// typing and track modification through the MDT flag.
type Field struct {
	// Row and Col locate the field's first data cell, 0-based. The attribute
	// cell sits one column to the left.
	Row int
	Col int
	// Length is the number of data cells
	Length int
	// Format is the first format-word byte: protection and character class
	Format byte
	// Attr is the display attribute applied to the field's data cells
	Attr byte
	// MDT is the Modified Data Tag, set when the operator types into the
	// field and cleared by a write-to-display that requests an MDT reset
	MDT bool
}

// Bypass reports whether the field is protected from operator input.
func (f *Field) Bypass() bool {
	return f.Format&FieldBypass != 0
}

// Class returns the field's character-class restriction bits.
func (f *Field) Class() byte {
	return f.Format & fieldClassMask
}

// Contains reports whether a cell position falls inside the field's data
// cells.
func (f *Field) Contains(row, col int) bool {
	return row == f.Row && col >= f.Col && col < f.Col+f.Length
}

// AcceptsRune reports whether a character satisfies the field's class
// restriction. Alpha fields accept anything printable.
func (f *Field) AcceptsRune(r rune) bool {
	switch f.Class() {
	case FieldDigitsOnly:
		return r >= '0' && r <= '9'
	case FieldNumericShift, FieldSignedNumeric:
		return (r >= '0' && r <= '9') || r == '-' || r == '+' || r == '.' || r == ' '
	default:
		return r >= 0x20 && r < 0x7F
	}
}
