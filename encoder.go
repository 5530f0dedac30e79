package tn5250

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/moodclient/tn5250/ebcdic"
)

// ErrFieldTooLong is returned by Build when a field was defined longer than
// the protocol's hard cap.
var ErrFieldTooLong = errors.New("field length exceeds maximum")

// ErrFieldOffScreen is returned by Build when a field was defined outside
// the screen, or running past the end of its row.
var ErrFieldOffScreen = errors.New("field does not fit on the screen")

// FieldLocation names one input-capable field a Builder placed on the
// screen, so the values in a later AID response can be matched back to
// logical names. Row and Col locate the field's first data cell, one column
// after the attribute cell.
type FieldLocation struct {
	Name   string
	Row    int
	Col    int
	Length int
}

// Builder serializes a screen into the 5250 byte grammar, host to terminal.
// Calls chain; the first definition error sticks and is reported by Build.
// Convenience composites (centered text, boxes, labeled fields) layer on the
// same primitives the protocol defines.
type Builder struct {
	rows int
	cols int

	buf      bytes.Buffer
	fields   []FieldLocation
	fieldSeq int
	err      error
}

// NewBuilder creates a Builder for the default 24x80 geometry.
func NewBuilder() *Builder {
	return NewBuilderSize(DefaultRows, DefaultCols)
}

// NewBuilderSize creates a Builder for a caller-chosen geometry.
func NewBuilderSize(rows, cols int) *Builder {
	if rows <= 0 {
		rows = DefaultRows
	}
	if cols <= 0 {
		cols = DefaultCols
	}

	return &Builder{rows: rows, cols: cols}
}

// Reset discards everything built so far, keeping the geometry.
func (b *Builder) Reset() *Builder {
	b.buf.Reset()
	b.fields = nil
	b.fieldSeq = 0
	b.err = nil

	return b
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}

	return b
}

// Clear emits a Clear-Unit command.
func (b *Builder) Clear() *Builder {
	b.buf.Write([]byte{ESC, CmdClearUnit})
	return b
}

// WriteToDisplay emits the Write-To-Display command that the orders and data
// of the screen follow. The control character carries the reset-MDT and
// clear-unit requests.
func (b *Builder) WriteToDisplay(resetMDT, clearUnit bool) *Builder {
	var wcc byte
	if resetMDT {
		wcc |= WCCResetMDT
	}
	if clearUnit {
		wcc |= WCCClearUnit
	}

	b.buf.Write([]byte{ESC, CmdWriteToDisplay, wcc})
	return b
}

func (b *Builder) clampPosition(row, col int) (int, int) {
	if row < 0 {
		row = 0
	}
	if row >= b.rows {
		row = b.rows - 1
	}
	if col < 0 {
		col = 0
	}
	if col >= b.cols {
		col = b.cols - 1
	}

	return row, col
}

// SetBufferAddress emits an SBA order moving the write position.
func (b *Builder) SetBufferAddress(row, col int) *Builder {
	row, col = b.clampPosition(row, col)
	hi, lo := encodeAddress(row, col)
	b.buf.Write([]byte{OrderSBA, hi, lo})

	return b
}

// InsertCursor emits an IC order setting the cursor's rest position.
func (b *Builder) InsertCursor(row, col int) *Builder {
	row, col = b.clampPosition(row, col)
	hi, lo := encodeAddress(row, col)
	b.buf.Write([]byte{OrderIC, hi, lo})

	return b
}

// Text appends literal text at the current write position.
func (b *Builder) Text(text string) *Builder {
	b.buf.Write(ebcdic.EncodeString(text))
	return b
}

// TextAt positions and writes literal text in one call.
func (b *Builder) TextAt(row, col int, text string) *Builder {
	return b.SetBufferAddress(row, col).Text(text)
}

// RepeatToAddress emits an RA order filling with one character from the
// current write position up to, but not including, the target.
func (b *Builder) RepeatToAddress(row, col int, fill rune) *Builder {
	row, col = b.clampPosition(row, col)
	hi, lo := encodeAddress(row, col)
	b.buf.Write([]byte{OrderRA, hi, lo, ebcdic.FromASCII(byte(fill))})

	return b
}

// StartField defines a field whose attribute cell is at (row, col) and whose
// data cells are the length columns after it. Input-capable fields are
// recorded under a generated name; use InputField to choose the name.
func (b *Builder) StartField(row, col, length int, protected bool, attr byte) *Builder {
	var format byte
	if protected {
		format |= FieldBypass
	}

	return b.startField("", row, col, length, format, attr)
}

func (b *Builder) startField(name string, row, col, length int, format, attr byte) *Builder {
	if length > MaxFieldLength {
		return b.fail(fmt.Errorf("%w: %d cells at row %d col %d", ErrFieldTooLong, length, row, col))
	}
	if length < 1 || row < 0 || row >= b.rows || col < 0 || col+length >= b.cols {
		return b.fail(fmt.Errorf("%w: %d cells at row %d col %d", ErrFieldOffScreen, length, row, col))
	}

	b.SetBufferAddress(row, col)
	b.buf.Write([]byte{OrderSF, format, attr})

	if format&FieldBypass == 0 {
		if name == "" {
			b.fieldSeq++
			name = fmt.Sprintf("FLD%03d", b.fieldSeq)
		}

		// data begins one cell after the attribute cell
		b.fields = append(b.fields, FieldLocation{
			Name:   name,
			Row:    row,
			Col:    col + 1,
			Length: length,
		})

		// the blank body is what the receiving decoder infers the field's
		// length from
		for i := 0; i < length; i++ {
			b.buf.WriteByte(ebcdic.Space)
		}
	}

	return b
}

// InputField defines a named input-capable field with underscore fill, its
// attribute cell at (row, col).
func (b *Builder) InputField(name string, row, col, length int) *Builder {
	return b.startField(name, row, col, length, FieldAlpha, AttrUnderscore)
}

// HiddenField defines a named input-capable field whose typed contents are
// not displayed, for passwords.
func (b *Builder) HiddenField(name string, row, col, length int) *Builder {
	return b.startField(name, row, col, length, FieldAlpha, AttrInvisible)
}

// OutputField defines a protected field displaying fixed text.
func (b *Builder) OutputField(row, col int, text string, attr byte) *Builder {
	b.startField("", row, col, len(text), FieldBypass, attr)
	return b.Text(text)
}

// CenterText writes literal text centered on a row.
func (b *Builder) CenterText(row int, text string) *Builder {
	col := (b.cols - len(text)) / 2
	if col < 0 {
		col = 0
	}

	return b.TextAt(row, col, text)
}

// RightText writes literal text ending at the last column of a row.
func (b *Builder) RightText(row int, text string) *Builder {
	col := b.cols - len(text)
	if col < 0 {
		col = 0
	}

	return b.TextAt(row, col, text)
}

// HorizontalLine fills a span of one row with dashes.
func (b *Builder) HorizontalLine(row, col, length int) *Builder {
	return b.SetBufferAddress(row, col).RepeatToAddress(row, col+length, '-')
}

// Box draws a bordered rectangle between two corners, inclusive.
func (b *Builder) Box(top, left, bottom, right int) *Builder {
	if top > bottom || left > right {
		return b.fail(fmt.Errorf("%w: box corners (%d,%d)-(%d,%d)", ErrFieldOffScreen, top, left, bottom, right))
	}

	b.TextAt(top, left, "+").RepeatToAddress(top, right, '-').Text("+")
	for row := top + 1; row < bottom; row++ {
		b.TextAt(row, left, "|")
		b.TextAt(row, right, "|")
	}
	b.TextAt(bottom, left, "+").RepeatToAddress(bottom, right, '-').Text("+")

	return b
}

// Fields returns the input-capable fields defined so far, in definition
// order.
func (b *Builder) Fields() []FieldLocation {
	return b.fields
}

// Err returns the first definition error, if any.
func (b *Builder) Err() error {
	return b.err
}

// Build terminates the record with the end-of-record marker and returns the
// finished byte sequence. The builder can be Reset and reused afterwards.
func (b *Builder) Build() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}

	record := make([]byte, 0, b.buf.Len()+2)
	record = append(record, b.buf.Bytes()...)
	record = append(record, IAC, EOR)

	return record, nil
}
