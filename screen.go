package tn5250

import "strings"

// Default display geometry. A model 3179-2 terminal is 24 rows of 80
// columns; larger 27x132 screens use the same addressing.
const (
	DefaultRows = 24
	DefaultCols = 80
)

// Screen is an addressable character grid with an overlaid list of fields
// and a cursor. It is pure state: the decoder mutates it in response to
// incoming orders and local input handling mutates it in response to typing.
// A Screen belongs to exactly one session and needs no locking.
type Screen struct {
	rows int
	cols int

	chars []byte
	attrs []byte

	cursorRow int
	cursorCol int

	// caret is the rest position requested by the last Insert Cursor order
	caretRow int
	caretCol int

	fields []*Field
}

// NewScreen creates an empty screen at the default 24x80 geometry.
func NewScreen() *Screen {
	return NewScreenSize(DefaultRows, DefaultCols)
}

// NewScreenSize creates an empty screen at a caller-chosen geometry.
func NewScreenSize(rows, cols int) *Screen {
	if rows <= 0 {
		rows = DefaultRows
	}
	if cols <= 0 {
		cols = DefaultCols
	}

	s := &Screen{
		rows:  rows,
		cols:  cols,
		chars: make([]byte, rows*cols),
		attrs: make([]byte, rows*cols),
	}
	s.Clear()

	return s
}

// Rows returns the grid height.
func (s *Screen) Rows() int { return s.rows }

// Cols returns the grid width.
func (s *Screen) Cols() int { return s.cols }

// Clear resets every cell to a space with the normal attribute, empties the
// field list, and homes the cursor.
func (s *Screen) Clear() {
	for i := range s.chars {
		s.chars[i] = ' '
		s.attrs[i] = AttrNormal
	}

	s.cursorRow, s.cursorCol = 0, 0
	s.caretRow, s.caretCol = 0, 0
	s.fields = nil
}

func (s *Screen) clampRow(row int) int {
	if row < 0 {
		return 0
	}
	if row >= s.rows {
		return s.rows - 1
	}
	return row
}

func (s *Screen) clampCol(col int) int {
	if col < 0 {
		return 0
	}
	if col >= s.cols {
		return s.cols - 1
	}
	return col
}

// Cursor returns the current cursor position.
func (s *Screen) Cursor() (row, col int) {
	return s.cursorRow, s.cursorCol
}

// SetCursor moves the cursor, clamping to grid bounds.
func (s *Screen) SetCursor(row, col int) {
	s.cursorRow = s.clampRow(row)
	s.cursorCol = s.clampCol(col)
}

// Caret returns the cursor rest position set by the last Insert Cursor
// order.
func (s *Screen) Caret() (row, col int) {
	return s.caretRow, s.caretCol
}

// SetCaret records the cursor rest position, clamping to grid bounds.
func (s *Screen) SetCaret(row, col int) {
	s.caretRow = s.clampRow(row)
	s.caretCol = s.clampCol(col)
}

// AdvanceCursor moves the cursor one cell forward, wrapping the column onto
// the next row and the last row back onto row 0. Wrapping never scrolls.
func (s *Screen) AdvanceCursor() {
	s.cursorCol++
	if s.cursorCol >= s.cols {
		s.cursorCol = 0
		s.cursorRow++
		if s.cursorRow >= s.rows {
			s.cursorRow = 0
		}
	}
}

// CharAt returns the character at a cell, or space if out of bounds.
func (s *Screen) CharAt(row, col int) byte {
	if row < 0 || row >= s.rows || col < 0 || col >= s.cols {
		return ' '
	}
	return s.chars[row*s.cols+col]
}

// AttrAt returns the display attribute at a cell, or the normal attribute if
// out of bounds.
func (s *Screen) AttrAt(row, col int) byte {
	if row < 0 || row >= s.rows || col < 0 || col >= s.cols {
		return AttrNormal
	}
	return s.attrs[row*s.cols+col]
}

// SetCell writes a character and attribute at a cell. Out-of-bounds
// positions are ignored.
func (s *Screen) SetCell(row, col int, ch, attr byte) {
	if row < 0 || row >= s.rows || col < 0 || col >= s.cols {
		return
	}

	s.chars[row*s.cols+col] = ch
	s.attrs[row*s.cols+col] = attr
}

// WriteChar writes a character at the cursor and advances it.
func (s *Screen) WriteChar(ch, attr byte) {
	s.SetCell(s.cursorRow, s.cursorCol, ch, attr)
	s.AdvanceCursor()
}

// AddField appends a field to the screen's field list, clamping its start
// position to the grid and its length to both the row width and the
// protocol's hard cap. The clamped field is returned.
func (s *Screen) AddField(field Field) *Field {
	field.Row = s.clampRow(field.Row)
	field.Col = s.clampCol(field.Col)

	if field.Length < 1 {
		field.Length = 1
	}
	if field.Length > MaxFieldLength {
		field.Length = MaxFieldLength
	}
	if field.Col+field.Length > s.cols {
		field.Length = s.cols - field.Col
	}

	added := &field
	s.fields = append(s.fields, added)

	return added
}

// Fields returns the screen's fields in definition order.
func (s *Screen) Fields() []*Field {
	return s.fields
}

// FieldAt returns the first field in definition order containing the given
// cell, or nil.
func (s *Screen) FieldAt(row, col int) *Field {
	for _, field := range s.fields {
		if field.Contains(row, col) {
			return field
		}
	}

	return nil
}

// ReadField returns a field's current contents with trailing blanks
// trimmed.
func (s *Screen) ReadField(field *Field) string {
	raw := make([]byte, field.Length)
	for i := 0; i < field.Length; i++ {
		raw[i] = s.CharAt(field.Row, field.Col+i)
	}

	return strings.TrimRight(string(raw), " ")
}

// SetFieldText replaces a field's contents, space-padding or truncating to
// the field length, and sets its MDT.
func (s *Screen) SetFieldText(field *Field, text string) {
	for i := 0; i < field.Length; i++ {
		ch := byte(' ')
		if i < len(text) {
			ch = text[i]
		}

		s.SetCell(field.Row, field.Col+i, ch, field.Attr)
	}

	field.MDT = true
}

// ModifiedFields returns the fields whose MDT is set, in definition order.
func (s *Screen) ModifiedFields() []*Field {
	var modified []*Field
	for _, field := range s.fields {
		if field.MDT {
			modified = append(modified, field)
		}
	}

	return modified
}

// ResetMDT clears the Modified Data Tag on every field.
func (s *Screen) ResetMDT() {
	for _, field := range s.fields {
		field.MDT = false
	}
}

// inputFields returns the input-capable fields sorted by position. This is
// the tab order.
func (s *Screen) inputFields() []*Field {
	var inputs []*Field
	for _, field := range s.fields {
		if !field.Bypass() {
			inputs = append(inputs, field)
		}
	}

	for i := 1; i < len(inputs); i++ {
		for j := i; j > 0; j-- {
			a, b := inputs[j-1], inputs[j]
			if a.Row < b.Row || (a.Row == b.Row && a.Col <= b.Col) {
				break
			}
			inputs[j-1], inputs[j] = b, a
		}
	}

	return inputs
}

// NextInputField moves the cursor to the start of the next input-capable
// field in tab order, wrapping around. It reports whether the screen has any
// input field at all.
func (s *Screen) NextInputField() bool {
	inputs := s.inputFields()
	if len(inputs) == 0 {
		return false
	}

	for _, field := range inputs {
		if field.Row > s.cursorRow || (field.Row == s.cursorRow && field.Col > s.cursorCol) {
			s.SetCursor(field.Row, field.Col)
			return true
		}
	}

	s.SetCursor(inputs[0].Row, inputs[0].Col)
	return true
}

// PrevInputField moves the cursor to the start of the previous input-capable
// field in tab order, wrapping around. It reports whether the screen has any
// input field at all.
func (s *Screen) PrevInputField() bool {
	inputs := s.inputFields()
	if len(inputs) == 0 {
		return false
	}

	for i := len(inputs) - 1; i >= 0; i-- {
		field := inputs[i]
		if field.Row < s.cursorRow || (field.Row == s.cursorRow && field.Col < s.cursorCol) {
			s.SetCursor(field.Row, field.Col)
			return true
		}
	}

	last := inputs[len(inputs)-1]
	s.SetCursor(last.Row, last.Col)
	return true
}

// TypeRune types one character into the input field under the cursor,
// setting the field's MDT and advancing the cursor. Typing past the end of
// the field tabs to the next input field. It reports whether the character
// was accepted: typing outside any input field, into a protected field, or
// a character the field's class refuses is ignored.
func (s *Screen) TypeRune(r rune) bool {
	field := s.FieldAt(s.cursorRow, s.cursorCol)
	if field == nil || field.Bypass() || !field.AcceptsRune(r) {
		return false
	}

	s.SetCell(s.cursorRow, s.cursorCol, byte(r), field.Attr)
	field.MDT = true

	if s.cursorCol+1 < field.Col+field.Length {
		s.SetCursor(s.cursorRow, s.cursorCol+1)
	} else {
		s.NextInputField()
	}

	return true
}

// Backspace blanks the cell before the cursor within the current input
// field and moves the cursor back. At the start of a field it does nothing.
// It reports whether anything changed.
func (s *Screen) Backspace() bool {
	field := s.FieldAt(s.cursorRow, s.cursorCol)
	if field == nil || field.Bypass() || s.cursorCol <= field.Col {
		return false
	}

	s.SetCursor(s.cursorRow, s.cursorCol-1)
	s.SetCell(s.cursorRow, s.cursorCol, ' ', field.Attr)
	field.MDT = true

	return true
}

// EraseUnprotected blanks every input-capable field, clears all MDTs, and
// moves the cursor to the first input field in tab order.
func (s *Screen) EraseUnprotected() {
	for _, field := range s.fields {
		if field.Bypass() {
			continue
		}

		for i := 0; i < field.Length; i++ {
			s.SetCell(field.Row, field.Col+i, ' ', field.Attr)
		}
	}

	s.ResetMDT()

	inputs := s.inputFields()
	if len(inputs) > 0 {
		s.SetCursor(inputs[0].Row, inputs[0].Col)
	}
}

// RowText returns one row of the grid as text.
func (s *Screen) RowText(row int) string {
	if row < 0 || row >= s.rows {
		return ""
	}

	return string(s.chars[row*s.cols : (row+1)*s.cols])
}

// Dump renders the whole grid inside a border, for debugging.
func (s *Screen) Dump() string {
	var sb strings.Builder
	sb.Grow((s.rows + 2) * (s.cols + 3))

	border := "+" + strings.Repeat("-", s.cols) + "+\n"
	sb.WriteString(border)

	for row := 0; row < s.rows; row++ {
		sb.WriteByte('|')
		sb.WriteString(s.RowText(row))
		sb.WriteString("|\n")
	}

	sb.WriteString(border)
	return sb.String()
}
