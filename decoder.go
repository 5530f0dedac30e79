package tn5250

import (
	"io"
	"log/slog"

	"github.com/moodclient/tn5250/ebcdic"
)

// 5250 stream framing bytes
const (
	// ESC introduces a top-level command
	ESC byte = 0x04
	// SOH introduces a length-prefixed header block, which is skipped
	SOH byte = 0x01
)

// 5250 top-level commands, each preceded by ESC
const (
	CmdWriteToDisplay byte = 0x11
	CmdRoll           byte = 0x23
	CmdClearUnit      byte = 0x40
)

// 5250 orders inside a Write-To-Display body
const (
	OrderRA  byte = 0x02
	OrderSBA byte = 0x11
	OrderIC  byte = 0x13
	OrderSF  byte = 0x1D
)

// Write-Control-Character bits
const (
	WCCClearUnit byte = 0x20
	WCCResetMDT  byte = 0x40
)

// encodeAddress produces the 2-byte 1-based wire form of a cell position.
func encodeAddress(row, col int) (byte, byte) {
	return byte(row + 1), byte(col + 1)
}

// decodeAddress recovers a 0-based cell position from its wire form. Zero
// bytes, which a 1-based encoder never produces, are tolerated as 0.
func decodeAddress(hi, lo byte) (row, col int) {
	row = int(hi)
	if row > 0 {
		row--
	}

	col = int(lo)
	if col > 0 {
		col--
	}

	return row, col
}

// wtdState is the parser state for one Write-To-Display body: the control
// character's effects plus the attribute applied to subsequent data bytes.
type wtdState struct {
	clearUnit bool
	resetMDT  bool

	// attr is set by each Start Field order and applies to the data bytes
	// that follow it
	attr byte
}

// Decoder applies 5250 payload records to a Screen. Malformed data is never
// fatal: unknown bytes are logged and skipped, truncated trailing orders are
// left unapplied, and out-of-range addresses clamp to the grid.
//
// A Decoder call never spans two records; the caller feeds it one complete
// EOR-delimited record at a time.
type Decoder struct {
	screen *Screen
	logger *slog.Logger
}

// NewDecoder creates a Decoder bound to a screen. A nil logger discards the
// decoder's protocol warnings.
func NewDecoder(screen *Screen, logger *slog.Logger) *Decoder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Decoder{
		screen: screen,
		logger: logger,
	}
}

// Decode applies one complete record to the screen.
func (d *Decoder) Decode(record []byte) {
	index := 0
	for index < len(record) {
		switch record[index] {
		case ESC:
			if index+1 >= len(record) {
				d.logger.Debug("record ended on a bare ESC")
				return
			}

			command := record[index+1]
			index += 2
			index = d.decodeCommand(record, index, command)
		case SOH:
			if index+1 >= len(record) {
				d.logger.Debug("record ended on a bare SOH")
				return
			}

			headerLength := int(record[index+1])
			index += 2 + headerLength
		default:
			// data outside any command; recover by treating it as screen text
			d.logger.Debug("data byte outside a write-to-display", "byte", record[index])
			d.screen.WriteChar(ebcdic.ToASCII(record[index]), AttrNormal)
			index++
		}
	}
}

func (d *Decoder) decodeCommand(record []byte, index int, command byte) int {
	switch command {
	case CmdClearUnit:
		d.screen.Clear()
		return index
	case CmdWriteToDisplay:
		if index >= len(record) {
			d.logger.Debug("write-to-display truncated before its control character")
			return index
		}

		wcc := record[index]
		index++

		state := wtdState{
			clearUnit: wcc&WCCClearUnit != 0,
			resetMDT:  wcc&WCCResetMDT != 0,
			attr:      AttrNormal,
		}

		if state.clearUnit {
			d.screen.Clear()
		}
		if state.resetMDT {
			d.screen.ResetMDT()
		}

		return d.decodeOrders(record, index, &state)
	case CmdRoll:
		// direction and window decoded for the log, scrolling not applied
		if index+2 < len(record) {
			flags := record[index]
			d.logger.Debug("ignoring roll command",
				"lines", flags&0x1F,
				"up", flags&0x80 == 0,
				"top", record[index+1],
				"bottom", record[index+2])
		}
		return min(index+3, len(record))
	default:
		d.logger.Warn("skipping unknown command", "command", command)
		return index
	}
}

// decodeOrders walks a Write-To-Display body until the next ESC/SOH boundary
// or the end of the record, applying each order to the screen.
func (d *Decoder) decodeOrders(record []byte, index int, state *wtdState) int {
	for index < len(record) {
		switch record[index] {
		case ESC, SOH:
			return index
		case OrderSBA:
			if index+2 >= len(record) {
				d.logger.Debug("set-buffer-address truncated")
				return len(record)
			}

			row, col := decodeAddress(record[index+1], record[index+2])
			d.screen.SetCursor(row, col)
			index += 3
		case OrderIC:
			if index+2 >= len(record) {
				d.logger.Debug("insert-cursor truncated")
				return len(record)
			}

			row, col := decodeAddress(record[index+1], record[index+2])
			d.screen.SetCursor(row, col)
			d.screen.SetCaret(row, col)
			index += 3
		case OrderSF:
			if index+2 >= len(record) {
				d.logger.Debug("start-field truncated")
				return len(record)
			}

			format := record[index+1]
			attr := record[index+2]
			index += 3

			length := fieldLength(record, index)
			d.startField(format, attr, length, state)
		case OrderRA:
			if index+3 >= len(record) {
				d.logger.Debug("repeat-to-address truncated")
				return len(record)
			}

			row, col := decodeAddress(record[index+1], record[index+2])
			fill := ebcdic.ToASCII(record[index+3])
			index += 4

			d.repeatToAddress(row, col, fill, state)
		default:
			d.screen.WriteChar(ebcdic.ToASCII(record[index]), state.attr)
			index++
		}
	}

	return index
}

// fieldLength infers a field's length by scanning forward from the first
// data byte to the next order or command boundary, capped at the protocol
// maximum and floored at one cell. The order bytes all sit below the EBCDIC
// printable range, so they can never be field content.
func fieldLength(record []byte, index int) int {
	length := 0
	for index+length < len(record) && length < MaxFieldLength {
		switch record[index+length] {
		case OrderSF, OrderSBA, OrderIC, OrderRA, ESC, SOH:
			return max(length, 1)
		}

		length++
	}

	return max(length, 1)
}

// startField defines a field at the cursor. The cursor cell itself is the
// attribute placeholder; the field's data begins one cell after it.
func (d *Decoder) startField(format, attr byte, length int, state *wtdState) {
	row, col := d.screen.Cursor()
	d.screen.SetCell(row, col, ' ', attr)

	d.screen.AddField(Field{
		Row:    row,
		Col:    col + 1,
		Length: length,
		Format: format,
		Attr:   attr,
	})

	d.screen.AdvanceCursor()
	state.attr = attr
}

// repeatToAddress fills cells with a character from the current cursor
// position up to, but not including, the target, leaving the cursor at the
// target.
func (d *Decoder) repeatToAddress(row, col int, fill byte, state *wtdState) {
	row = d.screen.clampRow(row)
	col = d.screen.clampCol(col)

	target := row*d.screen.Cols() + col
	cursorRow, cursorCol := d.screen.Cursor()
	position := cursorRow*d.screen.Cols() + cursorCol

	if target < position {
		d.logger.Warn("repeat-to-address target precedes the cursor",
			"cursorRow", cursorRow, "cursorCol", cursorCol,
			"targetRow", row, "targetCol", col)
	}

	for position < target {
		d.screen.WriteChar(fill, state.attr)
		position++
	}

	d.screen.SetCursor(row, col)
}
