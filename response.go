package tn5250

import (
	"errors"
	"fmt"
	"strings"

	"github.com/moodclient/tn5250/ebcdic"
)

// ErrShortResponse is returned when an AID response record is too short to
// carry a cursor position and an AID byte.
var ErrShortResponse = errors.New("response record too short")

// Response is a parsed client-to-host AID record: which key ended the input
// cycle, where the cursor was, and the contents of every modified field
// matched back to the logical names the screen was built with.
type Response struct {
	AID       byte
	Key       string
	CursorRow int
	CursorCol int
	Fields    map[string]string
}

// EncodeResponse builds the client-to-host record for an AID key press:
// 1-based cursor position, the AID byte, and an SBA-addressed group for
// every field with its MDT set. Clear sends no field data. The record is
// terminated with the end-of-record marker.
func EncodeResponse(screen *Screen, aid byte) []byte {
	cursorRow, cursorCol := screen.Cursor()

	record := []byte{byte(cursorRow + 1), byte(cursorCol + 1), aid}

	if aid != AIDClear {
		for _, field := range screen.ModifiedFields() {
			hi, lo := encodeAddress(field.Row, field.Col)
			record = append(record, OrderSBA, hi, lo)
			record = append(record, ebcdic.EncodeString(screen.ReadField(field))...)
		}
	}

	return append(record, IAC, EOR)
}

// ParseResponse decodes an AID record (without its end-of-record marker)
// against the field locations the screen was built with. Field groups are
// matched to locations by row with one column of tolerance, absorbing the
// off-by-one between a field's attribute cell and its first data cell;
// groups matching no location are dropped.
func ParseResponse(record []byte, fields []FieldLocation) (Response, error) {
	if len(record) < 3 {
		return Response{}, fmt.Errorf("%w: %d bytes", ErrShortResponse, len(record))
	}

	cursorRow, cursorCol := decodeAddress(record[0], record[1])

	response := Response{
		AID:       record[2],
		Key:       AIDName(record[2]),
		CursorRow: cursorRow,
		CursorCol: cursorCol,
		Fields:    make(map[string]string),
	}

	index := 3
	for index < len(record) {
		if record[index] != OrderSBA || index+2 >= len(record) {
			// not a field group; nothing else is defined at this level
			index++
			continue
		}

		row, col := decodeAddress(record[index+1], record[index+2])
		index += 3

		dataStart := index
		for index < len(record) && record[index] != OrderSBA {
			index++
		}

		value := strings.TrimRight(ebcdic.DecodeString(record[dataStart:index]), " ")

		if location, matched := matchField(fields, row, col); matched {
			response.Fields[location.Name] = value
		}
	}

	return response, nil
}

func matchField(fields []FieldLocation, row, col int) (FieldLocation, bool) {
	for _, location := range fields {
		if location.Row != row {
			continue
		}

		delta := col - location.Col
		if delta >= -1 && delta <= 1 {
			return location, true
		}
	}

	return FieldLocation{}, false
}
