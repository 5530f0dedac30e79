package tn5250

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moodclient/tn5250/ebcdic"
)

func TestEncodeResponseLayout(t *testing.T) {
	screen := NewScreen()
	field := screen.AddField(Field{Row: 7, Col: 31, Length: 10})
	screen.SetFieldText(field, "DEMO")
	screen.SetCursor(7, 35)

	record := EncodeResponse(screen, AIDEnter)

	expected := []byte{8, 36, AIDEnter, OrderSBA, 8, 32}
	expected = append(expected, ebcdic.EncodeString("DEMO")...)
	expected = append(expected, IAC, EOR)
	assert.Equal(t, expected, record)
}

func TestEncodeResponseSkipsUnmodifiedFields(t *testing.T) {
	screen := NewScreen()
	screen.AddField(Field{Row: 7, Col: 31, Length: 10})

	record := EncodeResponse(screen, AIDF3)

	assert.Equal(t, []byte{1, 1, AIDF3, IAC, EOR}, record)
}

func TestEncodeResponseClearOmitsFieldData(t *testing.T) {
	screen := NewScreen()
	field := screen.AddField(Field{Row: 7, Col: 31, Length: 10})
	screen.SetFieldText(field, "DEMO")

	record := EncodeResponse(screen, AIDClear)

	assert.Equal(t, []byte{1, 1, AIDClear, IAC, EOR}, record)
}

func TestParseResponse(t *testing.T) {
	record := []byte{8, 36, AIDEnter, OrderSBA, 8, 32}
	record = append(record, ebcdic.EncodeString("DEMO")...)

	fields := []FieldLocation{{Name: "user", Row: 7, Col: 31, Length: 10}}

	response, err := ParseResponse(record, fields)
	require.NoError(t, err)

	assert.Equal(t, AIDEnter, response.AID)
	assert.Equal(t, "ENTER", response.Key)
	assert.Equal(t, 7, response.CursorRow)
	assert.Equal(t, 35, response.CursorCol)
	assert.Equal(t, map[string]string{"user": "DEMO"}, response.Fields)
}

func TestParseResponseColumnTolerance(t *testing.T) {
	fields := []FieldLocation{{Name: "user", Row: 7, Col: 31, Length: 10}}

	// the sender may address the attribute cell or the first data cell
	for _, col := range []byte{31, 32, 33} {
		record := append([]byte{8, 36, AIDEnter, OrderSBA, 8, col}, ebcdic.EncodeString("X")...)

		response, err := ParseResponse(record, fields)
		require.NoError(t, err)
		assert.Equal(t, "X", response.Fields["user"], "col %d should match", col)
	}

	// two columns off is a different field
	record := append([]byte{8, 36, AIDEnter, OrderSBA, 8, 35}, ebcdic.EncodeString("X")...)
	response, err := ParseResponse(record, fields)
	require.NoError(t, err)
	assert.Empty(t, response.Fields)
}

func TestParseResponseMultipleFields(t *testing.T) {
	record := []byte{1, 1, AIDEnter}
	record = append(record, OrderSBA, 8, 32)
	record = append(record, ebcdic.EncodeString("DEMO")...)
	record = append(record, OrderSBA, 10, 32)
	record = append(record, ebcdic.EncodeString("SECRET")...)

	fields := []FieldLocation{
		{Name: "user", Row: 7, Col: 31, Length: 10},
		{Name: "password", Row: 9, Col: 31, Length: 10},
	}

	response, err := ParseResponse(record, fields)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"user": "DEMO", "password": "SECRET"}, response.Fields)
}

func TestParseResponseTooShort(t *testing.T) {
	_, err := ParseResponse([]byte{1, 1}, nil)
	assert.ErrorIs(t, err, ErrShortResponse)
}

func TestParseResponseUnknownAID(t *testing.T) {
	response, err := ParseResponse([]byte{1, 1, 0x00}, nil)
	require.NoError(t, err)
	assert.Empty(t, response.Key)
	assert.Equal(t, byte(0x00), response.AID)
}

func TestResponseRoundTrip(t *testing.T) {
	// host builds a screen, the terminal's decoder reconstructs it, the
	// operator types, and the host parses what comes back
	builder := NewBuilder().
		WriteToDisplay(true, true).
		TextAt(7, 20, "USER:").
		InputField("user", 7, 30, 10).
		InsertCursor(7, 31)

	record, err := builder.Build()
	require.NoError(t, err)

	screen := NewScreen()
	NewDecoder(screen, nil).Decode(record[:len(record)-2])
	screen.SetCursor(screen.Caret())

	for _, r := range "DEMO" {
		require.True(t, screen.TypeRune(r))
	}

	aidRecord := EncodeResponse(screen, AIDEnter)
	aidRecord = aidRecord[:len(aidRecord)-2]

	response, err := ParseResponse(aidRecord, builder.Fields())
	require.NoError(t, err)
	assert.Equal(t, "ENTER", response.Key)
	assert.Equal(t, map[string]string{"user": "DEMO"}, response.Fields)
}
