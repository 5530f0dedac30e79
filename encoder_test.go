package tn5250

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moodclient/tn5250/ebcdic"
)

func TestBuildAppendsEndOfRecord(t *testing.T) {
	record, err := NewBuilder().Clear().Build()
	require.NoError(t, err)

	assert.Equal(t, []byte{ESC, CmdClearUnit, IAC, EOR}, record)
}

func TestWriteToDisplayControlBits(t *testing.T) {
	record, err := NewBuilder().WriteToDisplay(true, true).Build()
	require.NoError(t, err)
	assert.Equal(t, []byte{ESC, CmdWriteToDisplay, WCCResetMDT | WCCClearUnit, IAC, EOR}, record)

	record, err = NewBuilder().WriteToDisplay(false, false).Build()
	require.NoError(t, err)
	assert.Equal(t, []byte{ESC, CmdWriteToDisplay, 0x00, IAC, EOR}, record)
}

func TestTextAt(t *testing.T) {
	record, err := NewBuilder().TextAt(2, 10, "HI").Build()
	require.NoError(t, err)

	expected := []byte{OrderSBA, 3, 11}
	expected = append(expected, ebcdic.EncodeString("HI")...)
	expected = append(expected, IAC, EOR)
	assert.Equal(t, expected, record)
}

func TestInputFieldRecordsLocation(t *testing.T) {
	builder := NewBuilder().
		WriteToDisplay(true, true).
		InputField("user", 8, 42, 10)

	fields := builder.Fields()
	require.Len(t, fields, 1)
	assert.Equal(t, "user", fields[0].Name)
	assert.Equal(t, 8, fields[0].Row)
	assert.Equal(t, 43, fields[0].Col, "the data cell is one after the attribute cell")
	assert.Equal(t, 10, fields[0].Length)

	_, err := builder.Build()
	assert.NoError(t, err)
}

func TestOutputFieldRecordsNoLocation(t *testing.T) {
	builder := NewBuilder().OutputField(2, 10, "System", AttrHighIntensity)

	assert.Empty(t, builder.Fields())

	_, err := builder.Build()
	assert.NoError(t, err)
}

func TestGeneratedFieldNames(t *testing.T) {
	builder := NewBuilder().
		StartField(2, 10, 5, false, AttrUnderscore).
		StartField(4, 10, 5, false, AttrUnderscore)

	fields := builder.Fields()
	require.Len(t, fields, 2)
	assert.Equal(t, "FLD001", fields[0].Name)
	assert.Equal(t, "FLD002", fields[1].Name)
}

func TestFieldTooLong(t *testing.T) {
	_, err := NewBuilderSize(27, 200).InputField("big", 0, 0, MaxFieldLength+1).Build()
	assert.ErrorIs(t, err, ErrFieldTooLong)
}

func TestFieldOffScreen(t *testing.T) {
	testCases := []struct {
		name           string
		row, col, size int
	}{
		{"past row end", 0, 75, 10},
		{"bad row", 30, 0, 5},
		{"zero length", 0, 0, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewBuilder().InputField("x", tc.row, tc.col, tc.size).Build()
			assert.ErrorIs(t, err, ErrFieldOffScreen)
		})
	}
}

func TestFirstErrorSticks(t *testing.T) {
	builder := NewBuilder().
		InputField("bad", 0, 75, 10).
		InputField("big", 0, 0, MaxFieldLength+1)

	_, err := builder.Build()
	assert.ErrorIs(t, err, ErrFieldOffScreen)
	assert.NotErrorIs(t, err, ErrFieldTooLong)
}

func TestBuilderReset(t *testing.T) {
	builder := NewBuilder().InputField("bad", 0, 75, 10)
	require.Error(t, builder.Err())

	record, err := builder.Reset().Clear().Build()
	require.NoError(t, err)
	assert.Equal(t, []byte{ESC, CmdClearUnit, IAC, EOR}, record)
	assert.Empty(t, builder.Fields())
}

func TestBuilderDecoderRoundTrip(t *testing.T) {
	builder := NewBuilder().
		WriteToDisplay(true, true).
		CenterText(0, "SIGN ON").
		TextAt(7, 20, "USER:").
		InputField("user", 7, 30, 10).
		InsertCursor(7, 31)

	record, err := builder.Build()
	require.NoError(t, err)

	// what the builder sends, a terminal's decoder reconstructs
	screen := NewScreen()
	NewDecoder(screen, nil).Decode(record[:len(record)-2])
	screen.SetCursor(screen.Caret())

	assert.Contains(t, screen.RowText(0), "SIGN ON")
	assert.Contains(t, screen.RowText(7), "USER:")

	fields := screen.Fields()
	require.Len(t, fields, 1)
	assert.Equal(t, 7, fields[0].Row)
	assert.Equal(t, 31, fields[0].Col)
	assert.False(t, fields[0].Bypass())

	row, col := screen.Cursor()
	assert.Equal(t, []int{7, 31}, []int{row, col})
}

func TestCenterAndRightText(t *testing.T) {
	screen := NewScreen()

	record, err := NewBuilder().CenterText(2, "TITLE").RightText(3, "END").Build()
	require.NoError(t, err)
	NewDecoder(screen, nil).Decode(record[:len(record)-2])

	assert.Equal(t, "TITLE", screen.RowText(2)[37:42])
	assert.Equal(t, "END", screen.RowText(3)[77:])
}

func TestHorizontalLine(t *testing.T) {
	screen := NewScreen()

	record, err := NewBuilder().HorizontalLine(5, 10, 20).Build()
	require.NoError(t, err)
	NewDecoder(screen, nil).Decode(record[:len(record)-2])

	for col := 10; col < 30; col++ {
		assert.Equal(t, byte('-'), screen.CharAt(5, col))
	}
	assert.Equal(t, byte(' '), screen.CharAt(5, 30))
}

func TestBox(t *testing.T) {
	screen := NewScreen()

	record, err := NewBuilder().Box(2, 10, 5, 30).Build()
	require.NoError(t, err)
	NewDecoder(screen, nil).Decode(record[:len(record)-2])

	assert.Equal(t, byte('+'), screen.CharAt(2, 10))
	assert.Equal(t, byte('+'), screen.CharAt(2, 30))
	assert.Equal(t, byte('+'), screen.CharAt(5, 10))
	assert.Equal(t, byte('+'), screen.CharAt(5, 30))
	assert.Equal(t, byte('-'), screen.CharAt(2, 20))
	assert.Equal(t, byte('-'), screen.CharAt(5, 20))
	assert.Equal(t, byte('|'), screen.CharAt(3, 10))
	assert.Equal(t, byte('|'), screen.CharAt(4, 30))
	assert.Equal(t, byte(' '), screen.CharAt(3, 20), "the box interior stays empty")
}
