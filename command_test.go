package tn5250

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	testCases := []struct {
		name     string
		data     []byte
		expected Command
	}{
		{"do binary", []byte{IAC, DO, OptBinary}, Command{OpCode: DO, Option: OptBinary}},
		{"will eor", []byte{IAC, WILL, OptEndOfRecord}, Command{OpCode: WILL, Option: OptEndOfRecord}},
		{"bare eor", []byte{IAC, EOR}, Command{OpCode: EOR}},
		{"nop", []byte{IAC, NOP}, Command{OpCode: NOP}},
		{
			"terminal type send",
			[]byte{IAC, SB, OptTerminalType, SubSend, IAC, SE},
			Command{OpCode: SB, Option: OptTerminalType, Subnegotiation: []byte{SubSend}},
		},
		{
			"doubled iac in subnegotiation",
			[]byte{IAC, SB, OptNewEnviron, SubIs, IAC, IAC, 0x01, IAC, SE},
			Command{OpCode: SB, Option: OptNewEnviron, Subnegotiation: []byte{SubIs, IAC, 0x01}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			command, err := parseCommand(tc.data)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, command)
		})
	}
}

func TestParseCommandMalformed(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"no iac", []byte{DO, OptBinary}},
		{"standalone iac", []byte{IAC}},
		{"missing option", []byte{IAC, DO}},
		{"unterminated subnegotiation", []byte{IAC, SB, OptTerminalType, SubSend}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseCommand(tc.data)
			assert.Error(t, err)
		})
	}
}

func TestCommandEncode(t *testing.T) {
	assert.Equal(t, []byte{IAC, DO, OptBinary}, Command{OpCode: DO, Option: OptBinary}.Encode())
	assert.Equal(t, []byte{IAC, EOR}, Command{OpCode: EOR}.Encode())

	// 255s inside a subnegotiation are doubled on the wire
	encoded := Command{
		OpCode:         SB,
		Option:         OptNewEnviron,
		Subnegotiation: []byte{SubIs, IAC},
	}.Encode()
	assert.Equal(t, []byte{IAC, SB, OptNewEnviron, SubIs, IAC, IAC, IAC, SE}, encoded)
}

func TestCommandEncodeRoundTrip(t *testing.T) {
	original := Command{
		OpCode:         SB,
		Option:         OptTerminalType,
		Subnegotiation: []byte{SubIs, 'I', 'B', 'M', IAC, '2'},
	}

	parsed, err := parseCommand(original.Encode())
	require.NoError(t, err)
	assert.Equal(t, original, parsed)
}

func TestCommandAcceptReject(t *testing.T) {
	do := Command{OpCode: DO, Option: OptBinary}
	assert.Equal(t, Command{OpCode: WILL, Option: OptBinary}, do.Accept())
	assert.Equal(t, Command{OpCode: WONT, Option: OptBinary}, do.Reject())

	will := Command{OpCode: WILL, Option: OptEndOfRecord}
	assert.Equal(t, Command{OpCode: DO, Option: OptEndOfRecord}, will.Accept())
	assert.Equal(t, Command{OpCode: DONT, Option: OptEndOfRecord}, will.Reject())

	// non-requests have nothing to accept
	assert.Equal(t, byte(NOP), Command{OpCode: EOR}.Accept().OpCode)
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "IAC DO BINARY", Command{OpCode: DO, Option: OptBinary}.String())
	assert.Equal(t, "IAC EOR", Command{OpCode: EOR}.String())
	assert.Equal(t, "IAC SB TERMINAL-TYPE 1 IAC SE",
		Command{OpCode: SB, Option: OptTerminalType, Subnegotiation: []byte{SubSend}}.String())
}
