package tn5250

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Telnet opcodes
const (
	// EOR - End Of Record. 5250 data streams are carried as discrete records,
	// each terminated by IAC EOR, rather than as a free-flowing byte stream.
	EOR byte = 239
	// SE - Subnegotiation End. IAC SE marks the end of a subnegotiation command
	SE byte = 240
	// NOP - No-Op. IAC NOP doesn't indicate anything at all and is ignored.
	NOP byte = 241
	// GA - Go Ahead. Not used by 5250 endpoints, which negotiate EOR instead,
	// but it can still appear on the wire from permissive hosts.
	GA byte = 249
	// SB - Subnegotiation Begin. IAC SB marks the beginning of a subnegotiation
	// command. These are option-specific commands with option-specific meanings.
	SB byte = 250
	// WILL - IAC WILL indicates that this endpoint intends to activate an option
	WILL byte = 251
	// WONT - IAC WONT indicates that this endpoint refuses to activate an option
	WONT byte = 252
	// DO - IAC DO requests that the remote endpoint activates an option
	DO byte = 253
	// DONT - IAC DONT demands that the remote endpoint does not activate an option
	DONT byte = 254
	// IAC - Interpret As Command. Marks the beginning of a new command.
	IAC byte = 255
)

// Telnet options a 5250 endpoint negotiates or is asked about. Both
// endpoints require BINARY, EOR, and TERMINAL-TYPE before 5250 records can
// flow; everything else is refused or tolerated as the role dictates.
const (
	OptBinary       byte = 0
	OptEcho         byte = 1
	OptTerminalType byte = 24
	OptEndOfRecord  byte = 25
	OptNAWS         byte = 31
	OptNewEnviron   byte = 39
)

// Subnegotiation sub-codes shared by TERMINAL-TYPE and NEW-ENVIRON
const (
	SubIs   byte = 0
	SubSend byte = 1
	SubInfo byte = 2
)

// NEW-ENVIRON variable markers, per RFC 1572
const (
	EnvVar     byte = 0
	EnvValue   byte = 1
	EnvEsc     byte = 2
	EnvUserVar byte = 3
)

var commandCodes = map[byte]string{
	EOR:  "EOR",
	SE:   "SE",
	NOP:  "NOP",
	GA:   "GA",
	SB:   "SB",
	WILL: "WILL",
	WONT: "WONT",
	DO:   "DO",
	DONT: "DONT",
	IAC:  "IAC",
}

var optionNames = map[byte]string{
	OptBinary:       "BINARY",
	OptEcho:         "ECHO",
	OptTerminalType: "TERMINAL-TYPE",
	OptEndOfRecord:  "END-OF-RECORD",
	OptNAWS:         "NAWS",
	OptNewEnviron:   "NEW-ENVIRON",
}

// Command is a single IAC command either received from or sent to the
// remote. Any possible command can be represented by this struct.
type Command struct {
	// OpCode is the code that comes after IAC in this command. Subnegotiations,
	// which come in the form of IAC SB <bytes> IAC SE, are represented as a
	// single command with the OpCode of SB. IAC SE never appears as its own
	// command.
	OpCode byte
	// Option indicates which telnet option this command refers to, if it has
	// one. IAC WILL/WONT/DO/DONT/SB are always followed by an option byte.
	Option byte
	// Subnegotiation holds the bytes, if any, that came between IAC SB <option>
	// and IAC SE, with doubled IACs already collapsed. Empty for non-SB
	// commands.
	Subnegotiation []byte
}

// IsRequest indicates whether this command asks the receiver to activate an
// option (DO/WILL) rather than deactivate one.
func (c Command) IsRequest() bool {
	return c.OpCode == DO || c.OpCode == WILL
}

// Accept produces the command that agrees to this one (WILL for DO, DO for
// WILL). For anything that isn't an activation request it produces a NOP.
func (c Command) Accept() Command {
	var newOpCode byte
	switch c.OpCode {
	case DO:
		newOpCode = WILL
	case WILL:
		newOpCode = DO
	default:
		return Command{OpCode: NOP}
	}

	return Command{OpCode: newOpCode, Option: c.Option}
}

// Reject produces the command that refuses this one (WONT for DO, DONT for
// WILL). For anything that isn't an activation request it produces a NOP.
func (c Command) Reject() Command {
	var newOpCode byte
	switch c.OpCode {
	case DO:
		newOpCode = WONT
	case WILL:
		newOpCode = DONT
	default:
		return Command{OpCode: NOP}
	}

	return Command{OpCode: newOpCode, Option: c.Option}
}

// Encode produces the wire bytes for this command. Subnegotiation payloads
// have their 255 bytes doubled so they can't be mistaken for IAC SE.
func (c Command) Encode() []byte {
	switch c.OpCode {
	case NOP, GA, EOR:
		return []byte{IAC, c.OpCode}
	case SB:
		encoded := make([]byte, 0, len(c.Subnegotiation)+7)
		encoded = append(encoded, IAC, SB, c.Option)
		for _, b := range c.Subnegotiation {
			if b == IAC {
				encoded = append(encoded, IAC)
			}
			encoded = append(encoded, b)
		}
		return append(encoded, IAC, SE)
	default:
		return []byte{IAC, c.OpCode, c.Option}
	}
}

func (c Command) String() string {
	var sb strings.Builder
	sb.WriteString("IAC ")
	sb.WriteString(commandName(c.OpCode))

	switch c.OpCode {
	case NOP, GA, EOR:
		return sb.String()
	}

	sb.WriteByte(' ')
	sb.WriteString(optionName(c.Option))

	if c.OpCode == SB {
		for _, b := range c.Subnegotiation {
			sb.WriteByte(' ')
			sb.WriteString(strconv.Itoa(int(b)))
		}
		sb.WriteString(" IAC SE")
	}

	return sb.String()
}

func commandName(code byte) string {
	name, known := commandCodes[code]
	if !known {
		return strconv.Itoa(int(code))
	}
	return name
}

func optionName(option byte) string {
	name, known := optionNames[option]
	if !known {
		return strconv.Itoa(int(option))
	}
	return name
}

// parseCommand decodes one complete command from data. The slice must begin
// with IAC and, for subnegotiations, include the closing IAC SE.
func parseCommand(data []byte) (Command, error) {
	if len(data) == 0 || data[0] != IAC {
		return Command{}, fmt.Errorf("command did not begin with IAC: %q", commandStream(data))
	}

	if len(data) < 2 {
		return Command{}, errors.New("command was just a standalone IAC with no opcode")
	}

	_, validOpcode := commandCodes[data[1]]
	if !validOpcode {
		return Command{}, fmt.Errorf("command did not have valid opcode: %q", commandStream(data))
	}

	if data[1] == NOP || data[1] == GA || data[1] == EOR {
		return Command{
			OpCode: data[1],
		}, nil
	}

	if len(data) < 3 {
		return Command{}, fmt.Errorf("command did not contain parameters: %q", commandStream(data))
	}

	if data[1] != SB {
		return Command{
			OpCode: data[1],
			Option: data[2],
		}, nil
	}

	if len(data) < 5 || data[len(data)-2] != IAC || data[len(data)-1] != SE {
		return Command{}, fmt.Errorf("subnegotiation command did not end with IAC SE: %q", commandStream(data))
	}

	// doubled 255s in the subnegotiation data need to be pared down to a
	// single 255 just like in the main stream. We can do that by compacting
	// the data into the final slice
	subnegotiationData := data[3 : len(data)-2]
	finalBuffer := make([]byte, len(subnegotiationData))
	bufferIndex, dataIndex := 0, 0

	for ; dataIndex < len(subnegotiationData); bufferIndex++ {
		finalBuffer[bufferIndex] = subnegotiationData[dataIndex]
		dataIndex++
		if finalBuffer[bufferIndex] == IAC && dataIndex < len(subnegotiationData) && subnegotiationData[dataIndex] == IAC {
			dataIndex++
		}
	}

	return Command{
		OpCode:         data[1],
		Option:         data[2],
		Subnegotiation: finalBuffer[:bufferIndex],
	}, nil
}

func commandStream(b []byte) string {
	var sb strings.Builder

	for i := 0; i < len(b); i++ {
		if i > 0 {
			sb.WriteRune(' ')
		}

		code, hasCode := commandCodes[b[i]]
		if !hasCode {
			sb.WriteString(strconv.Itoa(int(b[i])))
		} else {
			sb.WriteString(code)
		}
	}

	return sb.String()
}
