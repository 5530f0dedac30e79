package tn5250

import (
	"bytes"
	"io"
	"log/slog"
)

// TerminalSide indicates which role an endpoint plays in the connection. The
// two sides answer option negotiation differently: the host demands the
// terminal identify itself, the terminal complies.
type TerminalSide int

const (
	SideUnknown TerminalSide = iota
	// SideClient - this endpoint is the terminal
	SideClient
	// SideServer - this endpoint is the host
	SideServer
)

func (s TerminalSide) String() string {
	switch s {
	case SideClient:
		return "Client"
	case SideServer:
		return "Server"
	default:
		return "Unknown"
	}
}

// OptionState indicates whether a telnet option is currently active,
// inactive, or mid-negotiation on one side of the connection.
type OptionState byte

const (
	// OptionUnknown is the zero value for an option state. It is generally
	// interchangeable with OptionInactive.
	OptionUnknown OptionState = iota
	// OptionInactive indicates that the option is not currently active
	OptionInactive
	// OptionRequested indicates that this endpoint has sent a request to
	// activate the option but has not yet heard back
	OptionRequested
	// OptionActive indicates that both endpoints have agreed to the option
	OptionActive
)

func (s OptionState) String() string {
	switch s {
	case OptionInactive:
		return "Inactive"
	case OptionRequested:
		return "Requested"
	case OptionActive:
		return "Active"
	default:
		return "Unknown"
	}
}

// DefaultTerminalType is reported to hosts that ask for a terminal type and
// weren't given anything more specific. It identifies a 24x80 color display.
const DefaultTerminalType = "IBM-3179-2"

// deviceNameVar is the NEW-ENVIRON variable carrying the terminal's device
// name, which AS/400-class hosts use to assign the virtual device.
const deviceNameVar = "DEVNAME"

// NegotiatorConfig carries the optional knobs for a Negotiator. The zero
// value is usable for either side.
type NegotiatorConfig struct {
	// TerminalType is reported by a client-side negotiator when the host asks.
	// Defaults to DefaultTerminalType.
	TerminalType string
	// DeviceName, if set, is reported by a client-side negotiator through the
	// NEW-ENVIRON DEVNAME variable.
	DeviceName string
	// Logger receives negotiation traffic at Debug and protocol oddities at
	// Warn. Defaults to a discarding logger.
	Logger *slog.Logger
}

// Negotiator is the per-connection telnet layer. It strips IAC commands out
// of the raw byte stream, answers option negotiation according to a static
// per-side policy, and hands everything else up as 5250 payload. IAC EOR
// markers are preserved in the payload so the layer above can find record
// boundaries; IAC IAC collapses to a single literal 0xFF.
//
// A Negotiator is not safe for concurrent use. Each connection owns its own.
type Negotiator struct {
	side   TerminalSide
	logger *slog.Logger

	terminalType string
	deviceName   string

	local  map[byte]OptionState
	remote map[byte]OptionState

	// trailing bytes of an incomplete command, held until the next read
	pending []byte
}

// NewNegotiator creates a Negotiator for one side of a connection.
func NewNegotiator(side TerminalSide, config NegotiatorConfig) *Negotiator {
	terminalType := config.TerminalType
	if side == SideClient && terminalType == "" {
		terminalType = DefaultTerminalType
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Negotiator{
		side:         side,
		logger:       logger,
		terminalType: terminalType,
		deviceName:   config.DeviceName,
		local:        make(map[byte]OptionState),
		remote:       make(map[byte]OptionState),
	}
}

// localPolicy reports whether this side agrees to activate an option on its
// own end when the remote sends DO.
func (n *Negotiator) localPolicy(option byte) bool {
	switch option {
	case OptBinary, OptEndOfRecord:
		return true
	case OptTerminalType, OptNewEnviron:
		return n.side == SideClient
	default:
		return false
	}
}

// remotePolicy reports whether this side agrees to the remote activating an
// option on the remote's end when the remote sends WILL.
func (n *Negotiator) remotePolicy(option byte) bool {
	switch option {
	case OptBinary, OptEndOfRecord:
		return true
	case OptEcho:
		return n.side == SideClient
	case OptTerminalType, OptNewEnviron:
		return n.side == SideServer
	default:
		return false
	}
}

// OpeningOffer returns the commands this side sends to prime the exchange.
// The host demands binary record mode and the terminal's identity; the
// terminal announces what it is prepared to do.
func (n *Negotiator) OpeningOffer() []byte {
	var offer []byte

	request := func(opCode byte, option byte) {
		states := n.local
		if opCode == DO {
			states = n.remote
		}

		if states[option] == OptionActive || states[option] == OptionRequested {
			return
		}

		states[option] = OptionRequested
		offer = append(offer, Command{OpCode: opCode, Option: option}.Encode()...)
	}

	switch n.side {
	case SideServer:
		request(DO, OptNewEnviron)
		request(DO, OptTerminalType)
		request(DO, OptEndOfRecord)
		request(DO, OptBinary)
		request(WILL, OptEndOfRecord)
		request(WILL, OptBinary)
	case SideClient:
		request(WILL, OptTerminalType)
		request(WILL, OptNewEnviron)
		request(WILL, OptEndOfRecord)
		request(WILL, OptBinary)
		request(DO, OptEndOfRecord)
		request(DO, OptBinary)
	}

	return offer
}

// Process consumes raw transport bytes and splits them into a telnet reply
// (to be written back to the transport) and 5250 payload bytes. A trailing
// fragment of an incomplete command is held internally and consumed on the
// next call.
func (n *Negotiator) Process(raw []byte) (reply []byte, payload []byte) {
	data := raw
	if len(n.pending) > 0 {
		data = make([]byte, 0, len(n.pending)+len(raw))
		data = append(data, n.pending...)
		data = append(data, raw...)
		n.pending = nil
	}

	var replyBuffer, payloadBuffer bytes.Buffer

	index := 0
	for index < len(data) {
		if data[index] != IAC {
			payloadBuffer.WriteByte(data[index])
			index++
			continue
		}

		commandEnd, complete := commandLength(data[index:])
		if !complete {
			n.pending = append([]byte(nil), data[index:]...)
			break
		}

		commandBytes := data[index : index+commandEnd]
		index += commandEnd

		switch commandBytes[1] {
		case IAC:
			payloadBuffer.WriteByte(IAC)
		case EOR:
			// preserved so record assembly can see the boundary
			payloadBuffer.WriteByte(IAC)
			payloadBuffer.WriteByte(EOR)
		case NOP, GA:
		default:
			command, err := parseCommand(commandBytes)
			if err != nil {
				n.logger.Warn("discarding malformed telnet command", "err", err)
				continue
			}

			n.logger.Debug("received", "command", command.String())
			replyBuffer.Write(n.handleCommand(command))
		}
	}

	return replyBuffer.Bytes(), payloadBuffer.Bytes()
}

// commandLength returns the length of the command starting at data[0] (which
// must be IAC), and whether the command is complete within data.
func commandLength(data []byte) (int, bool) {
	if len(data) < 2 {
		return 0, false
	}

	switch data[1] {
	case IAC, EOR, NOP, GA, SE:
		return 2, true
	case SB:
		// scan for the closing IAC SE; doubled IACs stay inside the block
		for i := 2; i+1 < len(data); i++ {
			if data[i] == IAC {
				if data[i+1] == SE {
					return i + 2, true
				}
				i++
			}
		}
		return 0, false
	case WILL, WONT, DO, DONT:
		if len(data) < 3 {
			return 0, false
		}
		return 3, true
	default:
		// unknown opcode, consume the pair and move on
		return 2, true
	}
}

func (n *Negotiator) handleCommand(command Command) []byte {
	switch command.OpCode {
	case DO:
		return n.receiveDo(command)
	case DONT:
		return n.receiveDont(command)
	case WILL:
		return n.receiveWill(command)
	case WONT:
		return n.receiveWont(command)
	case SB:
		return n.subnegotiate(command)
	default:
		return nil
	}
}

func (n *Negotiator) receiveDo(command Command) []byte {
	option := command.Option

	if !n.localPolicy(option) {
		n.local[option] = OptionInactive
		return n.send(command.Reject())
	}

	switch n.local[option] {
	case OptionActive:
		return nil
	case OptionRequested:
		// our own WILL is already in flight, this DO is the answer
		n.local[option] = OptionActive
		return n.optionActivated(option, false)
	default:
		n.local[option] = OptionActive
		reply := n.send(command.Accept())
		return append(reply, n.optionActivated(option, false)...)
	}
}

func (n *Negotiator) receiveDont(command Command) []byte {
	option := command.Option

	if n.local[option] == OptionInactive {
		return nil
	}

	n.local[option] = OptionInactive
	return n.send(Command{OpCode: WONT, Option: option})
}

func (n *Negotiator) receiveWill(command Command) []byte {
	option := command.Option

	if !n.remotePolicy(option) {
		n.remote[option] = OptionInactive
		return n.send(command.Reject())
	}

	switch n.remote[option] {
	case OptionActive:
		return nil
	case OptionRequested:
		n.remote[option] = OptionActive
		return n.optionActivated(option, true)
	default:
		n.remote[option] = OptionActive
		reply := n.send(command.Accept())
		return append(reply, n.optionActivated(option, true)...)
	}
}

func (n *Negotiator) receiveWont(command Command) []byte {
	option := command.Option

	if n.remote[option] == OptionInactive {
		return nil
	}

	n.remote[option] = OptionInactive
	return n.send(Command{OpCode: DONT, Option: option})
}

// optionActivated fires side-specific follow-ups once an option lands in the
// Active state. The host immediately asks an identifying terminal for its
// type and environment.
func (n *Negotiator) optionActivated(option byte, onRemote bool) []byte {
	if n.side != SideServer || !onRemote {
		return nil
	}

	switch option {
	case OptTerminalType:
		return n.send(Command{
			OpCode:         SB,
			Option:         OptTerminalType,
			Subnegotiation: []byte{SubSend},
		})
	case OptNewEnviron:
		// ask for everything the terminal is willing to share
		return n.send(Command{
			OpCode:         SB,
			Option:         OptNewEnviron,
			Subnegotiation: []byte{SubSend, EnvVar, EnvUserVar},
		})
	default:
		return nil
	}
}

func (n *Negotiator) subnegotiate(command Command) []byte {
	switch command.Option {
	case OptTerminalType:
		return n.subnegotiateTerminalType(command.Subnegotiation)
	case OptNewEnviron:
		return n.subnegotiateEnviron(command.Subnegotiation)
	default:
		n.logger.Warn("ignoring subnegotiation for unsupported option",
			"option", optionName(command.Option))
		return nil
	}
}

func (n *Negotiator) subnegotiateTerminalType(subnegotiation []byte) []byte {
	if len(subnegotiation) == 0 {
		n.logger.Warn("ignoring empty terminal-type subnegotiation")
		return nil
	}

	switch subnegotiation[0] {
	case SubSend:
		if n.side != SideClient {
			return nil
		}

		response := make([]byte, 0, len(n.terminalType)+1)
		response = append(response, SubIs)
		response = append(response, []byte(n.terminalType)...)

		return n.send(Command{
			OpCode:         SB,
			Option:         OptTerminalType,
			Subnegotiation: response,
		})
	case SubIs:
		if n.side != SideServer {
			return nil
		}

		n.terminalType = string(subnegotiation[1:])
		n.logger.Debug("terminal identified", "terminalType", n.terminalType)
		return nil
	default:
		n.logger.Warn("ignoring unknown terminal-type subnegotiation",
			"code", subnegotiation[0])
		return nil
	}
}

func (n *Negotiator) subnegotiateEnviron(subnegotiation []byte) []byte {
	if len(subnegotiation) == 0 {
		n.logger.Warn("ignoring empty new-environ subnegotiation")
		return nil
	}

	switch subnegotiation[0] {
	case SubSend:
		if n.side != SideClient {
			return nil
		}

		buffer := bytes.NewBuffer(nil)
		buffer.WriteByte(SubIs)
		if n.deviceName != "" {
			buffer.WriteByte(EnvVar)
			encodeEnvironText(buffer, deviceNameVar)
			buffer.WriteByte(EnvValue)
			encodeEnvironText(buffer, n.deviceName)
		}

		return n.send(Command{
			OpCode:         SB,
			Option:         OptNewEnviron,
			Subnegotiation: buffer.Bytes(),
		})
	case SubIs, SubInfo:
		if n.side != SideServer {
			return nil
		}

		n.loadEnvironValues(subnegotiation[1:])
		return nil
	default:
		n.logger.Warn("ignoring unknown new-environ subnegotiation",
			"code", subnegotiation[0])
		return nil
	}
}

// loadEnvironValues walks the VAR/USERVAR key-value pairs of an IS or INFO
// subnegotiation, keeping the ones the 5250 layer cares about.
func (n *Negotiator) loadEnvironValues(subnegotiation []byte) {
	var index int
	for index < len(subnegotiation) {
		nextToken := subnegotiation[index]
		index++

		if nextToken != EnvVar && nextToken != EnvUserVar {
			continue
		}

		keySize, key := decodeEnvironText(subnegotiation[index:])
		index += keySize
		if keySize == 0 {
			n.logger.Warn("discarding 0-sized key in new-environ values")
			continue
		}

		var value string
		if index < len(subnegotiation) && subnegotiation[index] == EnvValue {
			index++

			var valueSize int
			valueSize, value = decodeEnvironText(subnegotiation[index:])
			index += valueSize
		}

		if key == deviceNameVar {
			n.deviceName = value
			n.logger.Debug("device name received", "deviceName", value)
		}
	}
}

// encodeEnvironText writes text into a NEW-ENVIRON subnegotiation, escaping
// the bytes that double as VAR/VALUE/ESC/USERVAR markers.
func encodeEnvironText(buffer *bytes.Buffer, text string) {
	for _, b := range []byte(text) {
		if b <= EnvUserVar {
			buffer.WriteByte(EnvEsc)
		}

		buffer.WriteByte(b)
	}
}

// decodeEnvironText reads text from a NEW-ENVIRON subnegotiation up to the
// next unescaped marker byte, returning the bytes consumed and the text.
func decodeEnvironText(buffer []byte) (int, string) {
	textBytes := bytes.NewBuffer(nil)

	var bufferIndex int
	for bufferIndex = 0; bufferIndex < len(buffer); bufferIndex++ {
		b := buffer[bufferIndex]
		if b == EnvEsc {
			bufferIndex++
			if bufferIndex >= len(buffer) {
				break
			}
		} else if b <= EnvUserVar {
			break
		}

		textBytes.WriteByte(buffer[bufferIndex])
	}

	return bufferIndex, textBytes.String()
}

func (n *Negotiator) send(command Command) []byte {
	if command.OpCode == NOP {
		return nil
	}

	n.logger.Debug("sending", "command", command.String())
	return command.Encode()
}

// LocalOption returns the negotiation state of an option on this endpoint's
// side of the connection.
func (n *Negotiator) LocalOption(option byte) OptionState {
	return n.local[option]
}

// RemoteOption returns the negotiation state of an option on the remote
// endpoint's side of the connection.
func (n *Negotiator) RemoteOption(option byte) OptionState {
	return n.remote[option]
}

// BinaryMode reports whether binary transmission is active in either
// direction.
func (n *Negotiator) BinaryMode() bool {
	return n.local[OptBinary] == OptionActive || n.remote[OptBinary] == OptionActive
}

// EndOfRecord reports whether record framing is active in either direction.
func (n *Negotiator) EndOfRecord() bool {
	return n.local[OptEndOfRecord] == OptionActive || n.remote[OptEndOfRecord] == OptionActive
}

// TerminalType returns the negotiated terminal-type string. On the client
// side it is the configured identity; on the server side it is empty until
// the terminal responds to the type request.
func (n *Negotiator) TerminalType() string {
	return n.terminalType
}

// DeviceName returns the device name exchanged through NEW-ENVIRON, or the
// empty string if the terminal never volunteered one.
func (n *Negotiator) DeviceName() string {
	return n.deviceName
}

// Complete reports whether every option this side cares about has been
// answered. There is no explicit done signal on the wire, so sessions poll
// this between reads and proceed anyway after a bounded number of rounds.
func (n *Negotiator) Complete() bool {
	for _, option := range []byte{OptBinary, OptEndOfRecord} {
		if n.local[option] == OptionRequested || n.remote[option] == OptionRequested {
			return false
		}
	}

	if n.side == SideServer {
		if n.remote[OptTerminalType] == OptionRequested {
			return false
		}
		if n.remote[OptTerminalType] == OptionActive && n.terminalType == "" {
			return false
		}
	}

	return true
}
