package tn5250

import (
	"errors"
	"fmt"
)

// AID (Attention Identifier) byte values. One of these ends every input
// cycle, telling the host which key the operator pressed.
const (
	AIDEnter    byte = 0xF1
	AIDHelp     byte = 0xF3
	AIDPageUp   byte = 0xF4
	AIDPageDown byte = 0xF5
	AIDPrint    byte = 0xF6
	AIDClear    byte = 0xBD
	AIDSysRq    byte = 0x01

	AIDF1  byte = 0x31
	AIDF2  byte = 0x32
	AIDF3  byte = 0x33
	AIDF4  byte = 0x34
	AIDF5  byte = 0x35
	AIDF6  byte = 0x36
	AIDF7  byte = 0x37
	AIDF8  byte = 0x38
	AIDF9  byte = 0x39
	AIDF10 byte = 0x3A
	AIDF11 byte = 0x3B
	AIDF12 byte = 0x3C

	AIDF13 byte = 0xB1
	AIDF14 byte = 0xB2
	AIDF15 byte = 0xB3
	AIDF16 byte = 0xB4
	AIDF17 byte = 0xB5
	AIDF18 byte = 0xB6
	AIDF19 byte = 0xB7
	AIDF20 byte = 0xB8
	AIDF21 byte = 0xB9
	AIDF22 byte = 0xBA
	AIDF23 byte = 0xBB
	AIDF24 byte = 0xBC
)

// ErrUnknownKey is returned when a key name has no AID mapping. Unknown keys
// are a caller error, never silently mapped to a default.
var ErrUnknownKey = errors.New("unknown key name")

var keyAIDs = map[string]byte{
	"ENTER":    AIDEnter,
	"HELP":     AIDHelp,
	"PAGEUP":   AIDPageUp,
	"PAGEDOWN": AIDPageDown,
	"PRINT":    AIDPrint,
	"CLEAR":    AIDClear,
	"SYSRQ":    AIDSysRq,

	"F1": AIDF1, "F2": AIDF2, "F3": AIDF3, "F4": AIDF4,
	"F5": AIDF5, "F6": AIDF6, "F7": AIDF7, "F8": AIDF8,
	"F9": AIDF9, "F10": AIDF10, "F11": AIDF11, "F12": AIDF12,
	"F13": AIDF13, "F14": AIDF14, "F15": AIDF15, "F16": AIDF16,
	"F17": AIDF17, "F18": AIDF18, "F19": AIDF19, "F20": AIDF20,
	"F21": AIDF21, "F22": AIDF22, "F23": AIDF23, "F24": AIDF24,
}

var aidNames map[byte]string

func init() {
	aidNames = make(map[byte]string, len(keyAIDs))
	for name, aid := range keyAIDs {
		aidNames[aid] = name
	}
}

// KeyAID maps a logical key name ("ENTER", "F1".."F24", "CLEAR", "HELP",
// "PAGEUP", "PAGEDOWN", "SYSRQ", "PRINT") to its AID byte. Unrecognized
// names return an error wrapping ErrUnknownKey.
func KeyAID(name string) (byte, error) {
	aid, known := keyAIDs[name]
	if !known {
		return 0, fmt.Errorf("%w: %q", ErrUnknownKey, name)
	}

	return aid, nil
}

// AIDName maps an AID byte back to its logical key name. Unrecognized AIDs
// return the empty string.
func AIDName(aid byte) string {
	return aidNames[aid]
}
