package main

import (
	"bufio"
	"fmt"
)

type keyKind int

const (
	keyRune keyKind = iota
	keyAID
	keyTab
	keyBackTab
	keyBackspace
	keyArrow
	keyQuit
)

type arrowDir int

const (
	arrowUp arrowDir = iota
	arrowDown
	arrowRight
	arrowLeft
)

type keyEvent struct {
	kind keyKind
	r    rune
	name string
	dir  arrowDir
}

// vt100 F1-F4
var ss3Keys = map[byte]string{
	'P': "F1", 'Q': "F2", 'R': "F3", 'S': "F4",
}

// xterm-style CSI sequences ending in '~'
var csiTildeKeys = map[string]string{
	"5": "PAGEUP", "6": "PAGEDOWN",
	"11": "F1", "12": "F2", "13": "F3", "14": "F4", "15": "F5",
	"17": "F6", "18": "F7", "19": "F8", "20": "F9", "21": "F10",
	"23": "F11", "24": "F12",
	"25": "F13", "26": "F14", "28": "F15", "29": "F16",
	"31": "F17", "32": "F18", "33": "F19", "34": "F20",
}

// readKey blocks for the next keystroke on a raw-mode terminal and decodes
// it, including the escape sequences terminals use for function and paging
// keys.
func readKey(reader *bufio.Reader) (keyEvent, error) {
	b, err := reader.ReadByte()
	if err != nil {
		return keyEvent{}, err
	}

	switch b {
	case 0x03: // ctrl-c
		return keyEvent{kind: keyQuit}, nil
	case 0x0D, 0x0A:
		return keyEvent{kind: keyAID, name: "ENTER"}, nil
	case 0x09:
		return keyEvent{kind: keyTab}, nil
	case 0x7F, 0x08:
		return keyEvent{kind: keyBackspace}, nil
	case 0x1B:
		return readEscape(reader)
	}

	if b >= 0x20 && b < 0x7F {
		return keyEvent{kind: keyRune, r: rune(b)}, nil
	}

	return keyEvent{}, errUnknownSequence
}

var errUnknownSequence = fmt.Errorf("unrecognized key sequence")

func readEscape(reader *bufio.Reader) (keyEvent, error) {
	b, err := reader.ReadByte()
	if err != nil {
		return keyEvent{}, err
	}

	switch b {
	case 'O':
		final, err := reader.ReadByte()
		if err != nil {
			return keyEvent{}, err
		}
		if name, known := ss3Keys[final]; known {
			return keyEvent{kind: keyAID, name: name}, nil
		}
		return keyEvent{}, errUnknownSequence
	case '[':
		return readCSI(reader)
	}

	return keyEvent{}, errUnknownSequence
}

func readCSI(reader *bufio.Reader) (keyEvent, error) {
	var params []byte
	for {
		b, err := reader.ReadByte()
		if err != nil {
			return keyEvent{}, err
		}

		// final bytes are 0x40-0x7E
		if b >= 0x40 && b <= 0x7E {
			switch b {
			case 'A':
				return keyEvent{kind: keyArrow, dir: arrowUp}, nil
			case 'B':
				return keyEvent{kind: keyArrow, dir: arrowDown}, nil
			case 'C':
				return keyEvent{kind: keyArrow, dir: arrowRight}, nil
			case 'D':
				return keyEvent{kind: keyArrow, dir: arrowLeft}, nil
			case 'Z':
				return keyEvent{kind: keyBackTab}, nil
			case '~':
				if name, known := csiTildeKeys[string(params)]; known {
					return keyEvent{kind: keyAID, name: name}, nil
				}
				return keyEvent{}, errUnknownSequence
			default:
				return keyEvent{}, errUnknownSequence
			}
		}

		params = append(params, b)
	}
}
