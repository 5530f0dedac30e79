package main

import (
	"fmt"

	"github.com/moodclient/tn5250"
)

// centerField writes highlighted text centered on a row, inside a protected
// field so the attribute applies.
func centerField(builder *tn5250.Builder, row int, text string, attr byte) {
	col := (tn5250.DefaultCols-len(text))/2 - 1
	if col < 0 {
		col = 0
	}

	builder.OutputField(row, col, text, attr)
}

func newScreen() *tn5250.Builder {
	return tn5250.NewBuilder().Clear().WriteToDisplay(true, false)
}

// signOnScreen is the classic AS/400 sign-on: user, password, and the
// optional program/menu/library routing fields.
func signOnScreen(config Config, display string) *tn5250.Builder {
	if display == "" {
		display = config.DisplayName
	}

	builder := newScreen()
	centerField(builder, 1, "Sign On", tn5250.AttrHighIntensity)
	builder.
		TextAt(2, 2, fmt.Sprintf("System . . . . . :   %s", config.SystemName)).
		TextAt(3, 2, fmt.Sprintf("Subsystem  . . . :   %s", config.Subsystem)).
		TextAt(4, 2, fmt.Sprintf("Display  . . . . :   %s", display)).
		Box(6, 5, 16, 75).
		TextAt(8, 10, "User  . . . . . . . . . . . .").
		InputField("user", 8, 41, 10).
		TextAt(9, 10, "Password  . . . . . . . . . .").
		HiddenField("password", 9, 41, 10).
		TextAt(10, 10, "Program/procedure . . . . . .").
		InputField("program", 10, 41, 10).
		TextAt(11, 10, "Menu  . . . . . . . . . . . .").
		InputField("menu", 11, 41, 10).
		TextAt(12, 10, "Current library . . . . . . .").
		InputField("curlib", 12, 41, 10).
		TextAt(18, 2, "(C) COPYRIGHT DEMO SYSTEMS 2026").
		TextAt(22, 2, "F3=Exit   F12=Cancel").
		InsertCursor(8, 42)

	return builder
}

// mainMenuScreen lists the numbered options plus the command line.
func mainMenuScreen(config Config, user string) *tn5250.Builder {
	builder := newScreen()
	centerField(builder, 1, fmt.Sprintf("%s - MAIN MENU", config.SystemName), tn5250.AttrHighIntensity)
	builder.
		RightText(2, fmt.Sprintf("User: %s", user)).
		TextAt(3, 2, "Select one of the following:")

	options := []struct {
		opt  string
		desc string
	}{
		{"1", "Work with messages"},
		{"2", "Work with files"},
		{"3", "Work with output queue"},
		{"4", "Display job status"},
		{"5", "System status"},
		{"6", "Display active jobs"},
		{"7", "Work with spool files"},
		{"8", "About this system"},
		{"90", "Sign off"},
	}

	row := 5
	for _, option := range options {
		builder.TextAt(row, 7, option.opt+".").TextAt(row, 12, option.desc)
		row++
	}

	builder.
		TextAt(19, 2, "Selection or command").
		TextAt(20, 2, "===>").
		InputField("command", 20, 7, 70).
		TextAt(22, 2, "F3=Exit   F4=Prompt   F9=Retrieve   F12=Cancel").
		TextAt(23, 2, "F13=Info assistant   F23=Set initial menu").
		InsertCursor(20, 8)

	return builder
}

// messageScreen shows a titled message inside a box, any key returning to
// the menu.
func messageScreen(title string, lines []string, highlight bool) *tn5250.Builder {
	attr := tn5250.AttrNormal
	if highlight {
		attr = tn5250.AttrHighIntensity
	}

	builder := newScreen()
	centerField(builder, 1, title, attr)
	builder.Box(4, 3, 18, 77)

	row := 6
	for _, line := range lines {
		if row > 15 {
			break
		}
		if len(line) > 68 {
			line = line[:68]
		}

		builder.TextAt(row, 6, line)
		row++
	}

	builder.
		TextAt(20, 2, "Press Enter to continue.").
		InsertCursor(20, 27)

	return builder
}

func errorScreen(message, detail string) *tn5250.Builder {
	lines := []string{message}
	if detail != "" {
		lines = append(lines, "", detail)
	}

	return messageScreen("Error", lines, true)
}

func aboutScreen(config Config) *tn5250.Builder {
	return messageScreen(fmt.Sprintf("About %s", config.SystemName), []string{
		fmt.Sprintf("%s TN5250 demo host", config.SystemName),
		"",
		"An AS/400-style interactive system speaking the",
		"5250 data stream over telnet.",
		"",
		"Subsystem  . . . : " + config.Subsystem,
		"Release  . . . . : V1R0M0",
	}, false)
}

// commandEntryScreen is the CALL QCMD command-entry display.
func commandEntryScreen(config Config) *tn5250.Builder {
	builder := newScreen()
	centerField(builder, 1, "Command Entry", tn5250.AttrHighIntensity)
	builder.
		RightText(2, fmt.Sprintf("System: %s", config.SystemName)).
		TextAt(4, 2, "Type command, press Enter.").
		TextAt(6, 2, "===>").
		InputField("command", 6, 7, 70).
		TextAt(22, 2, "F3=Exit   F12=Cancel").
		InsertCursor(6, 8)

	return builder
}
