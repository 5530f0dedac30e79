package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"

	"github.com/moodclient/tn5250"
)

// renderer paints a screen buffer onto an ANSI terminal. Each display
// attribute gets its own style; invisible cells render as blanks so
// passwords never echo.
type renderer struct {
	out    io.Writer
	styles map[byte]lipgloss.Style
	plain  lipgloss.Style
}

func newRenderer(out io.Writer) *renderer {
	plain := lipgloss.NewStyle()

	return &renderer{
		out:   out,
		plain: plain,
		styles: map[byte]lipgloss.Style{
			tn5250.AttrReverse:       plain.Reverse(true),
			tn5250.AttrHighIntensity: plain.Bold(true),
			tn5250.AttrUnderscore:    plain.Underline(true),
			tn5250.AttrBlink:         plain.Blink(true),
			tn5250.AttrColumnSep:     plain.Faint(true),
		},
	}
}

func (r *renderer) styleFor(attr byte) lipgloss.Style {
	if style, known := r.styles[attr]; known {
		return style
	}

	return r.plain
}

// render repaints the whole screen and parks the hardware cursor where the
// screen buffer says it should be.
func (r *renderer) render(screen *tn5250.Screen) {
	var out strings.Builder
	out.WriteString("\x1b[H\x1b[2J")

	for row := 0; row < screen.Rows(); row++ {
		if row > 0 {
			out.WriteString("\r\n")
		}
		r.renderRow(&out, screen, row)
	}

	cursorRow, cursorCol := screen.Cursor()
	fmt.Fprintf(&out, "\x1b[%d;%dH", cursorRow+1, cursorCol+1)

	_, _ = io.WriteString(r.out, out.String())
}

// renderRow styles runs of cells sharing an attribute in one go.
func (r *renderer) renderRow(out *strings.Builder, screen *tn5250.Screen, row int) {
	cols := screen.Cols()

	col := 0
	for col < cols {
		attr := screen.AttrAt(row, col)

		var run strings.Builder
		for col < cols && screen.AttrAt(row, col) == attr {
			if attr == tn5250.AttrInvisible {
				run.WriteByte(' ')
			} else {
				run.WriteByte(screen.CharAt(row, col))
			}
			col++
		}

		out.WriteString(r.styleFor(attr).Render(run.String()))
	}
}
