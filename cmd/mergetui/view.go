package main

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/ugaemi/mergeboss-server/internal/game"
	"github.com/ugaemi/mergeboss-server/internal/rank"
)

// hudRows is the number of terminal rows above the field.
const hudRows = 2

var rankColors = []tcell.Color{
	tcell.ColorLightGray,
	tcell.ColorGreen,
	tcell.ColorTeal,
	tcell.ColorBlue,
	tcell.ColorPurple,
	tcell.ColorFuchsia,
	tcell.ColorYellow,
	tcell.ColorOrange,
	tcell.ColorRed,
	tcell.ColorWhite,
}

// layout maps arena coordinates onto terminal cells. Cells are roughly twice
// as tall as they are wide, so the field is twice as many columns as the
// arena aspect would suggest.
type layout struct {
	left, top  int
	cols, rows int
	sx, sy     float64 // cells per arena unit
}

func newLayout(screenW, screenH int, arena game.Arena) layout {
	rows := max(screenH-hudRows, 1)
	cols := int(float64(rows) * 2 * arena.Width / arena.Height)
	if cols > screenW {
		cols = screenW
		rows = max(int(float64(cols)*arena.Height/(2*arena.Width)), 1)
	}
	cols = max(cols, 1)
	return layout{
		left: (screenW - cols) / 2,
		top:  hudRows,
		cols: cols,
		rows: rows,
		sx:   float64(cols) / arena.Width,
		sy:   float64(rows) / arena.Height,
	}
}

// cell returns the terminal cell holding arena point (x, y).
func (l layout) cell(x, y float64) (int, int) {
	return l.left + int(x*l.sx), l.top + int(y*l.sy)
}

// arenaX converts a terminal column back to an arena x coordinate.
func (l layout) arenaX(col int) float64 {
	return (float64(col-l.left) + 0.5) / l.sx
}

func rankColor(r int) tcell.Color {
	if r < 0 {
		return tcell.ColorGray
	}
	return rankColors[r%len(rankColors)]
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for i, r := range []rune(text) {
		s.SetContent(x+i, y, r, nil, style)
	}
}

func draw(s tcell.Screen, snap game.Snapshot, ranks *rank.Table, muted bool) {
	s.Clear()
	w, h := s.Size()
	arena := game.Arena{Width: snap.Width, Height: snap.Height}
	l := newLayout(w, h, arena)

	drawHUD(s, snap, ranks, w, muted)

	// walls and death line
	wall := tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
	for row := l.top; row < l.top+l.rows; row++ {
		s.SetContent(l.left-1, row, '│', nil, wall)
		s.SetContent(l.left+l.cols, row, '│', nil, wall)
	}
	lineStyle := tcell.StyleDefault.Foreground(tcell.ColorRed)
	if snap.OverThreshold {
		lineStyle = lineStyle.Bold(true).Reverse(true)
	}
	_, lineRow := l.cell(0, snap.DeathLineY)
	for col := l.left; col < l.left+l.cols; col++ {
		s.SetContent(col, lineRow, '┄', nil, lineStyle)
	}

	for _, t := range snap.Tokens {
		drawToken(s, l, t)
	}

	switch snap.State {
	case game.StateTutorial:
		banner(s, l, "drag to drop, merge twins · press s to start")
	case game.StateWon:
		banner(s, l, fmt.Sprintf("the %s has arrived! score %d · r to restart", rank.BossName, snap.Score))
	case game.StateLost:
		banner(s, l, fmt.Sprintf("burned out at score %d · r to restart", snap.Score))
	}

	s.Show()
}

func drawHUD(s tcell.Screen, snap game.Snapshot, ranks *rank.Table, w int, muted bool) {
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	next := "-"
	if r, err := ranks.Get(snap.NextRank); err == nil {
		next = r.Name
	}
	status := fmt.Sprintf("score %d   best %d   next %s", snap.Score, snap.MaxRankSeen, next)
	if muted {
		status += "   (no sound)"
	}
	drawText(s, 1, 0, style, status)

	barWidth := max(w/3, 10)
	filled := int(snap.BurnProgress * float64(barWidth))
	barStyle := tcell.StyleDefault.Foreground(tcell.ColorOrange)
	drawText(s, 1, 1, style, "burn ")
	drawText(s, 6, 1, barStyle, strings.Repeat("█", filled)+strings.Repeat("░", barWidth-filled))
}

func drawToken(s tcell.Screen, l layout, t game.TokenView) {
	style := tcell.StyleDefault.Foreground(rankColor(t.Rank))
	if t.Held {
		style = style.Dim(true)
	}
	rx := t.Radius * l.sx
	ry := t.Radius * l.sy
	cx, cy := t.X*l.sx, t.Y*l.sy

	for row := int(cy - ry); row <= int(cy+ry); row++ {
		for col := int(cx - rx); col <= int(cx+rx); col++ {
			dx := (float64(col) + 0.5 - cx) / max(rx, 0.5)
			dy := (float64(row) + 0.5 - cy) / max(ry, 0.5)
			if dx*dx+dy*dy > 1 || col < 0 || col >= l.cols || row < 0 || row >= l.rows {
				continue
			}
			s.SetContent(l.left+col, l.top+row, '●', nil, style)
		}
	}
	label := []rune(fmt.Sprint(t.Rank))
	x, y := l.cell(t.X, t.Y)
	drawText(s, x-len(label)/2, y, style.Reverse(true), string(label))
}

func banner(s tcell.Screen, l layout, text string) {
	style := tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorWhite)
	runes := []rune(" " + text + " ")
	x := l.left + (l.cols-len(runes))/2
	drawText(s, max(x, 0), l.top+l.rows/2, style, string(runes))
}
