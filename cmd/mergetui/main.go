// Command mergetui plays the merge game locally in a terminal.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/ugaemi/mergeboss-server/internal/game"
	"github.com/ugaemi/mergeboss-server/internal/rank"
)

func main() {
	ranksFile := flag.String("ranks", "", "YAML rank file")
	logFile := flag.String("log", "", "write logs to this file")
	flag.Parse()

	setupLogger(*logFile)

	ranks := rank.Default()
	if *ranksFile != "" {
		t, f, err := rank.Load(*ranksFile)
		if err == nil && len(f.Mentors) > 0 {
			rng := rand.New(rand.NewSource(time.Now().UnixNano()))
			t, err = t.WithNames(rank.AssignNames(f.Mentors, f.Boss, t.Len(), rng))
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		ranks = t
	}

	if err := run(ranks); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogger keeps slog off the terminal the game draws on.
func setupLogger(path string) {
	var w io.Writer = io.Discard
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			w = f
		}
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})))
}

func run(ranks *rank.Table) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()
	screen.EnableMouse()

	snd, err := newSound()
	if err != nil {
		// Non-fatal, the game runs without sound
		slog.Warn("audio initialization failed", "error", err)
	}
	defer snd.Close()

	g := game.New(game.Options{Ranks: ranks, Feedback: snd})
	defer g.Close()

	p := &player{game: g, screen: screen}

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	ticker := time.NewTicker(game.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-events:
			if !p.handle(ev) {
				return nil
			}
		case <-ticker.C:
			g.Step()
			draw(screen, g.Snapshot(), ranks, !snd.enabled)
		}
	}
}

// player translates terminal input into game input.
type player struct {
	game    *game.Game
	screen  tcell.Screen
	pressed bool
	col     int
}

func (p *player) layout() layout {
	w, h := p.screen.Size()
	return newLayout(w, h, p.game.Arena())
}

func (p *player) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return p.key(ev)
	case *tcell.EventMouse:
		p.mouse(ev)
	case *tcell.EventResize:
		p.screen.Sync()
	}
	return true
}

func (p *player) key(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyLeft:
		p.nudge(-1)
	case tcell.KeyRight:
		p.nudge(1)
	case tcell.KeyEnter:
		p.game.PointerRelease()
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return false
		case 's':
			p.game.Start()
		case 'r':
			p.game.Restart()
		case ' ':
			if _, held := p.game.Spawn().Held(); held {
				p.game.PointerRelease()
			} else {
				p.game.PointerEngage(p.layout().arenaX(p.col))
			}
		}
	}
	return true
}

// nudge moves the keyboard pointer one column.
func (p *player) nudge(dir int) {
	l := p.layout()
	if p.col < l.left || p.col >= l.left+l.cols {
		p.col = l.left + l.cols/2
	}
	p.col = min(max(p.col+dir, l.left), l.left+l.cols-1)
	if _, held := p.game.Spawn().Held(); held {
		p.game.PointerMove(l.arenaX(p.col))
	}
}

func (p *player) mouse(ev *tcell.EventMouse) {
	col, _ := ev.Position()
	p.col = col
	x := p.layout().arenaX(col)

	down := ev.Buttons()&tcell.Button1 != 0
	switch {
	case down && !p.pressed:
		p.pressed = true
		p.game.PointerEngage(x)
	case down:
		p.game.PointerMove(x)
	case p.pressed:
		p.pressed = false
		p.game.PointerMove(x)
		p.game.PointerRelease()
	}
}
