package main

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/talgya/stampede/internal/engine"
	"github.com/talgya/stampede/internal/render"
)

// runTUI shows the simulation on a tcell screen. It starts paused:
// space steps once, a toggles auto-run, q quits.
func runTUI(ctx context.Context, eng *engine.Engine, sim *engine.Simulation, autoSpeed float64) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()

	if autoSpeed <= 0 {
		autoSpeed = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	redraw := make(chan struct{}, 1)
	onTick := eng.OnTick
	eng.OnTick = func(tick uint64) {
		onTick(tick)
		select {
		case redraw <- struct{}{}:
		default:
		}
	}

	eng.SetSpeed(0)
	engineDone := make(chan struct{})
	go func() {
		eng.Run(ctx)
		close(engineDone)
	}()

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	draw := func() {
		screen.Clear()
		sn := sim.Snapshot()
		render.Draw(screen, sn)
		help := "space step  a auto  q quit"
		switch {
		case sim.Done():
			help = "finished  q quit"
		case eng.Speed() > 0:
			help = "running  a pause  q quit"
		}
		_, h := screen.Size()
		for i, r := range help {
			screen.SetContent(i, h-1, r, nil, tcell.StyleDefault.Reverse(true))
		}
		screen.Show()
	}
	draw()

	for {
		select {
		case <-ctx.Done():
			if engineDone != nil {
				<-engineDone
			}
			return nil
		case <-engineDone:
			// Run ended on its own (done or max ticks); keep the final
			// frame up until the user quits.
			engineDone = nil
			draw()
		case <-redraw:
			draw()
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventResize:
				screen.Sync()
				draw()
			case *tcell.EventKey:
				switch {
				case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC,
					ev.Key() == tcell.KeyRune && ev.Rune() == 'q':
					cancel()
				case ev.Key() == tcell.KeyRune && ev.Rune() == ' ':
					if !sim.Done() && eng.Speed() == 0 {
						eng.Step()
					}
				case ev.Key() == tcell.KeyRune && ev.Rune() == 'a':
					if eng.Speed() > 0 {
						eng.SetSpeed(0)
					} else {
						eng.SetSpeed(autoSpeed)
					}
					draw()
				}
			}
		}
	}
}
