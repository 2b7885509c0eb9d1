// Command replay plays a recorded game again and prints its outcome.
//
// Usage:
//
//	replay [-render] [-speed 2] game.bim
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/bomb-arena/internal/draw"
	"github.com/tomz197/bomb-arena/internal/game/config"
	"github.com/tomz197/bomb-arena/internal/game/contest"
)

func main() {
	render := flag.Bool("render", false, "draw every tick on the terminal")
	speed := flag.Float64("speed", 1, "playback speed when rendering")
	flag.Parse()

	if flag.NArg() != 1 || *speed <= 0 {
		fmt.Fprintln(os.Stderr, "usage: replay [-render] [-speed factor] <timeline>")
		os.Exit(2)
	}

	path := flag.Arg(0)
	f, err := os.Open(path)
	if err != nil {
		log.Fatal("Could not open the timeline.", "path", path, "err", err)
	}
	defer f.Close()

	timeline, err := contest.LoadTimeline(f)
	if err != nil {
		if timeline == nil {
			log.Fatal("Could not read the timeline.", "path", path, "err", err)
		}
		log.Warn("Replaying a partial timeline.", "path", path, "err", err)
	}

	fp := timeline.Fingerprint
	log.Info("Replaying game.", "seed", fp.Seed, "players", fp.PlayerCount, "features", fp.Features,
		"arena", fmt.Sprintf("%dx%d", fp.ArenaWidth, fp.ArenaHeight), "ticks", len(timeline.Ticks))

	var each func(int, *contest.Contest, contest.Result)
	if *render {
		each = renderer(time.Duration(float64(config.TickInterval) / *speed))
		draw.HideCursor(os.Stdout)
		draw.ClearScreen(os.Stdout)
	}

	start := time.Now()
	c, result := timeline.Replay(each)

	if *render {
		draw.ShowCursor(os.Stdout)
		fmt.Println()
	}

	log.Info("Replay done.", "result", result, "ticks", c.TickCount(),
		"hash", fmt.Sprintf("%016x", c.Hash()), "elapsed", time.Since(start))
}

// renderer returns a callback drawing each tick of the replay, waiting delay
// between the ticks.
func renderer(delay time.Duration) func(int, *contest.Contest, contest.Result) {
	cw := draw.NewChunkWriter(os.Stdout, 0, 0)
	var canvas *draw.Canvas

	return func(tick int, c *contest.Contest, result contest.Result) {
		fp := c.Fingerprint()
		if canvas == nil {
			canvas = draw.NewCanvas(int(fp.ArenaWidth), int(fp.ArenaHeight))
			canvas.SetOrigin(2, 3)
			canvas.RenderBorder(cw)
		}

		draw.PaintContest(canvas, c, draw.Spectator)
		canvas.Render(cw)

		cw.ClearLine(1)
		cw.WriteAt(2, 1, fmt.Sprintf("tick %d  %s", tick+1, result))
		if err := cw.Flush(); err != nil {
			log.Fatal("Could not draw.", "err", err)
		}

		time.Sleep(delay)
	}
}
