// Command clockcheck replays a stretch of wall-clock time against the clock
// face on a virtual scheduler and reports whether it behaved.
package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"floatclock/internal/clock"
	"floatclock/internal/motion"
)

type result struct {
	name   string
	ok     bool
	detail string
}

func main() {
	startFlag := flag.String("start", "23:59:50", "wall-clock time to mount at (HH:MM:SS)")
	duration := flag.Duration("duration", 90*time.Second, "how much time to replay")
	style := flag.String("style", "fly", "transition style: fly or crossfade")
	seed := flag.Uint64("seed", 1, "random seed")
	fps := flag.Int("fps", 30, "frames per simulated second")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.Disabled)

	tod, err := time.Parse("15:04:05", *startFlag)
	if err != nil {
		color.Red("❌ Bad start time %q: %v", *startFlag, err)
		os.Exit(1)
	}
	y, m, d := time.Now().Date()
	start := time.Date(y, m, d, tod.Hour(), tod.Minute(), tod.Second(), 0, time.Local)

	s := clock.DefaultSettings()
	s.Style = clock.ParseStyle(*style)
	rng := rand.New(rand.NewPCG(*seed, *seed+1))
	face := clock.NewFace(clock.NewAnimationConfig(s, rng), motion.NewScheduler(start))

	fmt.Println("----------------------------------------")
	fmt.Println("🔍 REPLAYING CLOCK")
	fmt.Println("----------------------------------------")
	fmt.Printf("Start:    %s\n", start.Format("15:04:05"))
	fmt.Printf("Duration: %s\n", *duration)
	fmt.Printf("Style:    %s\n\n", s.Style)

	results := replay(face, start, *duration, *fps)

	failed := 0
	for _, r := range results {
		if r.ok {
			color.Green("✅ %-28s %s", r.name, r.detail)
		} else {
			failed++
			color.Red("❌ %-28s %s", r.name, r.detail)
		}
	}
	fmt.Println("----------------------------------------")
	if failed > 0 {
		color.Red("%d of %d checks failed", failed, len(results))
		os.Exit(1)
	}
	color.Green("🎯 All %d checks passed", len(results))
}

func replay(face *clock.Face, start time.Time, duration time.Duration, fps int) []result {
	if fps <= 0 {
		fps = 30
	}
	frame := time.Second / time.Duration(fps)
	sched := face.Scheduler()
	face.Mount(start)

	var (
		changes      int
		maxPending   int
		badOpacity   int
		floatLeaks   int
		separatorHit bool
	)
	end := start.Add(duration)
	for t := start.Add(time.Second); !t.After(end); t = t.Add(time.Second) {
		prev := face.Orchestrator().Last()
		face.Tick(t)
		next := clock.Characters(t)
		for i := range next {
			if next[i] != prev[i] {
				changes++
			}
		}

		for f := t; f.Before(t.Add(time.Second)); f = f.Add(frame) {
			face.Frame(f)
			for _, v := range face.Views(f, nil) {
				if v.Opacity < 0 || v.Opacity > 1 {
					badOpacity++
				}
			}
			maxPending = max(maxPending, sched.Pending())
		}

		for i := 0; i < clock.SlotCount; i++ {
			sl := face.Slot(i)
			if !sl.InFlight() && sl.PendingTimers() > 1 {
				floatLeaks++
			}
		}
		if face.Slot(clock.SeparatorSlot).Transitions() > 0 {
			separatorHit = true
		}
	}

	// let the last transition land
	settle := end.Add(3 * time.Second)
	face.Frame(settle)
	want := clock.Characters(end)
	mismatched, moving := 0, 0
	for i := 0; i < clock.SlotCount; i++ {
		if face.Slot(i).Displayed() != want[i] {
			mismatched++
		}
		if face.Slot(i).InFlight() {
			moving++
		}
	}

	transitions := face.Transitions()
	face.Unmount()
	leftover := sched.Pending()

	return []result{
		{"displayed matches time", mismatched == 0, fmt.Sprintf("%d slot(s) off at %s", mismatched, end.Format("15:04"))},
		{"all slots settled", moving == 0, fmt.Sprintf("%d slot(s) still in flight", moving)},
		{"transitions only on change", transitions <= changes, fmt.Sprintf("%d transitions for %d changes", transitions, changes)},
		{"separator stays put", !separatorHit, "colon never transitions"},
		{"one float timer per slot", floatLeaks == 0, fmt.Sprintf("%d steady samples over budget", floatLeaks)},
		{"bounded pending work", maxPending <= clock.SlotCount*3+1, fmt.Sprintf("peak %d timers", maxPending)},
		{"opacity in range", badOpacity == 0, fmt.Sprintf("%d bad samples", badOpacity)},
		{"unmount leaves nothing", leftover == 0, fmt.Sprintf("%d timers pending", leftover)},
	}
}
