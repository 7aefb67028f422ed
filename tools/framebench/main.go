package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"floatclock/internal/clock"
	"floatclock/internal/metrics"
	"floatclock/internal/motion"
	"floatclock/internal/tui"
)

type size struct{ cols, rows int }

func main() {
	frames := flag.Int("frames", 600, "frames to render per size")
	style := flag.String("style", "fly", "transition style: fly or crossfade")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.Disabled)

	fmt.Println("🔬 Frame Render Benchmark")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Time: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))

	sizes := []size{{80, 24}, {120, 40}, {200, 60}, {320, 90}}

	fmt.Printf("%-10s %10s %10s %10s %10s %8s\n", "Size", "P50", "P95", "P99", "Avg", "Bytes")
	fmt.Println(strings.Repeat("-", 60))
	for _, sz := range sizes {
		m, bytes := bench(sz, *frames, clock.ParseStyle(*style))
		fmt.Printf("%-10s %10s %10s %10s %10s %8d\n",
			fmt.Sprintf("%dx%d", sz.cols, sz.rows),
			m.P50(), m.P95(), m.P99(), m.Avg(), bytes)
	}
}

// bench renders n frames starting just before 10:00, so the rollover puts
// four transitions in flight early on.
func bench(sz size, n int, style clock.TransitionStyle) (*metrics.Metrics, int) {
	start := time.Date(2025, 12, 5, 9, 59, 58, 0, time.UTC)
	s := clock.DefaultSettings()
	s.Style = style
	face := clock.NewFace(clock.NewAnimationConfig(s, rand.New(rand.NewPCG(1, 2))), motion.NewScheduler(start))
	face.Mount(start)
	defer face.Unmount()

	theme := tui.Themes[0]
	m := metrics.New(n)
	frame := time.Second / tui.AnimationFPS
	bytes := 0
	for i := 0; i < n; i++ {
		now := start.Add(time.Duration(i) * frame)
		if i%tui.AnimationFPS == 0 {
			face.Tick(now)
		}
		face.Frame(now)

		ft := m.StartFrame()
		out := tui.RenderFace(face.Views(now, theme), s.FontScale, sz.cols, sz.rows, theme).String()
		ft.Done()
		bytes = max(bytes, len(out))
	}
	return m, bytes
}
