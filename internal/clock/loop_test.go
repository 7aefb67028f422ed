package clock

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"floatclock/internal/motion"
)

func TestLoopRunsFramesAndPosts(t *testing.T) {
	face := NewFace(newTestConfig(1), motion.NewScheduler(time.Now()))
	loop := NewLoop(face, testPalette{}, 60)

	var frames atomic.Int32
	loop.OnFrame(func(_ time.Time, views []SlotView) {
		if len(views) == SlotCount {
			frames.Add(1)
		}
	})

	var ticks atomic.Int32
	loop.OnTick(func(time.Time) { ticks.Add(1) })

	applied := make(chan float64, 1)
	loop.Post(func(f *Face) {
		f.Config().SetSpreadFactor(1.2)
		applied <- f.Config().SpreadFactor()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 1300*time.Millisecond)
	defer cancel()
	if err := loop.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	select {
	case v := <-applied:
		if v != 1.2 {
			t.Errorf("posted update saw spread %v", v)
		}
	default:
		t.Error("posted closure never ran")
	}
	if frames.Load() == 0 {
		t.Error("no frames delivered")
	}
	if ticks.Load() == 0 {
		t.Error("no ticks delivered")
	}
	if face.Mounted() || face.Scheduler().Pending() != 0 {
		t.Error("face still mounted after Run returned")
	}
}

func TestLoopPostDropsWhenFull(t *testing.T) {
	face := NewFace(newTestConfig(1), motion.NewScheduler(epoch))
	loop := NewLoop(face, nil, 0)
	for i := 0; i < cap(loop.posts); i++ {
		if !loop.Post(func(*Face) {}) {
			t.Fatalf("post %d rejected", i)
		}
	}
	if loop.Post(func(*Face) {}) {
		t.Error("post on a full queue should fail")
	}
}
