package clock

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// FrameFunc observes the face after each frame.
type FrameFunc func(now time.Time, views []SlotView)

// Loop drives a Face without a terminal: a one-second time source, a frame
// ticker and a queue of closures, all serialised on the goroutine running
// Run. It is the headless counterpart of the TUI's event loop.
type Loop struct {
	face    *Face
	palette Palette
	frame   time.Duration
	posts   chan func(*Face)
	onFrame []FrameFunc
	onTick  []func(time.Time)
	now     func() time.Time
}

// NewLoop creates a loop rendering at fps frames per second.
func NewLoop(face *Face, palette Palette, fps int) *Loop {
	if fps <= 0 {
		fps = 30
	}
	return &Loop{
		face:    face,
		palette: palette,
		frame:   time.Second / time.Duration(fps),
		posts:   make(chan func(*Face), 64),
		now:     time.Now,
	}
}

// OnFrame registers fn to run after every frame. Call before Run.
func (l *Loop) OnFrame(fn FrameFunc) {
	l.onFrame = append(l.onFrame, fn)
}

// OnTick registers fn to run after every time-source delivery. Call before
// Run.
func (l *Loop) OnTick(fn func(t time.Time)) {
	l.onTick = append(l.onTick, fn)
}

// SetPalette swaps the palette used for frame views.
func (l *Loop) SetPalette(p Palette) {
	l.Post(func(*Face) { l.palette = p })
}

// Post queues fn to run on the loop goroutine. It never blocks; a full queue
// drops fn and returns false.
func (l *Loop) Post(fn func(*Face)) bool {
	select {
	case l.posts <- fn:
		return true
	default:
		log.Warn().Msg("clock loop queue full, dropping update")
		return false
	}
}

// Run mounts the face and serves ticks, frames and posted closures until ctx
// ends. The face is unmounted before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	l.face.Mount(l.now())
	defer l.face.Unmount()

	second := time.NewTicker(time.Second)
	defer second.Stop()
	frame := time.NewTicker(l.frame)
	defer frame.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("clock loop stopping")
			return nil
		case t := <-second.C:
			l.face.Tick(t)
			for _, fn := range l.onTick {
				fn(t)
			}
		case t := <-frame.C:
			l.face.Frame(t)
			if len(l.onFrame) > 0 {
				views := l.face.Views(t, l.palette)
				for _, fn := range l.onFrame {
					fn(t, views)
				}
			}
		case fn := <-l.posts:
			fn(l.face)
		}
	}
}
