package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Animation frame rate
const (
	AnimationFPS    = 30
	AnimationTickMs = 1000 / AnimationFPS // ~33ms
)

// AnimationTickMsg is sent on each animation frame
type AnimationTickMsg time.Time

// TickMsg is the one-second time source.
type TickMsg time.Time

// MountMsg carries the instant the face is mounted.
type MountMsg time.Time

// AnimationTickCmd creates the tick command for animations
func AnimationTickCmd(interval time.Duration) tea.Cmd {
	if interval <= 0 {
		interval = time.Duration(AnimationTickMs) * time.Millisecond
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return AnimationTickMsg(t)
	})
}

// ClockTickCmd fires on the next wall-clock second.
func ClockTickCmd() tea.Cmd {
	return tea.Every(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// MountCmd mounts the face at the current time.
func MountCmd() tea.Cmd {
	return func() tea.Msg { return MountMsg(time.Now()) }
}
