package nav

import (
	"github.com/jypelle/inkpanel/internal/srv/model"
)

// Stack is the bounded back-stack of screens. It is never empty.
type Stack struct {
	screens []model.Screen
	limit   int
}

func NewStack(root model.Screen, limit int) *Stack {
	if limit < 1 {
		limit = 1
	}
	screens := make([]model.Screen, 1, limit)
	screens[0] = root
	return &Stack{screens: screens, limit: limit}
}

func (s *Stack) Current() model.Screen {
	return s.screens[len(s.screens)-1]
}

func (s *Stack) Depth() int {
	return len(s.screens)
}

func (s *Stack) Limit() int {
	return s.limit
}

// Push navigates to screen keeping the current one on the back-stack.
// It reports whether the current screen changed.
func (s *Stack) Push(screen model.Screen) bool {
	if screen == s.Current() {
		return false
	}
	if len(s.screens) >= s.limit {
		return s.Replace(screen)
	}
	s.screens = append(s.screens, screen)
	return true
}

// PushOverlay covers the current screen with screen, even past the depth
// limit, so that Pop returns exactly to the covered screen.
func (s *Stack) PushOverlay(screen model.Screen) bool {
	if screen == s.Current() {
		return false
	}
	s.screens = append(s.screens, screen)
	return true
}

// Pop returns to the previous screen. It fails on a single-element stack.
func (s *Stack) Pop() bool {
	if len(s.screens) <= 1 {
		return false
	}
	s.screens = s.screens[:len(s.screens)-1]
	return true
}

// Replace overwrites the current screen.
func (s *Stack) Replace(screen model.Screen) bool {
	if screen == s.Current() {
		return false
	}
	s.screens[len(s.screens)-1] = screen
	return true
}

// ClearAndNavigate resets the stack to the single screen.
func (s *Stack) ClearAndNavigate(screen model.Screen) bool {
	changed := screen != s.Current()
	s.screens = s.screens[:1]
	s.screens[0] = screen
	return changed
}

// CycleMainWindow moves to the next (direction > 0) or previous main window.
// Cycling never grows the stack.
func (s *Stack) CycleMainWindow(direction int) bool {
	current := s.Current()
	idx := current.MainWindowIndex()
	if idx < 0 {
		// From a sub-screen cycle relative to the main window it was opened from.
		idx = s.screens[0].MainWindowIndex()
		if idx < 0 {
			idx = 0
		}
	}
	step := 1
	if direction < 0 {
		step = -1
	}
	next := model.MainWindows[Wrap(idx, step, len(model.MainWindows))]
	if current.IsMainWindow() {
		return s.Replace(next)
	}
	return s.ClearAndNavigate(next)
}
