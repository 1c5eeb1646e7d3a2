// Package display shows preview frames in a window and polls the keyboard.
package display

import (
	"sync"

	"gocv.io/x/gocv"
)

// DefaultTitle is the preview window title.
const DefaultTitle = "Image"

// NoKey is returned by PollKey when no key was pressed.
const NoKey = -1

// Display shows frames and reports key presses.
type Display interface {
	Show(frame gocv.Mat) error
	// PollKey waits up to delayMs for a key and returns its low byte,
	// or NoKey.
	PollKey(delayMs int) int
	Close() error
}

// Window is a Display backed by an OpenCV HighGUI window. The window is
// created on first Show so that constructing one never touches the GUI.
type Window struct {
	title  string
	window *gocv.Window
	mu     sync.Mutex
}

// NewWindow returns a Window with the given title.
func NewWindow(title string) *Window {
	if title == "" {
		title = DefaultTitle
	}
	return &Window{title: title}
}

// Show displays the frame.
func (w *Window) Show(frame gocv.Mat) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.window == nil {
		w.window = gocv.NewWindow(w.title)
	}
	w.window.IMShow(frame)
	return nil
}

// PollKey refreshes the window and returns the pressed key.
func (w *Window) PollKey(delayMs int) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.window == nil {
		return NoKey
	}
	key := w.window.WaitKey(delayMs)
	if key < 0 {
		return NoKey
	}
	return key & 0xff
}

// Close destroys the window if it was created.
func (w *Window) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.window == nil {
		return nil
	}
	err := w.window.Close()
	w.window = nil
	return err
}
