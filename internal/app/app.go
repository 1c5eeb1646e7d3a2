// Package app runs the capture, detect and stream loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/ayusman/handstream/internal/capture"
	"github.com/ayusman/handstream/internal/detector"
	"github.com/ayusman/handstream/internal/display"
	"github.com/ayusman/handstream/internal/wire"
)

// Sender delivers packets to the consumer.
type Sender interface {
	// Send transmits a non-empty packet and reports whether anything was sent.
	Send(p wire.Packet, height int) (bool, error)
	Close() error
}

// PacketSink receives a copy of every packet that was sent.
// Publish must not block.
type PacketSink interface {
	Publish(p wire.Packet, height int)
}

// Deps are the collaborators the loop drives. The App takes ownership and
// closes all of them when the loop stops.
type Deps struct {
	Camera   capture.Camera
	Detector detector.Detector
	Sender   Sender
	Display  display.Display
	// Sink is optional.
	Sink PacketSink
}

// Config holds the loop settings.
type Config struct {
	// Height is subtracted from landmark Y to move the origin to the bottom left.
	Height       int
	DisplayScale float64
	QuitKey      rune
	KeyDelayMs   int
}

// Stats counts what the loop has done so far.
type Stats struct {
	Frames       uint64 `json:"frames"`
	Packets      uint64 `json:"packets"`
	DetectErrors uint64 `json:"detect_errors"`
	SendErrors   uint64 `json:"send_errors"`
}

// App is the frame loop.
type App struct {
	config Config
	deps   Deps
	state  State
	stats  Stats
	mu     sync.RWMutex
}

// New creates an App. Missing config values get the stream defaults.
func New(deps Deps, config Config) (*App, error) {
	if deps.Camera == nil || deps.Detector == nil || deps.Sender == nil || deps.Display == nil {
		return nil, errors.New("app: camera, detector, sender and display are required")
	}
	if config.Height <= 0 {
		config.Height = capture.DefaultHeight
	}
	if config.DisplayScale <= 0 {
		config.DisplayScale = 0.5
	}
	if config.QuitKey == 0 {
		config.QuitKey = 'q'
	}
	if config.KeyDelayMs <= 0 {
		config.KeyDelayMs = 1
	}

	return &App{
		config: config,
		deps:   deps,
		state:  Stopped,
	}, nil
}

// Run opens the camera and processes frames until the quit key, a capture
// failure, a detector that gave up or ctx cancellation. Every collaborator
// is closed before Run returns, including when the camera fails to open.
// Only a failed open and DetectorFailed return an error.
func (a *App) Run(ctx context.Context) (Event, error) {
	defer a.release()

	if err := a.deps.Camera.Open(); err != nil {
		return CaptureFailed, fmt.Errorf("open camera: %w", err)
	}

	a.setState(Running)
	log.Println("Streaming started")

	state := Running
	var last Event
	var runErr error
	for state == Running {
		last, runErr = a.step(ctx)
		state = Next(state, last)
	}

	a.setState(state)

	stats := a.Stats()
	log.Printf("Streaming stopped (%s): %d frames, %d packets, %d detect errors, %d send errors",
		last, stats.Frames, stats.Packets, stats.DetectErrors, stats.SendErrors)

	return last, runErr
}

// step runs one iteration: read, mirror, detect, flatten, transmit,
// annotate, show, poll key. The error is set only for DetectorFailed.
func (a *App) step(ctx context.Context) (Event, error) {
	if ctx.Err() != nil {
		return Cancelled, nil
	}

	frame, err := a.deps.Camera.ReadFrame()
	if err != nil {
		log.Printf("Failed to grab frame: %v", err)
		return CaptureFailed, nil
	}
	defer frame.Close()

	a.count(func(s *Stats) { s.Frames++ })

	capture.Mirror(frame)

	hands, err := a.deps.Detector.Detect(frame)
	if err != nil {
		a.count(func(s *Stats) { s.DetectErrors++ })
		if errors.Is(err, detector.ErrServiceFailed) {
			return DetectorFailed, fmt.Errorf("detect hands: %w", err)
		}
		log.Printf("Error detecting hands: %v", err)
		hands = nil
	}

	packet := wire.Flatten(hands, a.config.Height)
	sent, err := a.deps.Sender.Send(packet, a.config.Height)
	switch {
	case err != nil:
		log.Printf("Error sending packet: %v", err)
		a.count(func(s *Stats) { s.SendErrors++ })
	case sent:
		a.count(func(s *Stats) { s.Packets++ })
		if a.deps.Sink != nil {
			a.deps.Sink.Publish(packet, a.config.Height)
		}
	}

	detector.Annotate(frame, hands)

	preview := capture.Scale(*frame, a.config.DisplayScale)
	if err := a.deps.Display.Show(preview); err != nil {
		log.Printf("Error showing frame: %v", err)
	}
	preview.Close()

	if key := a.deps.Display.PollKey(a.config.KeyDelayMs); key == int(a.config.QuitKey) {
		return QuitKey, nil
	}
	return FrameDone, nil
}

func (a *App) release() {
	if err := a.deps.Camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}
	if err := a.deps.Display.Close(); err != nil {
		log.Printf("Error closing display: %v", err)
	}
	if err := a.deps.Sender.Close(); err != nil {
		log.Printf("Error closing socket: %v", err)
	}
	if err := a.deps.Detector.Close(); err != nil {
		log.Printf("Error closing detector: %v", err)
	}
	a.setState(Stopped)
}

func (a *App) count(fn func(s *Stats)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn(&a.stats)
}

func (a *App) setState(s State) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = s
}

// State returns the current loop state.
func (a *App) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// Stats returns a snapshot of the loop counters.
func (a *App) Stats() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stats
}
