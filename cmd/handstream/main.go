package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ayusman/handstream/internal/app"
	"github.com/ayusman/handstream/internal/capture"
	"github.com/ayusman/handstream/internal/config"
	"github.com/ayusman/handstream/internal/detector"
	"github.com/ayusman/handstream/internal/display"
	"github.com/ayusman/handstream/internal/server"
	"github.com/ayusman/handstream/internal/store"
	"github.com/ayusman/handstream/internal/transmit"
	"github.com/ayusman/handstream/internal/wire"
	"github.com/google/uuid"
)

func main() {
	dataDir, err := config.Dir()
	if err != nil {
		log.Fatalf("Failed to locate data directory: %v", err)
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	st, err := store.New(filepath.Join(dataDir, "handstream.db"))
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}

	if len(os.Args) > 1 {
		err := runCommand(os.Stdout, st, os.Args[1:])
		st.Close()
		if err != nil {
			log.Fatal(err)
		}
		return
	}

	cfg := loadConfig(st)
	st.Close()

	if err := stream(cfg); err != nil {
		log.Fatal(err)
	}
}

// loadConfig applies stored overrides to the defaults. Invalid settings are
// reported and skipped.
func loadConfig(st *store.Store) config.Config {
	cfg := config.Default()

	settings, err := st.Settings().All()
	if err != nil {
		log.Printf("Failed to read settings, using defaults: %v", err)
		return cfg
	}
	if err := cfg.Apply(settings); err != nil {
		log.Printf("Ignoring invalid settings: %v", err)
	}
	return cfg
}

func stream(cfg config.Config) error {
	session := uuid.NewString()
	log.SetPrefix("[" + session[:8] + "] ")

	fmt.Println("handstream - hand landmark streaming")

	codec, err := wire.NewCodec(cfg.Codec)
	if err != nil {
		return err
	}

	tx, err := transmit.Dial(transmit.Config{
		Addr:    cfg.UDPAddr,
		Codec:   codec,
		Session: session,
	})
	if err != nil {
		return fmt.Errorf("open socket: %w", err)
	}
	log.Printf("Sending %s packets to %s", codec.Name(), tx.Addr())

	det, err := detector.NewMediaPipeDetector(cfg.Detector)
	if err != nil {
		tx.Close()
		return fmt.Errorf("hand detector: %w", err)
	}
	log.Println("Using MediaPipe hand detection")

	deps := app.Deps{
		Camera:   capture.NewCamera(cfg.Camera),
		Detector: det,
		Sender:   tx,
		Display:  display.NewWindow(cfg.WindowTitle),
	}

	var hub *server.Hub
	if cfg.MonitorAddr != "" {
		hub = server.NewHub(session)
		deps.Sink = hub
	}

	a, err := app.New(deps, app.Config{
		Height:       cfg.Camera.Height,
		DisplayScale: cfg.DisplayScale,
		QuitKey:      cfg.QuitKey,
		KeyDelayMs:   cfg.KeyDelayMs,
	})
	if err != nil {
		tx.Close()
		det.Close()
		return err
	}

	if hub != nil {
		srv := server.New(server.Config{Session: session, Source: a, Hub: hub})
		go func() {
			log.Printf("Monitor listening on %s", cfg.MonitorAddr)
			if err := srv.ListenAndServe(cfg.MonitorAddr); err != nil {
				log.Printf("Monitor server failed: %v", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err = a.Run(ctx)
	return err
}
