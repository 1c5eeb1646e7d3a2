// Package config holds the stream configuration: defaults plus overrides
// read from the settings store.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"unicode/utf8"

	"github.com/ayusman/handstream/internal/capture"
	"github.com/ayusman/handstream/internal/detector"
	"github.com/ayusman/handstream/internal/display"
	"github.com/ayusman/handstream/internal/transmit"
	"github.com/ayusman/handstream/internal/wire"
)

// ErrUnknownKey is returned for a setting key no field answers to.
var ErrUnknownKey = errors.New("unknown setting")

// Config holds every tunable of a stream run.
type Config struct {
	Camera   capture.Config
	Detector detector.Config

	UDPAddr string
	Codec   string

	WindowTitle  string
	DisplayScale float64
	QuitKey      rune
	KeyDelayMs   int

	// MonitorAddr enables the monitor HTTP server when non-empty.
	MonitorAddr string
}

// Default returns the configuration used when no settings are stored.
func Default() Config {
	return Config{
		Camera:       capture.DefaultConfig(),
		Detector:     detector.DefaultConfig(),
		UDPAddr:      transmit.DefaultAddr,
		Codec:        wire.CodecList,
		WindowTitle:  display.DefaultTitle,
		DisplayScale: 0.5,
		QuitKey:      'q',
		KeyDelayMs:   1,
	}
}

// Dir returns the per-user data directory, ~/.handstream.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".handstream"), nil
}

type field struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

var fields = map[string]field{
	"camera.device": {
		get: func(c *Config) string { return strconv.Itoa(c.Camera.DeviceID) },
		set: func(c *Config, v string) error { return parseInt(v, 0, &c.Camera.DeviceID) },
	},
	"camera.width": {
		get: func(c *Config) string { return strconv.Itoa(c.Camera.Width) },
		set: func(c *Config, v string) error { return parseInt(v, 1, &c.Camera.Width) },
	},
	"camera.height": {
		get: func(c *Config) string { return strconv.Itoa(c.Camera.Height) },
		set: func(c *Config, v string) error { return parseInt(v, 1, &c.Camera.Height) },
	},
	"detector.max_hands": {
		get: func(c *Config) string { return strconv.Itoa(c.Detector.MaxHands) },
		set: func(c *Config, v string) error { return parseInt(v, 1, &c.Detector.MaxHands) },
	},
	"detector.min_confidence": {
		get: func(c *Config) string { return formatFloat(c.Detector.MinConfidence) },
		set: func(c *Config, v string) error { return parseUnit(v, &c.Detector.MinConfidence) },
	},
	"detector.min_tracking_confidence": {
		get: func(c *Config) string { return formatFloat(c.Detector.MinTrackingConf) },
		set: func(c *Config, v string) error { return parseUnit(v, &c.Detector.MinTrackingConf) },
	},
	"detector.flip_handedness": {
		get: func(c *Config) string { return strconv.FormatBool(c.Detector.FlipHandedness) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("not a boolean: %q", v)
			}
			c.Detector.FlipHandedness = b
			return nil
		},
	},
	"udp.addr": {
		get: func(c *Config) string { return c.UDPAddr },
		set: func(c *Config, v string) error {
			if _, _, err := net.SplitHostPort(v); err != nil {
				return err
			}
			c.UDPAddr = v
			return nil
		},
	},
	"wire.codec": {
		get: func(c *Config) string { return c.Codec },
		set: func(c *Config, v string) error {
			if _, err := wire.NewCodec(v); err != nil {
				return err
			}
			c.Codec = v
			return nil
		},
	},
	"display.title": {
		get: func(c *Config) string { return c.WindowTitle },
		set: func(c *Config, v string) error {
			if v == "" {
				return errors.New("empty title")
			}
			c.WindowTitle = v
			return nil
		},
	},
	"display.scale": {
		get: func(c *Config) string { return formatFloat(c.DisplayScale) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || f <= 0 || f > 4 {
				return fmt.Errorf("scale must be in (0, 4]: %q", v)
			}
			c.DisplayScale = f
			return nil
		},
	},
	"display.quit_key": {
		get: func(c *Config) string { return string(c.QuitKey) },
		set: func(c *Config, v string) error {
			r, size := utf8.DecodeRuneInString(v)
			if size != len(v) || r > 0x7f || v == "" {
				return fmt.Errorf("quit key must be one ASCII character: %q", v)
			}
			c.QuitKey = r
			return nil
		},
	},
	"display.key_delay_ms": {
		get: func(c *Config) string { return strconv.Itoa(c.KeyDelayMs) },
		set: func(c *Config, v string) error { return parseInt(v, 1, &c.KeyDelayMs) },
	},
	"monitor.addr": {
		get: func(c *Config) string { return c.MonitorAddr },
		set: func(c *Config, v string) error {
			if v != "" {
				if _, _, err := net.SplitHostPort(v); err != nil {
					return err
				}
			}
			c.MonitorAddr = v
			return nil
		},
	},
}

// Keys returns every recognised setting key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set applies one setting.
func (c *Config) Set(key, value string) error {
	f, ok := fields[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if err := f.set(c, value); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	return nil
}

// Get renders one setting's current value.
func (c *Config) Get(key string) (string, error) {
	f, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return f.get(c), nil
}

// Apply applies every setting in sorted key order and joins the errors.
// Valid settings still take effect when others fail.
func (c *Config) Apply(settings map[string]string) error {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, k := range keys {
		if err := c.Set(k, settings[k]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Settings renders every field as a key/value map.
func (c *Config) Settings() map[string]string {
	out := make(map[string]string, len(fields))
	for k, f := range fields {
		out[k] = f.get(c)
	}
	return out
}

func parseInt(v string, minimum int, dst *int) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("not an integer: %q", v)
	}
	if n < minimum {
		return fmt.Errorf("must be at least %d: %d", minimum, n)
	}
	*dst = n
	return nil
}

func parseUnit(v string, dst *float64) error {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 || f > 1 {
		return fmt.Errorf("must be between 0 and 1: %q", v)
	}
	*dst = f
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
