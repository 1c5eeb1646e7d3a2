package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/ayusman/handstream/internal/config"
	"github.com/ayusman/handstream/internal/store"
)

const usage = `usage:
  handstream                     stream landmarks
  handstream config              list settings (* marks stored overrides)
  handstream config <key>        show one setting
  handstream config <key> <val>  store an override
  handstream config <key> -      remove an override`

// runCommand handles the config subcommand against the settings store.
func runCommand(w io.Writer, st *store.Store, args []string) error {
	if args[0] != "config" || len(args) > 3 {
		return errors.New(usage)
	}

	settings := st.Settings()
	stored, err := settings.All()
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}

	cfg := config.Default()
	if err := cfg.Apply(stored); err != nil {
		fmt.Fprintf(w, "warning: %v\n", err)
	}

	switch len(args) {
	case 1:
		for _, key := range config.Keys() {
			value, _ := cfg.Get(key)
			marker := " "
			if _, ok := stored[key]; ok {
				marker = "*"
			}
			fmt.Fprintf(w, "%s %s = %s\n", marker, key, value)
		}
		return nil

	case 2:
		value, err := cfg.Get(args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(w, value)
		return nil
	}

	key, value := args[1], args[2]
	if value == "-" {
		if err := settings.Delete(key); err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("delete %s: %w", key, err)
		}
		fmt.Fprintf(w, "%s reset to default\n", key)
		return nil
	}

	// Validate against a scratch config before storing
	check := config.Default()
	if err := check.Set(key, value); err != nil {
		return err
	}
	if err := settings.Set(key, value); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	fmt.Fprintf(w, "%s = %s\n", key, value)
	return nil
}
