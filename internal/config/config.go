// Package config loads geniectl's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/moffa90/go-genie/genie"
	"github.com/moffa90/go-genie/protocol"
	"github.com/moffa90/go-genie/transport"
)

// Widget names one object on the display.
type Widget struct {
	Name   string
	Object protocol.ObjectType
	Index  byte
}

// Config is the resolved geniectl configuration.
type Config struct {
	Device           string
	Baud             int
	AckTimeout       time.Duration
	ReplyTimeout     time.Duration
	InterByteTimeout time.Duration
	QueueSize        int
	Listen           string
	Widgets          []Widget
}

type fileConfig struct {
	Device           string       `toml:"device"`
	Baud             int          `toml:"baud"`
	AckTimeout       string       `toml:"ack_timeout"`
	ReplyTimeout     string       `toml:"reply_timeout"`
	InterByteTimeout string       `toml:"inter_byte_timeout"`
	QueueSize        int          `toml:"queue_size"`
	Listen           string       `toml:"listen"`
	Widgets          []fileWidget `toml:"widget"`
}

type fileWidget struct {
	Name   string `toml:"name"`
	Object string `toml:"object"`
	Index  int    `toml:"index"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	def := genie.DefaultConfig()
	return Config{
		Device:           "/dev/serial0",
		Baud:             transport.DefaultBaud,
		AckTimeout:       def.AckTimeout,
		ReplyTimeout:     def.ReplyTimeout,
		InterByteTimeout: def.InterByteTimeout,
		QueueSize:        def.QueueSize,
		Listen:           "127.0.0.1:8089",
	}
}

// Load reads path and overlays the keys it defines onto Default.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("device") {
		cfg.Device = strings.TrimSpace(raw.Device)
	}

	if meta.IsDefined("baud") {
		cfg.Baud = raw.Baud
	}

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"ack_timeout", raw.AckTimeout, &cfg.AckTimeout},
		{"reply_timeout", raw.ReplyTimeout, &cfg.ReplyTimeout},
		{"inter_byte_timeout", raw.InterByteTimeout, &cfg.InterByteTimeout},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = v
	}

	if meta.IsDefined("queue_size") {
		cfg.QueueSize = raw.QueueSize
	}

	if meta.IsDefined("listen") {
		cfg.Listen = strings.TrimSpace(raw.Listen)
	}

	for i, w := range raw.Widgets {
		obj, err := protocol.ParseObjectType(strings.TrimSpace(w.Object))
		if err != nil {
			return Config{}, fmt.Errorf("widget %d: %w", i, err)
		}
		if w.Index < 0 || w.Index > 255 {
			return Config{}, fmt.Errorf("widget %d: index %d out of range", i, w.Index)
		}
		cfg.Widgets = append(cfg.Widgets, Widget{
			Name:   strings.TrimSpace(w.Name),
			Object: obj,
			Index:  byte(w.Index),
		})
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the session cannot use.
func (c Config) Validate() error {
	var errs []error
	if c.Device == "" {
		errs = append(errs, errors.New("device is empty"))
	}
	if !transport.SupportedBaud(c.Baud) {
		errs = append(errs, fmt.Errorf("%w: %d", transport.ErrUnsupportedBaud, c.Baud))
	}
	if c.AckTimeout <= 0 {
		errs = append(errs, errors.New("ack_timeout must be positive"))
	}
	if c.ReplyTimeout <= 0 {
		errs = append(errs, errors.New("reply_timeout must be positive"))
	}
	if c.InterByteTimeout <= 0 {
		errs = append(errs, errors.New("inter_byte_timeout must be positive"))
	}
	if c.QueueSize < 1 {
		errs = append(errs, errors.New("queue_size must be at least 1"))
	}

	seen := make(map[string]bool, len(c.Widgets))
	for _, w := range c.Widgets {
		switch {
		case w.Name == "":
			errs = append(errs, errors.New("widget name is empty"))
		case seen[w.Name]:
			errs = append(errs, fmt.Errorf("duplicate widget %q", w.Name))
		}
		seen[w.Name] = true
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Widget looks up a widget by name.
func (c Config) Widget(name string) (Widget, bool) {
	for _, w := range c.Widgets {
		if w.Name == name {
			return w, true
		}
	}
	return Widget{}, false
}

// SessionOptions returns the genie options the configuration describes.
func (c Config) SessionOptions() []genie.Option {
	return []genie.Option{
		genie.WithAckTimeout(c.AckTimeout),
		genie.WithReplyTimeout(c.ReplyTimeout),
		genie.WithInterByteTimeout(c.InterByteTimeout),
		genie.WithQueueSize(c.QueueSize),
	}
}
