package master

import (
	"errors"
	"time"

	"github.com/arloliu/go-ecat/ecat"
	"github.com/arloliu/go-ecat/logger"
)

// Config represents the configuration parameters for a session.
type Config struct {
	// imageSize is the allocated upper bound for the process image in bytes.
	// The bus mapping must fit inside it; a larger mapping aborts bring-up.
	// Defaults to 64 KiB.
	imageSize int

	// stateTimeout bounds one collective state-transition wait during
	// bring-up. The SafeOp wait uses four times this value.
	// Defaults to 2 seconds.
	stateTimeout time.Duration

	// probeTimeout bounds the receive wait of the single diagnostic
	// exchange performed during bring-up.
	// Defaults to 2 milliseconds.
	probeTimeout time.Duration

	// logger provides a logger instance for session events and errors.
	logger logger.Logger
}

// settleTimeout bounds each of the blind exchange cycles recovery performs
// to let the bus settle.
const settleTimeout = time.Millisecond

// newConfig creates a session configuration with default values and applies
// the provided options.
func newConfig(opts ...Option) (*Config, error) {
	cfg := &Config{
		imageSize:    64 * 1024,
		stateTimeout: 2 * time.Second,
		probeTimeout: 2 * time.Millisecond,
		logger:       logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Option represents a functional option for configuring a session.
type Option interface {
	apply(*Config) error
}

type optFunc struct {
	name      string
	applyFunc func(*Config) error
}

func (o *optFunc) apply(cfg *Config) error { return o.applyFunc(cfg) }

func newOptFunc(name string, f func(*Config) error) *optFunc {
	return &optFunc{name: name, applyFunc: f}
}

// WithImageSize sets the allocated upper bound for the process image.
// It returns an Option that validates the size and updates the configuration.
// An error is returned if the size is outside the valid range (1 KiB - 16 MiB).
//
// The default value is 64 KiB.
func WithImageSize(size int) Option {
	return newOptFunc("WithImageSize", func(cfg *Config) error {
		if size < 1024 || size > 16*1024*1024 {
			return errors.New("image size out of range [1KiB, 16MiB]")
		}
		cfg.imageSize = size

		return nil
	})
}

// WithStateTimeout sets the base timeout for collective state-transition
// waits during bring-up.
// It returns an Option that validates the timeout and updates the configuration.
// An error is returned if the timeout is outside the valid range (1ms - 60s).
//
// The default value is 2 seconds.
func WithStateTimeout(val time.Duration) Option {
	return newOptFunc("WithStateTimeout", func(cfg *Config) error {
		if val < time.Millisecond || val > 60*time.Second {
			return errors.New("state timeout out of range [1ms, 60s]")
		}
		cfg.stateTimeout = val

		return nil
	})
}

// WithProbeTimeout sets the receive wait of the diagnostic exchange cycle
// performed during bring-up.
// It returns an Option that validates the timeout and updates the configuration.
// An error is returned if the timeout is negative or above 1 second.
//
// The default value is 2 milliseconds.
func WithProbeTimeout(val time.Duration) Option {
	return newOptFunc("WithProbeTimeout", func(cfg *Config) error {
		if val < 0 || val > time.Second {
			return errors.New("probe timeout out of range [0, 1s]")
		}
		cfg.probeTimeout = val

		return nil
	})
}

// WithLogger sets the logger for the session.
// An error is returned if the logger is nil.
//
// The default logger is the process-wide default logger instance.
func WithLogger(l logger.Logger) Option {
	return newOptFunc("WithLogger", func(cfg *Config) error {
		if l == nil {
			return ecat.ErrInvalidArgument
		}
		cfg.logger = l

		return nil
	})
}
