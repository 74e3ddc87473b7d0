package bodyscan

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ReconstructionConfig holds per-session reconstruction parameters
type ReconstructionConfig struct {
	// Depth range in meters. Depth outside of it is not integrated
	MinDepth float32
	MaxDepth float32
	// Max absolute lateral offset (meters) of spine base for a body to be selected
	LateralLimit float32
	// Alignment iteration budget per frame
	AlignIterations int
	// Integration weight passed to the engine
	IntegrationWeight int
	Volume            VolumeParams
	// Level of detail used for mesh extraction
	MeshLevelOfDetail int
}

// DefaultReconstructionConfig returns default reconstruction parameters
func DefaultReconstructionConfig() ReconstructionConfig {
	return ReconstructionConfig{
		MinDepth:          1.5,
		MaxDepth:          3.5,
		LateralLimit:      0.5,
		AlignIterations:   7,
		IntegrationWeight: 200,
		Volume: VolumeParams{
			VoxelsPerMeter: 128,
			VoxelsX:        256,
			VoxelsY:        256,
			VoxelsZ:        256,
		},
		MeshLevelOfDetail: 1,
	}
}

// Validate checks parameters consistency
func (cfg ReconstructionConfig) Validate() error {
	if cfg.MinDepth <= 0 || cfg.MaxDepth <= cfg.MinDepth {
		return errors.Errorf("invalid depth range [%f, %f]", cfg.MinDepth, cfg.MaxDepth)
	}
	if cfg.LateralLimit <= 0 {
		return errors.Errorf("lateral limit must be positive, got %f", cfg.LateralLimit)
	}
	if cfg.AlignIterations <= 0 {
		return errors.Errorf("align iterations must be positive, got %d", cfg.AlignIterations)
	}
	if cfg.Volume.VoxelsPerMeter <= 0 || cfg.Volume.VoxelsX <= 0 || cfg.Volume.VoxelsY <= 0 || cfg.Volume.VoxelsZ <= 0 {
		return errors.Errorf("invalid volume parameters %+v", cfg.Volume)
	}
	if cfg.MeshLevelOfDetail <= 0 {
		return errors.Errorf("mesh level of detail must be positive, got %d", cfg.MeshLevelOfDetail)
	}
	return nil
}

// ScannerConfig holds timing of a scan
type ScannerConfig struct {
	// Scan lasts for this long after a body has been locked on
	ScanDuration time.Duration
	// How often the scanner checks whether the scan is over
	PollInterval time.Duration
}

// DefaultScannerConfig returns 20 seconds scan polled every second
func DefaultScannerConfig() ScannerConfig {
	return ScannerConfig{
		ScanDuration: 20 * time.Second,
		PollInterval: time.Second,
	}
}

// Validate checks parameters consistency
func (cfg ScannerConfig) Validate() error {
	if cfg.ScanDuration < 0 {
		return errors.Errorf("scan duration must not be negative, got %s", cfg.ScanDuration)
	}
	if cfg.PollInterval <= 0 {
		return errors.Errorf("poll interval must be positive, got %s", cfg.PollInterval)
	}
	return nil
}

type options struct {
	logger     *zap.SugaredLogger
	dispatcher Dispatcher
	clock      clock.Clock
	mirror     bool
}

func defaultOptions() options {
	return options{
		logger:     zap.NewNop().Sugar(),
		dispatcher: InlineDispatcher,
		clock:      clock.New(),
		mirror:     true,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option customizes Reconstruction, Scanner and PreviewRenderer
type Option func(*options)

// WithLogger sets logger
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithDispatcher sets the function notifications are delivered through
func WithDispatcher(dispatcher Dispatcher) Option {
	return func(o *options) {
		if dispatcher != nil {
			o.dispatcher = dispatcher
		}
	}
}

// WithClock sets time source. Used by Scanner
func WithClock(clk clock.Clock) Option {
	return func(o *options) {
		if clk != nil {
			o.clock = clk
		}
	}
}

// WithMirror sets initial mirroring of PreviewRenderer
func WithMirror(mirror bool) Option {
	return func(o *options) {
		o.mirror = mirror
	}
}
