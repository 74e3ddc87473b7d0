package bodyscan

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// PreviewStats holds PreviewRenderer counters
type PreviewStats struct {
	FramesRendered uint64
	FramesDropped  uint64
}

// PreviewRenderer colorizes raw depth frames into a Framebuffer in the background.
// A frame arriving while the previous one is still being colorized is dropped.
type PreviewRenderer struct {
	mapper   *DepthColorMapper
	bitmap   *Framebuffer
	gate     *WorkGate
	logger   *zap.SugaredLogger
	dispatch Dispatcher
	mirror   atomic.Bool
	// Render clamp-to-zero intensity instead of the palette
	intensity atomic.Bool
	// Reusable copy of the last accepted frame, touched by the gate holder only
	frameData DepthFrame

	mu       sync.Mutex
	reader   Reader
	closed   bool
	rendered atomic.Uint64
	dropped  atomic.Uint64

	onBitmapUpdated handlers
}

// NewPreviewRenderer creates renderer of width x height frames.
// Nil mapper means DefaultDepthColorMapper.
func NewPreviewRenderer(width, height int, mapper *DepthColorMapper, opts ...Option) (*PreviewRenderer, error) {
	bitmap, err := NewFramebuffer(width, height)
	if err != nil {
		return nil, errors.Wrap(err, "can't create preview framebuffer")
	}
	if mapper == nil {
		mapper = DefaultDepthColorMapper()
	}
	o := applyOptions(opts)
	pr := &PreviewRenderer{
		mapper:    mapper,
		bitmap:    bitmap,
		gate:      NewWorkGate(),
		logger:    o.logger,
		dispatch:  o.dispatcher,
		frameData: make(DepthFrame, width*height),
	}
	pr.mirror.Store(o.mirror)
	return pr, nil
}

// NewSensorPreviewRenderer creates renderer sized for the sensor and subscribes it to depth frames
func NewSensorPreviewRenderer(sensor Sensor, mapper *DepthColorMapper, opts ...Option) (*PreviewRenderer, error) {
	width, height := sensor.DepthFrameSize()
	pr, err := NewPreviewRenderer(width, height, mapper, opts...)
	if err != nil {
		return nil, err
	}
	if err := pr.Attach(sensor); err != nil {
		return nil, err
	}
	return pr, nil
}

// Bitmap returns rendered framebuffer
func (pr *PreviewRenderer) Bitmap() *Framebuffer {
	return pr.bitmap
}

// Mirror returns true if frames are rendered as delivered by the sensor
func (pr *PreviewRenderer) Mirror() bool {
	return pr.mirror.Load()
}

// SetMirror sets whether frames are rendered as delivered (mirrored) or flipped horizontally
func (pr *PreviewRenderer) SetMirror(mirror bool) {
	pr.mirror.Store(mirror)
}

// SetIntensityMode switches rendering to raw intensity: depth outside the reliable range is rendered black
// instead of being clamped to the palette bounds.
func (pr *PreviewRenderer) SetIntensityMode(enabled bool) {
	pr.intensity.Store(enabled)
}

// OnBitmapUpdated subscribes to rendered frames
func (pr *PreviewRenderer) OnBitmapUpdated(fn func()) {
	pr.onBitmapUpdated.add(fn)
}

// Stats returns counters
func (pr *PreviewRenderer) Stats() PreviewStats {
	return PreviewStats{
		FramesRendered: pr.rendered.Load(),
		FramesDropped:  pr.dropped.Load(),
	}
}

// Attach opens depth frame subscription feeding HandleDepthFrame
func (pr *PreviewRenderer) Attach(sensor Sensor) error {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	if pr.closed {
		return errors.New("preview renderer is closed")
	}
	if pr.reader != nil {
		return errors.New("preview renderer is already attached")
	}
	reader, err := sensor.OpenDepthReader(pr.HandleDepthFrame)
	if err != nil {
		return errors.Wrap(err, "can't open depth frame reader")
	}
	pr.reader = reader
	return nil
}

// HandleDepthFrame accepts frame for rendering. It never blocks
func (pr *PreviewRenderer) HandleDepthFrame(frame DepthFrame) {
	if !pr.gate.TryEnter() {
		pr.dropped.Inc()
		return
	}
	copy(pr.frameData, frame)
	mirror := pr.mirror.Load()
	colorize := pr.mapper.ConvertPacked
	if pr.intensity.Load() {
		colorize = pr.intensityPixel
	}
	go func() {
		defer pr.afterRender()
		if mirror {
			pr.bitmap.Access(func(pix []uint32) { pr.fillBitmap(pix, colorize) })
		} else {
			pr.bitmap.Access(func(pix []uint32) { pr.unmirrorAndFillBitmap(pix, colorize) })
		}
	}()
}

// Close waits for rendering in progress and closes depth frame subscription
func (pr *PreviewRenderer) Close() error {
	pr.mu.Lock()
	if pr.closed {
		pr.mu.Unlock()
		return nil
	}
	pr.closed = true
	reader := pr.reader
	pr.reader = nil
	pr.mu.Unlock()

	pr.gate.Enter()
	stats := pr.Stats()
	pr.logger.Debugw("preview renderer closed", "rendered", stats.FramesRendered, "dropped", stats.FramesDropped)
	if reader == nil {
		return nil
	}
	return errors.Wrap(reader.Close(), "can't close depth frame reader")
}

func (pr *PreviewRenderer) afterRender() {
	pr.rendered.Inc()
	pr.gate.Exit()
	pr.onBitmapUpdated.raise(pr.dispatch)
}

func (pr *PreviewRenderer) intensityPixel(distance uint16) uint32 {
	v := uint32(pr.mapper.Intensity(distance))
	return 0xFF000000 | v<<16 | v<<8 | v
}

func (pr *PreviewRenderer) fillBitmap(pix []uint32, colorize func(uint16) uint32) {
	n := len(pix)
	if len(pr.frameData) < n {
		n = len(pr.frameData)
	}
	for i := 0; i < n; i++ {
		pix[i] = colorize(pr.frameData[i])
	}
}

func (pr *PreviewRenderer) unmirrorAndFillBitmap(pix []uint32, colorize func(uint16) uint32) {
	width := pr.bitmap.Width()
	for row := 0; row+width <= len(pix) && row+width <= len(pr.frameData); row += width {
		iDepth := row + width - 1
		for x := 0; x < width; x++ {
			pix[row+x] = colorize(pr.frameData[iDepth])
			iDepth--
		}
	}
}
