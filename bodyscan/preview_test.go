package bodyscan_test

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/LdDl/bodyscan-go/bodyscan"
	"github.com/LdDl/bodyscan-go/bodyscan/inject"
)

func newTestPreview(t *testing.T, opts ...bodyscan.Option) (*inject.Sensor, *bodyscan.PreviewRenderer, <-chan struct{}) {
	t.Helper()
	sensor := inject.NewSensor(frameWidth, frameHeight)
	opts = append([]bodyscan.Option{bodyscan.WithLogger(zaptest.NewLogger(t).Sugar())}, opts...)
	pr, err := bodyscan.NewSensorPreviewRenderer(sensor, nil, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = pr.Close()
	})
	updated := make(chan struct{}, 16)
	pr.OnBitmapUpdated(func() { updated <- struct{}{} })
	return sensor, pr, updated
}

func awaitBitmap(t *testing.T, updated <-chan struct{}) {
	t.Helper()
	select {
	case <-updated:
	case <-time.After(time.Second):
		t.Fatal("bitmap was not updated")
	}
}

func bitmapPixels(pr *bodyscan.PreviewRenderer) []uint32 {
	var out []uint32
	pr.Bitmap().Access(func(pix []uint32) {
		out = append(out, pix...)
	})
	return out
}

var previewFrame = bodyscan.DepthFrame{
	100, 500, 1000, 2000,
	3000, 4000, 5000, 6000,
}

func TestPreviewRendersMirrored(t *testing.T) {
	sensor, pr, updated := newTestPreview(t)
	mapper := bodyscan.DefaultDepthColorMapper()
	assert.True(t, pr.Mirror())

	sensor.EmitDepth(previewFrame)
	awaitBitmap(t, updated)

	pix := bitmapPixels(pr)
	require.Len(t, pix, len(previewFrame))
	for i, d := range previewFrame {
		assert.Equal(t, mapper.ConvertPacked(d), pix[i], "pixel %d", i)
	}
	assert.Equal(t, uint32(0xFF000000), pix[0])
	assert.Equal(t, uint32(0xFFFFFFFF), pix[7])
	assert.Equal(t, uint64(1), pr.Stats().FramesRendered)
}

func TestPreviewRendersUnmirrored(t *testing.T) {
	sensor, pr, updated := newTestPreview(t, bodyscan.WithMirror(false))
	mapper := bodyscan.DefaultDepthColorMapper()
	assert.False(t, pr.Mirror())

	sensor.EmitDepth(previewFrame)
	awaitBitmap(t, updated)

	pix := bitmapPixels(pr)
	for row := 0; row < frameHeight; row++ {
		for x := 0; x < frameWidth; x++ {
			want := mapper.ConvertPacked(previewFrame[row*frameWidth+frameWidth-1-x])
			assert.Equal(t, want, pix[row*frameWidth+x], "row %d x %d", row, x)
		}
	}

	pr.SetMirror(true)
	sensor.EmitDepth(previewFrame)
	awaitBitmap(t, updated)
	assert.Equal(t, mapper.ConvertPacked(previewFrame[0]), bitmapPixels(pr)[0])
}

func TestPreviewIntensityMode(t *testing.T) {
	sensor, pr, updated := newTestPreview(t)
	pr.SetIntensityMode(true)

	sensor.EmitDepth(previewFrame)
	awaitBitmap(t, updated)

	pix := bitmapPixels(pr)
	// Outside the reliable range
	assert.Equal(t, uint32(0xFF000000), pix[0])
	assert.Equal(t, uint32(0xFF000000), pix[7])
	// 4000 / (5000 / 256) = 210
	assert.Equal(t, uint32(0xFFD2D2D2), pix[5])
	// 5000 / 19 = 263 is capped
	assert.Equal(t, uint32(0xFFFFFFFF), pix[6])
}

func TestPreviewDropsFramesWhileBusy(t *testing.T) {
	sensor, pr, updated := newTestPreview(t)

	// Holding the bitmap keeps the accepted frame from being rendered
	pr.Bitmap().Access(func(pix []uint32) {
		sensor.EmitDepth(previewFrame)
		sensor.EmitDepth(previewFrame)
		sensor.EmitDepth(previewFrame)
	})
	awaitBitmap(t, updated)

	stats := pr.Stats()
	assert.Equal(t, uint64(1), stats.FramesRendered)
	assert.Equal(t, uint64(2), stats.FramesDropped)
	assert.Empty(t, updated)
}

func TestPreviewClose(t *testing.T) {
	sensor, pr, updated := newTestPreview(t)

	sensor.EmitDepth(previewFrame)
	require.NoError(t, pr.Close())
	require.NoError(t, pr.Close())
	awaitBitmap(t, updated)

	sensor.EmitDepth(previewFrame)
	assert.Equal(t, uint64(1), pr.Stats().FramesRendered)
	assert.Error(t, pr.Attach(sensor))
}

func TestPreviewAttach(t *testing.T) {
	sensor := inject.NewSensor(frameWidth, frameHeight)
	pr, err := bodyscan.NewPreviewRenderer(frameWidth, frameHeight, nil)
	require.NoError(t, err)
	defer pr.Close()

	require.NoError(t, pr.Attach(sensor))
	assert.Error(t, pr.Attach(sensor))
	assert.Equal(t, 1, sensor.DepthOpened)

	sensor.OpenDepthReaderFunc = func(handler func(bodyscan.DepthFrame)) (bodyscan.Reader, error) {
		return nil, errors.New("device busy")
	}
	_, err = bodyscan.NewSensorPreviewRenderer(sensor, nil)
	assert.Error(t, err)

	_, err = bodyscan.NewPreviewRenderer(0, frameHeight, nil)
	assert.ErrorIs(t, err, bodyscan.ErrInvalidDimensions)
}

func TestPreviewSerialDispatcher(t *testing.T) {
	dispatcher := bodyscan.NewSerialDispatcher()
	defer dispatcher.Close()
	sensor, _, updated := newTestPreview(t, bodyscan.WithDispatcher(dispatcher.Dispatch))

	sensor.EmitDepth(previewFrame)
	awaitBitmap(t, updated)
}
