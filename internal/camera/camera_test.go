package camera

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/qr-pdf-preview/internal/domain"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.SetGray(x, x%h, color.Gray{Y: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func writeFrame(t *testing.T, dir, name string, data []byte, mod time.Time) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

type countingProvider struct {
	opens  atomic.Int32
	closes atomic.Int32
	err    error
}

func (p *countingProvider) Open(ctx context.Context, facing Facing) (Device, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.opens.Add(1)
	return &countingDevice{p: p}, nil
}

type countingDevice struct{ p *countingProvider }

func (d *countingDevice) Frame() (domain.Frame, bool) { return domain.Frame{}, false }
func (d *countingDevice) Close() error {
	d.p.closes.Add(1)
	return nil
}

func TestSource_StopIsIdempotent(t *testing.T) {
	p := &countingProvider{}
	src := NewSource(p, FacingEnvironment, nil)

	require.NoError(t, src.Start(context.Background()))
	assert.True(t, src.Active())

	src.Stop()
	src.Stop()
	src.Stop()

	assert.False(t, src.Active())
	assert.Equal(t, int32(1), p.closes.Load())
}

func TestSource_DoubleStartFails(t *testing.T) {
	src := NewSource(&countingProvider{}, FacingEnvironment, nil)
	require.NoError(t, src.Start(context.Background()))
	defer src.Stop()

	err := src.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, domain.ErrorKindCamera, domain.KindOf(err))
}

func TestSource_RestartAfterStop(t *testing.T) {
	p := &countingProvider{}
	src := NewSource(p, FacingEnvironment, nil)

	for i := 0; i < 3; i++ {
		require.NoError(t, src.Start(context.Background()))
		src.Stop()
	}
	assert.Equal(t, int32(3), p.opens.Load())
	assert.Equal(t, int32(3), p.closes.Load())
}

func TestSource_WrapsProviderErrors(t *testing.T) {
	src := NewSource(&countingProvider{err: errors.New("NotAllowedError")}, FacingEnvironment, nil)

	err := src.Start(context.Background())
	e, ok := domain.AsError(err)
	require.True(t, ok)
	assert.Equal(t, domain.ErrorKindCamera, e.Kind)
	assert.Equal(t, "NotAllowedError", e.Message)
	assert.False(t, src.Active())

	// Stop after a failed start is harmless.
	src.Stop()
}

func TestSource_CurrentFrameWithoutStart(t *testing.T) {
	src := NewSource(&countingProvider{}, FacingEnvironment, nil)
	_, ok := src.CurrentFrame()
	assert.False(t, ok)
}

func TestDirProvider_MissingDevice(t *testing.T) {
	tests := []struct {
		name string
		dirs map[string]string
	}{
		{"no entries", map[string]string{}},
		{"missing directory", map[string]string{"environment": filepath.Join(t.TempDir(), "gone")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDirProvider(tt.dirs).Open(context.Background(), FacingEnvironment)
			e, ok := domain.AsError(err)
			require.True(t, ok)
			assert.Equal(t, domain.ErrorKindCamera, e.Kind)
			assert.Equal(t, "Requested device not found", e.Message)
		})
	}
}

func TestDirProvider_PrefersEnvironment(t *testing.T) {
	env := t.TempDir()
	user := t.TempDir()
	p := NewDirProvider(map[string]string{"environment": env, "user": user})

	dev, err := p.Open(context.Background(), FacingEnvironment)
	require.NoError(t, err)
	assert.Equal(t, env, dev.(*dirDevice).dir)
}

func TestDirProvider_FallsBackToOtherFacing(t *testing.T) {
	user := t.TempDir()
	p := NewDirProvider(map[string]string{"user": user})

	dev, err := p.Open(context.Background(), FacingEnvironment)
	require.NoError(t, err)
	assert.Equal(t, user, dev.(*dirDevice).dir)
}

func TestDirDevice_FramesAfterOpen(t *testing.T) {
	dir := t.TempDir()
	opened := time.Now().Add(-time.Minute)

	writeFrame(t, dir, "stale.png", testPNG(t, 8, 8), opened.Add(-time.Hour))

	p := NewDirProvider(map[string]string{"environment": dir})

	dev, err := p.Open(context.Background(), FacingEnvironment)
	require.NoError(t, err)

	_, ok := dev.Frame()
	assert.False(t, ok, "frames present at open time are not live")

	writeFrame(t, dir, "frame-001.png", testPNG(t, 32, 16), opened.Add(time.Second))

	f, ok := dev.Frame()
	require.True(t, ok)
	assert.Equal(t, 32, f.Width())
	assert.Equal(t, 16, f.Height())

	_, ok = dev.Frame()
	assert.False(t, ok, "a frame is handed out once")

	writeFrame(t, dir, "frame-002.png", testPNG(t, 10, 10), opened.Add(2*time.Second))
	f, ok = dev.Frame()
	require.True(t, ok)
	assert.Equal(t, 10, f.Width())
}

func TestDirDevice_PartialFileNotReady(t *testing.T) {
	dir := t.TempDir()
	p := NewDirProvider(map[string]string{"environment": dir})

	dev, err := p.Open(context.Background(), FacingEnvironment)
	require.NoError(t, err)

	full := testPNG(t, 8, 8)
	writeFrame(t, dir, "frame.png", full[:len(full)/2], time.Now())
	_, ok := dev.Frame()
	assert.False(t, ok)

	writeFrame(t, dir, "frame.png", full, time.Now().Add(time.Second))
	_, ok = dev.Frame()
	assert.True(t, ok)
}

func TestDirDevice_CoarseMtimes(t *testing.T) {
	dir := t.TempDir()
	// two-second granularity as on FAT
	tick := time.Now().Truncate(2 * time.Second)

	writeFrame(t, dir, "old.png", testPNG(t, 8, 8), tick)

	dev, err := NewDirProvider(map[string]string{"environment": dir}).Open(context.Background(), FacingEnvironment)
	require.NoError(t, err)

	// written after Open but stamped no later than the frame already there
	writeFrame(t, dir, "new.png", testPNG(t, 24, 24), tick)

	f, ok := dev.Frame()
	require.True(t, ok)
	assert.Equal(t, 24, f.Width())

	_, ok = dev.Frame()
	assert.False(t, ok)

	// same name and mtime, different content
	writeFrame(t, dir, "new.png", testPNG(t, 40, 40), tick)
	f, ok = dev.Frame()
	require.True(t, ok)
	assert.Equal(t, 40, f.Width())
}

func TestDirDevice_SkipsOlderUnseenFrames(t *testing.T) {
	dir := t.TempDir()
	dev, err := NewDirProvider(map[string]string{"environment": dir}).Open(context.Background(), FacingEnvironment)
	require.NoError(t, err)

	base := time.Now()
	writeFrame(t, dir, "a.png", testPNG(t, 8, 8), base)
	writeFrame(t, dir, "b.png", testPNG(t, 16, 16), base.Add(time.Second))

	f, ok := dev.Frame()
	require.True(t, ok)
	assert.Equal(t, 16, f.Width())

	_, ok = dev.Frame()
	assert.False(t, ok, "the older frame is dropped once a newer one was read")
}

func TestSnapshotProvider_Frames(t *testing.T) {
	frame := testPNG(t, 20, 12)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(frame)
	}))
	defer srv.Close()

	p := NewSnapshotProvider(map[string]string{"environment": srv.URL}, 10*time.Millisecond, nil)
	dev, err := p.Open(context.Background(), FacingEnvironment)
	require.NoError(t, err)

	f, ok := dev.Frame()
	require.True(t, ok, "the probe frame is available right away")
	assert.Equal(t, 20, f.Width())

	assert.Eventually(t, func() bool {
		_, ok := dev.Frame()
		return ok
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, dev.Close())
	require.NoError(t, dev.Close())

	after := hits.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, hits.Load(), "polling stops on close")
}

func TestSnapshotProvider_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    []byte
		message string
	}{
		{"forbidden", http.StatusForbidden, nil, "Permission denied"},
		{"unavailable", http.StatusServiceUnavailable, nil, "Could not start video source"},
		{"not an image", http.StatusOK, []byte("hello"), "Could not decode video frame"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write(tt.body)
			}))
			defer srv.Close()

			p := NewSnapshotProvider(map[string]string{"environment": srv.URL}, time.Second, nil)
			_, err := p.Open(context.Background(), FacingEnvironment)
			e, ok := domain.AsError(err)
			require.True(t, ok)
			assert.Equal(t, domain.ErrorKindCamera, e.Kind)
			assert.Equal(t, tt.message, e.Message)
		})
	}
}
