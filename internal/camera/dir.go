package camera

import (
	"context"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/spherical/qr-pdf-preview/internal/domain"
)

var frameExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// DirProvider reads frames from directories that an external capture tool writes
// images into, one directory per facing mode.
type DirProvider struct {
	dirs map[Facing]string
}

// NewDirProvider creates a provider from a facing → directory map.
func NewDirProvider(dirs map[string]string) *DirProvider {
	return &DirProvider{dirs: toFacingMap(dirs)}
}

// Open checks the directory for the requested facing mode and starts watching it.
// Only frames written after Open are returned, as with a live stream. Files are
// told apart by name, mtime and size; mtimes are never compared to the clock.
func (p *DirProvider) Open(ctx context.Context, facing Facing) (Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	_, dir, ok := pickFacing(p.dirs, facing)
	if !ok {
		return nil, domain.CameraError("Requested device not found", nil)
	}

	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, domain.CameraError("Requested device not found", err)
	case errors.Is(err, fs.ErrPermission):
		return nil, domain.CameraError("Permission denied", err)
	case err != nil:
		return nil, domain.CameraError("Could not start video source", err)
	case !info.IsDir():
		return nil, domain.CameraError("Requested device not found", nil)
	}

	d := &dirDevice{dir: dir}
	seen, err := d.list()
	if err != nil {
		return nil, domain.CameraError("Permission denied", err)
	}
	d.seen = seen
	return d, nil
}

type stamp struct {
	mod  time.Time
	size int64
}

func (s stamp) same(o stamp) bool {
	return s.size == o.size && s.mod.Equal(o.mod)
}

type dirDevice struct {
	dir  string
	seen map[string]stamp // frames already handed out or present at open
}

func (d *dirDevice) Frame() (domain.Frame, bool) {
	files, err := d.list()
	if err != nil {
		return domain.Frame{}, false
	}

	var (
		best    string
		bestMod time.Time
	)
	for name, st := range files {
		if prev, ok := d.seen[name]; ok && prev.same(st) {
			continue
		}
		if best == "" || st.mod.After(bestMod) {
			best, bestMod = name, st.mod
		}
	}
	if best == "" {
		return domain.Frame{}, false
	}

	f, err := os.Open(filepath.Join(d.dir, best))
	if err != nil {
		return domain.Frame{}, false
	}
	defer f.Close()

	// A half-written file fails to decode; it is retried on the next tick.
	img, _, err := image.Decode(f)
	if err != nil {
		return domain.Frame{}, false
	}

	// older unseen frames are skipped, not queued
	d.seen = files
	return domain.Frame{Image: img, CapturedAt: bestMod}, true
}

// list returns the frame files of the directory keyed by name.
func (d *dirDevice) list() (map[string]stamp, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, err
	}

	files := make(map[string]stamp, len(entries))
	for _, e := range entries {
		if e.IsDir() || !frameExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files[e.Name()] = stamp{mod: info.ModTime(), size: info.Size()}
	}
	return files, nil
}

func (d *dirDevice) Close() error {
	return nil
}
