package arbor

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Snapshotter is implemented by surfaces that can hand out their pixels.
// The returned image is only valid until the next draw call.
type Snapshotter interface {
	Snapshot() image.Image
}

// Snapshot returns the current pixels of the canvas surface.
func (c *Canvas) Snapshot() (image.Image, error) {
	snap, ok := c.surface.(Snapshotter)
	if !ok {
		return nil, errors.Wrapf(ErrNoSnapshot, "%T", c.surface)
	}
	return snap.Snapshot(), nil
}

// SavePNG writes the current pixels of the canvas surface to path,
// creating the parent directory when needed.
func (c *Canvas) SavePNG(path string) error {
	img, err := c.Snapshot()
	if err != nil {
		return err
	}
	return writePNG(path, img)
}

// Screenshot queues a labeled capture of the next drawn frame. The PNG is
// written to RunConfig.ScreenshotDir with a timestamped file name.
func (g *Game) Screenshot(label string) {
	g.screenshotQueue = append(g.screenshotQueue, label)
}

// flushScreenshots captures the canvas once and writes it for every queued
// label. Failures are logged; the game keeps running.
func (g *Game) flushScreenshots() {
	if len(g.screenshotQueue) == 0 {
		return
	}
	labels := g.screenshotQueue
	g.screenshotQueue = g.screenshotQueue[:0]

	img, err := g.canvas.Snapshot()
	if err != nil {
		Logger().WithError(err).Error("arbor: screenshot")
		return
	}
	stamp := time.Now().Format("20060102_150405")
	for _, label := range labels {
		path := filepath.Join(g.cfg.ScreenshotDir, stamp+"_"+fileLabel(label)+".png")
		log := Logger().WithFields(logrus.Fields{"label": label, "path": path})
		if err := writePNG(path, img); err != nil {
			log.WithError(err).Error("arbor: screenshot")
			continue
		}
		log.Info("arbor: screenshot written")
	}
}

func writePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create screenshot dir")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create png")
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return errors.Wrapf(err, "encode %s", path)
	}
	return errors.Wrapf(f.Close(), "close %s", path)
}

// fileLabel turns a screenshot label into a file-name fragment: ASCII
// letters, digits, '-' and '.' are kept, everything else becomes '_'.
func fileLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	return strings.Map(func(r rune) rune {
		if r <= unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) || r == '-' || r == '.' {
			return r
		}
		return '_'
	}, label)
}
