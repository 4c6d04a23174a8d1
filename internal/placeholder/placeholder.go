package placeholder

import (
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"framelock/internal/logging"
	"framelock/internal/services"
)

// Synthesizer renders deterministic placeholder frames for shots whose
// visual asset could not be resolved. The same shot id and geometry always
// produce byte-identical PNG output, so placeholder frames never perturb
// the final render fingerprint.
type Synthesizer struct {
	dir      string
	fontPath string
	fontSize float64
	logger   *slog.Logger
}

// New returns a Synthesizer writing cached frames under dir. fontPath may be
// empty, in which case the built-in Go Regular face is used.
func New(dir, fontPath string, fontSize int, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = logging.Nop()
	}
	if fontSize <= 0 {
		fontSize = 36
	}
	return &Synthesizer{
		dir:      dir,
		fontPath: fontPath,
		fontSize: float64(fontSize),
		logger:   logging.NewComponentLogger(logger, "placeholder"),
	}
}

// CacheKey derives the cache file basename for a shot at the given geometry.
func CacheKey(shotID string, width, height int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d", shotID, width, height)))
	return fmt.Sprintf("placeholder_%x.png", sum[:8])
}

// Materialize returns the path of the placeholder frame for shotID,
// synthesizing and caching it on first use. Subsequent calls with the same
// arguments reuse the cached file.
func (s *Synthesizer) Materialize(shotID string, width, height int) (string, error) {
	if width <= 0 || height <= 0 {
		return "", services.Wrap(services.ErrSchemaMismatch, "placeholder", "geometry",
			fmt.Sprintf("invalid placeholder geometry %dx%d for shot %q", width, height, shotID), nil)
	}
	path := filepath.Join(s.dir, CacheKey(shotID, width, height))
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrEncodeFailed, "placeholder", "cache dir",
			"failed to create placeholder cache directory", err)
	}

	img, err := s.draw(shotID, width, height)
	if err != nil {
		return "", err
	}
	tmp := path + ".tmp"
	if err := img.SavePNG(tmp); err != nil {
		return "", services.Wrap(services.ErrEncodeFailed, "placeholder", "encode",
			fmt.Sprintf("failed to write placeholder frame for shot %q", shotID), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", services.Wrap(services.ErrEncodeFailed, "placeholder", "cache",
			"failed to commit placeholder frame", err)
	}
	s.logger.Debug("synthesized placeholder frame",
		logging.String("shot_id", shotID),
		logging.String("path", path))
	return path, nil
}

func (s *Synthesizer) draw(shotID string, width, height int) (*gg.Context, error) {
	r, g, b := backgroundColor(shotID)
	dc := gg.NewContext(width, height)
	dc.SetRGB255(r, g, b)
	dc.Clear()

	face, err := s.fontFace()
	if err != nil {
		return nil, err
	}
	dc.SetFontFace(face)

	cx := float64(width) / 2
	cy := float64(height) / 2
	drawShadowed(dc, shotID, cx, cy-s.fontSize*0.75)
	drawShadowed(dc, "PLACEHOLDER", cx, cy+s.fontSize*0.75)
	return dc, nil
}

// drawShadowed renders text with a one pixel drop shadow so the label stays
// legible regardless of the hash-derived background.
func drawShadowed(dc *gg.Context, text string, x, y float64) {
	dc.SetRGB255(0, 0, 0)
	dc.DrawStringAnchored(text, x+1, y+1, 0.5, 0.5)
	dc.SetRGB255(255, 255, 255)
	dc.DrawStringAnchored(text, x, y, 0.5, 0.5)
}

func (s *Synthesizer) fontFace() (font.Face, error) {
	data := goregular.TTF
	if s.fontPath != "" {
		loaded, err := os.ReadFile(s.fontPath)
		if err == nil {
			data = loaded
		} else {
			s.logger.Warn("placeholder font unreadable, using built-in face",
				logging.String("font_path", s.fontPath),
				logging.Error(err))
		}
	}
	parsed, err := truetype.Parse(data)
	if err != nil {
		return nil, services.Wrap(services.ErrEncodeFailed, "placeholder", "font",
			"failed to parse placeholder font", err)
	}
	return truetype.NewFace(parsed, &truetype.Options{Size: s.fontSize}), nil
}

// backgroundColor derives a muted fill from the shot id so each missing shot
// is visually distinct while remaining reproducible across machines.
func backgroundColor(shotID string) (r, g, b int) {
	sum := sha256.Sum256([]byte(shotID))
	r = 32 + int(sum[0])%128
	g = 32 + int(sum[1])%128
	b = 32 + int(sum[2])%128
	return r, g, b
}
