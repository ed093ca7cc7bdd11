package capture

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 7 {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestEncode_DownscalesWideScreens(t *testing.T) {
	c := NewCapturer()
	img := c.Encode(pngOf(t, 2400, 1200))

	assert.Equal(t, "image/jpeg", img.MimeType)
	assert.Equal(t, 1920, img.Width)
	assert.Equal(t, 960, img.Height)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(img.Data))
	require.NoError(t, err)
	assert.Equal(t, 1920, cfg.Width)
}

func TestEncode_KeepsSmallScreens(t *testing.T) {
	img := NewCapturer().Encode(pngOf(t, 800, 600))
	assert.Equal(t, 800, img.Width)
	assert.Equal(t, "image/jpeg", img.MimeType)
}

func TestEncode_FallsBackToRawBytes(t *testing.T) {
	raw := []byte("not a png at all")
	var logged []string
	c := NewCapturer()
	c.Logger = func(msg string, _ error) { logged = append(logged, msg) }

	img := c.Encode(raw)
	assert.Equal(t, "image/png", img.MimeType)
	assert.Equal(t, raw, img.Data)
	assert.Len(t, logged, 1)
}

func TestCapture_TriesNextToolAndRemovesTempFile(t *testing.T) {
	dir := t.TempDir()
	data := pngOf(t, 100, 50)

	var called []string
	c := NewCapturer()
	c.TempDir = dir
	c.GOOS = "linux"
	c.LookPath = func(string) (string, error) { return "/usr/bin/x", nil }
	c.Run = func(_ context.Context, name string, args ...string) error {
		called = append(called, name)
		if name == "gnome-screenshot" {
			return errors.New("no display")
		}
		return os.WriteFile(args[len(args)-1], data, 0o600)
	}

	img, err := c.Capture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"gnome-screenshot", "grim"}, called)
	assert.Equal(t, 100, img.Width)

	left, _ := filepath.Glob(filepath.Join(dir, "*"))
	assert.Empty(t, left)
}

func TestCapture_NoTool(t *testing.T) {
	c := NewCapturer()
	c.GOOS = "linux"
	c.LookPath = func(string) (string, error) { return "", errors.New("missing") }

	_, err := c.Capture(context.Background())
	assert.ErrorIs(t, err, ErrNoCaptureTool)
}
