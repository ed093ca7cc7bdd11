package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"
)

const (
	DefaultMaxWidth = 1920
	DefaultQuality  = 80
)

var ErrNoCaptureTool = errors.New("no screen capture tool available")

type Image struct {
	Data     []byte `json:"-"`
	MimeType string `json:"mime_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// Runner executes an external command. Tests replace it.
type Runner func(ctx context.Context, name string, args ...string) error

type command struct {
	name string
	args func(path string) []string
}

type Capturer struct {
	TempDir  string
	MaxWidth int
	Quality  int
	GOOS     string
	Run      Runner
	LookPath func(string) (string, error)
	Logger   func(msg string, err error)
}

func NewCapturer() *Capturer {
	return &Capturer{
		TempDir:  os.TempDir(),
		MaxWidth: DefaultMaxWidth,
		Quality:  DefaultQuality,
		GOOS:     runtime.GOOS,
		Run: func(ctx context.Context, name string, args ...string) error {
			out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
			if err != nil {
				return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
			}
			return nil
		},
		LookPath: exec.LookPath,
	}
}

func commandsFor(goos string) []command {
	switch goos {
	case "darwin":
		return []command{{"screencapture", func(p string) []string { return []string{"-x", "-t", "png", p} }}}
	case "windows":
		return []command{{"powershell", func(p string) []string {
			script := "Add-Type -AssemblyName System.Windows.Forms,System.Drawing;" +
				"$b=[System.Windows.Forms.Screen]::PrimaryScreen.Bounds;" +
				"$bmp=New-Object System.Drawing.Bitmap $b.Width,$b.Height;" +
				"$g=[System.Drawing.Graphics]::FromImage($bmp);" +
				"$g.CopyFromScreen($b.Location,[System.Drawing.Point]::Empty,$b.Size);" +
				"$bmp.Save('" + p + "',[System.Drawing.Imaging.ImageFormat]::Png)"
			return []string{"-NoProfile", "-NonInteractive", "-Command", script}
		}}}
	default:
		return []command{
			{"gnome-screenshot", func(p string) []string { return []string{"-f", p} }},
			{"grim", func(p string) []string { return []string{p} }},
			{"import", func(p string) []string { return []string{"-window", "root", p} }},
		}
	}
}

// Capture grabs the primary screen into a temp PNG, encodes it and
// removes the temp file whatever the outcome.
func (c *Capturer) Capture(ctx context.Context) (*Image, error) {
	path := filepath.Join(c.TempDir, "lucide-capture-"+uuid.NewString()+".png")
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			c.log("remove capture temp file", err)
		}
	}()

	if err := c.grab(ctx, path); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read capture: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("capture produced an empty file")
	}
	return c.Encode(raw), nil
}

func (c *Capturer) grab(ctx context.Context, path string) error {
	var lastErr error
	tried := false
	for _, cmd := range commandsFor(c.GOOS) {
		if c.LookPath != nil {
			if _, err := c.LookPath(cmd.name); err != nil {
				continue
			}
		}
		tried = true
		if err := c.Run(ctx, cmd.name, cmd.args(path)...); err != nil {
			lastErr = err
			c.log("capture with "+cmd.name, err)
			continue
		}
		return nil
	}
	if !tried {
		return ErrNoCaptureTool
	}
	return fmt.Errorf("screen capture failed: %w", lastErr)
}

// Encode prefers a downscaled JPEG and falls back to the raw PNG when
// the image cannot be decoded or re-encoded.
func (c *Capturer) Encode(raw []byte) *Image {
	img, err := encodeJPEG(raw, c.MaxWidth, c.Quality)
	if err == nil {
		return img
	}
	c.log("jpeg encoding, falling back to png", err)
	return encodePNG(raw)
}

func (c *Capturer) log(msg string, err error) {
	if c.Logger != nil {
		c.Logger(msg, err)
	}
}
