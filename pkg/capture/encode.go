package capture

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

func encodeJPEG(raw []byte, maxWidth, quality int) (*Image, error) {
	src, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	var out image.Image = src
	if maxWidth > 0 && w > maxWidth {
		nh := h * maxWidth / w
		if nh < 1 {
			nh = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, maxWidth, nh))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		out, w, h = dst, maxWidth, nh
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return &Image{Data: buf.Bytes(), MimeType: "image/jpeg", Width: w, Height: h}, nil
}

func encodePNG(raw []byte) *Image {
	img := &Image{Data: raw, MimeType: "image/png"}
	if cfg, err := png.DecodeConfig(bytes.NewReader(raw)); err == nil {
		img.Width, img.Height = cfg.Width, cfg.Height
	}
	return img
}
