package dataset

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"os"

	"github.com/disintegration/imaging"

	"imgcls/tensor"
	"imgcls/transform"
)

// ImageLoader decodes image files from disk.
type ImageLoader struct {
	// AllowTruncated retries JPEG files that fail to decode after padding
	// them with zero bytes and an end-of-image marker.
	AllowTruncated bool
}

var (
	jpegSOI = []byte{0xFF, 0xD8}
	jpegEOI = []byte{0xFF, 0xD9}
)

// Load decodes the image at path, honoring EXIF orientation.
func (l ImageLoader) Load(path string) (image.Image, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err == nil {
		return img, nil
	}
	if l.AllowTruncated && bytes.HasPrefix(raw, jpegSOI) {
		if img, perr := imaging.Decode(bytes.NewReader(padJPEG(raw)), imaging.AutoOrientation(true)); perr == nil {
			return img, nil
		}
	}
	return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
}

// padJPEG appends enough zero bytes to complete every remaining block of a
// JPEG cut inside its scan data, followed by an end-of-image marker. A run of
// zero bits always decodes as the first canonical Huffman code, which costs
// well under 3 bytes per pixel.
func padJPEG(raw []byte) []byte {
	n := 4096
	if cfg, err := jpeg.DecodeConfig(bytes.NewReader(raw)); err == nil {
		n += cfg.Width * cfg.Height * 3
	}
	out := make([]byte, len(raw), len(raw)+n+len(jpegEOI))
	copy(out, raw)
	out = append(out, make([]byte, n)...)
	return append(out, jpegEOI...)
}

// FilesToTensor loads every file, runs it through p and stacks the results
// into a [N, C, H, W] batch.
func FilesToTensor(files []string, loader ImageLoader, p transform.Pipeline) (*tensor.Tensor, error) {
	if len(files) == 0 {
		return nil, ErrNoSamples
	}
	ts := make([]*tensor.Tensor, len(files))
	for i, f := range files {
		img, err := loader.Load(f)
		if err != nil {
			return nil, err
		}
		if ts[i], err = p.Tensor(img); err != nil {
			return nil, fmt.Errorf("transforming %s: %w", f, err)
		}
	}
	return tensor.Stack(ts)
}
