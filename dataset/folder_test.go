package dataset

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imgcls/transform"
)

func writePNG(t *testing.T, path string, w, h int, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func imageTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for i := 0; i < 3; i++ {
		writePNG(t, filepath.Join(root, "red", string(rune('a'+i))+".png"), 6, 5, color.NRGBA{R: 255, A: 255})
		writePNG(t, filepath.Join(root, "blue", string(rune('a'+i))+".png"), 7, 4, color.NRGBA{B: 255, A: 255})
	}
	return root
}

func TestImageLoaderLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.png")
	writePNG(t, path, 3, 2, color.NRGBA{G: 255, A: 255})
	img, err := ImageLoader{}.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())
}

func TestImageLoaderErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := ImageLoader{}.Load(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)

	garbage := filepath.Join(dir, "garbage.jpg")
	require.NoError(t, os.WriteFile(garbage, []byte("definitely not an image"), 0o644))
	_, err = ImageLoader{AllowTruncated: true}.Load(garbage)
	assert.Error(t, err)
}

// cutJPEG writes a noisy w×h JPEG truncated to keep/den of its bytes, which
// lands inside the entropy-coded scan data.
func cutJPEG(t *testing.T, w, h, keep, den int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 7)
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	path := filepath.Join(t.TempDir(), "cut.jpg")
	require.NoError(t, os.WriteFile(path, buf.Bytes()[:buf.Len()*keep/den], 0o644))
	return path
}

func TestImageLoaderTruncatedRequiresOption(t *testing.T) {
	_, err := ImageLoader{}.Load(cutJPEG(t, 32, 32, 2, 3))
	assert.Error(t, err)
}

func TestImageLoaderAllowTruncated(t *testing.T) {
	for _, cut := range []struct{ keep, den int }{{9, 10}, {2, 3}, {1, 2}} {
		t.Run(fmt.Sprintf("%d/%d", cut.keep, cut.den), func(t *testing.T) {
			path := cutJPEG(t, 64, 64, cut.keep, cut.den)
			_, err := ImageLoader{}.Load(path)
			require.Error(t, err)

			img, err := ImageLoader{AllowTruncated: true}.Load(path)
			require.NoError(t, err)
			assert.Equal(t, 64, img.Bounds().Dx())
			assert.Equal(t, 64, img.Bounds().Dy())
		})
	}
}

func TestImageLoaderTruncatedPNGStillFails(t *testing.T) {
	dir := t.TempDir()
	full := filepath.Join(dir, "full.png")
	writePNG(t, full, 16, 16, color.NRGBA{R: 9, A: 255})
	raw, err := os.ReadFile(full)
	require.NoError(t, err)
	cut := filepath.Join(dir, "cut.png")
	require.NoError(t, os.WriteFile(cut, raw[:len(raw)/2], 0o644))

	_, err = ImageLoader{AllowTruncated: true}.Load(cut)
	assert.Error(t, err)
}

func TestFolderDatasetBatch(t *testing.T) {
	root := imageTree(t)
	train, _, classNames, err := Split(root, 1)
	require.NoError(t, err)
	require.Equal(t, []string{"blue", "red"}, classNames)

	ds, err := NewFolderDataset(train, ImageLoader{}, transform.Pipeline{Image: transform.Resize{W: 4, H: 4}})
	require.NoError(t, err)
	assert.Equal(t, 6, ds.Len())

	x, labels, err := ds.Batch([]int{0, 5})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 4, 4}, x.Shape)
	assert.Equal(t, []int{0, 1}, labels)
	// blue sample: blue channel is 1, red channel 0
	assert.Equal(t, 1.0, x.At(0, 2, 0, 0))
	assert.Equal(t, 0.0, x.At(0, 0, 0, 0))
	assert.Equal(t, 1.0, x.At(1, 0, 3, 3))

	_, _, err = ds.Get(6)
	assert.Error(t, err)
	_, _, err = ds.Batch(nil)
	assert.ErrorIs(t, err, ErrNoSamples)
}

func TestNewFolderDatasetRejectsMismatch(t *testing.T) {
	_, err := NewFolderDataset(SampleSet{Paths: []string{"a"}}, ImageLoader{}, transform.Pipeline{})
	assert.Error(t, err)
}

func TestChannelStats(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "c", "1.png"), 2, 2, color.NRGBA{R: 255, G: 0, B: 51, A: 255})
	writePNG(t, filepath.Join(root, "c", "2.png"), 2, 2, color.NRGBA{R: 255, G: 0, B: 51, A: 255})
	train, _, _, err := Split(root, 1)
	require.NoError(t, err)
	ds, err := NewFolderDataset(train, ImageLoader{}, transform.Pipeline{})
	require.NoError(t, err)

	mean, std, err := ChannelStats(ds)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, mean[0], 1e-12)
	assert.InDelta(t, 0.0, mean[1], 1e-12)
	assert.InDelta(t, 0.2, mean[2], 1e-12)
	for c := 0; c < 3; c++ {
		assert.InDelta(t, 0.0, std[c], 1e-9)
	}

	empty, err := NewFolderDataset(SampleSet{}, ImageLoader{}, transform.Pipeline{})
	require.NoError(t, err)
	_, _, err = ChannelStats(empty)
	assert.ErrorIs(t, err, ErrNoSamples)
}

func TestFilesToTensor(t *testing.T) {
	root := imageTree(t)
	files := []string{filepath.Join(root, "red", "a.png"), filepath.Join(root, "blue", "b.png")}
	x, err := FilesToTensor(files, ImageLoader{}, transform.EvalPipeline(3, 3, transform.ImageNetMean, transform.ImageNetStd))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 3, 3}, x.Shape)

	_, err = FilesToTensor(nil, ImageLoader{}, transform.Pipeline{})
	assert.ErrorIs(t, err, ErrNoSamples)
}
