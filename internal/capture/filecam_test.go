package capture

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))))
}

func TestFileDevicesEnumerate(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, filepath.Join(dir, "b.png"), 8, 8)
	writeTestPNG(t, filepath.Join(dir, "a.png"), 8, 8)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	d, err := NewFileDevices(dir)
	require.NoError(t, err)

	infos, err := d.EnumerateVideoInputs(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "a.png", infos[0].Label)
	assert.Equal(t, "b.png", infos[1].Label)
}

func TestFileDevicesGetStream(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.png")
	writeTestPNG(t, path, 64, 32)

	d, err := NewFileDevices(path)
	require.NoError(t, err)

	stream, err := d.GetStream(context.Background(), Constraints{IdealWidth: 128, IdealHeight: 128})
	require.NoError(t, err)
	assert.Equal(t, path, stream.Device())

	fs := stream.(*FileStream)
	b := fs.Frame().Bounds()
	// Within the ideal bounds: no scaling applied
	assert.Equal(t, 64, b.Dx())
	assert.Equal(t, 32, b.Dy())

	stream.Stop()
	assert.Nil(t, fs.Frame())
	stream.Stop() // idempotent
}

func TestFileDevicesScalesToFit(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, filepath.Join(dir, "big.png"), 400, 200)

	d, err := NewFileDevices(dir)
	require.NoError(t, err)

	stream, err := d.GetStream(context.Background(), Constraints{IdealWidth: 100, IdealHeight: 100})
	require.NoError(t, err)

	b := stream.(*FileStream).Frame().Bounds()
	assert.Equal(t, 100, b.Dx())
	assert.Equal(t, 50, b.Dy())
}

func TestFileDevicesEmpty(t *testing.T) {
	d, err := NewFileDevices(t.TempDir())
	require.NoError(t, err)

	available, err := d.EnumerateVideoInputs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, available)

	_, err = d.GetStream(context.Background(), Constraints{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestImageSink(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.png")
	writeTestPNG(t, path, 16, 16)

	d, err := NewFileDevices(path)
	require.NoError(t, err)
	stream, err := d.GetStream(context.Background(), Constraints{})
	require.NoError(t, err)

	sink := NewImageSink()

	// Unbound sink cannot snapshot
	_, err = sink.Snapshot()
	assert.Error(t, err)

	require.NoError(t, sink.Bind(stream))
	img, err := sink.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())

	sink.Detach()
	_, err = sink.Snapshot()
	assert.Error(t, err)
	sink.Detach() // idempotent
}
