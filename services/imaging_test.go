package services

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestToJPEG(t *testing.T) {
	var gifBuf bytes.Buffer
	paletted := image.NewPaletted(image.Rect(0, 0, 8, 8), color.Palette{color.Black, color.White})
	require.NoError(t, gif.Encode(&gifBuf, paletted, nil))

	inputs := map[string][]byte{
		"png": testPNG(t, 16, 12),
		"gif": gifBuf.Bytes(),
	}

	for name, data := range inputs {
		t.Run(name, func(t *testing.T) {
			out, err := ToJPEG(data)
			require.NoError(t, err)

			cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
			require.NoError(t, err)
			require.Equal(t, "jpeg", format)
			require.Positive(t, cfg.Width)
		})
	}

	// Re-encoding a JPEG yields a JPEG of the same size.
	first, err := ToJPEG(testPNG(t, 20, 10))
	require.NoError(t, err)
	second, err := ToJPEG(first)
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(second))
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 20, 10), img.Bounds())
}

func TestToJPEGRejectsGarbage(t *testing.T) {
	_, err := ToJPEG([]byte("definitely not an image"))
	require.ErrorIs(t, err, ErrInvalidImage)
}

func TestDecodeBase64Image(t *testing.T) {
	raw := testPNG(t, 2, 2)
	encoded := base64.StdEncoding.EncodeToString(raw)

	data, err := DecodeBase64Image(encoded)
	require.NoError(t, err)
	require.Equal(t, raw, data)

	data, err = DecodeBase64Image("data:image/png;base64," + encoded)
	require.NoError(t, err)
	require.Equal(t, raw, data)

	for _, bad := range []string{"", "!!!", "data:image/png;base64,"} {
		_, err := DecodeBase64Image(bad)
		require.ErrorIs(t, err, ErrInvalidImage, bad)
	}
}
