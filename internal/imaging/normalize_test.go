package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

// noisyImage builds an image that PNG cannot compress well, so the JPEG
// re-encode comes out smaller.
func noisyImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	seed := uint32(2463534242)
	next := func() uint8 {
		seed ^= seed << 13
		seed ^= seed >> 17
		seed ^= seed << 5
		return uint8(seed)
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, color.RGBA{R: next(), G: next(), B: next(), A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func TestNormalizeReencodesPNG(t *testing.T) {
	original := encodePNG(t, noisyImage(200, 200))

	data, changed, err := Normalize(original, 80, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !changed {
		t.Fatal("expected bytes to be re-encoded")
	}
	if len(data) >= len(original) {
		t.Fatalf("expected smaller output, got %d >= %d", len(data), len(original))
	}

	if _, format, err := image.Decode(bytes.NewReader(data)); err != nil || format != "jpeg" {
		t.Fatalf("expected jpeg output, got format %q err %v", format, err)
	}
}

func TestNormalizeSkipsJPEG(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, noisyImage(50, 50), &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("failed to encode jpeg: %v", err)
	}
	original := buf.Bytes()

	data, changed, err := Normalize(original, 50, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if changed {
		t.Fatal("expected jpeg input to pass through")
	}
	if !bytes.Equal(data, original) {
		t.Fatal("expected original bytes back")
	}
}

func TestNormalizeKeepsSmallerOriginal(t *testing.T) {
	// 单像素 PNG 比任何 JPEG 重编码结果都小
	original := encodePNG(t, image.NewRGBA(image.Rect(0, 0, 1, 1)))

	data, changed, err := Normalize(original, 80, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if changed {
		t.Fatal("expected original to be kept when re-encoding grows it")
	}
	if !bytes.Equal(data, original) {
		t.Fatal("expected original bytes back")
	}
}

func TestNormalizeInvalidBytesFallBack(t *testing.T) {
	original := []byte("definitely not an image")

	data, changed, err := Normalize(original, 80, true)
	if err == nil {
		t.Fatal("expected an informational decode error")
	}
	if changed {
		t.Fatal("expected no change for undecodable input")
	}
	if !bytes.Equal(data, original) {
		t.Fatal("expected original bytes back")
	}
}
