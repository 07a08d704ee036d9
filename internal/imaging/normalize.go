// Package imaging re-encodes uploaded pictures into a compact format before
// they are pushed to the remote image host.
package imaging

import (
	"bytes"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultQuality is the JPEG quality used when none is configured.
const DefaultQuality = 82

// Normalize re-encodes image bytes as JPEG at the given quality and reports
// whether the bytes were replaced.
//
// When skipJPEG is set, input that is already JPEG passes through untouched.
// The re-encoded bytes are only used when they are strictly smaller than the
// input. Decode or encode failures never abort the caller: the original
// bytes come back unchanged and the returned error is informational only.
func Normalize(data []byte, quality int, skipJPEG bool) ([]byte, bool, error) {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data, false, err
	}
	if skipJPEG && format == "jpeg" {
		return data, false, nil
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return data, false, err
	}
	if buf.Len() >= len(data) {
		return data, false, nil
	}

	return buf.Bytes(), true, nil
}
