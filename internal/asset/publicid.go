package asset

import (
	"errors"
	"strings"
)

// ErrMalformedAssetURL indicates an asset URL without the expected upload
// segment, so no public ID can be recovered from it.
var ErrMalformedAssetURL = errors.New("asset url has no upload segment")

const uploadMarker = "/image/upload/"

// ExtractPublicID recovers the remote public ID embedded in an asset URL.
//
// Delivery URLs look like
// https://res.cloudinary.com/{cloud}/image/upload/v{version}/{public_id}.{ext}
// where the version segment is optional and the public ID may contain folder
// separators. The extension is stripped from the final segment only:
// ".../image/upload/v123/gallery/photo.jpg" yields "gallery/photo".
func ExtractPublicID(assetURL string) (string, error) {
	idx := strings.Index(assetURL, uploadMarker)
	if idx < 0 {
		return "", ErrMalformedAssetURL
	}

	rest := assetURL[idx+len(uploadMarker):]
	rest = stripVersionSegment(rest)
	if rest == "" {
		return "", ErrMalformedAssetURL
	}

	segments := strings.Split(rest, "/")
	last := segments[len(segments)-1]
	if dot := strings.LastIndex(last, "."); dot >= 0 {
		segments[len(segments)-1] = last[:dot]
	}

	return strings.Join(segments, "/"), nil
}

// stripVersionSegment drops a leading "v<digits>/" token if present.
func stripVersionSegment(path string) string {
	if !strings.HasPrefix(path, "v") {
		return path
	}
	slash := strings.Index(path, "/")
	if slash <= 1 {
		return path
	}
	for _, r := range path[1:slash] {
		if r < '0' || r > '9' {
			return path
		}
	}
	return path[slash+1:]
}
