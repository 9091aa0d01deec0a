// Package imaging prepares uploaded photos before they are sent to a model.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/nfnt/resize"
)

// MaxWidth is the widest image forwarded to a model.
const MaxWidth = 1024

var (
	// ErrImageRead is returned when the upload is empty or cannot be decoded.
	ErrImageRead = errors.New("failed to read the image file")
	// ErrUnsupportedImage is returned for non-image MIME types.
	ErrUnsupportedImage = errors.New("unsupported image type")
)

// Prepare checks the upload and downsizes JPEG and PNG images wider than
// MaxWidth. Other image types are returned unchanged.
func Prepare(data []byte, mimeType string) ([]byte, string, error) {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedImage, mimeType)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty upload", ErrImageRead)
	}

	switch mimeType {
	case "image/jpeg", "image/jpg", "image/png":
	default:
		return data, mimeType, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrImageRead, err)
	}
	if img.Bounds().Dx() <= MaxWidth {
		return data, mimeType, nil
	}

	img = resize.Resize(MaxWidth, 0, img, resize.Lanczos3)

	var out bytes.Buffer
	if mimeType == "image/png" {
		err = png.Encode(&out, img)
	} else {
		mimeType = "image/jpeg"
		err = jpeg.Encode(&out, img, &jpeg.Options{Quality: 90})
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode image: %w", err)
	}
	return out.Bytes(), mimeType, nil
}
