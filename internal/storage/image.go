package storage

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

const (
	AvatarSize      = 256
	MaxAvatarBytes  = 5 * 1024 * 1024
	avatarQuality   = 80
	AvatarMediaType = "image/webp"
)

var (
	ErrImageTooLarge   = errors.New("image exceeds 5 MB")
	ErrUnsupportedType = errors.New("unsupported image type")
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// DetectImageType sniffs the content type and rejects anything but jpeg, png or webp
func DetectImageType(data []byte) (string, error) {
	contentType := http.DetectContentType(data)
	if !allowedImageTypes[contentType] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	return contentType, nil
}

// ProcessAvatar orients the image from EXIF, crops it to a centred square
// and re-encodes it as WebP
func ProcessAvatar(data []byte) ([]byte, error) {
	if len(data) > MaxAvatarBytes {
		return nil, ErrImageTooLarge
	}
	if _, err := DetectImageType(data); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	thumb := imaging.Fill(img, AvatarSize, AvatarSize, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := webp.Encode(&buf, thumb, &webp.Options{Quality: avatarQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode webp: %w", err)
	}
	return buf.Bytes(), nil
}
