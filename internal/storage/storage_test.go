package storage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"testing"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/lms-service/internal/config"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessAvatar_SquareWebP(t *testing.T) {
	out, err := ProcessAvatar(pngBytes(t, 640, 320))
	require.NoError(t, err)

	img, err := webp.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, AvatarSize, img.Bounds().Dx())
	assert.Equal(t, AvatarSize, img.Bounds().Dy())
}

func TestProcessAvatar_RejectsUnsupported(t *testing.T) {
	_, err := ProcessAvatar([]byte("GIF89a not really an image"))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = ProcessAvatar([]byte("plain text"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestProcessAvatar_RejectsOversized(t *testing.T) {
	_, err := ProcessAvatar(make([]byte, MaxAvatarBytes+1))
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestNewUploader_DisabledWithoutConfig(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	u, err := NewUploader(config.OSSConfig{}, logger)
	require.NoError(t, err)

	_, err = u.Upload(context.Background(), "avatars/a.webp", AvatarMediaType, []byte("x"))
	assert.ErrorIs(t, err, ErrStorageDisabled)
}

func TestOSSUploader_KeysAndURLs(t *testing.T) {
	u := &OSSUploader{cfg: config.OSSConfig{Endpoint: "https://oss-cn-hangzhou.aliyuncs.com", Bucket: "lms", Prefix: "/media/"}}

	assert.Equal(t, "media/avatars/a.webp", u.objectKey("/avatars/a.webp"))
	assert.Equal(t, "https://lms.oss-cn-hangzhou.aliyuncs.com/media/a.webp", u.PublicURL("media/a.webp"))

	u.cfg.PublicBaseURL = "https://cdn.lms.test/"
	assert.Equal(t, "https://cdn.lms.test/media/a.webp", u.PublicURL("media/a.webp"))
}

func TestProgressListener_HandlesEvents(t *testing.T) {
	p := &progressListener{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, evt := range []oss.ProgressEventType{oss.TransferStartedEvent, oss.TransferDataEvent, oss.TransferCompletedEvent, oss.TransferFailedEvent} {
		p.ProgressChanged(&oss.ProgressEvent{EventType: evt, ConsumedBytes: 10, TotalBytes: 20})
	}
}
