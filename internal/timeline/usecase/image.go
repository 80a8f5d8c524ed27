package usecase

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"timeline/internal/shared/i18n"
)

var dataURIPrefix = regexp.MustCompile(`^data:image/[\w.+-]+;base64,`)

// allowedImageTypes maps accepted sniffed types to the stored file extension.
var allowedImageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

var base64Whitespace = strings.NewReplacer("\r", "", "\n", "", " ", "", "\t", "")

type decodedImage struct {
	data        []byte
	contentType string
	ext         string
}

// decodeImage turns a base64 payload, optionally wrapped in a data URI, into image bytes. The content type
// comes from the bytes, never from the URI. On failure it returns a catalog key.
func decodeImage(raw string, maxBytes int64) (*decodedImage, string) {
	payload := base64Whitespace.Replace(dataURIPrefix.ReplaceAllString(strings.TrimSpace(raw), ""))
	if payload == "" {
		return nil, i18n.KeyPostImageInvalid
	}
	if int64(base64.StdEncoding.DecodedLen(len(payload))) > maxBytes+2 {
		return nil, i18n.KeyPostImageTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, i18n.KeyPostImageInvalid
		}
	}
	if len(data) == 0 {
		return nil, i18n.KeyPostImageInvalid
	}
	if int64(len(data)) > maxBytes {
		return nil, i18n.KeyPostImageTooLarge
	}

	contentType := http.DetectContentType(data)
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return nil, i18n.KeyPostImageType
	}

	return &decodedImage{data: data, contentType: contentType, ext: ext}, ""
}

// newImageFilename returns "<unix seconds>_<32 hex chars>.<ext>".
func newImageFilename(now time.Time, ext string) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate image name: %w", err)
	}
	return fmt.Sprintf("%d_%s.%s", now.Unix(), hex.EncodeToString(b), ext), nil
}
