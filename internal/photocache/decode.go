package photocache

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// DefaultMimeType is assumed for raw base64 blobs without a data: header.
const DefaultMimeType = "image/jpeg"

// ErrMalformedPhoto is returned when a photo blob cannot be decoded.
var ErrMalformedPhoto = errors.New("malformed photo")

// Decode splits a photo blob into its MIME type and decoded bytes. The blob
// is either raw base64 or a data:<mime>;base64,<data> URI. Whitespace inside
// the payload and missing padding are tolerated.
func Decode(blob string) (string, []byte, error) {
	mime := DefaultMimeType
	payload := blob

	if strings.HasPrefix(blob, "data:") {
		header, data, ok := strings.Cut(blob[len("data:"):], ",")
		if !ok {
			return "", nil, fmt.Errorf("%w: data URI without payload", ErrMalformedPhoto)
		}
		if m, _, _ := strings.Cut(header, ";"); m != "" {
			mime = strings.ToLower(strings.TrimSpace(m))
		}
		payload = data
	}

	payload = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, payload)
	payload = strings.TrimRight(payload, "=")
	if payload == "" {
		return "", nil, fmt.Errorf("%w: empty payload", ErrMalformedPhoto)
	}

	data, err := base64.RawStdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrMalformedPhoto, err)
	}
	return mime, data, nil
}

// Extension maps a MIME type to the file extension used for cached assets.
func Extension(mime string) string {
	switch strings.ToLower(mime) {
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	default:
		return "jpg"
	}
}
