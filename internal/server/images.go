package server

import (
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

var errNotImage = errors.New("data is not an image")

// decodeImageData decodes a base64 data URL and sniffs its content type.
func decodeImageData(data string) (string, []byte, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return "", nil, errors.New("no image data")
	}
	header, payload, ok := strings.Cut(data, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return "", nil, errors.New("not a base64 data url")
	}
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, err
	}
	contentType := http.DetectContentType(decoded)
	if !strings.HasPrefix(contentType, "image/") {
		return contentType, nil, errNotImage
	}
	return contentType, decoded, nil
}

// avatarValid accepts an empty value, an absolute http(s) URL or an image
// data URL.
func avatarValid(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return true
	}
	if strings.HasPrefix(raw, "data:") {
		_, _, err := decodeImageData(raw)
		return err == nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
