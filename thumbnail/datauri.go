package thumbnail

import (
	"encoding/base64"
	"fmt"
	"goods-manager/core"
	"strings"
)

const jpegPrefix = "data:image/jpeg;base64,"

// EncodeDataURI wraps JPEG bytes the way the catalog stores them.
func EncodeDataURI(jpegData []byte) string {
	return jpegPrefix + base64.StdEncoding.EncodeToString(jpegData)
}

// DecodeDataURI returns the payload and media type of a base64 data URI.
func DecodeDataURI(uri string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, "", fmt.Errorf("%w: not a data URI", core.ErrInvalidImage)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("%w: data URI has no payload", core.ErrInvalidImage)
	}
	mediaType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return nil, "", fmt.Errorf("%w: data URI is not base64", core.ErrInvalidImage)
	}
	if mediaType == "" {
		mediaType = "text/plain"
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", core.ErrInvalidImage, err)
	}
	return data, mediaType, nil
}
