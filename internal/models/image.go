package models

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// blobPrefix marks a value as a self-describing image payload. Keys in the
// local store whose value carries this prefix are image blobs; everything
// else (manifest, token, theme) lives under reserved keys.
const blobPrefix = "data:"

// Image is one image payload attached to a note. Data and Thumbnail hold the
// payload as a data-URL string; ID and ItemID are assigned by the server.
type Image struct {
	Name      string `json:"name,omitempty"`
	Data      string `json:"data"`
	Thumbnail string `json:"thumbnail,omitempty"`
	ID        int64  `json:"id,omitempty"`
	ItemID    int64  `json:"item_id,omitempty"`
}

// EncodeBlob renders binary image bytes as a data-URL blob string.
func EncodeBlob(mediaType string, data []byte) string {
	if strings.TrimSpace(mediaType) == "" {
		mediaType = "application/octet-stream"
	}
	return blobPrefix + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeBlob parses a data-URL blob string back into media type and bytes.
func DecodeBlob(blob string) (string, []byte, error) {
	if !IsBlob(blob) {
		return "", nil, fmt.Errorf("not a blob value")
	}
	rest := strings.TrimPrefix(blob, blobPrefix)
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed blob value")
	}
	mediaType := strings.TrimSuffix(meta, ";base64")
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode blob payload: %w", err)
	}
	return mediaType, data, nil
}

// IsBlob reports whether a stored value looks like an image blob.
func IsBlob(value string) bool {
	return strings.HasPrefix(value, blobPrefix)
}

// BlobKey derives the storage key for an image file owned by a local note.
// The note id suffix makes the key unique within a session.
func BlobKey(filename string, noteID int64) string {
	return fmt.Sprintf("%s_%d", filename, noteID)
}

// FilenameFromKey strips the synthetic note-id suffix from a blob key,
// recovering the original upload filename. Keys without a recognizable
// suffix are returned unchanged.
func FilenameFromKey(key string) string {
	idx := strings.LastIndex(key, "_")
	if idx < 0 {
		return key
	}
	if _, err := strconv.ParseInt(key[idx+1:], 10, 64); err != nil {
		return key
	}
	return key[:idx]
}
