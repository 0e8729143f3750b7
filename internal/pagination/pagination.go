// Package pagination provides the two page strategies for list
// endpoints: page-number pagination with a client-controllable, capped
// page size, and keyset cursor pagination for large stable-order scans.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strconv"
	"time"
)

const (
	// DefaultPageSize is used when the client does not request a size.
	DefaultPageSize = 10
	// MaxPageSize caps the client-requested page size.
	MaxPageSize = 1000
	// CursorPageSize is the fixed page size for cursor pagination.
	CursorPageSize = 100
)

// ErrInvalidCursor indicates a cursor token that cannot be decoded.
var ErrInvalidCursor = errors.New("invalid pagination cursor")

// Params are validated page-number pagination inputs.
type Params struct {
	Page int
	Size int
}

// ParseParams interprets raw page and page_size query values. Missing or
// malformed values fall back to defaults; page_size is capped at
// MaxPageSize.
func ParseParams(rawPage, rawSize string) Params {
	page := 1
	if n, err := strconv.Atoi(rawPage); err == nil && n > 0 {
		page = n
	}

	size := DefaultPageSize
	if n, err := strconv.Atoi(rawSize); err == nil && n > 0 {
		if n > MaxPageSize {
			n = MaxPageSize
		}
		size = n
	}

	return Params{Page: page, Size: size}
}

// Offset is the row offset of the first item on the page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Size
}

// Pages computes the total page count. An empty result set still has one
// (empty) page, so page 1 is always addressable.
func Pages(count, size int) int {
	if count == 0 {
		return 1
	}
	return (count + size - 1) / size
}

// Cursor marks a position in a created-descending scan. The ID breaks
// ties between equal creation timestamps.
type Cursor struct {
	ID      string    `json:"id"`
	Created time.Time `json:"created"`
}

// EncodeCursor encodes a cursor as an opaque base64 token.
func EncodeCursor(c Cursor) string {
	data, _ := json.Marshal(c)
	return base64.URLEncoding.EncodeToString(data)
}

// DecodeCursor decodes a base64 cursor token.
func DecodeCursor(s string) (Cursor, error) {
	data, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}

	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return Cursor{}, ErrInvalidCursor
	}

	return c, nil
}
