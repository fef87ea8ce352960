// Package encoding converts between UTF-8 and the Windows-1252 fixed-width
// name fields used by engine resource records.
package encoding

import (
	"bytes"
	"errors"
	"fmt"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// ErrNameTooLong is returned when an encoded name does not fit its field.
var ErrNameTooLong = errors.New("name too long for field")

// DecodeName converts a Windows-1252 byte string to UTF-8.
// Returns the bytes as-is if conversion fails.
func DecodeName(data []byte) string {
	result, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(result)
}

// EncodeName converts a UTF-8 string to Windows-1252.
// Characters with no Windows-1252 mapping are an error.
func EncodeName(s string) ([]byte, error) {
	result, _, err := transform.Bytes(charmap.Windows1252.NewEncoder(), []byte(s))
	if err != nil {
		return nil, fmt.Errorf("encoding name %q: %w", s, err)
	}
	return result, nil
}

// TrimNull returns data up to its first null byte.
func TrimNull(data []byte) []byte {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		return data[:i]
	}
	return data
}

// FixedToName decodes a null-padded fixed-size field.
func FixedToName(field []byte) string {
	return DecodeName(TrimNull(field))
}

// NameToFixed encodes s into a null-padded field of the given size.
// One byte is always kept for the terminator.
func NameToFixed(s string, size int) ([]byte, error) {
	encoded, err := EncodeName(s)
	if err != nil {
		return nil, err
	}
	if len(encoded) >= size {
		return nil, fmt.Errorf("%w: %q needs %d bytes, field holds %d", ErrNameTooLong, s, len(encoded)+1, size)
	}
	field := make([]byte, size)
	copy(field, encoded)
	return field, nil
}
