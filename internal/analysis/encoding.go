package analysis

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/htmlindex"
)

// EncodingSampleSize is how many leading bytes are inspected when guessing an encoding.
const EncodingSampleSize = 10000

// DefaultEncoding is reported when nothing better can be guessed.
const DefaultEncoding = "utf-8"

// ErrUndecodable is returned when the bytes are not valid in the chosen encoding.
var ErrUndecodable = errors.New("content is not valid in the selected encoding")

// DetectEncoding guesses the text encoding of a file from its first bytes.
// A byte-order mark wins, pure 7-bit content is "ascii", valid UTF-8 is "utf-8",
// anything else falls back to the legacy single-byte guess.
func DetectEncoding(sample []byte) string {
	if len(sample) > EncodingSampleSize {
		sample = sample[:EncodingSampleSize]
	}
	if len(sample) == 0 {
		return DefaultEncoding
	}
	_, name, certain := charset.DetermineEncoding(sample, "text/plain")
	if certain && name != "" {
		return name
	}
	if isASCII(sample) {
		return "ascii"
	}
	if utf8.Valid(trimPartialRune(sample)) {
		return "utf-8"
	}
	if name == "" {
		return DefaultEncoding
	}
	return name
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// trimPartialRune drops a multi-byte sequence cut off by the sample boundary.
func trimPartialRune(b []byte) []byte {
	for i := len(b) - 1; i >= 0 && i > len(b)-utf8.UTFMax; i-- {
		if b[i] < utf8.RuneSelf {
			break
		}
		if utf8.RuneStart(b[i]) {
			if !utf8.FullRune(b[i:]) {
				return b[:i]
			}
			break
		}
	}
	return b
}

// decodeToUTF8 converts data from the named encoding to UTF-8 and strips a leading BOM.
func decodeToUTF8(data []byte, name string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8", "ascii", "us-ascii":
		data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
		if !utf8.Valid(data) {
			return nil, fmt.Errorf("%s: %w", name, ErrUndecodable)
		}
		return data, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", name, err)
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, ErrUndecodable)
	}
	return bytes.TrimPrefix(out, []byte("\xef\xbb\xbf")), nil
}
