package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Encoding names the character set of a report file. RadioMobile runs on
// Windows and writes reports in the ANSI code page.
type Encoding string

const (
	EncodingAuto        Encoding = "auto"
	EncodingUTF8        Encoding = "utf-8"
	EncodingLatin1      Encoding = "latin1"
	EncodingWindows1252 Encoding = "windows-1252"
)

// ErrInvalidText is returned when report bytes cannot be decoded with the
// requested encoding.
var ErrInvalidText = errors.New("invalid report text")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseEncoding accepts the usual spellings of the supported encodings.
// An empty name means auto.
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return EncodingAuto, nil
	case "utf-8", "utf8":
		return EncodingUTF8, nil
	case "latin1", "latin-1", "iso-8859-1", "iso8859-1":
		return EncodingLatin1, nil
	case "windows-1252", "cp1252", "ansi":
		return EncodingWindows1252, nil
	}
	return "", fmt.Errorf("unsupported encoding %q", name)
}

// Decode converts raw report bytes to UTF-8 text. In auto mode valid UTF-8
// is kept as is and anything else is read as Windows-1252.
func Decode(data []byte, enc Encoding) (string, error) {
	switch enc {
	case EncodingAuto, "":
		if utf8.Valid(data) {
			return string(bytes.TrimPrefix(data, utf8BOM)), nil
		}
		return decodeWith(charmap.Windows1252, data)
	case EncodingUTF8:
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: not valid UTF-8", ErrInvalidText)
		}
		return string(bytes.TrimPrefix(data, utf8BOM)), nil
	case EncodingLatin1:
		return decodeWith(charmap.ISO8859_1, data)
	case EncodingWindows1252:
		return decodeWith(charmap.Windows1252, data)
	}
	return "", fmt.Errorf("unsupported encoding %q", enc)
}

func decodeWith(cm *charmap.Charmap, data []byte) (string, error) {
	out, err := cm.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%w: decode %s: %v", ErrInvalidText, cm, err)
	}
	return string(out), nil
}
