package sampledoc

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

var (
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
	utf16LEBOM = []byte{0xFF, 0xFE}
	utf16BEBOM = []byte{0xFE, 0xFF}

	declarationPattern = regexp.MustCompile(`^(\s*<\?xml\b[^>]*?\bencoding\s*=\s*)(["'])([^"']*)(["'])`)
)

// toUTF8 returns the document as UTF-8 text. A UTF-8 byte order mark is
// stripped and reported; UTF-16 and declared legacy charsets are transcoded
// and their declaration rewritten to utf-8.
func toUTF8(data []byte) ([]byte, bool, error) {
	switch {
	case bytes.HasPrefix(data, utf8BOM):
		return data[len(utf8BOM):], true, nil
	case bytes.HasPrefix(data, utf16LEBOM), bytes.HasPrefix(data, utf16BEBOM):
		out, err := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder().Bytes(data)
		if err != nil {
			return nil, false, fmt.Errorf("transcode utf-16: %w", err)
		}
		return rewriteDeclaration(out), false, nil
	}

	match := declarationPattern.FindSubmatch(data)
	if match == nil {
		return data, false, nil
	}
	label := strings.TrimSpace(string(match[3]))
	if isUTF8Label(label) {
		return data, false, nil
	}
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, false, fmt.Errorf("charset %q: %w", label, err)
	}
	if enc == nil {
		return nil, false, fmt.Errorf("charset %q is not supported", label)
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, false, fmt.Errorf("transcode %s: %w", label, err)
	}
	return rewriteDeclaration(out), false, nil
}

func isUTF8Label(label string) bool {
	switch strings.ToLower(label) {
	case "utf-8", "utf8", "us-ascii", "ascii":
		return true
	}
	return false
}

func rewriteDeclaration(data []byte) []byte {
	return declarationPattern.ReplaceAll(data, []byte("${1}${2}utf-8${4}"))
}

func hasDeclaration(prolog []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(prolog, " \t\r\n"), []byte("<?xml"))
}
