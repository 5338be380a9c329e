package vfs

import (
	"bytes"
	"errors"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

var (
	// ErrBinary is returned when decoding content that is not text.
	ErrBinary = errors.New("binary content")

	// ErrUnsupportedEncoding is returned for content that is neither UTF-8
	// nor UTF-16 with a byte order mark.
	ErrUnsupportedEncoding = errors.New("unsupported encoding")
)

// Encoding names the character encoding of a file on disk.
type Encoding string

// Encodings recognized by Decode.
const (
	EncodingUTF8    Encoding = "utf-8"
	EncodingUTF8BOM Encoding = "utf-8-bom"
	EncodingUTF16LE Encoding = "utf-16le"
	EncodingUTF16BE Encoding = "utf-16be"
)

// LineEnding names the newline convention of a file on disk.
type LineEnding string

// Line endings recognized by Decode. Mixed files are saved as LF.
const (
	LineEndingLF    LineEnding = "lf"
	LineEndingCRLF  LineEnding = "crlf"
	LineEndingCR    LineEnding = "cr"
	LineEndingMixed LineEnding = "mixed"
)

var newlines = map[LineEnding][]byte{
	LineEndingLF:   {'\n'},
	LineEndingCRLF: {'\r', '\n'},
	LineEndingCR:   {'\r'},
}

// Format is how a file was stored on disk. Buffers always hold UTF-8 text
// with LF line endings; Format restores the original shape on save.
type Format struct {
	Encoding   Encoding
	LineEnding LineEnding
}

// DefaultFormat is used for files that were never read.
var DefaultFormat = Format{Encoding: EncodingUTF8, LineEnding: LineEndingLF}

type bom struct {
	mark []byte
	enc  Encoding
}

var boms = []bom{
	{[]byte{0xEF, 0xBB, 0xBF}, EncodingUTF8BOM},
	{[]byte{0xFF, 0xFE}, EncodingUTF16LE},
	{[]byte{0xFE, 0xFF}, EncodingUTF16BE},
}

func sniff(content []byte) Encoding {
	for _, b := range boms {
		if bytes.HasPrefix(content, b.mark) {
			return b.enc
		}
	}
	return EncodingUTF8
}

// utf16 returns the codec for a UTF-16 encoding, or nil for UTF-8 variants.
func utf16(enc Encoding) encoding.Encoding {
	switch enc {
	case EncodingUTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case EncodingUTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
	}
	return nil
}

// Decode converts file content into buffer text.
func Decode(content []byte) (string, Format, error) {
	enc := sniff(content)
	body := content
	switch enc {
	case EncodingUTF8BOM:
		body = content[3:]
	case EncodingUTF16LE, EncodingUTF16BE:
		decoded, err := utf16(enc).NewDecoder().Bytes(content)
		if err != nil {
			return "", Format{}, errors.Join(ErrUnsupportedEncoding, err)
		}
		body = decoded
	}
	if IsBinary(body) {
		return "", Format{}, ErrBinary
	}
	if !utf8.Valid(body) {
		return "", Format{}, ErrUnsupportedEncoding
	}

	format := Format{Encoding: enc, LineEnding: DetectLineEnding(body)}
	if format.LineEnding == LineEndingMixed {
		format.LineEnding = LineEndingLF
	}
	return string(NormalizeLineEndings(body, LineEndingLF)), format, nil
}

// Encode converts buffer text back into file content.
func Encode(text string, format Format) ([]byte, error) {
	out := NormalizeLineEndings([]byte(text), format.LineEnding)
	switch format.Encoding {
	case EncodingUTF8BOM:
		return append([]byte{0xEF, 0xBB, 0xBF}, out...), nil
	case EncodingUTF16LE, EncodingUTF16BE:
		return utf16(format.Encoding).NewEncoder().Bytes(out)
	}
	return out, nil
}

// DetectLineEnding reports the newline convention of content. Content
// without newlines is LF.
func DetectLineEnding(content []byte) LineEnding {
	crlf := bytes.Count(content, newlines[LineEndingCRLF])
	lf := bytes.Count(content, newlines[LineEndingLF]) - crlf
	cr := bytes.Count(content, newlines[LineEndingCR]) - crlf

	found := LineEndingLF
	seen := 0
	for _, c := range []struct {
		n  int
		le LineEnding
	}{{lf, LineEndingLF}, {crlf, LineEndingCRLF}, {cr, LineEndingCR}} {
		if c.n > 0 {
			found = c.le
			seen++
		}
	}
	if seen > 1 {
		return LineEndingMixed
	}
	return found
}

// NormalizeLineEndings rewrites every CRLF, CR and LF in content to ending.
// Mixed leaves content untouched.
func NormalizeLineEndings(content []byte, ending LineEnding) []byte {
	nl, ok := newlines[ending]
	if !ok || len(content) == 0 {
		return content
	}
	lf := bytes.ReplaceAll(content, newlines[LineEndingCRLF], newlines[LineEndingLF])
	lf = bytes.ReplaceAll(lf, newlines[LineEndingCR], newlines[LineEndingLF])
	if ending == LineEndingLF {
		return lf
	}
	return bytes.ReplaceAll(lf, newlines[LineEndingLF], nl)
}

// IsBinary reports whether content looks like binary data: a NUL byte, or
// more than a tenth of control characters in the first 8KiB.
func IsBinary(content []byte) bool {
	sample := content[:min(len(content), 8192)]
	if len(sample) == 0 {
		return false
	}
	if bytes.IndexByte(sample, 0) >= 0 {
		return true
	}
	control := 0
	for _, b := range sample {
		if b < 0x20 && !bytes.ContainsRune([]byte("\t\n\r\f"), rune(b)) {
			control++
		}
	}
	return control*10 > len(sample)
}
