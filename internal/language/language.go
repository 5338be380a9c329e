// Package language detects the language tag of a buffer from its path and
// content.
package language

import (
	"strings"

	"github.com/go-enry/go-enry/v2"
)

// Tag names a programming language, e.g. "Go" or "Rust". Names follow the
// linguist naming used by enry.
type Tag string

// None is the empty tag; buffers without a language skip highlighting.
const None Tag = ""

// String returns the tag name.
func (t Tag) String() string {
	return string(t)
}

// ID returns the lower-case identifier used for lexer and server lookup.
func (t Tag) ID() string {
	return strings.ToLower(strings.ReplaceAll(string(t), " ", ""))
}

// maxSample bounds how much content is fed to the content classifier.
const maxSample = 16 * 1024

// Detect returns the language of path. The extension and filename are tried
// first; content is consulted only when they are ambiguous. Vendored,
// generated and binary content never gets a language.
func Detect(path string, content []byte) (Tag, bool) {
	if len(content) > maxSample {
		content = content[:maxSample]
	}
	if enry.IsBinary(content) {
		return None, false
	}
	if lang, ok := enry.GetLanguageByExtension(path); ok {
		return Tag(lang), true
	}
	if lang, ok := enry.GetLanguageByFilename(path); ok {
		return Tag(lang), true
	}
	if lang := enry.GetLanguage(path, content); lang != "" {
		return Tag(lang), true
	}
	return None, false
}
