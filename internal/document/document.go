// Package document reads and writes whole text documents as lines.
//
// A document is split on its line separator exactly like a naive
// split("\n"): a trailing separator produces a final empty line, and joining
// the lines back reproduces the original text. CRLF documents are split on
// "\r\n" so markers never see the carriage return. Byte order marks and
// UTF-16 sources survive a read/write round trip.
package document

import (
	"encoding/hex"
	"strings"

	"github.com/zeebo/blake3"
)

const (
	LF   = "\n"
	CRLF = "\r\n"
)

// Document is the full content of one text file.
type Document struct {
	Path     string
	Lines    []string
	Newline  string   // LF or CRLF
	Encoding Encoding // never EncodingAuto after Read
	BOM      bool
	Hash     string // blake3 of the on-disk bytes at read time
}

// Parse splits already-decoded text into a document.
func Parse(path, text string) *Document {
	nl := detectNewline(text)
	return &Document{
		Path:     path,
		Lines:    strings.Split(text, nl),
		Newline:  nl,
		Encoding: EncodingUTF8,
	}
}

// detectNewline picks CRLF only when every LF is preceded by CR.
func detectNewline(text string) string {
	lf := strings.Count(text, LF)
	if lf > 0 && strings.Count(text, CRLF) == lf {
		return CRLF
	}
	return LF
}

// Text joins the lines with the document's separator.
func (d *Document) Text() string {
	nl := d.Newline
	if nl == "" {
		nl = LF
	}
	return strings.Join(d.Lines, nl)
}

// WithLines returns a copy of d carrying new content.
func (d *Document) WithLines(lines []string) *Document {
	cp := *d
	cp.Lines = lines
	return &cp
}

// WithText returns a copy of d holding text split on d's separator.
func (d *Document) WithText(text string) *Document {
	nl := d.Newline
	if nl == "" {
		nl = LF
	}
	return d.WithLines(strings.Split(text, nl))
}

// computeHash computes the blake3 hash of content.
func computeHash(content []byte) string {
	sum := blake3.Sum256(content)
	return hex.EncodeToString(sum[:])
}
