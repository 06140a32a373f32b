// Package detect classifies uploaded payloads by their binary signature.
package detect

import "bytes"

// Kind is the detected document kind of an uploaded payload.
type Kind string

const (
	KindPDF   Kind = "pdf"
	KindDOC   Kind = "doc"
	KindDOCX  Kind = "docx"
	KindImage Kind = "image"
)

// MinSniffLen is the number of leading bytes Sniff needs to classify a
// payload. Callers must reject shorter buffers before calling.
const MinSniffLen = 5

var (
	pdfMagic  = []byte("%PDF-")
	oleMagic  = []byte{0xD0, 0xCF, 0x11, 0xE0}
	zipMagic  = []byte{0x50, 0x4B}
	pngMagic  = []byte{0x89, 0x50, 0x4E, 0x47}
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	riffMagic = []byte("RIFF")
)

// Sniff classifies a payload by its leading bytes. The checks run in a fixed
// order: PDF, then OLE compound (legacy DOC), then ZIP (treated as DOCX),
// otherwise the payload is an image. For images Ext distinguishes the
// sub-kind.
func Sniff(data []byte) Kind {
	switch {
	case bytes.HasPrefix(data, pdfMagic):
		return KindPDF
	case bytes.HasPrefix(data, oleMagic):
		return KindDOC
	case bytes.HasPrefix(data, zipMagic):
		return KindDOCX
	default:
		return KindImage
	}
}

// Ext returns the file extension to store the payload under. For images the
// sub-kind is detected from the signature, defaulting to png.
func Ext(kind Kind, data []byte) string {
	switch kind {
	case KindPDF:
		return "pdf"
	case KindDOC:
		return "doc"
	case KindDOCX:
		return "docx"
	}
	switch {
	case bytes.HasPrefix(data, pngMagic):
		return "png"
	case bytes.HasPrefix(data, jpegMagic):
		return "jpg"
	case bytes.HasPrefix(data, riffMagic):
		return "webp"
	default:
		return "png"
	}
}

// IsZIP reports whether the payload carries the ZIP ("PK") signature. The
// DOCX extraction endpoints use it to reject non-DOCX uploads up front.
func IsZIP(data []byte) bool {
	return bytes.HasPrefix(data, zipMagic)
}
