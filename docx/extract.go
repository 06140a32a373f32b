// Package docx extracts text from DOCX files by reading the document body XML
// directly, bypassing OCR for digitally authored documents.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const documentPart = "word/document.xml"

var horizontalWS = regexp.MustCompile(`[ \t]+`)

// Extract opens the payload as a ZIP package, parses the document body part,
// and returns the concatenated text of all text runs. It fails if the payload
// is not a ZIP archive or the package lacks word/document.xml.
func Extract(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open DOCX package: %v", err)
	}

	var part *zip.File
	for _, f := range reader.File {
		if f.Name == documentPart {
			part = f
			break
		}
	}
	if part == nil {
		return "", fmt.Errorf("document body %s not found in package", documentPart)
	}

	rc, err := part.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open document body: %v", err)
	}
	defer rc.Close()

	fragments, err := collectTextRuns(rc)
	if err != nil {
		return "", fmt.Errorf("failed to parse document body: %v", err)
	}

	return normalize(strings.Join(fragments, " ")), nil
}

// collectTextRuns walks the document XML depth-first and gathers the
// character content of every w:t element in document order.
func collectTextRuns(r io.Reader) ([]string, error) {
	decoder := xml.NewDecoder(r)

	var fragments []string
	inTextRun := 0

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == "t" {
				inTextRun++
			}
		case xml.EndElement:
			if el.Name.Local == "t" && inTextRun > 0 {
				inTextRun--
			}
		case xml.CharData:
			if inTextRun > 0 {
				fragments = append(fragments, string(el))
			}
		}
	}

	return fragments, nil
}

// normalize collapses runs of horizontal whitespace to a single space, strips
// trailing whitespace before newlines, and trims the result.
func normalize(text string) string {
	text = horizontalWS.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, " \n", "\n")
	return strings.TrimSpace(text)
}
