package pdfvalidation

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Limits bounds an uploaded PDF
type Limits struct {
	MaxFileSizeMB int
	MaxPages      int
	Label         string // used in messages, e.g. "submission"
}

// SubmissionLimits applies to assignment attachments
var SubmissionLimits = Limits{MaxFileSizeMB: 10, MaxPages: 100, Label: "submission"}

// Result is the outcome of a validation. Reason is set when Valid is false.
type Result struct {
	Valid     bool
	PageCount int
	FileSize  int64
	Reason    string
}

// ReadUpload reads a multipart upload into memory, rejecting non-PDF names and oversize files
// before any bytes are read
func ReadUpload(file *multipart.FileHeader, limits Limits) ([]byte, *Result, error) {
	res := &Result{FileSize: file.Size}
	if file.Size > limits.maxBytes() {
		res.Reason = fmt.Sprintf("File size exceeds maximum allowed size of %dMB", limits.MaxFileSizeMB)
		return nil, res, nil
	}
	if !strings.HasSuffix(strings.ToLower(file.Filename), ".pdf") {
		res.Reason = "Only PDF files are supported"
		return nil, res, nil
	}

	f, err := file.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return content, Validate(content, limits), nil
}

// Validate checks PDF bytes against limits
func Validate(content []byte, limits Limits) *Result {
	res := &Result{FileSize: int64(len(content))}

	if res.FileSize > limits.maxBytes() {
		res.Reason = fmt.Sprintf("File size exceeds maximum allowed size of %dMB", limits.MaxFileSizeMB)
		return res
	}
	if !bytes.HasPrefix(content, []byte("%PDF-")) {
		res.Reason = "Invalid PDF file: missing PDF header"
		return res
	}

	pages, err := PageCount(content)
	if err != nil {
		res.Reason = fmt.Sprintf("Failed to read PDF: %v", err)
		return res
	}
	res.PageCount = pages

	switch {
	case pages == 0:
		res.Reason = "PDF has no pages"
	case limits.MaxPages > 0 && pages > limits.MaxPages:
		res.Reason = fmt.Sprintf("PDF has %d pages, which exceeds the maximum of %d pages for a %s",
			pages, limits.MaxPages, limits.Label)
	default:
		res.Valid = true
	}
	return res
}

// PageCount returns the number of pages in a PDF
func PageCount(content []byte) (int, error) {
	content = trimTrailing(content)
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return 0, fmt.Errorf("failed to parse PDF: %w", err)
	}
	return r.NumPage(), nil
}

// trimTrailing drops bytes after the last %%EOF marker, which some scanners append
func trimTrailing(content []byte) []byte {
	marker := []byte("%%EOF")
	last := bytes.LastIndex(content, marker)
	if last == -1 {
		return content
	}
	end := last + len(marker)
	for end < len(content) && (content[end] == '\n' || content[end] == '\r') {
		end++
	}
	return content[:end]
}

func (l Limits) maxBytes() int64 {
	return int64(l.MaxFileSizeMB) * 1024 * 1024
}
