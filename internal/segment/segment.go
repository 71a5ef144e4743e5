package segment

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	pdfreader "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"drawbom/internal"
)

type MediaKind string

const (
	KindPDF   MediaKind = "pdf"
	KindImage MediaKind = "image"
)

const DefaultMaxPages = 20

var (
	ErrUnsupportedMediaKind = errors.New("unsupported media kind")
	ErrDocumentUnreadable   = errors.New("document unreadable")
)

// PageLimitError rejects paginated documents above the page cap before any
// inference call is attempted.
type PageLimitError struct {
	Pages int
	Limit int
}

func (e *PageLimitError) Error() string {
	return fmt.Sprintf("page count %d exceeds limit %d", e.Pages, e.Limit)
}

// DetectMediaKind classifies a source document by its file extension.
func DetectMediaKind(path string) (MediaKind, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return KindPDF, nil
	case ".png", ".jpg", ".jpeg", ".webp":
		return KindImage, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMediaKind, ext)
	}
}

func imageMIME(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

type Segmenter struct {
	maxPages int
	pdfConf  *model.Configuration
}

func NewSegmenter(maxPages int) *Segmenter {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &Segmenter{maxPages: maxPages, pdfConf: model.NewDefaultConfiguration()}
}

// Split produces the ordered page units for one source document: one
// single-page sub-PDF per page of a PDF, or exactly one unit carrying the raw
// bytes of a flat image. PDF pages are copied into fresh sub-documents, never
// rendered, so vector content survives.
func (s *Segmenter) Split(path string) ([]internal.PageUnit, error) {
	kind, err := DetectMediaKind(path)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	if kind == KindImage {
		return []internal.PageUnit{{MIMEType: imageMIME(path), Data: raw}}, nil
	}
	return s.splitPDF(raw)
}

func (s *Segmenter) splitPDF(raw []byte) ([]internal.PageUnit, error) {
	reader, err := pdfreader.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocumentUnreadable, err)
	}

	pages := reader.NumPage()
	if pages == 0 {
		return nil, fmt.Errorf("%w: no pages", ErrDocumentUnreadable)
	}
	if pages > s.maxPages {
		return nil, &PageLimitError{Pages: pages, Limit: s.maxPages}
	}

	units := make([]internal.PageUnit, 0, pages)
	for page := 1; page <= pages; page++ {
		var buf bytes.Buffer
		if err := api.Trim(bytes.NewReader(raw), &buf, []string{strconv.Itoa(page)}, s.pdfConf); err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrDocumentUnreadable, page, err)
		}
		units = append(units, internal.PageUnit{MIMEType: "application/pdf", Data: buf.Bytes()})
	}
	return units, nil
}
