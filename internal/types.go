package internal

import (
	"bytes"
	"encoding/json"
)

// BomItem is one material line extracted from a drawing. Every string field
// is always present (possibly empty), never absent. Length holds a float64
// when the source text was a clean number, otherwise the original string.
type BomItem struct {
	DrawingNumber string `json:"drawingNumber"`
	ItemNo        string `json:"itemNo"`
	Name          string `json:"name"`
	Size          string `json:"size"`
	Length        any    `json:"length"`
	Unit          string `json:"unit"`
	ModelType     string `json:"modelType"`
	Description   string `json:"description"`
	Material      string `json:"material"`
	Standard      string `json:"standard"`
	Quantity      int    `json:"quantity"`
	Remarks       string `json:"remarks"`
}

// AnalyzedFile is the result of processing one source document. BomItems keep
// extraction order; a document holding several drawings is not regrouped.
type AnalyzedFile struct {
	FileName string
	BomItems []BomItem
}

// FlexString decodes a JSON string, number or null into a string. The
// response schema asks for strings only, but the model occasionally returns
// bare numbers for numeric-looking cells.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(b)
	return nil
}

// RawRecord is one unvalidated candidate row as returned by the inference
// capability, before normalization.
type RawRecord struct {
	DrawingNumber FlexString `json:"drawingNumber"`
	ItemNo        FlexString `json:"itemNo"`
	Name          FlexString `json:"name"`
	Size          FlexString `json:"size"`
	Length        FlexString `json:"length"`
	Unit          FlexString `json:"unit"`
	ModelType     FlexString `json:"modelType"`
	Description   FlexString `json:"description"`
	Material      FlexString `json:"material"`
	Standard      FlexString `json:"standard"`
	Quantity      FlexString `json:"quantity"`
	Remarks       FlexString `json:"remarks"`
}

// PageUnit is one independently transmittable slice of a source document:
// a single-page PDF, or the whole image.
type PageUnit struct {
	MIMEType string
	Data     []byte
}

type RunRow struct {
	ID         int
	RunID      string
	TotalFiles int
	Succeeded  int
	Failed     int
	Warned     int
	DurationMs float64
	CreatedAt  string
}

type DocumentRow struct {
	ID        int
	RunID     string
	FileName  string
	Status    string
	ItemCount int
	Error     string
	ItemsJSON string
	CreatedAt string
}
