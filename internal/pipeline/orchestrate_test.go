package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"drawbom/internal"
	"drawbom/internal/segment"
)

type clientFunc func(ctx context.Context, prompt string, schema map[string]any, units []internal.PageUnit) ([]byte, error)

func (f clientFunc) GenerateJSON(ctx context.Context, prompt string, schema map[string]any, units []internal.PageUnit) ([]byte, error) {
	return f(ctx, prompt, schema, units)
}

const sampleRecordJSON = `{
  "drawingNumber": "A1-100",
  "itemNo": "1",
  "name": "PIPE",
  "size": "2\"",
  "length": "120.",
  "unit": "mm",
  "modelType": "SCRE",
  "description": "both ends",
  "material": "CS",
  "standard": "ASTM A106",
  "quantity": "3",
  "remarks": ""
}`

func TestDecodeRecordsArray(t *testing.T) {
	p := NewProcessor(nil, nil, nil)
	records, err := p.decodeRecords("a.pdf", []byte("["+sampleRecordJSON+","+sampleRecordJSON+"]"))
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("records=%d", len(records))
	}
	if string(records[0].DrawingNumber) != "A1-100" || string(records[1].Quantity) != "3" {
		t.Fatalf("fields lost: %+v", records[0])
	}
}

func TestDecodeRecordsSingleObjectRecovery(t *testing.T) {
	p := NewProcessor(nil, nil, nil)
	records, err := p.decodeRecords("a.pdf", []byte(sampleRecordJSON))
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || string(records[0].Name) != "PIPE" {
		t.Fatalf("records=%+v", records)
	}
}

func TestDecodeRecordsFenced(t *testing.T) {
	p := NewProcessor(nil, nil, nil)
	fenced := "```json\n[" + sampleRecordJSON + "]\n```"
	records, err := p.decodeRecords("a.pdf", []byte(fenced))
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("records=%d", len(records))
	}
}

func TestDecodeRecordsMalformed(t *testing.T) {
	p := NewProcessor(nil, nil, nil)
	_, err := p.decodeRecords("a.pdf", []byte("sorry, I could not read the drawing"))
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("err=%v", err)
	}
}

func TestDecodeRecordsSchemaViolation(t *testing.T) {
	p := NewProcessor(nil, nil, nil)
	_, err := p.decodeRecords("a.pdf", []byte(`[{"drawingNumber":"A1-100"}]`))
	if err == nil || errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("err=%v", err)
	}
	if !strings.Contains(err.Error(), "schema validation failed") {
		t.Fatalf("err=%v", err)
	}
}

func TestProcessFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drawing.png")
	if err := os.WriteFile(path, []byte("not-a-real-png"), 0o644); err != nil {
		t.Fatal(err)
	}

	var gotUnits int
	client := clientFunc(func(_ context.Context, prompt string, schema map[string]any, units []internal.PageUnit) ([]byte, error) {
		gotUnits = len(units)
		if prompt == "" || schema == nil {
			t.Fatal("prompt/schema not forwarded")
		}
		return []byte("[" + sampleRecordJSON + "]"), nil
	})

	p := NewProcessor(segment.NewSegmenter(0), client, nil)
	result, err := p.ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if result.FileName != "drawing.png" || gotUnits != 1 {
		t.Fatalf("fileName=%q units=%d", result.FileName, gotUnits)
	}
	if len(result.BomItems) != 1 {
		t.Fatalf("items=%d", len(result.BomItems))
	}

	item := result.BomItems[0]
	if item.Length != 120.0 {
		t.Fatalf("length=%v", item.Length)
	}
	if item.Quantity != 3 {
		t.Fatalf("quantity=%d", item.Quantity)
	}
	if item.ModelType != "" || item.Description != "SCRE both ends" {
		t.Fatalf("modelType=%q description=%q", item.ModelType, item.Description)
	}
}

func TestProcessFileInferenceFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drawing.png")
	if err := os.WriteFile(path, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}

	client := clientFunc(func(context.Context, string, map[string]any, []internal.PageUnit) ([]byte, error) {
		return nil, errors.New("gemini status 503")
	})

	p := NewProcessor(segment.NewSegmenter(0), client, nil)
	_, err := p.ProcessFile(context.Background(), path)
	if err == nil || !strings.Contains(err.Error(), "inference call") {
		t.Fatalf("err=%v", err)
	}
}
