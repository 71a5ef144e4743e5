package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"drawbom/internal"
	"drawbom/internal/inference"
	"drawbom/internal/segment"
)

// ErrMalformedResponse marks an inference answer that cannot be parsed as
// JSON at all.
var ErrMalformedResponse = errors.New("malformed inference response")

// InferenceClient is the external inference capability: given a prompt, an
// output schema and the page payloads of one document, return a JSON answer.
type InferenceClient interface {
	GenerateJSON(ctx context.Context, prompt string, schema map[string]any, units []internal.PageUnit) ([]byte, error)
}

// Processor runs the full per-document pipeline: segmentation, one
// consolidated inference call, response decoding, normalization.
type Processor struct {
	seg    *segment.Segmenter
	client InferenceClient
	log    *zap.Logger
}

func NewProcessor(seg *segment.Segmenter, client InferenceClient, log *zap.Logger) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{seg: seg, client: client, log: log}
}

// ProcessFile analyzes one source document. The inference capability is
// invoked exactly once, with every page payload attached; the prompt makes
// the model stamp each record with the drawing number of its own page.
func (p *Processor) ProcessFile(ctx context.Context, path string) (internal.AnalyzedFile, error) {
	fileName := filepath.Base(path)
	result := internal.AnalyzedFile{FileName: fileName}

	units, err := p.seg.Split(path)
	if err != nil {
		return result, err
	}

	payload, err := p.client.GenerateJSON(ctx, inference.ExtractionPrompt, inference.BuildResponseSchema(), units)
	if err != nil {
		return result, fmt.Errorf("inference call: %w", err)
	}

	records, err := p.decodeRecords(fileName, payload)
	if err != nil {
		return result, err
	}

	result.BomItems = NormalizeRecords(records)
	return result, nil
}

// decodeRecords parses the answer body into raw candidate records. A single
// JSON object is wrapped into a one-element array rather than rejected.
func (p *Processor) decodeRecords(fileName string, payload []byte) ([]internal.RawRecord, error) {
	body := stripFences(payload)

	var arr []json.RawMessage
	if err := json.Unmarshal(body, &arr); err != nil {
		var obj map[string]json.RawMessage
		if objErr := json.Unmarshal(body, &obj); objErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		p.log.Warn("inference.response.single_object_wrapped", zap.String("file", fileName))
		arr = []json.RawMessage{json.RawMessage(body)}
	}

	canonical, err := json.Marshal(arr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := inference.ValidateRecords(canonical); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	var records []internal.RawRecord
	if err := json.Unmarshal(canonical, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return records, nil
}

func stripFences(payload []byte) []byte {
	s := strings.TrimSpace(string(payload))
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	return []byte(s)
}
