package inference

// FieldOrder is the canonical column order of one extracted BOM record.
var FieldOrder = []string{
	"drawingNumber", "itemNo", "name", "size", "length", "unit",
	"modelType", "description", "material", "standard", "quantity", "remarks",
}

// ExtractionPrompt is the single instruction set shared by the interactive
// and batch paths. Keep edits in sync with the normalization rules: the
// model applies the abbreviation conventions best-effort, the normalization
// engine enforces them.
const ExtractionPrompt = `You are given every page of one scanned technical drawing document. Extract the complete Bill of Materials (BOM) as a JSON array of records, one record per material line.

Rules:
- A document may contain several distinct drawings. Each drawing carries its own drawing-number stamp in its title block. Assign every record the drawing number of the page it appears on. Never copy a drawing number from a neighboring drawing or page.
- Ignore revision markers (e.g. "Rev. A", "R2") entirely. Never append a revision marker to the drawing number.
- If a cell is absent or unreadable, return an empty string for that field. Never infer a value from sibling rows and never return null.
- Skip summary, subtotal and title rows; return only real material lines. Do not emit the same line twice.
- "length" and "quantity" must be returned as strings, exactly as printed.
- Known conventions where legible: "HEX" is written "HEX."; thread designations "SCRE"/"SCRD" belong in the description, not in modelType; a modelType holding several words keeps only the first word, the rest moves to the description ("MACH'N" phrases stay intact).

Return ONLY the JSON array. Every record must contain exactly these fields: drawingNumber, itemNo, name, size, length, unit, modelType, description, material, standard, quantity, remarks.`

// BuildResponseSchema is the strict all-strings schema sent with the request
// as a structured output constraint.
func BuildResponseSchema() map[string]any {
	props := map[string]any{}
	for _, field := range FieldOrder {
		props[field] = map[string]any{"type": "string"}
	}
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":       "object",
			"properties": props,
			"required":   append([]string(nil), FieldOrder...),
		},
	}
}

// BuildValidationSchema is the lenient variant used to re-validate the model
// output locally: every field may come back as string or number, but all 12
// keys must be present on every record.
func BuildValidationSchema() map[string]any {
	props := map[string]any{}
	for _, field := range FieldOrder {
		props[field] = map[string]any{"type": []string{"string", "number"}}
	}
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":       "object",
			"properties": props,
			"required":   append([]string(nil), FieldOrder...),
		},
	}
}
