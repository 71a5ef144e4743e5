package pipeline

import (
	"strings"

	"drawbom/internal"
	"drawbom/internal/util"
)

// NormalizeRecords turns raw candidate records into validated BOM items,
// one item per record. This stage never drops or merges records.
func NormalizeRecords(records []internal.RawRecord) []internal.BomItem {
	out := make([]internal.BomItem, 0, len(records))
	for _, r := range records {
		out = append(out, NormalizeRecord(r))
	}
	return out
}

// NormalizeRecord coerces one raw record into a BomItem and applies the
// field-cleaning rules.
func NormalizeRecord(r internal.RawRecord) internal.BomItem {
	item := internal.BomItem{
		DrawingNumber: trimmed(r.DrawingNumber),
		ItemNo:        trimmed(r.ItemNo),
		Name:          trimmed(r.Name),
		Size:          trimmed(r.Size),
		Length:        trimmed(r.Length),
		Unit:          trimmed(r.Unit),
		ModelType:     trimmed(r.ModelType),
		Description:   trimmed(r.Description),
		Material:      trimmed(r.Material),
		Standard:      trimmed(r.Standard),
		Quantity:      util.ParseQuantity(string(r.Quantity)),
		Remarks:       trimmed(r.Remarks),
	}
	return CleanItem(item)
}

// CleanItem applies the ordered cleaning rules to one item. The rules are
// pure and total; applying CleanItem twice yields the same item.
func CleanItem(item internal.BomItem) internal.BomItem {
	item.Length = coerceLength(item.Length)

	// "HEX" is always written "HEX." on the drawings.
	if strings.EqualFold(item.ModelType, "HEX") {
		item.ModelType = "HEX."
	}

	// Thread designations belong in the description, not in modelType.
	upper := strings.ToUpper(item.ModelType)
	if upper == "SCRE" || upper == "SCRD" {
		if !strings.Contains(strings.ToUpper(item.Description), upper) {
			item.Description = util.JoinNonEmpty(item.ModelType, item.Description)
		}
		item.ModelType = ""
	}

	// A modelType holding several words keeps only the first; the rest moves
	// to the description. "MACH'N ..." phrases are a protected exception.
	if tokens := strings.Fields(item.ModelType); len(tokens) > 1 {
		if !strings.HasPrefix(canonicalToken(item.ModelType), "MACHN") {
			item.ModelType = tokens[0]
			item.Description = util.JoinNonEmpty(item.Description, strings.Join(tokens[1:], " "))
		}
	}

	return item
}

// coerceLength stores a clean number as float64 and anything else as the
// trimmed original text. A single trailing dot is treated as print noise.
func coerceLength(v any) any {
	text, ok := v.(string)
	if !ok {
		if v == nil {
			return ""
		}
		return v
	}
	trimmed := strings.TrimSpace(text)
	if parsed, ok := util.ParseNumber(strings.TrimSuffix(trimmed, ".")); ok {
		return parsed
	}
	return trimmed
}

func canonicalToken(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\'', '’', ' ', '\t':
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}

func trimmed(v internal.FlexString) string {
	return strings.TrimSpace(string(v))
}
