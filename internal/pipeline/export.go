package pipeline

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"drawbom/internal"
)

const (
	SheetName        = "BOM"
	CombinedBaseName = "bom_combined"
	ArchiveName      = "bom_tables.zip"
)

// ExportHeaders is the fixed column order of every exported table.
var ExportHeaders = []string{
	"Drawing Number", "Item No", "Name", "Size", "Length", "Unit",
	"Model/Type", "Description", "Material", "Standard", "Quantity", "Remarks",
}

// ContributingFiles keeps only documents that yielded at least one item.
func ContributingFiles(files []internal.AnalyzedFile) []internal.AnalyzedFile {
	out := make([]internal.AnalyzedFile, 0, len(files))
	for _, f := range files {
		if len(f.BomItems) > 0 {
			out = append(out, f)
		}
	}
	return out
}

// CombinedName derives the combined workbook name: the sole contributor's
// base name when exactly one document contributed records, else the generic
// combined name.
func CombinedName(files []internal.AnalyzedFile) string {
	contributors := ContributingFiles(files)
	if len(contributors) == 1 {
		return baseName(contributors[0].FileName) + ".xlsx"
	}
	return CombinedBaseName + ".xlsx"
}

func baseName(fileName string) string {
	return strings.TrimSuffix(fileName, filepath.Ext(fileName))
}

// ExportItemsToXLSX writes one workbook with the fixed header row.
func ExportItemsToXLSX(items []internal.BomItem, outputPath string) error {
	f, err := buildWorkbook(items)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

// ExportCombined concatenates every contributing document's items, in
// document order then extraction order, into one workbook. Returns the
// written path, or "" when no document contributed records.
func ExportCombined(files []internal.AnalyzedFile, outDir string) (string, error) {
	contributors := ContributingFiles(files)
	if len(contributors) == 0 {
		return "", nil
	}

	items := make([]internal.BomItem, 0)
	for _, f := range contributors {
		items = append(items, f.BomItems...)
	}

	outputPath := filepath.Join(outDir, CombinedName(files))
	if err := ExportItemsToXLSX(items, outputPath); err != nil {
		return "", err
	}
	return outputPath, nil
}

// ExportSeparate writes one workbook per contributing document, packaged
// together into a single zip archive. Returns the archive path, or "" when
// no document contributed records.
func ExportSeparate(files []internal.AnalyzedFile, outDir string) (string, error) {
	contributors := ContributingFiles(files)
	if len(contributors) == 0 {
		return "", nil
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	outputPath := filepath.Join(outDir, ArchiveName)
	archive, err := os.Create(outputPath)
	if err != nil {
		return "", err
	}

	zw := zip.NewWriter(archive)
	for _, f := range contributors {
		wb, err := buildWorkbook(f.BomItems)
		if err != nil {
			_ = zw.Close()
			_ = archive.Close()
			return "", err
		}
		entry, err := zw.Create(baseName(f.FileName) + ".xlsx")
		if err != nil {
			_ = zw.Close()
			_ = archive.Close()
			return "", err
		}
		if _, err := wb.WriteTo(entry); err != nil {
			_ = zw.Close()
			_ = archive.Close()
			return "", fmt.Errorf("write %s: %w", f.FileName, err)
		}
	}
	if err := zw.Close(); err != nil {
		_ = archive.Close()
		return "", err
	}
	return outputPath, archive.Close()
}

func buildWorkbook(items []internal.BomItem) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	if err := f.SetSheetName(sheet, SheetName); err != nil {
		return nil, err
	}

	for i, h := range ExportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}

	for i, item := range items {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(SheetName, cell, value)
		}

		set(1, item.DrawingNumber)
		set(2, item.ItemNo)
		set(3, item.Name)
		set(4, item.Size)
		set(5, item.Length)
		set(6, item.Unit)
		set(7, item.ModelType)
		set(8, item.Description)
		set(9, item.Material)
		set(10, item.Standard)
		set(11, item.Quantity)
		set(12, item.Remarks)
	}

	return f, nil
}
