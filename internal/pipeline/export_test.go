package pipeline

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"drawbom/internal"
)

func analyzed(fileName string, n int) internal.AnalyzedFile {
	items := make([]internal.BomItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, internal.BomItem{
			DrawingNumber: "D-" + fileName,
			ItemNo:        fmt.Sprintf("%d", i+1),
			Name:          "BOLT",
			Length:        float64(40),
			Quantity:      2,
		})
	}
	return internal.AnalyzedFile{FileName: fileName, BomItems: items}
}

func TestCombinedName(t *testing.T) {
	one := []internal.AnalyzedFile{analyzed("alpha.pdf", 4), {FileName: "empty.pdf"}}
	if got := CombinedName(one); got != "alpha.xlsx" {
		t.Fatalf("got %q", got)
	}

	two := []internal.AnalyzedFile{analyzed("alpha.pdf", 2), analyzed("beta.png", 3)}
	if got := CombinedName(two); got != "bom_combined.xlsx" {
		t.Fatalf("got %q", got)
	}
}

func TestExportCombinedSingleContributor(t *testing.T) {
	tmp := t.TempDir()
	path, err := ExportCombined([]internal.AnalyzedFile{analyzed("alpha.pdf", 4)}, tmp)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "alpha.xlsx" {
		t.Fatalf("path=%s", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 5 {
		t.Fatalf("rows=%d", len(rows))
	}
	for i, h := range ExportHeaders {
		if rows[0][i] != h {
			t.Fatalf("header %d: got %q want %q", i, rows[0][i], h)
		}
	}
}

func TestExportCombinedTwoContributors(t *testing.T) {
	tmp := t.TempDir()
	files := []internal.AnalyzedFile{analyzed("alpha.pdf", 2), analyzed("beta.png", 3)}
	path, err := ExportCombined(files, tmp)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "bom_combined.xlsx" {
		t.Fatalf("path=%s", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 6 {
		t.Fatalf("rows=%d", len(rows))
	}
	if rows[1][0] != "D-alpha.pdf" || rows[3][0] != "D-beta.png" {
		t.Fatalf("document order lost: %v / %v", rows[1], rows[3])
	}
}

func TestExportSeparate(t *testing.T) {
	tmp := t.TempDir()
	files := []internal.AnalyzedFile{analyzed("alpha.pdf", 2), {FileName: "empty.pdf"}, analyzed("beta.png", 1)}
	path, err := ExportSeparate(files, tmp)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != ArchiveName {
		t.Fatalf("path=%s", path)
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()
	names := map[string]bool{}
	for _, entry := range zr.File {
		names[entry.Name] = true
	}
	if len(names) != 2 || !names["alpha.xlsx"] || !names["beta.xlsx"] {
		t.Fatalf("entries=%v", names)
	}
}

func TestExportNothingToWrite(t *testing.T) {
	tmp := t.TempDir()
	files := []internal.AnalyzedFile{{FileName: "empty.pdf"}}

	path, err := ExportCombined(files, tmp)
	if err != nil || path != "" {
		t.Fatalf("combined: path=%q err=%v", path, err)
	}
	path, err = ExportSeparate(files, tmp)
	if err != nil || path != "" {
		t.Fatalf("separate: path=%q err=%v", path, err)
	}

	entries, err := os.ReadDir(tmp)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("unexpected output: %v", entries)
	}
}
