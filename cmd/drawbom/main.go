package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"drawbom/internal/config"
	"drawbom/internal/inference"
	"drawbom/internal/pipeline"
	"drawbom/internal/segment"
	"drawbom/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "batch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		separate := fs.Bool("separate", false, "one table per document, zipped")
		concurrency := fs.Int("concurrency", cfg.BatchConcurrency, "documents per group")
		_ = fs.Parse(os.Args[2:])

		args := fs.Args()
		if len(args) < 1 {
			must(fmt.Errorf("input directory is required"))
		}
		input := args[0]
		output := cfg.OutputDir
		if len(args) > 1 {
			output = args[1]
		}
		logPath := ""
		if len(args) > 2 {
			logPath = args[2]
		}
		must(cfg.Require("GEMINI_API_KEY", cfg.GeminiAPIKey))

		paths, err := listDocuments(input)
		must(err)
		if len(paths) == 0 {
			must(fmt.Errorf("no supported documents in %s", input))
		}

		log, err := newLogger(logPath)
		must(err)
		activeLog = log
		defer func() { _ = log.Sync() }()

		db, err := storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()

		proc := pipeline.NewProcessor(
			segment.NewSegmenter(cfg.MaxPagesPerDoc),
			inference.NewClient(cfg, log),
			log,
		)
		driver := pipeline.NewDriver(proc, db, log, *concurrency)
		driver.SetProgress(func(done, total int, fileName string) {
			fmt.Printf("[%d/%d] %s\n", done, total, fileName)
		})

		files, report := driver.Run(context.Background(), paths)

		var outPath string
		if *separate {
			outPath, err = pipeline.ExportSeparate(files, output)
		} else {
			outPath, err = pipeline.ExportCombined(files, output)
		}
		must(err)

		fmt.Print(report.Summary())
		if outPath == "" {
			fmt.Println("no BOM items extracted, nothing exported")
			return
		}
		fmt.Printf("exported %s\n", outPath)
	case "run":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "source document path")
		output := fs.String("output", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" || strings.TrimSpace(*output) == "" {
			must(fmt.Errorf("--input and --output are required"))
		}
		must(cfg.Require("GEMINI_API_KEY", cfg.GeminiAPIKey))

		log, err := newLogger("")
		must(err)
		activeLog = log
		defer func() { _ = log.Sync() }()

		proc := pipeline.NewProcessor(
			segment.NewSegmenter(cfg.MaxPagesPerDoc),
			inference.NewClient(cfg, log),
			log,
		)
		result, err := proc.ProcessFile(context.Background(), *input)
		must(err)
		if len(result.BomItems) == 0 {
			must(fmt.Errorf("no BOM items extracted from %s", result.FileName))
		}
		must(pipeline.ExportItemsToXLSX(result.BomItems, *output))
		fmt.Printf("run done items=%d output=%s\n", len(result.BomItems), *output)
	case "runs":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		limit := fs.Int("limit", 20, "max runs to list")
		_ = fs.Parse(os.Args[2:])

		db, err := storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()

		runs, err := db.ListRuns(*limit)
		must(err)
		for _, r := range runs {
			fmt.Printf("%s  total=%d ok=%d failed=%d warned=%d duration_ms=%.0f  %s\n",
				r.RunID, r.TotalFiles, r.Succeeded, r.Failed, r.Warned, r.DurationMs, r.CreatedAt)
		}
	default:
		usage()
		os.Exit(1)
	}
}

// listDocuments collects the supported documents of a directory, sorted by
// name so a batch is deterministic across invocations.
func listDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, err := segment.DetectMediaKind(entry.Name()); err != nil {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func newLogger(logPath string) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.OutputPaths = []string{"stderr"}
	if strings.TrimSpace(logPath) != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
			return nil, err
		}
		zc.OutputPaths = append(zc.OutputPaths, logPath)
	}
	return zc.Build()
}

func usage() {
	fmt.Println("usage: drawbom <command>")
	fmt.Println("commands:")
	fmt.Println("  batch [--separate] [--concurrency=5] <input-dir> [output-dir] [log-file]")
	fmt.Println("  run --input=./drawing.pdf --output=./out/bom.xlsx")
	fmt.Println("  runs [--limit=20]")
}

// activeLog is flushed by must() before exiting: os.Exit skips the deferred
// Sync, and the batch log file must be complete on error paths too.
var activeLog *zap.Logger

func must(err error) {
	if err == nil {
		return
	}
	if activeLog != nil {
		_ = activeLog.Sync()
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
