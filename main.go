package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/insightdelivered/audit-report-converter/internal/api"
	"github.com/insightdelivered/audit-report-converter/internal/config"
	"github.com/insightdelivered/audit-report-converter/internal/logger"
	"github.com/insightdelivered/audit-report-converter/internal/models"
	"github.com/insightdelivered/audit-report-converter/internal/parser"
	"github.com/insightdelivered/audit-report-converter/internal/queue"
	"github.com/insightdelivered/audit-report-converter/internal/writer"
)

const version = "1.0.0"

func main() {
	familyFlag := flag.String("family", "", "Report family: trr, stl, sar (detected from the file name if omitted)")
	outputFlag := flag.String("output", "", "Output file path (defaults to input filename with the format's extension)")
	formatFlag := flag.String("format", "csv", "Output format: csv or jsonl")
	configFlag := flag.String("config", "", "Path to a YAML processor configuration overriding the defaults")
	splitFlag := flag.Bool("split", false, "Write one output file per delivery topic instead of a single file")
	headerFlag := flag.Bool("header", true, "Include the column header row in CSV output")
	logLevelFlag := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	serveFlag := flag.Bool("serve", false, "Run the HTTP API instead of converting files")
	addrFlag := flag.String("addr", ":8080", "Listen address for -serve")
	versionFlag := flag.Bool("version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Audit Report Converter

Normalizes payment-processor settlement and audit report files
(Transaction Detail, Settlement, Subscription Agreement) into
transaction messages for downstream accounting pipelines.

Usage:
  audit-report-converter [flags] <report1.csv> [report2.csv.gz ...]
  audit-report-converter -serve [-addr :8080]

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Detect family from file name prefix and convert
  audit-report-converter TRR-20260106.csv

  # Settlement report, JSON lines output
  audit-report-converter -family=stl -format=jsonl STL-20260106.csv.gz

  # One output file per delivery topic (donation, refund, ...)
  audit-report-converter -split TRR-20170302.csv

  # Run the upload API
  audit-report-converter -serve -addr :9000

Report families:
  trr   - Transaction Detail Report (per-event rows)
  stl   - Settlement Report (netted totals plus per-currency aggregates)
  sar   - Subscription Agreement Report (recurring lifecycle)
`)
	}

	flag.Parse()
	logger.SetLevel(*logLevelFlag)

	if *versionFlag {
		fmt.Printf("audit-report-converter v%s\n", version)
		os.Exit(0)
	}

	cfg := config.Default()
	if *configFlag != "" {
		loaded, err := config.Load(*configFlag)
		if err != nil {
			fatalf("Error loading config: %v\n", err)
		}
		cfg = loaded
	}

	if *serveFlag {
		app := api.NewApp()
		fmt.Printf("Listening on %s\n", *addrFlag)
		if err := app.Listen(*addrFlag); err != nil {
			fatalf("Server error: %v\n", err)
		}
		return
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	var family models.Family
	if *familyFlag != "" {
		switch strings.ToLower(*familyFlag) {
		case "trr":
			family = models.FamilyTransactionDetail
		case "stl":
			family = models.FamilySettlement
		case "sar":
			family = models.FamilySubscription
		default:
			fatalf("Unknown report family %q. Supported: trr, stl, sar\n", *familyFlag)
		}
	}

	for _, inputPath := range flag.Args() {
		if err := processFile(inputPath, family, cfg, *outputFlag, *formatFlag, *headerFlag, *splitFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error processing %s: %v\n", inputPath, err)
			os.Exit(1)
		}
	}
}

func processFile(inputPath string, family models.Family, cfg *config.Config, outputPath, format string, includeHeader, split bool) error {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", inputPath)
	}

	effectiveFamily := family
	if effectiveFamily == "" {
		detected, err := parser.DetectFamily(inputPath)
		if err != nil {
			return err
		}
		effectiveFamily = detected
		fmt.Printf("  Detected report family: %s\n", effectiveFamily)
	}

	fmt.Printf("Processing: %s\n", inputPath)

	messages, err := parser.ParseFileWithConfig(inputPath, effectiveFamily, cfg)
	if err != nil {
		return fmt.Errorf("parsing failed: %w", err)
	}

	fmt.Printf("  Found %d message(s)\n", len(messages))

	base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
	base = strings.TrimSuffix(base, ".csv") // for .csv.gz inputs
	if outputPath != "" {
		base = strings.TrimSuffix(outputPath, "."+format)
	}

	if split {
		byTopic, err := queue.Route(context.Background(), messages)
		if err != nil {
			return fmt.Errorf("routing messages failed: %w", err)
		}
		for _, topic := range queue.Topics {
			msgs := byTopic[topic]
			if len(msgs) == 0 {
				continue
			}
			outPath := base + "." + topic + "." + format
			if err := writeMessages(outPath, format, includeHeader, msgs); err != nil {
				return err
			}
			fmt.Printf("  Output: %s (%d message(s))\n", outPath, len(msgs))
		}
		return nil
	}

	outPath := base + "." + format
	if err := writeMessages(outPath, format, includeHeader, messages); err != nil {
		return err
	}
	fmt.Printf("  Output: %s\n", outPath)
	return nil
}

func writeMessages(outPath, format string, includeHeader bool, messages []models.Message) error {
	switch format {
	case "csv":
		w := &writer.CSVWriter{IncludeHeader: includeHeader}
		if err := w.WriteToFile(outPath, messages); err != nil {
			return fmt.Errorf("CSV write failed: %w", err)
		}
	case "jsonl":
		w := &writer.JSONLWriter{}
		if err := w.WriteToFile(outPath, messages); err != nil {
			return fmt.Errorf("JSONL write failed: %w", err)
		}
	default:
		return fmt.Errorf("unknown output format %q (use csv or jsonl)", format)
	}
	return nil
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
