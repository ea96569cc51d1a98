package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"omnigrade/internal"
	"omnigrade/internal/config"
	"omnigrade/internal/connectors"
	gmailconnector "omnigrade/internal/connectors/gmail"
	imapconnector "omnigrade/internal/connectors/imap"
	"omnigrade/internal/courses"
	"omnigrade/internal/credits"
	"omnigrade/internal/ingest"
	"omnigrade/internal/listener"
	"omnigrade/internal/pipeline"
	"omnigrade/internal/rscore"
	"omnigrade/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd := os.Args[1]
	switch cmd {
	case "parse":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "file path or - for stdin")
		inType := fs.String("type", "", "image|html|pdf|text (default: detect)")
		debug := fs.Bool("debug", false, "print extraction trace")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		name, content, err := readInput(*input)
		must(err)
		if *input == "-" && *inType == "" {
			*inType = string(internal.SourceText)
		}

		var matcher *credits.Matcher
		mappings, _, err := credits.LoadPaths(cfg.CreditsMapPaths)
		must(err)
		if len(mappings) > 0 {
			matcher = credits.NewMatcher(cfg, mappings)
		}

		reader := ingest.Reader{Engine: pipeline.NewOCREngine(cfg, logger)}
		rows, trace, err := pipeline.ParseInput(ctx, reader, *inType, name, content, matcher)
		must(err)
		out := map[string]any{"rows": rows, "rscore": rscore.Compute(rows, rscore.OffsetsFromConfig(cfg))}
		if *debug {
			out["trace"] = trace
		}
		printJSON(out)
	case "diagnose":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "file path or - for stdin")
		inType := fs.String("type", "", "image|html|pdf|text (default: detect)")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		name, content, err := readInput(*input)
		must(err)
		if *input == "-" && *inType == "" {
			*inType = string(internal.SourceText)
		}
		reader := ingest.Reader{Engine: pipeline.NewOCREngine(cfg, logger)}
		text, err := pipeline.ReadText(ctx, reader, *inType, name, content)
		must(err)
		printJSON(courses.Diagnose(text))
	case "import":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "comma-separated source files, in upload order")
		out := fs.String("out", "", "optional output xlsx path")
		label := fs.String("label", "", "import label")
		_ = fs.Parse(os.Args[2:])
		paths := splitList(*input)
		if len(paths) == 0 {
			must(fmt.Errorf("--input is required"))
		}

		db := openDB(cfg)
		defer db.Close()
		processor := pipeline.NewProcessingService(db, cfg, pipeline.NewOCREngine(cfg, logger), logger)
		imp, err := processor.ImportFiles(paths, *label)
		must(err)
		res, err := processor.ProcessImport(ctx, imp)
		must(err)
		fmt.Printf("import done id=%d sources=%d failed=%d rows=%d credited=%d\n", res.ImportID, res.Sources, res.Failed, res.Rows, res.Credited)
		for _, w := range res.Warnings {
			fmt.Printf("warning: %q appears both with and without class code %s\n", w.CourseName, w.ClassCode)
		}
		if strings.TrimSpace(*out) != "" {
			rows, err := db.ListCourses(imp.ID)
			must(err)
			must(pipeline.ExportRowsToXLSX(rows, rscore.OffsetsFromConfig(cfg), *out))
			fmt.Printf("exported %d rows to %s\n", len(rows), *out)
		}
	case "import:process":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		importID := fs.Int("importId", 0, "internal import id")
		_ = fs.Parse(os.Args[2:])
		if *importID == 0 {
			must(fmt.Errorf("--importId is required"))
		}
		db := openDB(cfg)
		defer db.Close()
		imp, err := db.MustImport(*importID)
		must(err)
		processor := pipeline.NewProcessingService(db, cfg, pipeline.NewOCREngine(cfg, logger), logger)
		res, err := processor.ProcessImport(ctx, imp)
		must(err)
		fmt.Printf("processed import id=%d sources=%d failed=%d rows=%d\n", res.ImportID, res.Sources, res.Failed, res.Rows)
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		importID := fs.Int("importId", 0, "internal import id")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if *importID == 0 || strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--importId and --out are required"))
		}
		db := openDB(cfg)
		defer db.Close()
		rows, err := db.ListCourses(*importID)
		must(err)
		if len(rows) == 0 {
			must(fmt.Errorf("no course rows for importId=%d", *importID))
		}
		must(pipeline.ExportRowsToXLSX(rows, rscore.OffsetsFromConfig(cfg), *out))
		fmt.Printf("exported %d rows to %s\n", len(rows), *out)
	case "rscore":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		importID := fs.Int("importId", 0, "internal import id")
		top := fs.Int("top", 3, "number of +3 point gains to list")
		asJSON := fs.Bool("json", false, "print the full summary as JSON")
		_ = fs.Parse(os.Args[2:])
		if *importID == 0 {
			must(fmt.Errorf("--importId is required"))
		}
		db := openDB(cfg)
		defer db.Close()
		rows, err := db.ListCourses(*importID)
		must(err)
		summary := rscore.Compute(rows, rscore.OffsetsFromConfig(cfg))
		if *asJSON {
			printJSON(map[string]any{"summary": summary, "topGains": rscore.TopGains(summary, *top)})
			return
		}
		printSummary(summary, *top)
	case "credits:load":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		path := fs.String("path", "", "comma-separated mapping files (default: CREDITS_MAP_PATHS)")
		_ = fs.Parse(os.Args[2:])
		paths := splitList(*path)
		if len(paths) == 0 {
			paths = cfg.CreditsMapPaths
		}
		db := openDB(cfg)
		defer db.Close()
		processor := pipeline.NewProcessingService(db, cfg, nil, logger)
		count, used, err := processor.LoadCredits(paths)
		must(err)
		if count == 0 {
			must(fmt.Errorf("no credit mappings found in %s", strings.Join(paths, ",")))
		}
		fmt.Printf("credits loaded mappings=%d files=%s\n", count, strings.Join(used, ","))
	case "ocr:status":
		printJSON(pipeline.NewOCREngine(cfg, logger).Status())
	case "mail:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", "gmail", "gmail|imap")
		label := fs.String("label", "INBOX", "mailbox/label")
		max := fs.Int("max", 50, "max messages")
		_ = fs.Parse(os.Args[2:])
		db := openDB(cfg)
		defer db.Close()
		conn, err := makeConnector(ctx, cfg, *provider)
		must(err)
		fetch := connectors.NewFetchService(db, cfg.RawMailDir, conn, logger)
		result, err := fetch.FetchAndStore(ctx, *label, *max)
		must(err)
		fmt.Printf("mail fetch done provider=%s fetched=%d stored=%d new=%d\n", *provider, result.Fetched, result.Stored, result.New)
	case "mail:process":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", "gmail", "gmail|imap")
		messageID := fs.String("messageId", "", "specific message-id")
		batch := fs.Int("batch", 20, "batch size")
		_ = fs.Parse(os.Args[2:])
		db := openDB(cfg)
		defer db.Close()
		processor := pipeline.NewProcessingService(db, cfg, pipeline.NewOCREngine(cfg, logger), logger)
		if strings.TrimSpace(*messageID) != "" {
			res, err := processor.ProcessByProviderRef(ctx, *provider, *messageID)
			must(err)
			fmt.Printf("processed import id=%d rows=%d\n", res.ImportID, res.Rows)
			return
		}
		imports, rows, err := processor.ProcessPending(ctx, *batch, *provider)
		must(err)
		fmt.Printf("processed pending imports=%d rows=%d\n", imports, rows)
	case "mail:listen":
		db := openDB(cfg)
		defer db.Close()
		s := listener.NewService(db, cfg, pipeline.NewOCREngine(cfg, logger), logger)
		must(s.Run(ctx))
	default:
		usage()
		os.Exit(1)
	}
}

func openDB(cfg config.Config) *storage.DB {
	db, err := storage.Open(cfg.DBPath)
	must(err)
	return db
}

func readInput(input string) (string, []byte, error) {
	if input == "-" {
		content, err := io.ReadAll(os.Stdin)
		return "stdin", content, err
	}
	content, err := os.ReadFile(input)
	return filepath.Base(input), content, err
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printSummary(summary rscore.Summary, top int) {
	if summary.Central == nil {
		fmt.Printf("no scored courses (%d rows need grade, class avg and std dev)\n", len(summary.Courses))
		return
	}
	fmt.Printf("R central=%.2f min=%.2f max=%.2f credits=%.2f\n", *summary.Central, *summary.Min, *summary.Max, summary.TotalCredits)
	for _, c := range summary.Courses {
		if !c.Scored {
			fmt.Printf("  %-40s %-12s not scored\n", c.CourseName, c.ClassCode)
			continue
		}
		fmt.Printf("  %-40s %-12s z=%.2f r=%.2f credits=%.2f\n", c.CourseName, c.ClassCode, c.Z, c.RCentral, c.Credits)
	}
	for i, c := range rscore.TopGains(summary, top) {
		fmt.Printf("gain #%d %s +%.2f weighted R for +3 points\n", i+1, c.CourseName, c.Gain)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	must(enc.Encode(v))
}

func makeConnector(ctx context.Context, cfg config.Config, provider string) (connectors.MailConnector, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gmail":
		return gmailconnector.NewConnector(ctx, cfg)
	case "imap":
		return imapconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func usage() {
	fmt.Println("usage: omnigrade <command>")
	fmt.Println("commands:")
	fmt.Println("  parse --input=grades.png|- [--type=image|html|pdf|text] [--debug]")
	fmt.Println("  diagnose --input=grades.png|- [--type=image|html|pdf|text]")
	fmt.Println("  import --input=a.png,b.html [--out=./out/grades.xlsx] [--label=...]")
	fmt.Println("  import:process --importId=1")
	fmt.Println("  export:xlsx --importId=1 --out=./out/grades.xlsx")
	fmt.Println("  rscore --importId=1 [--top=3] [--json]")
	fmt.Println("  credits:load [--path=credits_map.csv,...]")
	fmt.Println("  ocr:status")
	fmt.Println("  mail:fetch --provider=gmail|imap --label=INBOX --max=50")
	fmt.Println("  mail:process --provider=gmail|imap [--messageId=...] [--batch=20]")
	fmt.Println("  mail:listen")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
