package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/cognicore/ftscore/pkg/ftscore/analyze"
	"github.com/cognicore/ftscore/pkg/ftscore/collector"
	"github.com/cognicore/ftscore/pkg/ftscore/config"
	"github.com/cognicore/ftscore/pkg/ftscore/pipeline"
	"github.com/cognicore/ftscore/pkg/ftscore/store/sqlitestore"
)

func main() {
	var (
		dbPath     = flag.String("db", "", "SQLite postings database (required)")
		configPath = flag.String("config", "", "Query config YAML (optional)")
		query      = flag.String("query", "", "One-shot query (non-interactive mode)")
		limit      = flag.Int("limit", 10, "Number of results to return")
		offset     = flag.Int("offset", 0, "Result offset")
		verbose    = flag.Bool("v", false, "Enable debug logging")
	)
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("--db required")
	}

	cfg := config.DefaultQueryConfig()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatal(err)
		}
		cfg = loaded
	}

	logLevel := zap.NewAtomicLevelAt(zap.InfoLevel)
	if *verbose {
		logLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.Level = logLevel
	logger, err := zapCfg.Build()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx := context.Background()

	s, err := sqlitestore.Open(ctx, *dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close()
	if err := s.Refresh(ctx); err != nil {
		log.Fatal(err)
	}

	analyzer := analyze.New(cfg.StopWords)
	p := pipeline.New(s, analyzer, logger)

	collectorCfg := collector.Config{
		FilterAttributes: config.AttributeSet(cfg.FilterAttributes),
		SearchableFields: config.AttributeSet(cfg.SearchableFields),
		TypoTolerance: collector.TypoTolerance{
			MinWordLenFor1Typo:  cfg.TypoTolerance.MinWordLenFor1Typo,
			MinWordLenFor2Typos: cfg.TypoTolerance.MinWordLenFor2Typos,
		},
	}

	if *query != "" {
		if err := runQuery(ctx, p, *query, collectorCfg, cfg, *offset, *limit); err != nil {
			log.Fatal(err)
		}
		return
	}

	fmt.Println("ftsquery — interactive mode (Ctrl+D to exit)")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if err := runQuery(ctx, p, text, collectorCfg, cfg, *offset, *limit); err != nil {
			fmt.Println("error:", err)
		}
	}
}

func runQuery(ctx context.Context, p *pipeline.Pipeline, text string, collectorCfg collector.Config, cfg config.QueryConfig, offset, limit int) error {
	results, err := p.Query(ctx, text, collectorCfg, pipeline.Page{Offset: offset, Limit: limit}, cfg.MaxProximityPairDistance)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("(no matches)")
		return nil
	}
	for i, r := range results {
		fmt.Printf("%d. document %d (%d highlights)\n", offset+i+1, r.ID, len(r.Highlights))
	}
	return nil
}
