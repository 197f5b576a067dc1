// Copyright 2026 Calyptra Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/calyptra/vecstage"
	"github.com/calyptra/vecstage/ai"
	"github.com/calyptra/vecstage/chunk"
	"github.com/calyptra/vecstage/config"
	"github.com/calyptra/vecstage/core"
	"github.com/calyptra/vecstage/evaluate"
	"github.com/calyptra/vecstage/ingest"
	"github.com/calyptra/vecstage/promote"
	"github.com/calyptra/vecstage/vector"
	"github.com/calyptra/vecstage/vector/qdrant"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "vecstage",
		Usage: "Structure-aware chunking and staged vector promotion for web content",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				Value:   "vecstage.yaml",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Chunk, embed and stage cleaned pages for a dataset",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "dataset",
						Aliases:  []string{"d"},
						Usage:    "Dataset name declared in the config",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "pages",
						Aliases:  []string{"p"},
						Usage:    "Path to a JSON-lines file of cleaned pages",
						Required: true,
					},
				},
			},
			{
				Name:   "evaluate",
				Usage:  "Run golden queries and integrity checks against staging",
				Action: evaluateCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "dataset",
						Aliases:  []string{"d"},
						Usage:    "Dataset name declared in the config",
						Required: true,
					},
				},
			},
			{
				Name:   "promote",
				Usage:  "Mirror validated staging content into production",
				Action: promoteCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "dataset",
						Aliases:  []string{"d"},
						Usage:    "Dataset name declared in the config",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "no-prune",
						Usage: "Keep production vectors that are absent from staging",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// page mirrors the JSON-lines input format for cleaned pages.
type page struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	RawLocation string `json:"raw_location"`
	Text        string `json:"text"`
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, dataset, err := loadDataset(c)
	if err != nil {
		return err
	}

	pages, err := readPages(c.String("pages"))
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		return fmt.Errorf("no pages found in %s", c.String("pages"))
	}

	service, err := openService(cfg)
	if err != nil {
		return err
	}
	defer service.Close()

	if err := ensureNamespaces(ctx, service.VectorStore(), dataset); err != nil {
		return err
	}

	pipeline, err := service.NewIngestPipeline(
		ingest.WithRetry(cfg.Retry.MaxAttempts, time.Duration(cfg.Retry.BaseDelaySecs)*time.Second),
	)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	summary, err := pipeline.Ingest(ctx, dataset, pages)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Processed: %d pages (%d chunks, %d embedded)\n",
		summary.Processed, summary.Chunks, summary.Embedded)
	fmt.Fprintf(os.Stderr, "Skipped:   %d unchanged pages\n", summary.Skipped)
	if summary.Failed > 0 {
		fmt.Fprintf(os.Stderr, "Failed:    %d pages\n", summary.Failed)
		return fmt.Errorf("%d pages failed to ingest", summary.Failed)
	}
	return nil
}

func evaluateCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, dataset, err := loadDataset(c)
	if err != nil {
		return err
	}
	declared := cfg.FindDataset(dataset.Name)

	service, err := openService(cfg)
	if err != nil {
		return err
	}
	defer service.Close()

	evaluator, err := service.NewEvaluator(
		evaluate.WithRetry(cfg.Retry.MaxAttempts, time.Duration(cfg.Retry.BaseDelaySecs)*time.Second),
	)
	if err != nil {
		return fmt.Errorf("failed to create evaluator: %w", err)
	}

	result, err := evaluator.Evaluate(ctx, dataset, declared.GoldenQueries)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	if result.Passed {
		fmt.Fprintf(os.Stderr, "Evaluation passed (%d golden queries, %d integrity issues)\n",
			len(result.Checks), len(result.IntegrityIssues))
		return nil
	}
	fmt.Fprintln(os.Stderr, "Evaluation FAILED:")
	for _, reason := range result.Reasons() {
		fmt.Fprintf(os.Stderr, "  - %s\n", reason)
	}
	return fmt.Errorf("dataset %s is not promotable", dataset.Name)
}

func promoteCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, dataset, err := loadDataset(c)
	if err != nil {
		return err
	}

	service, err := openService(cfg)
	if err != nil {
		return err
	}
	defer service.Close()

	prune := cfg.Promotion.PruneStaleEnabled() && !c.Bool("no-prune")
	promoter, err := service.NewPromoter(
		promote.WithPruneStale(prune),
		promote.WithLockTTL(time.Duration(cfg.Promotion.LockTTLMins)*time.Minute),
		promote.WithRetry(cfg.Retry.MaxAttempts, time.Duration(cfg.Retry.BaseDelaySecs)*time.Second),
		promote.WithProgressWriter(os.Stderr),
	)
	if err != nil {
		return fmt.Errorf("failed to create promoter: %w", err)
	}

	summary, err := promoter.Promote(ctx, dataset)
	if err != nil {
		return fmt.Errorf("promotion failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Mirrored: %d vectors\n", summary.Mirrored)
	fmt.Fprintf(os.Stderr, "Pruned:   %d stale vectors\n", summary.Pruned)
	fmt.Fprintf(os.Stderr, "Elapsed:  %s\n", summary.Elapsed.Round(time.Millisecond))
	return nil
}

// loadDataset loads the config and resolves the --dataset flag against it.
func loadDataset(c *cli.Context) (*config.AppConfig, core.Dataset, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, core.Dataset{}, fmt.Errorf("failed to load config: %w", err)
	}
	declared := cfg.FindDataset(c.String("dataset"))
	if declared == nil {
		return nil, core.Dataset{}, fmt.Errorf("dataset %q is not declared in %s", c.String("dataset"), c.String("config"))
	}
	return cfg, declared.Dataset(), nil
}

// openService builds the façade from the loaded configuration.
func openService(cfg *config.AppConfig) (*vecstage.Service, error) {
	opts := []vecstage.ServiceOption{
		vecstage.WithAIConfig(ai.NewConfig(
			ai.WithHost(cfg.Embedder.Host),
			ai.WithModel(cfg.Embedder.Model),
			ai.WithAPIKey(os.Getenv(cfg.Embedder.APIKeyEnv)),
		)),
		vecstage.WithChunking(chunk.Config{
			MinTokens: cfg.Chunking.MinTokens,
			MaxTokens: cfg.Chunking.MaxTokens,
		}),
	}

	if cfg.VectorStore.Type == "qdrant" {
		q := cfg.VectorStore.Qdrant
		opts = append(opts, vecstage.WithVectorStore(qdrant.NewStore(qdrant.Config{
			URL:       q.URL,
			APIKey:    q.APIKey,
			Prefix:    q.CollectionPrefix,
			Dimension: q.Dimension,
			Timeout:   time.Duration(q.TimeoutSecs) * time.Second,
		})))
	}

	service, err := vecstage.NewService(cfg.StoragePath, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open service: %w", err)
	}
	return service, nil
}

// ensureNamespaces creates backing collections for stores that need them.
func ensureNamespaces(ctx context.Context, store vector.Store, dataset core.Dataset) error {
	type ensurer interface {
		EnsureNamespace(ctx context.Context, namespace string) error
	}
	e, ok := store.(ensurer)
	if !ok {
		return nil
	}
	for _, namespace := range []string{dataset.Staging, dataset.Production} {
		if err := e.EnsureNamespace(ctx, namespace); err != nil {
			return fmt.Errorf("failed to ensure namespace %s: %w", namespace, err)
		}
	}
	return nil
}

// readPages parses a JSON-lines file of cleaned pages.
func readPages(path string) ([]ingest.Page, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pages file: %w", err)
	}
	defer file.Close()

	var pages []ingest.Page
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var p page
		if err := json.Unmarshal([]byte(line), &p); err != nil {
			return nil, fmt.Errorf("invalid page on line %d: %w", lineNo, err)
		}
		pages = append(pages, ingest.Page{
			URL:         p.URL,
			Title:       p.Title,
			RawLocation: p.RawLocation,
			Text:        p.Text,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading pages file: %w", err)
	}
	return pages, nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
