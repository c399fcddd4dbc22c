package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docmind/internal/domain"
	"github.com/kailas-cloud/docmind/internal/domain/search/filter"
	"github.com/kailas-cloud/docmind/internal/domain/search/request"
	documentuc "github.com/kailas-cloud/docmind/internal/usecase/document"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Ingest files directly, bypassing the HTTP API",
	Long: `Ingest files directly into the document and vector stores, bypassing the HTTP API.

A running server only sees the new chunks in its lexical index after a reload:
send it SIGHUP (kill -HUP <pid>) or restart it.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIngest,
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run a hybrid search and print JSON results",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

var (
	ownerFlag    string
	sourceFlag   string
	categoryFlag string
	clientFlag   string
	topKFlag     int
)

func init() {
	for _, c := range []*cobra.Command{ingestCmd, searchCmd} {
		c.Flags().StringVarP(&ownerFlag, "owner", "o", "local", "Owner the documents belong to")
		c.Flags().StringVar(&sourceFlag, domain.MetaSource, "", "Source metadata")
		c.Flags().StringVar(&categoryFlag, domain.MetaCategory, "", "Category metadata")
		c.Flags().StringVar(&clientFlag, domain.MetaClient, "", "Client metadata")
	}
	searchCmd.Flags().IntVarP(&topKFlag, "top-k", "k", 0, "Number of results (default: search.default_top_k)")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(searchCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, logger, _, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	a, err := buildApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	meta := domain.NewMetadata(sourceFlag, categoryFlag, clientFlag)
	failed := 0
	for _, path := range args {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		doc, err := a.docSvc.Ingest(cmd.Context(), ownerFlag, documentuc.Upload{
			Filename: filepath.Base(path),
			Data:     data,
			Metadata: meta,
		})
		if err != nil {
			failed++
			logger.Error("Ingest failed", zap.String("file", path), zap.Error(err))
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\tdocument_id=%d\tchunks=%d\n", path, doc.ID, doc.ChunkCount)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}

type cliResult struct {
	ExternalID string            `json:"external_id"`
	Score      float64           `json:"score"`
	DocumentID int64             `json:"document_id"`
	Filename   string            `json:"filename"`
	ChunkIndex int               `json:"chunk_index"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, logger, _, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	fs, err := filter.New(map[string]string{
		domain.MetaSource:   sourceFlag,
		domain.MetaCategory: categoryFlag,
		domain.MetaClient:   clientFlag,
	})
	if err != nil {
		return err
	}
	var topK *int
	if cmd.Flags().Changed("top-k") {
		topK = &topKFlag
	}
	req, err := request.NewWithLimits(args[0], ownerFlag, topK, fs, request.Limits{
		DefaultTopK: cfg.Search.DefaultTopK,
		MaxTopK:     cfg.Search.MaxTopK,
	})
	if err != nil {
		return err
	}

	a, err := buildApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	results, err := a.searchSvc.Search(cmd.Context(), &req)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	out := make([]cliResult, len(results))
	for i := range results {
		r := &results[i]
		out[i] = cliResult{
			ExternalID: r.ID(),
			Score:      r.Score(),
			DocumentID: r.DocumentID(),
			Filename:   r.Filename(),
			ChunkIndex: r.ChunkIndex(),
			Content:    r.Content(),
			Metadata:   r.Metadata().Map(),
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
