package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/docsearch-mcp/docserver/internal/chunker"
	"github.com/docsearch-mcp/docserver/internal/configresolver"
	"github.com/docsearch-mcp/docserver/internal/domain"
	"github.com/docsearch-mcp/docserver/internal/indexer"
	"github.com/docsearch-mcp/docserver/internal/loader"
	"github.com/docsearch-mcp/docserver/internal/logger"
)

var (
	force       bool
	productFlag string
	langFlag    string
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Run the offline ingestion pipeline",
	Long: `index loads, chunks, embeds, and upserts every product named by PRODUCT
(comma-separated) for the language named by DOC_LANG, resuming from any
checkpoint left by a previous interrupted run. --product and --lang
override the PRODUCT/DOC_LANG environment variables for this run.

Examples:
  PRODUCT=spreadjs DOC_LANG=en docserver index
  PRODUCT=spreadjs,gcexcel DOC_LANG=en docserver index --force
  docserver index --product spreadjs --lang en`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&force, "force", false, "drop and recreate the collection before indexing")
	indexCmd.Flags().StringVar(&productFlag, "product", "", "comma-separated product ids, overriding PRODUCT")
	indexCmd.Flags().StringVar(&langFlag, "lang", "", "document language, overriding DOC_LANG")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	ids, err := productsOverride(productFlag)
	if err != nil {
		return err
	}

	chunkSize, err := envInt("CHUNK_SIZE", defaultChunk)
	if err != nil {
		return err
	}
	batchSize, err := envInt("BATCH_SIZE", defaultBatch)
	if err != nil {
		return err
	}

	embedder, err := newEmbedder()
	if err != nil {
		return err
	}
	store := newStore()
	resolver := configresolver.New(productsDir)
	ix := indexer.New(embedder, store, checkpointDir, batchSize)

	for _, product := range ids {
		if err := indexProduct(ctx, resolver, ix, product, chunkSize); err != nil {
			return fmt.Errorf("indexing %s: %w", product, err)
		}
	}
	return nil
}

func indexProduct(ctx context.Context, resolver *configresolver.Resolver, ix *indexer.Indexer, product string, chunkSize int) error {
	cfg, err := resolveProductLang(resolver, product, langFlag)
	if err != nil {
		return err
	}

	logger.Section(fmt.Sprintf("%s (%s)", cfg.Name, cfg.Lang))

	if err := ix.InitCollection(ctx, cfg.Collection, force); err != nil {
		return fmt.Errorf("init collection: %w", err)
	}

	root := filepath.Join(rawDataRoot, cfg.RawDataPath)
	docs, err := loader.Load(root, cfg.DocSubdirs)
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}
	logger.Info("loaded %d documents from %s", len(docs), root)

	var chunks []domain.Chunk
	for _, doc := range docs {
		cs, err := chunker.Chunk(doc, cfg.ChunkerType, chunker.Options{ChunkSize: chunkSize})
		if err != nil {
			return fmt.Errorf("chunk %s: %w", doc.ID, err)
		}
		chunks = append(chunks, cs...)
	}
	logger.Info("produced %d chunks from %d documents", len(chunks), len(docs))

	bar := progressbar.NewOptions(len(chunks),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan]Indexing %s[reset]", product)),
		progressbar.OptionOnCompletion(func() { fmt.Println() }),
	)
	report, indexErr := ix.Index(ctx, product, cfg.Collection, chunks)
	bar.Set(report.Succeeded)

	fmt.Printf("  total:     %d\n", report.Total)
	fmt.Printf("  skipped:   %d (already checkpointed)\n", report.Skipped)
	fmt.Printf("  succeeded: %d\n", report.Succeeded)
	if report.Failed > 0 {
		fmt.Printf("  failed:    %d\n", report.Failed)
	}
	fmt.Printf("  duration:  %s\n", report.Duration)

	return indexErr
}
