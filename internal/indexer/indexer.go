// Package indexer orchestrates ingestion of an in-memory chunk list into
// the vector store (§4.7): collection lifecycle, checkpoint-based resume,
// and the strictly-sequential embed-upsert-checkpoint batch loop. Grounded
// on the index use case shape in the hypnagonia-rag sibling example and the
// teacher's mutex-guarded connector idiom, generalised to the checkpoint
// recovery semantics the spec requires.
package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/docsearch-mcp/docserver/internal/bm25"
	"github.com/docsearch-mcp/docserver/internal/domain"
	"github.com/docsearch-mcp/docserver/internal/logger"
	"github.com/docsearch-mcp/docserver/internal/vectorstore"
)

// Embedder is the subset of internal/embedclient.Client the indexer needs.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// Store is the subset of internal/vectorstore.Client the indexer needs.
type Store interface {
	CollectionExists(ctx context.Context, name string) (bool, error)
	DeleteCollection(ctx context.Context, name string) error
	CreateCollection(ctx context.Context, name string, dimensions int) error
	Upsert(ctx context.Context, collection string, points []vectorstore.Point) error
}

const DefaultBatchSize = 64

// Indexer drives one product/language collection's ingestion.
type Indexer struct {
	embedder Embedder
	store    Store

	checkpointDir string
	batchSize     int

	now func() time.Time
}

// New creates an Indexer. checkpointDir holds one checkpoint file per
// product, named checkpoint-{product}.json.
func New(embedder Embedder, store Store, checkpointDir string, batchSize int) *Indexer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Indexer{
		embedder:      embedder,
		store:         store,
		checkpointDir: checkpointDir,
		batchSize:     batchSize,
		now:           time.Now,
	}
}

func (ix *Indexer) checkpointPath(product string) string {
	return filepath.Join(ix.checkpointDir, fmt.Sprintf("checkpoint-%s.json", product))
}

// InitCollection implements init_collection(force): deletes and recreates
// an existing collection when force is set, or creates it fresh when it
// does not yet exist.
func (ix *Indexer) InitCollection(ctx context.Context, collection string, force bool) error {
	exists, err := ix.store.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("check collection exists: %w", err)
	}

	if exists && force {
		if err := ix.store.DeleteCollection(ctx, collection); err != nil {
			return fmt.Errorf("delete collection: %w", err)
		}
		exists = false
	}

	if !exists {
		if err := ix.store.CreateCollection(ctx, collection, ix.embedder.Dimensions()); err != nil {
			return fmt.Errorf("create collection: %w", err)
		}
	}
	return nil
}

func (ix *Indexer) loadCheckpoint(product string) (*domain.Checkpoint, error) {
	data, err := os.ReadFile(ix.checkpointPath(product))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}
	var cp domain.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("parse checkpoint: %w", err)
	}
	return &cp, nil
}

func (ix *Indexer) writeCheckpoint(product, lastChunkID string) error {
	cp := domain.Checkpoint{LastProcessedChunkID: lastChunkID, Timestamp: ix.now()}
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	if err := os.MkdirAll(ix.checkpointDir, 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}
	return os.WriteFile(ix.checkpointPath(product), data, 0o644)
}

func (ix *Indexer) deleteCheckpoint(product string) error {
	err := os.Remove(ix.checkpointPath(product))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// resumeFrom computes the chunk list position to resume from, given a
// checkpoint naming the last acknowledged chunk ID.
func resumeFrom(chunks []domain.Chunk, cp *domain.Checkpoint) int {
	if cp == nil || cp.LastProcessedChunkID == "" {
		return 0
	}
	for i, c := range chunks {
		if c.ID == cp.LastProcessedChunkID {
			return i + 1
		}
	}
	return 0
}

// Index ingests chunks into collection, resuming from any existing
// checkpoint. Chunks must already be in their final document order; the
// caller (the product's full set of chunked documents) determines that
// order. Batches are processed strictly sequentially: embed, upsert,
// checkpoint. Any batch failure aborts and propagates, leaving the
// checkpoint in place so the next run resumes past the last success.
func (ix *Indexer) Index(ctx context.Context, product, collection string, chunks []domain.Chunk) (domain.IngestionReport, error) {
	started := ix.now()
	report := domain.IngestionReport{Total: len(chunks)}

	cp, err := ix.loadCheckpoint(product)
	if err != nil {
		return report, &domain.IngestionError{BatchStart: 0, Cause: err}
	}

	from := resumeFrom(chunks, cp)
	report.Skipped = from
	if from > 0 {
		logger.Info("resuming ingestion for %s from chunk index %d", product, from)
	}

	for batchStart := from; batchStart < len(chunks); batchStart += ix.batchSize {
		batchEnd := min(batchStart+ix.batchSize, len(chunks))
		batch := chunks[batchStart:batchEnd]

		if err := ix.indexBatch(ctx, product, collection, batch); err != nil {
			report.Failed = len(chunks) - batchStart
			report.Duration = ix.now().Sub(started)
			return report, &domain.IngestionError{BatchStart: batchStart, Cause: err}
		}
		report.Succeeded += len(batch)
	}

	if err := ix.deleteCheckpoint(product); err != nil {
		logger.Warn("failed to delete checkpoint for %s after clean completion: %v", product, err)
	}

	report.Duration = ix.now().Sub(started)
	return report, nil
}

func (ix *Indexer) indexBatch(ctx context.Context, product, collection string, batch []domain.Chunk) error {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Content
	}

	vecs, err := ix.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed batch: %w", err)
	}

	points := make([]vectorstore.Point, len(batch))
	for i, c := range batch {
		points[i] = vectorstore.Point{
			ChunkID: c.ID,
			Dense:   vecs[i],
			Sparse:  bm25.Vector(c.Content),
			Payload: map[string]any{
				"content":        c.Content,
				"doc_id":         c.DocID,
				"chunk_index":    c.ChunkIndex,
				"total_chunks":   c.TotalChunks,
				"section_path":   c.SectionPath,
				"doc_toc":        c.DocTOC,
				"category":       string(c.Category),
				"relative_path":  c.RelativePath,
				"path_hierarchy": c.PathHierarchy,
			},
		}
	}

	if err := ix.store.Upsert(ctx, collection, points); err != nil {
		return fmt.Errorf("upsert batch: %w", err)
	}

	lastID := batch[len(batch)-1].ID
	if err := ix.writeCheckpoint(product, lastID); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return nil
}
