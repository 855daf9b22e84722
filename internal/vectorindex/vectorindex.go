// Package vectorindex wraps a persistent chromem-go collection as an
// append-only vector index with deterministic k-nearest-neighbour queries.
package vectorindex

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"impact-rag/internal/helper"
	"impact-rag/internal/models"
)

const (
	compress = false
	// modelTagFile pins the index to one embedding model. Querying an index
	// built with a different model degrades relevance silently, so we fail
	// fast instead.
	modelTagFile = "embedding_model"
)

// Entry is one (embedding, chunk) pair to insert.
type Entry struct {
	Embedding []float32
	Chunk     models.Chunk
}

// Result is one retrieved chunk with its similarity score.
type Result struct {
	Chunk      models.Chunk
	Similarity float32
}

// Index is safe for concurrent use: queries share a read lock, inserts take
// the write lock only around the collection mutation so readers never see a
// partially written batch.
type Index struct {
	mu         sync.RWMutex
	db         *chromem.DB
	collection *chromem.Collection
	seq        int
}

// rejectEmbedding guards against chromem computing embeddings on its own;
// every document we add already carries one.
func rejectEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("index received a document without an embedding")
}

// New opens (or creates) a persistent index under dbPath and pins it to
// embeddingModel via a sidecar tag file.
func New(dbPath, collectionName, embeddingModel string) (*Index, error) {
	if err := checkModelTag(dbPath, embeddingModel); err != nil {
		return nil, err
	}

	db, err := chromem.NewPersistentDB(dbPath, compress)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %v", err)
	}
	return newWithDB(db, collectionName)
}

// NewInMemory creates a volatile index, used by tests and dry runs.
func NewInMemory(collectionName string) (*Index, error) {
	return newWithDB(chromem.NewDB(), collectionName)
}

func newWithDB(db *chromem.DB, collectionName string) (*Index, error) {
	c, err := db.GetOrCreateCollection(collectionName, nil, rejectEmbedding)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %v", err)
	}
	return &Index{
		db:         db,
		collection: c,
		seq:        c.Count(),
	}, nil
}

// Insert appends a batch of entries. The batch becomes visible to queries
// atomically. Repeated calls with overlapping content are harmless; the
// index performs no deduplication.
func (x *Index) Insert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	docs := make([]chromem.Document, len(entries))
	for i, e := range entries {
		docs[i] = chromem.Document{
			// zero-padded insertion sequence keeps tie-breaks stable
			ID:        fmt.Sprintf("%08d", x.seq+i),
			Content:   e.Chunk.Content,
			Embedding: e.Embedding,
			Metadata: map[string]string{
				"source_file": e.Chunk.SourceFile,
				"page_number": strconv.Itoa(e.Chunk.PageNumber),
				"chunk_id":    strconv.Itoa(e.Chunk.ChunkID),
			},
		}
	}

	if err := x.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %v", err)
	}
	x.seq += len(entries)

	log.Debug().Int("entries", len(entries)).Int("total", x.seq).Msg("inserted into vector index")
	return nil
}

// Query returns up to k chunks ordered by descending similarity. Equal
// scores are broken by insertion order. k larger than the index size
// returns everything; an empty index returns nothing.
func (x *Index) Query(ctx context.Context, queryEmbedding []float32, k int) ([]Result, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	count := x.collection.Count()
	if count == 0 || k <= 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	// Rank the whole collection, not just k entries: chromem picks an
	// arbitrary subset among equal scores, so truncating before the
	// insertion-order sort would make the k-boundary nondeterministic.
	results, err := x.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: queryEmbedding,
		NResults:       count,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %v", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].ID < results[j].ID
	})
	if len(results) > k {
		results = results[:k]
	}

	out := make([]Result, len(results))
	for i, r := range results {
		page, _ := strconv.Atoi(r.Metadata["page_number"])
		chunkID, _ := strconv.Atoi(r.Metadata["chunk_id"])
		out[i] = Result{
			Chunk: models.Chunk{
				Content:    r.Content,
				SourceFile: r.Metadata["source_file"],
				PageNumber: page,
				ChunkID:    chunkID,
			},
			Similarity: r.Similarity,
		}
	}
	return out, nil
}

// Count reports how many entries the index holds.
func (x *Index) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.collection.Count()
}

// DeleteCollection drops the whole collection. Kept as an extension point;
// nothing in the serving path deletes entries.
func (x *Index) DeleteCollection() error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if err := x.db.DeleteCollection(x.collection.Name); err != nil {
		return fmt.Errorf("failed to drop collection: %v", err)
	}
	c, err := x.db.GetOrCreateCollection(x.collection.Name, nil, rejectEmbedding)
	if err != nil {
		return fmt.Errorf("failed to recreate collection: %v", err)
	}
	x.collection = c
	x.seq = 0
	return nil
}

// checkModelTag writes the embedding model name next to the index on first
// use and refuses to open an index tagged with a different model.
func checkModelTag(dbPath, embeddingModel string) error {
	if embeddingModel == "" {
		return nil
	}
	tagPath := filepath.Join(dbPath, modelTagFile)

	data, err := os.ReadFile(tagPath)
	if err == nil {
		tagged := strings.TrimSpace(string(data))
		if tagged != embeddingModel {
			return fmt.Errorf("index at %s was built with embedding model %q, configured model is %q", dbPath, tagged, embeddingModel)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return err
	}

	if err := helper.CreateFolder(dbPath); err != nil {
		return err
	}
	return os.WriteFile(tagPath, []byte(embeddingModel+"\n"), 0o644)
}
