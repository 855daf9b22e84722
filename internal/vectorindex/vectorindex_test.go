package vectorindex

import (
	"context"
	"testing"

	"impact-rag/internal/models"
)

func entry(content, file string, page, id int, embedding []float32) Entry {
	return Entry{
		Embedding: embedding,
		Chunk: models.Chunk{
			Content:    content,
			SourceFile: file,
			PageNumber: page,
			ChunkID:    id,
		},
	}
}

func TestIndex_QueryOrdersBySimilarity(t *testing.T) {
	idx, err := NewInMemory("test")
	if err != nil {
		t.Fatalf("creating index: %v", err)
	}
	ctx := context.Background()

	err = idx.Insert(ctx, []Entry{
		entry("lejano", "a.pdf", 1, 0, []float32{1, 0, 0}),
		entry("cercano", "a.pdf", 2, 1, []float32{0, 1, 0}),
		entry("medio", "a.pdf", 3, 2, []float32{0.5, 0.5, 0}),
	})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	results, err := idx.Query(ctx, []float32{0, 1, 0}, 3)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Chunk.Content != "cercano" {
		t.Errorf("most similar should rank first, got %q", results[0].Chunk.Content)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Similarity > results[i-1].Similarity {
			t.Errorf("results not in descending similarity at %d", i)
		}
	}
}

func TestIndex_QueryDeterministicTieBreak(t *testing.T) {
	idx, err := NewInMemory("test")
	if err != nil {
		t.Fatalf("creating index: %v", err)
	}
	ctx := context.Background()

	// identical embeddings, so similarity ties; insertion order must win
	same := []float32{0, 1, 0}
	err = idx.Insert(ctx, []Entry{
		entry("primero", "a.pdf", 1, 0, same),
		entry("segundo", "a.pdf", 2, 1, same),
		entry("tercero", "a.pdf", 3, 2, same),
	})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	var first []string
	for run := 0; run < 5; run++ {
		results, err := idx.Query(ctx, same, 3)
		if err != nil {
			t.Fatalf("query failed: %v", err)
		}
		got := make([]string, len(results))
		for i, r := range results {
			got[i] = r.Chunk.Content
		}
		if run == 0 {
			first = got
			if got[0] != "primero" || got[1] != "segundo" || got[2] != "tercero" {
				t.Fatalf("tie-break should follow insertion order, got %v", got)
			}
			continue
		}
		for i := range got {
			if got[i] != first[i] {
				t.Fatalf("run %d returned different ordering: %v vs %v", run, got, first)
			}
		}
	}
}

func TestIndex_TieBreakAtKBoundary(t *testing.T) {
	idx, err := NewInMemory("test")
	if err != nil {
		t.Fatalf("creating index: %v", err)
	}
	ctx := context.Background()

	// more tied entries than k; the cut itself must follow insertion order,
	// not whichever subset the store happens to surface
	same := []float32{0, 1, 0}
	contents := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	entries := make([]Entry, len(contents))
	for i, c := range contents {
		entries[i] = entry(c, "a.pdf", 1, i, same)
	}
	if err := idx.Insert(ctx, entries); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	for run := 0; run < 5; run++ {
		results, err := idx.Query(ctx, same, 2)
		if err != nil {
			t.Fatalf("query failed: %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("expected 2 results, got %d", len(results))
		}
		if results[0].Chunk.Content != "a" || results[1].Chunk.Content != "b" {
			t.Fatalf("run %d returned %q, %q; want the first two inserted",
				run, results[0].Chunk.Content, results[1].Chunk.Content)
		}
	}
}

func TestIndex_KLargerThanSize(t *testing.T) {
	idx, err := NewInMemory("test")
	if err != nil {
		t.Fatalf("creating index: %v", err)
	}
	ctx := context.Background()

	err = idx.Insert(ctx, []Entry{
		entry("uno", "a.pdf", 1, 0, []float32{1, 0}),
		entry("dos", "a.pdf", 2, 1, []float32{0, 1}),
	})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	results, err := idx.Query(ctx, []float32{1, 0}, 50)
	if err != nil {
		t.Fatalf("query with oversized k should not fail: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected all 2 entries, got %d", len(results))
	}
	seen := map[string]bool{}
	for _, r := range results {
		if seen[r.Chunk.Content] {
			t.Errorf("duplicate result %q", r.Chunk.Content)
		}
		seen[r.Chunk.Content] = true
	}
}

func TestIndex_EmptyIndexReturnsNothing(t *testing.T) {
	idx, err := NewInMemory("test")
	if err != nil {
		t.Fatalf("creating index: %v", err)
	}

	results, err := idx.Query(context.Background(), []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("query on empty index should not fail: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestIndex_IncrementalInsert(t *testing.T) {
	idx, err := NewInMemory("test")
	if err != nil {
		t.Fatalf("creating index: %v", err)
	}
	ctx := context.Background()

	if err := idx.Insert(ctx, []Entry{entry("uno", "a.pdf", 1, 0, []float32{1, 0})}); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if err := idx.Insert(ctx, []Entry{entry("dos", "b.pdf", 1, 0, []float32{0, 1})}); err != nil {
		t.Fatalf("second insert failed: %v", err)
	}

	if idx.Count() != 2 {
		t.Errorf("expected 2 entries after incremental inserts, got %d", idx.Count())
	}
}

func TestIndex_MetadataRoundTrip(t *testing.T) {
	idx, err := NewInMemory("test")
	if err != nil {
		t.Fatalf("creating index: %v", err)
	}
	ctx := context.Background()

	if err := idx.Insert(ctx, []Entry{entry("contenido", "informe.pdf", 7, 3, []float32{0, 1})}); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	results, err := idx.Query(ctx, []float32{0, 1}, 1)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	got := results[0].Chunk
	if got.SourceFile != "informe.pdf" || got.PageNumber != 7 || got.ChunkID != 3 {
		t.Errorf("metadata lost in round trip: %+v", got)
	}
}

func TestNew_ModelTagMismatchFailsFast(t *testing.T) {
	dir := t.TempDir()

	idx, err := New(dir, "docs", "all-minilm-l6-v2")
	if err != nil {
		t.Fatalf("first open failed: %v", err)
	}
	if err := idx.Insert(context.Background(), []Entry{entry("uno", "a.pdf", 1, 0, []float32{1, 0})}); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if _, err := New(dir, "docs", "text-embedding-3-small"); err == nil {
		t.Error("opening with a different embedding model should fail fast")
	}

	// same model reopens fine and sees persisted entries
	again, err := New(dir, "docs", "all-minilm-l6-v2")
	if err != nil {
		t.Fatalf("reopen with same model failed: %v", err)
	}
	if again.Count() != 1 {
		t.Errorf("expected persisted entry after reopen, got %d", again.Count())
	}
}
