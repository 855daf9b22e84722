// Package ingest runs the parse → chunk → embed → index pipeline for
// uploaded documents.
package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"impact-rag/internal/chunker"
	"impact-rag/internal/config"
	"impact-rag/internal/embedding"
	"impact-rag/internal/parser"
	"impact-rag/internal/vectorindex"
)

// Report summarizes one ingested file.
type Report struct {
	File        string `json:"file"`
	OK          bool   `json:"ok"`
	ChunksAdded int    `json:"chunks_added"`
	Error       string `json:"error,omitempty"`
}

// Pipeline ties the ingestion stages to one index and embedder. Re-uploads
// of the same file add duplicate chunks; they are harmless retrieval
// candidates and deduplication is deliberately not attempted.
type Pipeline struct {
	embedder embeddings.Embedder
	index    *vectorindex.Index
	cfg      *config.Config
}

func NewPipeline(embedder embeddings.Embedder, index *vectorindex.Index, cfg *config.Config) *Pipeline {
	return &Pipeline{embedder: embedder, index: index, cfg: cfg}
}

// Ingest parses raw document bytes and appends the resulting chunks to the
// index. An unsupported MIME kind is rejected before anything is parsed or
// written.
func (p *Pipeline) Ingest(ctx context.Context, raw []byte, filename, mimeKind string) (Report, error) {
	report := Report{File: filename}

	doc, err := parser.Parse(raw, filename, mimeKind)
	if err != nil {
		report.Error = err.Error()
		return report, err
	}

	chunks := chunker.Chunk(doc, p.cfg.RAG.ChunkSize, p.cfg.RAG.ChunkOverlap)
	if len(chunks) == 0 {
		log.Info().Str("file", filename).Msg("no chunks generated from content")
		report.OK = true
		return report, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors, err := embedding.EmbedTexts(ctx, p.embedder, texts, p.cfg.RAG.EmbedBatch)
	if err != nil {
		report.Error = err.Error()
		return report, err
	}

	entries := make([]vectorindex.Entry, len(chunks))
	for i := range chunks {
		entries[i] = vectorindex.Entry{Embedding: vectors[i], Chunk: chunks[i]}
	}
	if err := p.index.Insert(ctx, entries); err != nil {
		report.Error = err.Error()
		return report, err
	}

	report.OK = true
	report.ChunksAdded = len(chunks)
	log.Info().Str("file", filename).Int("chunks", len(chunks)).Msg("ingested document")
	return report, nil
}

// IngestFile reads a document from disk, deriving the MIME kind from the
// file extension.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (Report, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Report{File: filepath.Base(path), Error: err.Error()}, err
	}
	filename := filepath.Base(path)
	return p.Ingest(ctx, raw, filename, parser.KindForFile(filename))
}

// IngestBatch ingests every file in order. A file that fails to parse is
// logged and skipped; the batch continues. Any other failure (embedding
// backend down, index write) aborts the batch, since retrying the rest
// would hit the same backend.
func (p *Pipeline) IngestBatch(ctx context.Context, paths []string) ([]Report, error) {
	reports := make([]Report, 0, len(paths))
	for _, path := range paths {
		report, err := p.IngestFile(ctx, path)
		reports = append(reports, report)
		if err != nil {
			var parseErr *parser.ParseError
			if errors.As(err, &parseErr) {
				log.Error().Err(err).Str("file", report.File).Msg("skipping unparseable document")
				continue
			}
			var unsupported *parser.UnsupportedFormatError
			if errors.As(err, &unsupported) {
				log.Error().Err(err).Str("file", report.File).Msg("skipping unsupported document")
				continue
			}
			return reports, err
		}
	}
	return reports, nil
}
