package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
embed_llm:
  provider: ollama
  base_url: http://localhost:11434
  model: nomic-embed-text
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.RAG.ChunkSize != 1000 || cfg.RAG.ChunkOverlap != 150 {
		t.Errorf("chunking defaults not applied: %+v", cfg.RAG)
	}
	if cfg.RAG.TopK != 5 || cfg.RAG.HistoryWindow != 6 {
		t.Errorf("retrieval defaults not applied: %+v", cfg.RAG)
	}
	if cfg.Index.Path != "./vector_db" || cfg.Index.Collection != "documents" {
		t.Errorf("index defaults not applied: %+v", cfg.Index)
	}
	if cfg.Auth.Audience != "authenticated" {
		t.Errorf("audience default not applied: %q", cfg.Auth.Audience)
	}
	if cfg.EmbedLLM.Model != "nomic-embed-text" {
		t.Errorf("explicit values must survive defaults: %q", cfg.EmbedLLM.Model)
	}
}

func TestLoadConfig_ExplicitValuesKept(t *testing.T) {
	path := writeConfig(t, `
rag:
  chunk_size: 400
  chunk_overlap: 80
  top_k: 3
  history_window: 4
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.RAG.ChunkSize != 400 || cfg.RAG.ChunkOverlap != 80 || cfg.RAG.TopK != 3 || cfg.RAG.HistoryWindow != 4 {
		t.Errorf("explicit values overwritten: %+v", cfg.RAG)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
