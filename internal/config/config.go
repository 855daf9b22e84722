package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// LLMConfig configures one OpenAI-compatible or Ollama backend.
type LLMConfig struct {
	Provider string `yaml:"provider"` // "openai" or "ollama"
	BaseURL  string `yaml:"base_url"`
	Key      string `yaml:"key"`
	Model    string `yaml:"model"`
}

type RAGConfig struct {
	ChunkSize     int `yaml:"chunk_size"`
	ChunkOverlap  int `yaml:"chunk_overlap"`
	TopK          int `yaml:"top_k"`
	HistoryWindow int `yaml:"history_window"`
	EmbedBatch    int `yaml:"embed_batch"`
}

type IndexConfig struct {
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
}

type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Audience  string `yaml:"audience"`
}

type Config struct {
	EmbedLLM     LLMConfig      `yaml:"embed_llm"`
	InferenceLLM LLMConfig      `yaml:"inference_llm"`
	RAG          RAGConfig      `yaml:"rag"`
	Index        IndexConfig    `yaml:"index"`
	Database     DatabaseConfig `yaml:"database"`
	Auth         AuthConfig     `yaml:"auth"`
}

const (
	defaultChunkSize     = 1000
	defaultChunkOverlap  = 150
	defaultTopK          = 5
	defaultHistoryWindow = 6
	defaultEmbedBatch    = 32
)

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = defaultChunkSize
	}
	if cfg.RAG.ChunkOverlap == 0 {
		cfg.RAG.ChunkOverlap = defaultChunkOverlap
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = defaultTopK
	}
	if cfg.RAG.HistoryWindow == 0 {
		cfg.RAG.HistoryWindow = defaultHistoryWindow
	}
	if cfg.RAG.EmbedBatch == 0 {
		cfg.RAG.EmbedBatch = defaultEmbedBatch
	}
	if cfg.Index.Path == "" {
		cfg.Index.Path = "./vector_db"
	}
	if cfg.Index.Collection == "" {
		cfg.Index.Collection = "documents"
	}
	if cfg.Auth.Audience == "" {
		cfg.Auth.Audience = "authenticated"
	}
	// env overrides so the yaml file can stay free of secrets
	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" && cfg.InferenceLLM.Key == "" {
		cfg.InferenceLLM.Key = v
	}
	if v := os.Getenv("EMBEDDING_API_KEY"); v != "" && cfg.EmbedLLM.Key == "" {
		cfg.EmbedLLM.Key = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" && cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" && cfg.Database.DSN == "" {
		cfg.Database.DSN = v
	}
}
