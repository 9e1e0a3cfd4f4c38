package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  corpus_dir: "./source_documents"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	wantCorpus := filepath.Join(dir, "source_documents")
	if cfg.Storage.CorpusDir != wantCorpus {
		t.Errorf("corpus_dir = %s, want %s", cfg.Storage.CorpusDir, wantCorpus)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Retrieval.TopK != 5 {
		t.Errorf("default top_k: got %d", cfg.Retrieval.TopK)
	}
	if cfg.Retrieval.ChunkSize != 1000 || cfg.Retrieval.ChunkOverlap != 200 {
		t.Errorf("default chunking: got size=%d overlap=%d", cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap)
	}
	if cfg.LLM.Dimensions != 1536 {
		t.Errorf("default dimensions: got %d", cfg.LLM.Dimensions)
	}
	if cfg.LLM.QueryEmbeddingModel != cfg.LLM.EmbeddingModel {
		t.Errorf("query embedding model should default to the document model, got %s vs %s",
			cfg.LLM.QueryEmbeddingModel, cfg.LLM.EmbeddingModel)
	}
}

func TestValidate_overlapMustBeLessThanSize(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Retrieval.ChunkSize = 100
	cfg.Retrieval.ChunkOverlap = 100
	if err := Validate(cfg); err == nil {
		t.Error("overlap == size should fail validation")
	}
	cfg.Retrieval.ChunkOverlap = 150
	if err := Validate(cfg); err == nil {
		t.Error("overlap > size should fail validation")
	}
	cfg.Retrieval.ChunkOverlap = 99
	if err := Validate(cfg); err != nil {
		t.Errorf("overlap < size should pass: %v", err)
	}
}

func TestValidate_dimensions(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.LLM.Dimensions = 0
	if err := Validate(cfg); err == nil {
		t.Error("zero dimensions should fail validation")
	}
	cfg.LLM.Dimensions = -4
	if err := Validate(cfg); err == nil {
		t.Error("negative dimensions should fail validation")
	}
}

func TestLoad_badYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed yaml should fail")
	}
}

func TestRetrievalConfig_ExpansionEnabledOrDefault(t *testing.T) {
	r := &RetrievalConfig{}
	if !r.ExpansionEnabledOrDefault() {
		t.Error("expansion should default to enabled")
	}
	f := false
	r.ExpansionEnabled = &f
	if r.ExpansionEnabledOrDefault() {
		t.Error("explicit false should disable expansion")
	}
}
