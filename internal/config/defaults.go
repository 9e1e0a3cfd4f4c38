package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.CorpusDir == "" {
		cfg.Storage.CorpusDir = "/usr/local/var/satei/source_documents"
	}
	if cfg.Storage.EmbeddingsPath == "" {
		cfg.Storage.EmbeddingsPath = "/usr/local/var/satei/data/knowledge_base.vec"
	}
	if cfg.Storage.ChunksPath == "" {
		cfg.Storage.ChunksPath = "/usr/local/var/satei/data/knowledge_base_chunks.json"
	}
	if cfg.Storage.UploadDir == "" {
		cfg.Storage.UploadDir = "/usr/local/var/satei/uploads"
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = "SATEI_API_KEY"
	}
	if cfg.LLM.EmbeddingModel == "" {
		cfg.LLM.EmbeddingModel = "text-embedding-3-small"
	}
	if cfg.LLM.QueryEmbeddingModel == "" {
		cfg.LLM.QueryEmbeddingModel = cfg.LLM.EmbeddingModel
	}
	if cfg.LLM.GenerationModel == "" {
		cfg.LLM.GenerationModel = "gpt-4o-mini"
	}
	if cfg.LLM.Dimensions == 0 {
		cfg.LLM.Dimensions = 1536
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Retrieval.ChunkSize == 0 {
		cfg.Retrieval.ChunkSize = 1000
	}
	if cfg.Retrieval.ChunkOverlap == 0 {
		cfg.Retrieval.ChunkOverlap = 200
	}
	if cfg.Watch.DebounceMS == 0 {
		cfg.Watch.DebounceMS = 2000
	}
}
