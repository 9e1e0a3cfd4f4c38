package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/hyperjump/satei/internal/adjudicate"
	"github.com/hyperjump/satei/internal/extract"
	"github.com/hyperjump/satei/internal/ingest"
	"github.com/hyperjump/satei/internal/kb"
	"github.com/hyperjump/satei/internal/models"
	"go.uber.org/zap"
)

const maxUploadBytes = 32 << 20 // 32 MiB

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	base := s.PersistentKB()
	if base == nil {
		s.respondError(w, http.StatusServiceUnavailable, "persistent knowledge base is not loaded; run a rebuild first")
		return
	}
	s.logger.Debug("query request", zap.String("query", req.Query))
	s.adjudicateAndRespond(w, r, req.Query, base)
}

func (s *Server) handleQueryUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	query := r.FormValue("query")
	if query == "" {
		s.respondError(w, http.StatusBadRequest, "missing 'query' form field")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "missing 'file' form field")
		return
	}
	defer file.Close()

	tempPath, err := s.saveUpload(file, header.Filename)
	if err != nil {
		s.logger.Error("saving upload failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "could not store the uploaded file")
		return
	}
	// The upload is request-scoped: it is removed on success, business
	// error, and panic alike.
	defer func() {
		if err := os.Remove(tempPath); err != nil {
			s.logger.Warn("failed to remove upload", zap.String("path", tempPath), zap.Error(err))
		}
	}()

	s.logger.Debug("upload query request", zap.String("query", query), zap.String("filename", header.Filename))
	ephemeral, err := s.ingestor.BuildFromFile(r.Context(), tempPath)
	if err != nil {
		s.respondBuildError(w, err)
		return
	}
	s.adjudicateAndRespond(w, r, query, ephemeral)
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("rebuild requested", zap.String("corpus_dir", s.config.Storage.CorpusDir))
	base, err := s.ingestor.BuildFromCorpus(r.Context(), s.config.Storage.CorpusDir)
	if err != nil {
		s.logger.Error("rebuild failed", zap.Error(err))
		s.respondBuildError(w, err)
		return
	}
	if err := kb.Save(base, s.config.Storage.EmbeddingsPath, s.config.Storage.ChunksPath); err != nil {
		s.logger.Error("persisting rebuilt knowledge base failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.SwapPersistentKB(base)
	s.respondJSON(w, http.StatusOK, map[string]any{"status": "rebuilt", "chunks": base.Size()})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"persistent_loaded": false,
	}
	if base := s.PersistentKB(); base != nil {
		resp["persistent_loaded"] = true
		resp["chunks"] = base.Size()
		resp["index_size"] = base.Index.Size()
	}
	resp["config"] = map[string]any{
		"top_k":         s.config.Retrieval.TopK,
		"chunk_size":    s.config.Retrieval.ChunkSize,
		"chunk_overlap": s.config.Retrieval.ChunkOverlap,
		"dimensions":    s.config.LLM.Dimensions,
		"corpus_dir":    s.config.Storage.CorpusDir,
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// adjudicateAndRespond runs retrieval and adjudication for query against
// base and writes the decision. Every outcome, the degrade payload included,
// is a single JSON object.
func (s *Server) adjudicateAndRespond(w http.ResponseWriter, r *http.Request, query string, base *kb.KnowledgeBase) {
	chunks, err := s.retriever.Retrieve(r.Context(), query, base, s.config.Retrieval.TopK)
	if err != nil {
		s.logger.Error("retrieval failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	decision, err := s.adjudicator.Decide(r.Context(), query, chunks)
	if err != nil {
		if errors.Is(err, adjudicate.ErrMalformedDecision) {
			s.logger.Error("decision violated the output contract", zap.Error(err))
			s.respondError(w, http.StatusBadGateway, err.Error())
			return
		}
		s.logger.Error("adjudication failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, decision)
}

// saveUpload writes the uploaded stream to the upload directory under a
// random name that keeps the original extension, so extractor dispatch
// still sees it.
func (s *Server) saveUpload(file io.Reader, filename string) (string, error) {
	if err := os.MkdirAll(s.config.Storage.UploadDir, 0755); err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(filename))
	tempPath := filepath.Join(s.config.Storage.UploadDir, uuid.New().String()+ext)
	out, err := os.Create(tempPath)
	if err != nil {
		return "", err
	}
	defer out.Close()
	if _, err := io.Copy(out, file); err != nil {
		_ = os.Remove(tempPath)
		return "", err
	}
	return tempPath, nil
}

func (s *Server) respondBuildError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ingest.ErrEmptyCorpus):
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, extract.ErrExtraction):
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
