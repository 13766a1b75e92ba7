package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/custodia-labs/kbsync/internal/core/domain"
	"github.com/custodia-labs/kbsync/internal/logger"
)

const maxBodyBytes = 1 << 20

type scheduleRequest struct {
	FolderID string `json:"folder_id"`
}

type reindexResponse struct {
	Status string `json:"status"`
	*domain.ReindexResult
}

type triggerResponse struct {
	Status string `json:"status"`
}

type searchHit struct {
	DocumentID   string  `json:"doc_id"`
	ChunkID      string  `json:"chunk_id"`
	Content      string  `json:"content"`
	Score        float64 `json:"score"`
	Source       string  `json:"source,omitempty"`
	FileName     string  `json:"file_name,omitempty"`
	MimeType     string  `json:"mime_type,omitempty"`
	ModifiedTime string  `json:"modified_time,omitempty"`
}

type searchResponse struct {
	Query   string      `json:"query"`
	Results []searchHit `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, fmt.Errorf("%w: invalid JSON body", domain.ErrInvalidInput))
		return
	}
	if strings.TrimSpace(req.FolderID) == "" {
		writeError(w, fmt.Errorf("%w: folder_id is required", domain.ErrInvalidInput))
		return
	}

	res, err := s.kb.Schedule(r.Context(), req.FolderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	res, err := s.kb.Reindex(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reindexResponse{Status: domain.StatusReindexed, ReindexResult: res})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.kb.Status(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleTrigger(w http.ResponseWriter, _ *http.Request) {
	s.kb.Trigger()
	writeJSON(w, http.StatusAccepted, triggerResponse{Status: "TRIGGERED"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")

	topK := 0
	if raw := q.Get("top_k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, fmt.Errorf("%w: top_k must be an integer", domain.ErrInvalidInput))
			return
		}
		topK = n
	}

	hits, err := s.kb.Search(r.Context(), query, topK)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := searchResponse{Query: query, Results: make([]searchHit, 0, len(hits))}
	for _, h := range hits {
		resp.Results = append(resp.Results, searchHit{
			DocumentID:   h.Chunk.DocumentID,
			ChunkID:      h.Chunk.ChunkID,
			Content:      h.Chunk.Content,
			Score:        h.Score,
			Source:       h.Chunk.Source,
			FileName:     h.Chunk.Metadata.FileName,
			MimeType:     h.Chunk.Metadata.MimeType,
			ModifiedTime: h.Chunk.Metadata.ModifiedTime,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeError maps client-fixable errors to 400 and everything else to 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if domain.IsClientError(err) {
		status = http.StatusBadRequest
	} else {
		logger.Error("Request failed: %v", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response: %v", err)
	}
}
