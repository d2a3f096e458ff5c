package api

import (
	"encoding/json"
	"net/http"

	"github.com/okian/streakcard/internal/domain/types"
	"github.com/okian/streakcard/pkg/logger"
)

const maxBatchBody = 64 << 10

type batchRequest struct {
	Usernames []string `json:"usernames"`
}

type batchResponse struct {
	Results []types.BatchItem `json:"results"`
}

// BatchHandler summarizes several users in one request.
type BatchHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewBatchHandler creates a new batch handler.
func NewBatchHandler(deps Dependencies, l logger.Logger) *BatchHandler {
	return &BatchHandler{deps: deps, logger: l}
}

// HandleBatch handles POST /streaks requests.
func (h *BatchHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBatchBody)).Decode(&req); err != nil {
		writeFailure(w, badRequest("invalid JSON: %v", err))
		return
	}
	items, err := h.deps.Batch(r.Context(), req.Usernames)
	if err != nil {
		logFailure(r.Context(), h.logger, "batch failed", err, logger.Int("usernames", len(req.Usernames)))
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{Results: items})
}
