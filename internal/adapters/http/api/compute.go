package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/okian/streakcard/internal/domain/model"
)

// Request limits. With at most maxComputeRecords counts of at most
// maxRecordCount each, the engine's total cannot overflow an int.
const (
	maxComputeBody    = 1 << 20
	maxComputeRecords = 10000
	maxRecordCount    = math.MaxInt32
)

// computeRequest mirrors the OpenAPI schema for POST /streak/compute.
type computeRequest struct {
	Records []recordRequest `json:"records"`
	Now     string          `json:"now,omitempty"`
}

type recordRequest struct {
	Date  string `json:"date"`
	Count *int   `json:"count"`
}

// toRecords validates the request and converts it for the engine, which
// assumes well-formed dates and non-negative counts.
func (c computeRequest) toRecords() ([]model.DailyRecord, error) {
	if len(c.Records) > maxComputeRecords {
		return nil, badRequest("too many records: %d > %d", len(c.Records), maxComputeRecords)
	}
	records := make([]model.DailyRecord, len(c.Records))
	for i, rec := range c.Records {
		date, err := model.ParseDate(rec.Date)
		if err != nil {
			return nil, badRequest("records[%d].date %q must be YYYY-MM-DD", i, rec.Date)
		}
		if rec.Count == nil {
			return nil, badRequest("records[%d].count is required", i)
		}
		if *rec.Count < 0 {
			return nil, badRequest("records[%d].count must be non-negative", i)
		}
		if *rec.Count > maxRecordCount {
			return nil, badRequest("records[%d].count must not exceed %d", i, maxRecordCount)
		}
		records[i] = model.DailyRecord{Date: date, Count: *rec.Count}
	}
	return records, nil
}

// ComputeHandler runs the streak engine over posted records.
type ComputeHandler struct {
	deps  Dependencies
	clock func() time.Time
}

// NewComputeHandler creates a new compute handler.
func NewComputeHandler(deps Dependencies, clock func() time.Time) *ComputeHandler {
	return &ComputeHandler{deps: deps, clock: clock}
}

// HandleCompute handles POST /streak/compute requests.
func (h *ComputeHandler) HandleCompute(w http.ResponseWriter, r *http.Request) {
	var req computeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxComputeBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", err)
			return
		}
		writeFailure(w, badRequest("invalid JSON: %v", err))
		return
	}

	records, err := req.toRecords()
	if err != nil {
		writeFailure(w, err)
		return
	}

	now := h.clock()
	if req.Now != "" {
		now, err = time.Parse(time.RFC3339, req.Now)
		if err != nil {
			writeFailure(w, badRequest("now must be RFC3339"))
			return
		}
	}

	writeJSON(w, http.StatusOK, h.deps.Compute(r.Context(), records, now))
}
