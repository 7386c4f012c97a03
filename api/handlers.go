/*
handlers.go - HTTP handlers for the receipt engine API

PURPOSE:
  Exposes workbook import and receipt history to the submission
  orchestrator and reviewer tooling. Handles HTTP request/response and
  JSON serialization; all domain logic lives in landlord and store/sqlite.

ENDPOINTS:
  Imports:
    POST   /api/imports/preview    Dry-parse an uploaded workbook
    POST   /api/imports/validate   Structure-only validation verdict

  History:
    POST   /api/history                       Record submission outcomes
    GET    /api/history                       Recent records (?limit=)
    GET    /api/history/stats                 Aggregates
    GET    /api/history/{id}                  One record
    DELETE /api/history/{id}                  Remove one record
    GET    /api/history/contract/{contractID} Contract history

  GET /api/health    Liveness probe

ERROR HANDLING:
  Errors are returned as {"error": "..."} with appropriate HTTP status:
  - 400: malformed upload/body, structural validation failure
  - 404: unknown sheet, unknown history id
  - 413: upload over the size cap
  - 500: storage or I/O failures

SEE ALSO:
  - dto.go: request/response shapes
  - server.go: router and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/arrenda/receipt-engine/landlord"
	"github.com/arrenda/receipt-engine/store/sqlite"
)

// DefaultMaxUploadBytes caps workbook uploads. Landlord files are small;
// anything bigger than this is not a payment spreadsheet.
const DefaultMaxUploadBytes = 10 << 20

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store          *sqlite.Store
	Processor      *landlord.Processor
	MaxUploadBytes int64
}

func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:          store,
		Processor:      landlord.NewProcessor(),
		MaxUploadBytes: DefaultMaxUploadBytes,
	}
}

// =============================================================================
// IMPORTS
// =============================================================================

// PreviewImport parses an uploaded workbook and returns the receipts and
// alerts it would produce. Nothing is persisted; the orchestrator decides
// what to do with the result.
//
// Multipart form fields: workbook (file), month (1-12), year, sheet
// (optional sheet name).
func (h *Handler) PreviewImport(w http.ResponseWriter, r *http.Request) {
	path, month, year, sheet, ok := h.receiveWorkbook(w, r)
	if !ok {
		return
	}
	defer os.Remove(path)

	result, err := h.Processor.ParseWorkbook(path, month, year, sheet)
	if err != nil {
		h.writeParseError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, previewToResponse(result))
}

// ValidateImport runs structure-only validation on an uploaded workbook.
// Month and year are not required; only the sheet layout is inspected.
func (h *Handler) ValidateImport(w http.ResponseWriter, r *http.Request) {
	path, _, _, sheet, ok := h.receiveWorkbook(w, r)
	if !ok {
		return
	}
	defer os.Remove(path)

	valid, problems, err := h.Processor.ValidateWorkbook(path, sheet)
	if err != nil {
		h.writeParseError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ValidateResponse{Valid: valid, Problems: problems})
}

// receiveWorkbook pulls the multipart upload into a temp file and parses
// the scoping fields. On failure it writes the error response and reports
// ok=false.
func (h *Handler) receiveWorkbook(w http.ResponseWriter, r *http.Request) (path string, month time.Month, year int, sheet string, ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)

	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "workbook upload too large")
			return "", 0, 0, "", false
		}
		writeError(w, http.StatusBadRequest, "malformed multipart form: "+err.Error())
		return "", 0, 0, "", false
	}

	file, header, err := r.FormFile("workbook")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing workbook file field")
		return "", 0, 0, "", false
	}
	defer file.Close()

	// Month/year default to the current calendar month when omitted; they
	// only frame alert expectations and the payment-date year.
	now := time.Now()
	month = now.Month()
	year = now.Year()
	if v := r.FormValue("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			writeError(w, http.StatusBadRequest, "month must be 1-12")
			return "", 0, 0, "", false
		}
		month = time.Month(m)
	}
	if v := r.FormValue("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 {
			writeError(w, http.StatusBadRequest, "invalid year")
			return "", 0, 0, "", false
		}
		year = y
	}
	sheet = r.FormValue("sheet")

	tmp, err := os.CreateTemp("", "import-*"+filepath.Ext(header.Filename))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cannot stage upload")
		return "", 0, 0, "", false
	}
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		writeError(w, http.StatusInternalServerError, "cannot stage upload")
		return "", 0, 0, "", false
	}
	tmp.Close()

	return tmp.Name(), month, year, sheet, true
}

// writeParseError maps processor errors onto HTTP statuses.
func (h *Handler) writeParseError(w http.ResponseWriter, err error) {
	var structErr *landlord.StructureError
	var sheetErr *landlord.SheetNotFoundError

	switch {
	case errors.As(err, &structErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":    "workbook validation failed",
			"problems": structErr.Problems,
		})
	case errors.As(err, &sheetErr):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		log.Printf("import failed: %v", err)
		writeError(w, http.StatusInternalServerError, "import failed")
	}
}

// =============================================================================
// HISTORY
// =============================================================================

// RecordHistory persists a batch of submission outcomes atomically.
func (h *Handler) RecordHistory(w http.ResponseWriter, r *http.Request) {
	var req RecordHistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if len(req.Receipts) == 0 {
		writeError(w, http.StatusBadRequest, "receipts must not be empty")
		return
	}

	recs := make([]sqlite.ReceiptRecord, 0, len(req.Receipts))
	for i, rr := range req.Receipts {
		if rr.ContractID == "" {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("receipt %d: contract_id is required", i))
			return
		}
		if rr.Status == "" {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("receipt %d: status is required", i))
			return
		}
		rec, err := rr.toRecord()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("receipt %d: %v", i, err))
			return
		}
		recs = append(recs, rec)
	}

	ids, err := h.Store.SaveBatch(r.Context(), recs)
	if err != nil {
		log.Printf("record history failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to record history")
		return
	}

	writeJSON(w, http.StatusCreated, RecordHistoryResponse{IDs: ids})
}

// ListHistory returns recent records, newest first.
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	recs, err := h.Store.RecentReceipts(r.Context(), limit)
	if err != nil {
		log.Printf("list history failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list history")
		return
	}

	writeJSON(w, http.StatusOK, historyListToDTO(recs))
}

// GetHistoryRecord returns one record by id.
func (h *Handler) GetHistoryRecord(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid record id")
		return
	}

	rec, err := h.Store.ReceiptByID(r.Context(), id)
	if errors.Is(err, sqlite.ErrReceiptNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		log.Printf("get history record failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch record")
		return
	}

	writeJSON(w, http.StatusOK, historyToDTO(rec))
}

// GetContractHistory returns all records for a contract, newest first.
func (h *Handler) GetContractHistory(w http.ResponseWriter, r *http.Request) {
	contractID := chi.URLParam(r, "contractID")

	recs, err := h.Store.ReceiptsByContract(r.Context(), contractID)
	if err != nil {
		log.Printf("contract history failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch contract history")
		return
	}

	writeJSON(w, http.StatusOK, historyListToDTO(recs))
}

// GetStats returns history-wide aggregates.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Store.Stats(r.Context())
	if err != nil {
		log.Printf("stats failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}

	writeJSON(w, http.StatusOK, statsToDTO(stats))
}

// DeleteHistoryRecord removes one record by id.
func (h *Handler) DeleteHistoryRecord(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid record id")
		return
	}

	err = h.Store.DeleteReceipt(r.Context(), id)
	if errors.Is(err, sqlite.ErrReceiptNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		log.Printf("delete history record failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to delete record")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Health is the liveness probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func historyListToDTO(recs []sqlite.ReceiptRecord) []HistoryRecordDTO {
	dtos := make([]HistoryRecordDTO, 0, len(recs))
	for _, rec := range recs {
		dtos = append(dtos, historyToDTO(rec))
	}
	return dtos
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
