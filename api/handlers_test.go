package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/arrenda/receipt-engine/api"
	"github.com/arrenda/receipt-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	srv := httptest.NewServer(api.NewRouter(api.NewHandler(store)))
	t.Cleanup(srv.Close)
	return srv
}

// workbookBytes builds an in-memory .xlsx with the given rows on Sheet1.
func workbookBytes(t *testing.T, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, v))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

// uploadWorkbook posts a multipart workbook to the given import endpoint.
func uploadWorkbook(t *testing.T, srv *httptest.Server, endpoint string, workbook []byte, fields map[string]string) *http.Response {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("workbook", "landlord.xlsx")
	require.NoError(t, err)
	_, err = fw.Write(workbook)
	require.NoError(t, err)

	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+endpoint, mw.FormDataContentType(), &body)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

var testHeader = []any{"Contract", "Name", "Rent", "RentDeposit", "MonthsLate", "PaidCurrentMonth", "Jan"}

func historyBody(contractID, status string) string {
	return fmt.Sprintf(`{"receipts": [{
		"contract_id": %q,
		"tenant_name": "John",
		"from_date": "2026-02-01",
		"to_date": "2026-02-28",
		"payment_date": "2026-01-15",
		"value": "500",
		"receipt_type": "rent",
		"status": %q
	}]}`, contractID, status)
}

// =============================================================================
// HEALTH
// =============================================================================

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decodeJSON(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
}

// =============================================================================
// IMPORTS
// =============================================================================

func TestPreviewImport(t *testing.T) {
	srv := newTestServer(t)

	wb := workbookBytes(t, [][]any{
		testHeader,
		{"12345", "John", 500.0, 1, 0, "No", 15},
	})

	resp := uploadWorkbook(t, srv, "/api/imports/preview", wb, map[string]string{
		"month": "2",
		"year":  "2026",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var preview api.PreviewResponse
	decodeJSON(t, resp, &preview)

	require.Len(t, preview.Receipts, 1)
	r := preview.Receipts[0]
	assert.Equal(t, "12345", r.ContractID)
	assert.Equal(t, "2026-01-15", r.PaymentDate)
	assert.Equal(t, "2026-02-01", r.FromDate)
	assert.Equal(t, "2026-02-28", r.ToDate)
	assert.Equal(t, "rent", r.ReceiptType)
	assert.Equal(t, "500", r.Value)

	assert.Empty(t, preview.Alerts)
	assert.Empty(t, preview.RowErrors)
}

func TestPreviewImport_StructuralFailure(t *testing.T) {
	srv := newTestServer(t)

	wb := workbookBytes(t, [][]any{
		{"Contract", "Name"},
		{"12345", "John"},
	})

	resp := uploadWorkbook(t, srv, "/api/imports/preview", wb, map[string]string{
		"month": "1", "year": "2026",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Error    string   `json:"error"`
		Problems []string `json:"problems"`
	}
	decodeJSON(t, resp, &body)
	assert.Equal(t, "workbook validation failed", body.Error)
	assert.Len(t, body.Problems, 2)
}

func TestPreviewImport_SheetNotFound(t *testing.T) {
	srv := newTestServer(t)

	wb := workbookBytes(t, [][]any{
		testHeader,
		{"12345", "John", 500.0, 1, 0, "No", 15},
	})

	resp := uploadWorkbook(t, srv, "/api/imports/preview", wb, map[string]string{
		"month": "1", "year": "2026", "sheet": "Missing",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPreviewImport_MissingFileField(t *testing.T) {
	srv := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("month", "1"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/api/imports/preview", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPreviewImport_InvalidMonth(t *testing.T) {
	srv := newTestServer(t)

	wb := workbookBytes(t, [][]any{
		testHeader,
		{"12345", "John", 500.0, 1, 0, "No", 15},
	})

	resp := uploadWorkbook(t, srv, "/api/imports/preview", wb, map[string]string{
		"month": "13", "year": "2026",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestValidateImport(t *testing.T) {
	srv := newTestServer(t)

	good := workbookBytes(t, [][]any{
		testHeader,
		{"12345", "John", 500.0, 1, 0, "No", 15},
	})
	resp := uploadWorkbook(t, srv, "/api/imports/validate", good, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var verdict api.ValidateResponse
	decodeJSON(t, resp, &verdict)
	assert.True(t, verdict.Valid)
	assert.Empty(t, verdict.Problems)

	bad := workbookBytes(t, [][]any{
		{"Contract", "Name"},
		{"12345", "John"},
	})
	resp = uploadWorkbook(t, srv, "/api/imports/validate", bad, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	decodeJSON(t, resp, &verdict)
	assert.False(t, verdict.Valid)
	assert.Len(t, verdict.Problems, 2)
}

// =============================================================================
// HISTORY
// =============================================================================

func TestHistoryLifecycle(t *testing.T) {
	srv := newTestServer(t)

	// Record an outcome
	resp, err := http.Post(srv.URL+"/api/history", "application/json",
		strings.NewReader(historyBody("12345", "success")))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created api.RecordHistoryResponse
	decodeJSON(t, resp, &created)
	require.Len(t, created.IDs, 1)
	id := created.IDs[0]

	// Fetch it back
	resp, err = http.Get(fmt.Sprintf("%s/api/history/%d", srv.URL, id))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rec api.HistoryRecordDTO
	decodeJSON(t, resp, &rec)
	assert.Equal(t, "12345", rec.ContractID)
	assert.Equal(t, "2026-02-01", rec.FromDate)
	assert.Equal(t, "500", rec.Value)
	assert.Equal(t, "success", rec.Status)

	// Contract history
	resp, err = http.Get(srv.URL + "/api/history/contract/12345")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list []api.HistoryRecordDTO
	decodeJSON(t, resp, &list)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)

	// Stats reflect the record
	resp, err = http.Get(srv.URL + "/api/history/stats")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats api.StatsDTO
	decodeJSON(t, resp, &stats)
	assert.Equal(t, 1, stats.TotalReceipts)
	assert.Equal(t, 1, stats.Successful)
	assert.Equal(t, "500", stats.TotalValue)

	// Delete it
	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/history/%d", srv.URL, id), nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(fmt.Sprintf("%s/api/history/%d", srv.URL, id))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListHistory_Limit(t *testing.T) {
	srv := newTestServer(t)

	for i := 0; i < 3; i++ {
		resp, err := http.Post(srv.URL+"/api/history", "application/json",
			strings.NewReader(historyBody(fmt.Sprintf("c-%d", i), "success")))
		require.NoError(t, err)
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, err := http.Get(srv.URL + "/api/history?limit=2")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list []api.HistoryRecordDTO
	decodeJSON(t, resp, &list)
	assert.Len(t, list, 2)
}

func TestRecordHistory_Validation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"empty batch", `{"receipts": []}`},
		{"missing contract", historyBody("", "success")},
		{"missing status", historyBody("12345", "")},
		{"bad date", `{"receipts": [{"contract_id": "1", "status": "success", "from_date": "junk", "to_date": "2026-02-28", "value": "500"}]}`},
		{"bad value", `{"receipts": [{"contract_id": "1", "status": "success", "from_date": "2026-02-01", "to_date": "2026-02-28", "value": "abc"}]}`},
		{"not json", `nope`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/api/history", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestGetHistoryRecord_BadID(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/history/notanumber")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
