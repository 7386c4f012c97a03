/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for the orchestrator-facing API. These decouple the
  internal domain model from the wire contract: dates travel as
  "YYYY-MM-DD" strings and money as decimal strings, so clients never see
  Go time zones or float rounding.

NAMING CONVENTION:
  - *DTO: response types returned to clients
  - *Request: request body types from clients

SEE ALSO:
  - handlers.go: builds and consumes these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/arrenda/receipt-engine/landlord"
	"github.com/arrenda/receipt-engine/store/sqlite"
)

const dateLayout = "2006-01-02"

// =============================================================================
// IMPORT PREVIEW
// =============================================================================

// ReceiptDTO is one generated receipt in a preview response.
type ReceiptDTO struct {
	ContractID  string `json:"contract_id"`
	FromDate    string `json:"from_date"`
	ToDate      string `json:"to_date"`
	PaymentDate string `json:"payment_date"`
	ReceiptType string `json:"receipt_type"`
	Value       string `json:"value"`
}

// AlertDTO is one cross-column alert in a preview response.
type AlertDTO struct {
	ContractNumber string `json:"contract_number"`
	PaymentDate    string `json:"payment_date"`
	PaymentColumn  string `json:"payment_column"`
	ExpectedColumn string `json:"expected_column"`
	RentPeriodFrom string `json:"rent_period_from"`
	RentPeriodTo   string `json:"rent_period_to"`
	Reason         string `json:"reason"`
}

// PreviewResponse is the full outcome of a dry parse. Nothing is persisted.
type PreviewResponse struct {
	Receipts  []ReceiptDTO `json:"receipts"`
	Alerts    []AlertDTO   `json:"alerts"`
	RowErrors []string     `json:"row_errors"`
}

// ValidateResponse is the structure-only verdict for a workbook.
type ValidateResponse struct {
	Valid    bool     `json:"valid"`
	Problems []string `json:"problems,omitempty"`
}

func receiptToDTO(r landlord.ReceiptData) ReceiptDTO {
	return ReceiptDTO{
		ContractID:  r.ContractID,
		FromDate:    r.FromDate.Format(dateLayout),
		ToDate:      r.ToDate.Format(dateLayout),
		PaymentDate: r.PaymentDate.Format(dateLayout),
		ReceiptType: r.ReceiptType,
		Value:       r.Value.String(),
	}
}

func alertToDTO(a landlord.ProcessingAlert) AlertDTO {
	return AlertDTO{
		ContractNumber: a.ContractNumber,
		PaymentDate:    a.PaymentDate.Format(dateLayout),
		PaymentColumn:  a.PaymentColumn,
		ExpectedColumn: a.ExpectedColumn,
		RentPeriodFrom: a.RentPeriodFrom.Format(dateLayout),
		RentPeriodTo:   a.RentPeriodTo.Format(dateLayout),
		Reason:         a.Reason,
	}
}

func previewToResponse(result *landlord.Result) PreviewResponse {
	resp := PreviewResponse{
		Receipts:  make([]ReceiptDTO, 0, len(result.Receipts)),
		Alerts:    make([]AlertDTO, 0, len(result.Alerts)),
		RowErrors: result.RowErrors,
	}
	if resp.RowErrors == nil {
		resp.RowErrors = []string{}
	}
	for _, r := range result.Receipts {
		resp.Receipts = append(resp.Receipts, receiptToDTO(r))
	}
	for _, a := range result.Alerts {
		resp.Alerts = append(resp.Alerts, alertToDTO(a))
	}
	return resp
}

// =============================================================================
// HISTORY
// =============================================================================

// HistoryRecordRequest records one submission outcome.
type HistoryRecordRequest struct {
	ContractID     string `json:"contract_id"`
	TenantName     string `json:"tenant_name"`
	FromDate       string `json:"from_date"`
	ToDate         string `json:"to_date"`
	PaymentDate    string `json:"payment_date"`
	Value          string `json:"value"`
	ReceiptType    string `json:"receipt_type"`
	ReceiptNumber  string `json:"receipt_number"`
	Status         string `json:"status"`
	ErrorMessage   string `json:"error_message"`
	ProcessingMode string `json:"processing_mode"`
	DryRun         bool   `json:"dry_run"`
}

// RecordHistoryRequest is the POST /api/history body: a batch of outcomes,
// persisted atomically.
type RecordHistoryRequest struct {
	Receipts []HistoryRecordRequest `json:"receipts"`
}

// RecordHistoryResponse returns the ids assigned to the recorded batch.
type RecordHistoryResponse struct {
	IDs []int64 `json:"ids"`
}

// HistoryRecordDTO is one history row in responses.
type HistoryRecordDTO struct {
	ID             int64  `json:"id"`
	ContractID     string `json:"contract_id"`
	TenantName     string `json:"tenant_name"`
	FromDate       string `json:"from_date"`
	ToDate         string `json:"to_date"`
	PaymentDate    string `json:"payment_date,omitempty"`
	Value          string `json:"value"`
	ReceiptType    string `json:"receipt_type"`
	ReceiptNumber  string `json:"receipt_number,omitempty"`
	Status         string `json:"status"`
	ErrorMessage   string `json:"error_message,omitempty"`
	ProcessingMode string `json:"processing_mode,omitempty"`
	DryRun         bool   `json:"dry_run"`
	CreatedAt      string `json:"created_at"`
}

// StatsDTO summarizes the history.
type StatsDTO struct {
	TotalReceipts   int    `json:"total_receipts"`
	Successful      int    `json:"successful"`
	Failed          int    `json:"failed"`
	DryRun          int    `json:"dry_run"`
	UniqueContracts int    `json:"unique_contracts"`
	TotalValue      string `json:"total_value"`
	AverageValue    string `json:"average_value"`
	EarliestCreated string `json:"earliest_created,omitempty"`
	LatestCreated   string `json:"latest_created,omitempty"`
}

func (r HistoryRecordRequest) toRecord() (sqlite.ReceiptRecord, error) {
	rec := sqlite.ReceiptRecord{
		ContractID:     r.ContractID,
		TenantName:     r.TenantName,
		ReceiptType:    r.ReceiptType,
		ReceiptNumber:  r.ReceiptNumber,
		Status:         r.Status,
		ErrorMessage:   r.ErrorMessage,
		ProcessingMode: r.ProcessingMode,
		DryRun:         r.DryRun,
	}

	var err error
	if rec.FromDate, err = time.Parse(dateLayout, r.FromDate); err != nil {
		return rec, err
	}
	if rec.ToDate, err = time.Parse(dateLayout, r.ToDate); err != nil {
		return rec, err
	}
	if r.PaymentDate != "" {
		if rec.PaymentDate, err = time.Parse(dateLayout, r.PaymentDate); err != nil {
			return rec, err
		}
	}
	if rec.Value, err = decimal.NewFromString(r.Value); err != nil {
		return rec, err
	}
	return rec, nil
}

func historyToDTO(rec sqlite.ReceiptRecord) HistoryRecordDTO {
	dto := HistoryRecordDTO{
		ID:             rec.ID,
		ContractID:     rec.ContractID,
		TenantName:     rec.TenantName,
		FromDate:       rec.FromDate.Format(dateLayout),
		ToDate:         rec.ToDate.Format(dateLayout),
		Value:          rec.Value.String(),
		ReceiptType:    rec.ReceiptType,
		ReceiptNumber:  rec.ReceiptNumber,
		Status:         rec.Status,
		ErrorMessage:   rec.ErrorMessage,
		ProcessingMode: rec.ProcessingMode,
		DryRun:         rec.DryRun,
		CreatedAt:      rec.CreatedAt.Format(time.RFC3339),
	}
	if !rec.PaymentDate.IsZero() {
		dto.PaymentDate = rec.PaymentDate.Format(dateLayout)
	}
	return dto
}

func statsToDTO(s sqlite.Stats) StatsDTO {
	dto := StatsDTO{
		TotalReceipts:   s.TotalReceipts,
		Successful:      s.Successful,
		Failed:          s.Failed,
		DryRun:          s.DryRun,
		UniqueContracts: s.UniqueContracts,
		TotalValue:      s.TotalValue.String(),
		AverageValue:    s.AverageValue.String(),
	}
	if !s.EarliestCreated.IsZero() {
		dto.EarliestCreated = s.EarliestCreated.Format(time.RFC3339)
	}
	if !s.LatestCreated.IsZero() {
		dto.LatestCreated = s.LatestCreated.Format(time.RFC3339)
	}
	return dto
}
