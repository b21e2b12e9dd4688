package models

import (
	"time"

	"github.com/mgwoorl/design-patterns-galiulina/core"
)

// TurnoverRecord is one pre-aggregated row of the turnover cache: the debit
// and credit totals of an (item, storage) pair over [1900-01-01, PeriodEnd].
// It references item and storage by code, not by pointer, so it survives
// snapshot round-trips untouched.
type TurnoverRecord struct {
	UniqueCode     string    `json:"unique_code"`
	NomenclatureID string    `json:"nomenclature_id"`
	StorageID      string    `json:"storage_id"`
	PeriodEnd      time.Time `json:"period_end"`
	DebitTurnover  float64   `json:"debit_turnover"`
	CreditTurnover float64   `json:"credit_turnover"`
	CalculatedAt   time.Time `json:"calculated_at"`
}

// NewTurnoverRecord builds a cache row, stamping the compute time.
func NewTurnoverRecord(nomenclatureID, storageID string, periodEnd time.Time, debit, credit float64) (*TurnoverRecord, error) {
	if debit < 0 || credit < 0 {
		return nil, core.NewIntegrityError("turnover record: totals must be non-negative (debit=%v credit=%v)", debit, credit)
	}
	return &TurnoverRecord{
		UniqueCode:     NewCode(),
		NomenclatureID: nomenclatureID,
		StorageID:      storageID,
		PeriodEnd:      periodEnd,
		DebitTurnover:  debit,
		CreditTurnover: credit,
		CalculatedAt:   time.Now().UTC(),
	}, nil
}

// Code returns the record's unique code.
func (r *TurnoverRecord) Code() string {
	return r.UniqueCode
}

// Balance returns debit minus credit, the frozen start balance of the pair.
func (r *TurnoverRecord) Balance() float64 {
	return r.DebitTurnover - r.CreditTurnover
}

// Field implements the descriptor table for filtering and formatting.
func (r *TurnoverRecord) Field(name string) (interface{}, bool) {
	switch name {
	case "unique_code":
		return r.UniqueCode, true
	case "nomenclature_id":
		return r.NomenclatureID, true
	case "storage_id":
		return r.StorageID, true
	case "period_end":
		return r.PeriodEnd, true
	case "debit_turnover":
		return r.DebitTurnover, true
	case "credit_turnover":
		return r.CreditTurnover, true
	case "calculated_at":
		return r.CalculatedAt, true
	}
	return nil, false
}

// FieldNames lists the filterable fields of a turnover record.
func (r *TurnoverRecord) FieldNames() []string {
	return []string{"unique_code", "nomenclature_id", "storage_id", "period_end", "debit_turnover", "credit_turnover", "calculated_at"}
}
