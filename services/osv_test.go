package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgwoorl/design-patterns-galiulina/core"
)

func TestOSVReportInItemUnit(t *testing.T) {
	f := newFixture(t)
	svc := NewOSVService(f.repo, f.bus)

	// Flour is measured in kilograms: +0.1 kg and -0.05 kg (50 grams).
	f.movement(t, "2024-01-01", 0.1)
	f.movement(t, "2024-02-01", -0.05)

	rows, err := svc.Generate(date(t, "2024-01-01"), date(t, "2024-02-28"), f.main.Code())
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, f.flour.Code(), row.NomenclatureID)
	assert.Equal(t, "kilogram", row.Unit)
	assert.InDelta(t, 0, row.StartBalance, 1e-9)
	assert.InDelta(t, 0.1, row.Income, 1e-9)
	assert.InDelta(t, 0.05, row.Outcome, 1e-9)
	assert.InDelta(t, 0.05, row.EndBalance, 1e-9)
}

func TestOSVOpeningBalanceBeforePeriod(t *testing.T) {
	f := newFixture(t)
	svc := NewOSVService(f.repo, f.bus)

	f.movement(t, "2023-12-15", 2)
	f.movement(t, "2024-01-10", 1)
	f.movement(t, "2024-01-20", -0.5)

	rows, err := svc.Generate(date(t, "2024-01-01"), date(t, "2024-01-31"), f.main.Code())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.InDelta(t, 2, rows[0].StartBalance, 1e-9)
	assert.InDelta(t, 1, rows[0].Income, 1e-9)
	assert.InDelta(t, 0.5, rows[0].Outcome, 1e-9)
	assert.InDelta(t, 2.5, rows[0].EndBalance, 1e-9)
}

func TestOSVRoundsToThreeDecimals(t *testing.T) {
	f := newFixture(t)
	svc := NewOSVService(f.repo, f.bus)

	f.movement(t, "2024-01-10", 0.0004) // 0.4 grams, rounds away in kilograms
	f.movement(t, "2024-01-11", 0.0006)

	rows, err := svc.Generate(date(t, "2024-01-01"), date(t, "2024-01-31"), f.main.Code())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 0.001, rows[0].EndBalance)
}

func TestOSVValidation(t *testing.T) {
	f := newFixture(t)
	svc := NewOSVService(f.repo, f.bus)

	_, err := svc.Generate(date(t, "2024-02-01"), date(t, "2024-01-01"), f.main.Code())
	require.Error(t, err)
	assert.True(t, core.IsArgument(err))

	_, err = svc.Generate(date(t, "2024-01-01"), date(t, "2024-02-01"), "missing")
	require.Error(t, err)
	assert.True(t, core.IsOperation(err))
}

func TestOSVWithFilters(t *testing.T) {
	f := newFixture(t)
	svc := NewOSVService(f.repo, f.bus)
	f.movement(t, "2024-01-10", 1)

	rows, err := svc.GenerateWithFilters([]core.Filter{
		{FieldName: "period", Value: "2024-01-01", Type: core.OpGreaterEqual},
		{FieldName: "period", Value: "2024-01-31", Type: core.OpLessEqual},
		{FieldName: "storage", Value: f.main.Code(), Type: core.OpEquals},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.InDelta(t, 1, rows[0].Income, 1e-9)
}

func TestOSVFilterNarrowsItemsByNestedPath(t *testing.T) {
	f := newFixture(t)
	svc := NewOSVService(f.repo, f.bus)
	f.movement(t, "2024-01-10", 1)

	rows, err := svc.GenerateWithFilters([]core.Filter{
		{FieldName: "period", Value: "2024-01-01", Type: core.OpGreaterEqual},
		{FieldName: "period", Value: "2024-01-31", Type: core.OpLessEqual},
		{FieldName: "storage", Value: f.main.Code(), Type: core.OpEquals},
		{FieldName: "group/name", Value: "cere", Type: core.OpLike},
	})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = svc.GenerateWithFilters([]core.Filter{
		{FieldName: "period", Value: "2024-01-01", Type: core.OpGreaterEqual},
		{FieldName: "period", Value: "2024-01-31", Type: core.OpLessEqual},
		{FieldName: "storage", Value: f.main.Code(), Type: core.OpEquals},
		{FieldName: "group/name", Value: "dairy", Type: core.OpLike},
	})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestOSVFiltersAreMandatory(t *testing.T) {
	f := newFixture(t)
	svc := NewOSVService(f.repo, f.bus)

	_, err := svc.GenerateWithFilters([]core.Filter{
		{FieldName: "storage", Value: f.main.Code(), Type: core.OpEquals},
	})
	require.Error(t, err)
	assert.True(t, core.IsArgument(err))

	_, err = svc.GenerateWithFilters([]core.Filter{
		{FieldName: "period", Value: "2024-01-01", Type: core.OpEquals},
	})
	require.Error(t, err)
	assert.True(t, core.IsArgument(err))
}

func TestOSVEqualsPeriodSetsBothBounds(t *testing.T) {
	f := newFixture(t)
	svc := NewOSVService(f.repo, f.bus)
	f.movement(t, "2024-01-10", 1)

	rows, err := svc.GenerateWithFilters([]core.Filter{
		{FieldName: "period", Value: "2024-01-10", Type: core.OpEquals},
		{FieldName: "storage", Value: f.main.Code(), Type: core.OpEquals},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.InDelta(t, 1, rows[0].Income, 1e-9)
}
