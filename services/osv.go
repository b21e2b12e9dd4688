package services

import (
	"math"
	"time"

	"github.com/mgwoorl/design-patterns-galiulina/core"
	"github.com/mgwoorl/design-patterns-galiulina/models"
	"github.com/mgwoorl/design-patterns-galiulina/repository"
)

const osvServiceName = "osv"

// OSVRow is one line of the turnover-balance (OSV) report. All quantities
// are expressed in the item's declared unit, rounded to three decimals.
type OSVRow struct {
	NomenclatureID   string  `json:"nomenclature_id"`
	NomenclatureName string  `json:"nomenclature_name"`
	Unit             string  `json:"unit"`
	StartBalance     float64 `json:"start_balance"`
	Income           float64 `json:"income"`
	Outcome          float64 `json:"outcome"`
	EndBalance       float64 `json:"end_balance"`
}

// OSVService builds the turnover-balance report: per item, the opening
// balance before the period, the inflow and outflow within it and the
// closing balance, at one storage.
type OSVService struct {
	repo *repository.Repository
	bus  *core.Bus
}

// NewOSVService creates the service.
func NewOSVService(repo *repository.Repository, bus *core.Bus) *OSVService {
	return &OSVService{repo: repo, bus: bus}
}

// Generate builds the report for every item over [start, end] at the given
// storage.
func (s *OSVService) Generate(start, end time.Time, storageID string) ([]OSVRow, error) {
	return s.generate(start, end, storageID, s.repo.Items())
}

// GenerateWithFilters builds the report from a filter list: the period
// bounds and the storage are extracted from the mandatory "period" and
// "storage" filters, every remaining filter narrows the item sequence.
func (s *OSVService) GenerateWithFilters(filters []core.Filter) ([]OSVRow, error) {
	var (
		start, end  *time.Time
		storageID   string
		itemFilters []core.Filter
		haveStorage bool
	)
	for _, f := range filters {
		switch f.FieldName {
		case "period":
			instant, err := core.ParseInstant(f.Value)
			if err != nil {
				return nil, err
			}
			switch f.Type {
			case core.OpGreater, core.OpGreaterEqual:
				start = &instant
			case core.OpLess, core.OpLessEqual:
				end = &instant
			case core.OpEquals:
				start, end = &instant, &instant
			default:
				return nil, core.NewArgumentError("period filter does not support operator %s", f.Type)
			}
		case "storage":
			if f.Type != core.OpEquals {
				return nil, core.NewArgumentError("storage filter requires the EQUALS operator")
			}
			storageID = f.Value
			haveStorage = true
		default:
			itemFilters = append(itemFilters, f)
		}
	}

	if start == nil || end == nil {
		return nil, core.NewArgumentError("the report requires both period bounds")
	}
	if !haveStorage {
		return nil, core.NewArgumentError("the report requires a storage filter")
	}

	items := core.Apply(s.repo.Items(), itemFilters)
	return s.generate(*start, *end, storageID, items)
}

func (s *OSVService) generate(start, end time.Time, storageID string, items []*models.Item) ([]OSVRow, error) {
	if end.Before(start) {
		return nil, core.NewArgumentError("period end %s precedes start %s",
			core.FormatInstant(end), core.FormatInstant(start))
	}
	if _, ok := s.repo.Find(repository.KindStorages, storageID); !ok {
		return nil, core.NewOperationError("storage %s not found", storageID)
	}

	transactions := s.repo.Transactions()
	rows := make([]OSVRow, 0, len(items))
	for _, item := range items {
		var opening, income, outcome float64
		for _, tx := range transactions {
			if tx.Item().Code() != item.Code() || tx.Storage().Code() != storageID {
				continue
			}
			rootQty, err := item.Unit().ToRoot(tx.Quantity())
			if err != nil {
				return nil, err
			}
			switch {
			case tx.Date().Before(start):
				opening += rootQty
			case !tx.Date().After(end):
				if rootQty > 0 {
					income += rootQty
				} else {
					outcome += -rootQty
				}
			}
		}

		row := OSVRow{
			NomenclatureID:   item.Code(),
			NomenclatureName: item.Name(),
			Unit:             item.Unit().Name(),
		}
		var err error
		if row.StartBalance, err = displayQuantity(item, opening); err != nil {
			return nil, err
		}
		if row.Income, err = displayQuantity(item, income); err != nil {
			return nil, err
		}
		if row.Outcome, err = displayQuantity(item, outcome); err != nil {
			return nil, err
		}
		if row.EndBalance, err = displayQuantity(item, opening+income-outcome); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	s.bus.Debug(osvServiceName, "osv report generated", map[string]interface{}{
		"start":   core.FormatInstant(start),
		"end":     core.FormatInstant(end),
		"storage": storageID,
		"rows":    len(rows),
	})
	return rows, nil
}

// displayQuantity converts a root-unit sum into the item's declared unit and
// rounds it to three decimals.
func displayQuantity(item *models.Item, rootQty float64) (float64, error) {
	value, err := item.Unit().FromRoot(rootQty)
	if err != nil {
		return 0, err
	}
	return math.Round(value*1000) / 1000, nil
}
