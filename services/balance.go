package services

import (
	"time"

	"github.com/mgwoorl/design-patterns-galiulina/core"
	"github.com/mgwoorl/design-patterns-galiulina/models"
	"github.com/mgwoorl/design-patterns-galiulina/repository"
)

const balanceServiceName = "balance"

// BalanceRow is one line of the balance report for an (item, storage) pair.
type BalanceRow struct {
	NomenclatureID   string    `json:"nomenclature_id"`
	NomenclatureName string    `json:"nomenclature_name"`
	StorageID        string    `json:"storage_id"`
	StorageName      string    `json:"storage_name"`
	StartBalance     float64   `json:"start_balance"`
	PeriodDebit      float64   `json:"period_debit"`
	PeriodCredit     float64   `json:"period_credit"`
	EndBalance       float64   `json:"end_balance"`
	CalculationDate  time.Time `json:"calculation_date"`
}

// BalanceService computes stock balances at a target date, composing the
// frozen turnover cache with the movements after the block period.
type BalanceService struct {
	repo     *repository.Repository
	bus      *core.Bus
	settings *SettingsManager
	turnover *TurnoverService
}

// NewBalanceService creates the service.
func NewBalanceService(repo *repository.Repository, bus *core.Bus, settings *SettingsManager, turnover *TurnoverService) *BalanceService {
	return &BalanceService{repo: repo, bus: bus, settings: settings, turnover: turnover}
}

// Calculate returns one row per (item, storage) pair at the target date. With
// no block period set, every movement up to the target is scanned and the
// start balance is zero. With a block period C, the target must not precede
// C: the start balance comes from the cache frozen at C and the period part
// covers only the movements after C. A non-empty storageID restricts the
// report to that storage.
func (s *BalanceService) Calculate(target time.Time, storageID string) ([]BalanceRow, error) {
	storages, err := s.selectStorages(storageID)
	if err != nil {
		return nil, err
	}

	block := s.settings.BlockPeriod()
	if block == nil {
		return s.calculateFullScan(target, storages)
	}
	if target.Before(*block) {
		return nil, core.NewOperationError("target date %s precedes the block period %s",
			core.FormatInstant(target), core.FormatInstant(*block))
	}
	return s.calculateFromCache(*block, target, storages)
}

func (s *BalanceService) selectStorages(storageID string) ([]*models.Storage, error) {
	all := s.repo.Storages()
	if storageID == "" {
		return all, nil
	}
	for _, storage := range all {
		if storage.Code() == storageID {
			return []*models.Storage{storage}, nil
		}
	}
	return nil, core.NewOperationError("storage %s not found", storageID)
}

func (s *BalanceService) calculateFullScan(target time.Time, storages []*models.Storage) ([]BalanceRow, error) {
	transactions := s.repo.Transactions()
	rows := make([]BalanceRow, 0)
	for _, item := range s.repo.Items() {
		for _, storage := range storages {
			row := BalanceRow{
				NomenclatureID:   item.Code(),
				NomenclatureName: item.Name(),
				StorageID:        storage.Code(),
				StorageName:      storage.Name(),
				CalculationDate:  target,
			}
			for _, tx := range transactions {
				if tx.Item().Code() != item.Code() || tx.Storage().Code() != storage.Code() {
					continue
				}
				if tx.Date().After(target) {
					continue
				}
				if tx.Quantity() > 0 {
					row.PeriodDebit += tx.Quantity()
				} else {
					row.PeriodCredit += -tx.Quantity()
				}
			}
			row.EndBalance = row.StartBalance + row.PeriodDebit - row.PeriodCredit
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (s *BalanceService) calculateFromCache(block, target time.Time, storages []*models.Storage) ([]BalanceRow, error) {
	cached := s.turnover.CachedTurnovers(block)
	if len(cached) == 0 {
		// The cache for this cutoff has not been built yet, typically after
		// a restart without a snapshot file.
		if err := s.turnover.ComputeToBlockPeriod(block); err != nil {
			return nil, err
		}
		cached = s.turnover.CachedTurnovers(block)
	}

	frozen := make(map[[2]string]float64, len(cached))
	for _, record := range cached {
		frozen[[2]string{record.NomenclatureID, record.StorageID}] = record.Balance()
	}

	recent, err := s.turnover.TurnoversForPeriod(block, target)
	if err != nil {
		return nil, err
	}
	period := make(map[[2]string]PeriodTurnover, len(recent))
	for _, agg := range recent {
		period[[2]string{agg.NomenclatureID, agg.StorageID}] = agg
	}

	rows := make([]BalanceRow, 0)
	for _, item := range s.repo.Items() {
		for _, storage := range storages {
			key := [2]string{item.Code(), storage.Code()}
			agg := period[key]
			row := BalanceRow{
				NomenclatureID:   item.Code(),
				NomenclatureName: item.Name(),
				StorageID:        storage.Code(),
				StorageName:      storage.Name(),
				StartBalance:     frozen[key],
				PeriodDebit:      agg.Debit,
				PeriodCredit:     agg.Credit,
				CalculationDate:  target,
			}
			row.EndBalance = row.StartBalance + row.PeriodDebit - row.PeriodCredit
			rows = append(rows, row)
		}
	}

	s.bus.Debug(balanceServiceName, "balances calculated from cache", map[string]interface{}{
		"block_period": core.FormatInstant(block),
		"target":       core.FormatInstant(target),
		"rows":         len(rows),
	})
	return rows, nil
}
