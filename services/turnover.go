package services

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/mgwoorl/design-patterns-galiulina/core"
	"github.com/mgwoorl/design-patterns-galiulina/models"
	"github.com/mgwoorl/design-patterns-galiulina/repository"
)

const turnoverServiceName = "turnover"

// PeriodTurnover is an on-the-fly aggregate over an open-start interval
// (start, end] for one (item, storage) pair.
type PeriodTurnover struct {
	NomenclatureID string
	StorageID      string
	Debit          float64
	Credit         float64
}

// turnoverSnapshot is the persisted form of the turnover cache.
type turnoverSnapshot struct {
	ExportDate    time.Time                `json:"export_date"`
	TurnoverCache []*models.TurnoverRecord `json:"turnover_cache"`
}

// TurnoverService maintains the turnover cache: pre-aggregated debit and
// credit totals per (item, storage) pair from 1900-01-01 up to the block
// period, plus the JSON snapshot persistence of that cache.
type TurnoverService struct {
	repo *repository.Repository
	bus  *core.Bus
}

// NewTurnoverService creates the service over the repository and the bus.
func NewTurnoverService(repo *repository.Repository, bus *core.Bus) *TurnoverService {
	return &TurnoverService{repo: repo, bus: bus}
}

// ComputeToBlockPeriod rebuilds the cache rows for the given cutoff. Existing
// rows with the same period end are evicted first; rows frozen at other
// cutoffs stay untouched. Pairs without movements produce no row.
func (s *TurnoverService) ComputeToBlockPeriod(blockPeriod time.Time) error {
	s.evict(blockPeriod)

	transactions := s.repo.Transactions()
	added := 0
	for _, item := range s.repo.Items() {
		for _, storage := range s.repo.Storages() {
			debit, credit, seen := 0.0, 0.0, false
			for _, tx := range transactions {
				if tx.Item().Code() != item.Code() || tx.Storage().Code() != storage.Code() {
					continue
				}
				if tx.Date().After(blockPeriod) || tx.Date().Before(models.MinTransactionDate) {
					continue
				}
				seen = true
				if tx.Quantity() > 0 {
					debit += tx.Quantity()
				} else {
					credit += -tx.Quantity()
				}
			}
			if !seen {
				continue
			}
			record, err := models.NewTurnoverRecord(item.Code(), storage.Code(), blockPeriod, debit, credit)
			if err != nil {
				return err
			}
			s.repo.Append(repository.KindTurnovers, record)
			added++
		}
	}

	s.bus.Info(turnoverServiceName, "turnover cache computed", map[string]interface{}{
		"period_end": core.FormatInstant(blockPeriod),
		"records":    added,
	})
	return nil
}

// CachedTurnovers returns the cache rows frozen at the given cutoff.
func (s *TurnoverService) CachedTurnovers(blockPeriod time.Time) []*models.TurnoverRecord {
	var result []*models.TurnoverRecord
	for _, record := range s.repo.Turnovers() {
		if record.PeriodEnd.Equal(blockPeriod) {
			result = append(result, record)
		}
	}
	return result
}

// TurnoversForPeriod aggregates movements over the open-start interval
// (start, end] per (item, storage) pair, skipping pairs without movements.
func (s *TurnoverService) TurnoversForPeriod(start, end time.Time) ([]PeriodTurnover, error) {
	if end.Before(start) {
		return nil, core.NewOperationError("turnover period end %s precedes start %s",
			core.FormatInstant(end), core.FormatInstant(start))
	}

	index := make(map[[2]string]int)
	var result []PeriodTurnover
	for _, tx := range s.repo.Transactions() {
		if !tx.Date().After(start) || tx.Date().After(end) {
			continue
		}
		key := [2]string{tx.Item().Code(), tx.Storage().Code()}
		pos, ok := index[key]
		if !ok {
			pos = len(result)
			index[key] = pos
			result = append(result, PeriodTurnover{NomenclatureID: key[0], StorageID: key[1]})
		}
		if tx.Quantity() > 0 {
			result[pos].Debit += tx.Quantity()
		} else {
			result[pos].Credit += -tx.Quantity()
		}
	}
	return result, nil
}

// SaveSnapshot writes the whole cache bucket to path as indented JSON.
func (s *TurnoverService) SaveSnapshot(path string) error {
	snapshot := turnoverSnapshot{
		ExportDate:    time.Now().UTC(),
		TurnoverCache: s.repo.Turnovers(),
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return core.WrapOperationError(err, "cannot encode turnover cache")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return core.WrapOperationError(err, "cannot write turnover cache file %s", path)
	}
	s.bus.Info(turnoverServiceName, "turnover cache saved", map[string]interface{}{
		"file":    path,
		"records": len(snapshot.TurnoverCache),
	})
	return nil
}

// LoadSnapshot replaces the cache bucket wholesale from a snapshot file. A
// missing file is not an error and reports loaded=false; a malformed file is
// an operation error.
func (s *TurnoverService) LoadSnapshot(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, core.WrapOperationError(err, "cannot read turnover cache file %s", path)
	}

	var snapshot turnoverSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return false, core.WrapOperationError(err, "cannot parse turnover cache file %s", path)
	}
	s.repo.SetTurnovers(snapshot.TurnoverCache)

	s.bus.Info(turnoverServiceName, "turnover cache restored", map[string]interface{}{
		"file":    path,
		"records": len(snapshot.TurnoverCache),
	})
	return true, nil
}

func (s *TurnoverService) evict(blockPeriod time.Time) {
	kept := make([]*models.TurnoverRecord, 0)
	for _, record := range s.repo.Turnovers() {
		if !record.PeriodEnd.Equal(blockPeriod) {
			kept = append(kept, record)
		}
	}
	s.repo.SetTurnovers(kept)
}
