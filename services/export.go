package services

import (
	"encoding/json"
	"os"
	"time"

	"github.com/mgwoorl/design-patterns-galiulina/archive"
	"github.com/mgwoorl/design-patterns-galiulina/core"
	"github.com/mgwoorl/design-patterns-galiulina/models"
	"github.com/mgwoorl/design-patterns-galiulina/repository"
)

const exportServiceName = "export"

// ExportService dumps the whole repository to one JSON document and records
// every dump in the backup journal. The journal store is optional; without
// it exports still work, they just leave no audit trail.
type ExportService struct {
	repo    *repository.Repository
	bus     *core.Bus
	journal *archive.Store
}

// NewExportService creates the service. journal may be nil.
func NewExportService(repo *repository.Repository, bus *core.Bus, journal *archive.Store) *ExportService {
	return &ExportService{repo: repo, bus: bus, journal: journal}
}

// ExportAll writes every data bucket to path as one indented JSON document
// and appends a record to the backup journal.
func (s *ExportService) ExportAll(path string) error {
	counts := make(map[string]int, len(repository.DataKinds()))
	doc := make(map[string]interface{}, len(repository.DataKinds())+1)
	doc["export_date"] = time.Now().UTC()
	for _, kind := range repository.DataKinds() {
		bucket := s.repo.Bucket(kind)
		rows := make([]map[string]interface{}, 0, len(bucket))
		for _, entity := range bucket {
			rows = append(rows, models.Document(entity))
		}
		doc[string(kind)] = rows
		counts[string(kind)] = len(rows)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return core.WrapOperationError(err, "cannot encode the data export")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return core.WrapOperationError(err, "cannot write export file %s", path)
	}

	if s.journal != nil {
		record := archive.BackupRecord{
			File:      path,
			CreatedAt: time.Now().UTC(),
			Entities:  counts,
		}
		if err := s.journal.Record(record); err != nil {
			return core.WrapOperationError(err, "cannot record the export in the archive")
		}
	}

	s.bus.Info(exportServiceName, "repository exported", map[string]interface{}{
		"file": path,
	})
	return nil
}
