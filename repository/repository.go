// Package repository keeps the in-memory entity registry: eight named
// buckets, each an ordered sequence of entities of one kind. It is the
// single source of truth during a run; callers serialize access externally
// (one request at a time).
package repository

import (
	"github.com/mgwoorl/design-patterns-galiulina/models"
)

// Kind names a bucket. The values double as the kind segment of the data
// endpoints.
type Kind string

const (
	KindRanges        Kind = "ranges"
	KindGroups        Kind = "groups"
	KindNomenclatures Kind = "nomenclatures"
	KindStorages      Kind = "storages"
	KindTransactions  Kind = "transactions"
	KindReceipts      Kind = "receipts"
	KindTurnovers     Kind = "turnover_cache"
	KindMisc          Kind = "misc"
)

// Kinds returns every bucket kind in a stable order.
func Kinds() []Kind {
	return []Kind{
		KindRanges,
		KindGroups,
		KindNomenclatures,
		KindStorages,
		KindTransactions,
		KindReceipts,
		KindTurnovers,
		KindMisc,
	}
}

// DataKinds returns the kinds exposed through the data endpoints.
func DataKinds() []Kind {
	return []Kind{
		KindRanges,
		KindGroups,
		KindNomenclatures,
		KindReceipts,
		KindStorages,
		KindTransactions,
	}
}

// Repository holds the buckets. Iteration order within a bucket is the
// append order; Replace keeps the position of the replaced entity.
type Repository struct {
	buckets map[Kind][]models.Reference
}

// New creates a repository with all buckets initialized and empty.
func New() *Repository {
	buckets := make(map[Kind][]models.Reference, len(Kinds()))
	for _, kind := range Kinds() {
		buckets[kind] = nil
	}
	return &Repository{buckets: buckets}
}

// Bucket returns the ordered sequence of one kind. The returned slice is the
// live bucket; callers must not mutate it and must not mutate the repository
// while iterating.
func (r *Repository) Bucket(kind Kind) []models.Reference {
	return r.buckets[kind]
}

// Append adds an entity at the end of a bucket.
func (r *Repository) Append(kind Kind, entity models.Reference) {
	if entity == nil {
		return
	}
	r.buckets[kind] = append(r.buckets[kind], entity)
}

// Remove deletes the entity with the same code from a bucket, reporting
// whether it was present.
func (r *Repository) Remove(kind Kind, entity models.Reference) bool {
	if entity == nil {
		return false
	}
	bucket := r.buckets[kind]
	for i, existing := range bucket {
		if existing.Code() == entity.Code() {
			r.buckets[kind] = append(bucket[:i], bucket[i+1:]...)
			return true
		}
	}
	return false
}

// Replace swaps old for replacement in place, keeping the bucket position.
func (r *Repository) Replace(kind Kind, old, replacement models.Reference) bool {
	if old == nil || replacement == nil {
		return false
	}
	bucket := r.buckets[kind]
	for i, existing := range bucket {
		if existing.Code() == old.Code() {
			bucket[i] = replacement
			return true
		}
	}
	return false
}

// Find looks an entity up by code within one bucket.
func (r *Repository) Find(kind Kind, code string) (models.Reference, bool) {
	for _, existing := range r.buckets[kind] {
		if existing.Code() == code {
			return existing, true
		}
	}
	return nil, false
}

// FindAnywhere looks a code up across all buckets; unique codes are global,
// so at most one bucket holds it.
func (r *Repository) FindAnywhere(code string) (models.Reference, bool) {
	for _, kind := range Kinds() {
		if entity, ok := r.Find(kind, code); ok {
			return entity, true
		}
	}
	return nil, false
}

// Units returns the typed view of the ranges bucket.
func (r *Repository) Units() []*models.Unit {
	result := make([]*models.Unit, 0, len(r.buckets[KindRanges]))
	for _, e := range r.buckets[KindRanges] {
		if u, ok := e.(*models.Unit); ok {
			result = append(result, u)
		}
	}
	return result
}

// Groups returns the typed view of the groups bucket.
func (r *Repository) Groups() []*models.Group {
	result := make([]*models.Group, 0, len(r.buckets[KindGroups]))
	for _, e := range r.buckets[KindGroups] {
		if g, ok := e.(*models.Group); ok {
			result = append(result, g)
		}
	}
	return result
}

// Items returns the typed view of the nomenclatures bucket.
func (r *Repository) Items() []*models.Item {
	result := make([]*models.Item, 0, len(r.buckets[KindNomenclatures]))
	for _, e := range r.buckets[KindNomenclatures] {
		if i, ok := e.(*models.Item); ok {
			result = append(result, i)
		}
	}
	return result
}

// Storages returns the typed view of the storages bucket.
func (r *Repository) Storages() []*models.Storage {
	result := make([]*models.Storage, 0, len(r.buckets[KindStorages]))
	for _, e := range r.buckets[KindStorages] {
		if s, ok := e.(*models.Storage); ok {
			result = append(result, s)
		}
	}
	return result
}

// Transactions returns the typed view of the transactions bucket.
func (r *Repository) Transactions() []*models.Transaction {
	result := make([]*models.Transaction, 0, len(r.buckets[KindTransactions]))
	for _, e := range r.buckets[KindTransactions] {
		if t, ok := e.(*models.Transaction); ok {
			result = append(result, t)
		}
	}
	return result
}

// Recipes returns the typed view of the receipts bucket.
func (r *Repository) Recipes() []*models.Recipe {
	result := make([]*models.Recipe, 0, len(r.buckets[KindReceipts]))
	for _, e := range r.buckets[KindReceipts] {
		if rec, ok := e.(*models.Recipe); ok {
			result = append(result, rec)
		}
	}
	return result
}

// Turnovers returns the typed view of the turnover cache bucket.
func (r *Repository) Turnovers() []*models.TurnoverRecord {
	result := make([]*models.TurnoverRecord, 0, len(r.buckets[KindTurnovers]))
	for _, e := range r.buckets[KindTurnovers] {
		if rec, ok := e.(*models.TurnoverRecord); ok {
			result = append(result, rec)
		}
	}
	return result
}

// SetTurnovers replaces the turnover cache bucket wholesale, as snapshot
// loading does.
func (r *Repository) SetTurnovers(records []*models.TurnoverRecord) {
	bucket := make([]models.Reference, 0, len(records))
	for _, rec := range records {
		bucket = append(bucket, rec)
	}
	r.buckets[KindTurnovers] = bucket
}
