package services

import (
	"math"
	"strings"

	"github.com/mgwoorl/design-patterns-galiulina/core"
	"github.com/mgwoorl/design-patterns-galiulina/models"
	"github.com/mgwoorl/design-patterns-galiulina/repository"
)

const referenceServiceName = "reference"

// referenceKinds maps the CRUD kind names onto repository buckets. The
// canonical names are item, group, unit and location; the historical bucket
// names are accepted as aliases.
var referenceKinds = map[string]repository.Kind{
	"item":         repository.KindNomenclatures,
	"nomenclature": repository.KindNomenclatures,
	"group":        repository.KindGroups,
	"unit":         repository.KindRanges,
	"range":        repository.KindRanges,
	"location":     repository.KindStorages,
	"storage":      repository.KindStorages,
}

// ReferenceService is the CRUD facade over the reference buckets. Every
// mutation routes through the event bus so the integrity subscribers can
// sweep back-references on change and veto deletions, and failures roll the
// repository back to its prior state.
type ReferenceService struct {
	repo      *repository.Repository
	bus       *core.Bus
	integrity *IntegrityRegistry
}

// NewReferenceService creates the facade.
func NewReferenceService(repo *repository.Repository, bus *core.Bus, integrity *IntegrityRegistry) *ReferenceService {
	return &ReferenceService{repo: repo, bus: bus, integrity: integrity}
}

// ResolveKind maps a CRUD kind name onto its bucket.
func (s *ReferenceService) ResolveKind(kind string) (repository.Kind, error) {
	bucket, ok := referenceKinds[strings.ToLower(strings.TrimSpace(kind))]
	if !ok {
		return "", core.NewArgumentError("unknown reference kind %q", kind)
	}
	return bucket, nil
}

// Get looks up one entity of the kind by code.
func (s *ReferenceService) Get(kind, code string) (models.Reference, error) {
	bucket, err := s.ResolveKind(kind)
	if err != nil {
		return nil, err
	}
	entity, ok := s.repo.Find(bucket, code)
	if !ok {
		return nil, core.NewOperationError("%s %s not found", kind, code)
	}
	return entity, nil
}

// Add builds an entity of the kind from the attribute map, appends it to its
// bucket and announces it. A caller-supplied unique_code is adopted after a
// global uniqueness check; without one a fresh code is generated. If a
// subscriber fails the announcement, the append is rolled back.
func (s *ReferenceService) Add(kind string, attrs map[string]interface{}) (models.Reference, error) {
	bucket, err := s.ResolveKind(kind)
	if err != nil {
		return nil, err
	}

	entity, err := s.build(bucket, attrs, nil)
	if err != nil {
		return nil, err
	}
	if code, ok := attrString(attrs, "unique_code"); ok {
		if _, exists := s.repo.FindAnywhere(code); exists {
			return nil, core.NewOperationError("unique code %s is already in use", code)
		}
		if err := setCode(entity, code); err != nil {
			return nil, err
		}
	}

	s.repo.Append(bucket, entity)
	s.integrity.Watch(entity)
	if err := s.bus.Fire(core.EventAddReference, ReferencePayload{Kind: kind, Entity: entity}); err != nil {
		s.repo.Remove(bucket, entity)
		s.integrity.Unwatch(entity)
		return nil, err
	}

	s.bus.Info(referenceServiceName, "reference added", map[string]interface{}{
		"kind": kind, "unique_code": entity.Code(),
	})
	return entity, nil
}

// Change replaces the entity identified by unique_code with one rebuilt from
// the old values overridden by the attribute map. Back-reference holders are
// swept before the bucket is touched, so a sweep failure leaves everything
// unchanged; a failed announcement rolls the replacement back.
func (s *ReferenceService) Change(kind string, attrs map[string]interface{}) (models.Reference, error) {
	bucket, err := s.ResolveKind(kind)
	if err != nil {
		return nil, err
	}
	code, ok := attrString(attrs, "unique_code")
	if !ok {
		return nil, core.NewArgumentError("unique_code is required to change a %s", kind)
	}
	old, found := s.repo.Find(bucket, code)
	if !found {
		return nil, core.NewOperationError("%s %s not found", kind, code)
	}

	replacement, err := s.build(bucket, attrs, old)
	if err != nil {
		return nil, err
	}
	if err := setCode(replacement, code); err != nil {
		return nil, err
	}

	if err := s.bus.Fire(core.EventUpdateDependencies, UpdateDependenciesPayload{Old: old, New: replacement}); err != nil {
		return nil, err
	}
	s.repo.Replace(bucket, old, replacement)
	s.integrity.Unwatch(old)
	s.integrity.Watch(replacement)
	if err := s.bus.Fire(core.EventChangeReference, ReferencePayload{Kind: kind, Entity: replacement}); err != nil {
		s.repo.Replace(bucket, replacement, old)
		s.integrity.Unwatch(replacement)
		s.integrity.Watch(old)
		_ = s.bus.Fire(core.EventUpdateDependencies, UpdateDependenciesPayload{Old: replacement, New: old})
		return nil, err
	}

	s.bus.Info(referenceServiceName, "reference changed", map[string]interface{}{
		"kind": kind, "unique_code": code,
	})
	return replacement, nil
}

// Remove deletes the entity identified by unique_code. The deletion is first
// offered to every subscriber via check_dependencies; a veto aborts it with
// the holder's identity in the error.
func (s *ReferenceService) Remove(kind string, attrs map[string]interface{}) error {
	bucket, err := s.ResolveKind(kind)
	if err != nil {
		return err
	}
	code, ok := attrString(attrs, "unique_code")
	if !ok {
		return core.NewArgumentError("unique_code is required to remove a %s", kind)
	}
	entity, found := s.repo.Find(bucket, code)
	if !found {
		return core.NewOperationError("%s %s not found", kind, code)
	}

	if err := s.bus.Fire(core.EventCheckDependencies, CheckDependenciesPayload{Target: entity}); err != nil {
		return err
	}
	s.repo.Remove(bucket, entity)
	s.integrity.Unwatch(entity)
	if err := s.bus.Fire(core.EventRemoveReference, ReferencePayload{Kind: kind, Entity: entity}); err != nil {
		s.repo.Append(bucket, entity)
		s.integrity.Watch(entity)
		return err
	}

	s.bus.Info(referenceServiceName, "reference removed", map[string]interface{}{
		"kind": kind, "unique_code": code,
	})
	return nil
}

// build constructs an entity of the bucket's type from the attribute map.
// When old is non-nil the attributes override the old entity's values,
// otherwise the required attributes must all be present.
func (s *ReferenceService) build(bucket repository.Kind, attrs map[string]interface{}, old models.Reference) (models.Reference, error) {
	switch bucket {
	case repository.KindGroups:
		return s.buildGroup(attrs, old)
	case repository.KindRanges:
		return s.buildUnit(attrs, old)
	case repository.KindNomenclatures:
		return s.buildItem(attrs, old)
	case repository.KindStorages:
		return s.buildStorage(attrs, old)
	}
	return nil, core.NewArgumentError("bucket %s does not hold reference entities", bucket)
}

func (s *ReferenceService) buildGroup(attrs map[string]interface{}, old models.Reference) (models.Reference, error) {
	name, ok := attrString(attrs, "name")
	if !ok {
		prev, isGroup := old.(*models.Group)
		if !isGroup {
			return nil, core.NewArgumentError("group name is required")
		}
		name = prev.Name()
	}
	return models.NewGroup(name)
}

func (s *ReferenceService) buildUnit(attrs map[string]interface{}, old models.Reference) (models.Reference, error) {
	prev, _ := old.(*models.Unit)

	name, ok := attrString(attrs, "name")
	if !ok {
		if prev == nil {
			return nil, core.NewArgumentError("unit name is required")
		}
		name = prev.Name()
	}

	factor := 1
	if prev != nil {
		factor = prev.Factor()
	}
	if value, ok := attrInt(attrs, "value"); ok {
		factor = value
	}

	var parent *models.Unit
	if prev != nil {
		parent = prev.Parent()
	}
	if baseID, ok := attrString(attrs, "base_id"); ok {
		if baseID == "" {
			parent = nil
		} else {
			base, found := s.repo.Find(repository.KindRanges, baseID)
			if !found {
				return nil, core.NewOperationError("base unit %s not found", baseID)
			}
			parent, _ = base.(*models.Unit)
		}
	}
	return models.NewUnit(name, factor, parent)
}

func (s *ReferenceService) buildItem(attrs map[string]interface{}, old models.Reference) (models.Reference, error) {
	prev, _ := old.(*models.Item)

	name, ok := attrString(attrs, "name")
	if !ok {
		if prev == nil {
			return nil, core.NewArgumentError("item name is required")
		}
		name = prev.Name()
	}

	var group *models.Group
	if prev != nil {
		group = prev.Group()
	}
	if groupID, ok := attrString(attrs, "group_id"); ok {
		entity, found := s.repo.Find(repository.KindGroups, groupID)
		if !found {
			return nil, core.NewOperationError("group %s not found", groupID)
		}
		group, _ = entity.(*models.Group)
	}

	var unit *models.Unit
	if prev != nil {
		unit = prev.Unit()
	}
	if unitID, ok := attrString(attrs, "range_id"); ok {
		entity, found := s.repo.Find(repository.KindRanges, unitID)
		if !found {
			return nil, core.NewOperationError("unit %s not found", unitID)
		}
		unit, _ = entity.(*models.Unit)
	}
	return models.NewItem(name, group, unit)
}

func (s *ReferenceService) buildStorage(attrs map[string]interface{}, old models.Reference) (models.Reference, error) {
	prev, _ := old.(*models.Storage)

	name, ok := attrString(attrs, "name")
	if !ok {
		if prev == nil {
			return nil, core.NewArgumentError("storage name is required")
		}
		name = prev.Name()
	}

	address := ""
	if prev != nil {
		address = prev.Address()
	}
	if value, ok := attrString(attrs, "address"); ok {
		address = value
	}
	return models.NewStorage(name, address)
}

// setCode adopts a code on any of the concrete entity types.
func setCode(entity models.Reference, code string) error {
	type codeSetter interface {
		SetCode(code string) error
	}
	setter, ok := entity.(codeSetter)
	if !ok {
		return core.NewIntegrityError("entity %s does not accept an external code", entity.Code())
	}
	return setter.SetCode(code)
}

// attrString extracts a trimmed non-empty string attribute.
func attrString(attrs map[string]interface{}, key string) (string, bool) {
	raw, ok := attrs[key]
	if !ok {
		return "", false
	}
	value, isString := raw.(string)
	if !isString {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" && key != "address" && key != "base_id" {
		return "", false
	}
	return value, true
}

// attrInt extracts an integer attribute; JSON numbers arrive as float64.
func attrInt(attrs map[string]interface{}, key string) (int, bool) {
	switch value := attrs[key].(type) {
	case int:
		return value, true
	case int64:
		return int(value), true
	case float64:
		if value != math.Trunc(value) {
			return 0, false
		}
		return int(value), true
	}
	return 0, false
}
