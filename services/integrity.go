// Package services implements the business logic of the catalog: turnover
// and balance computation, the OSV report, reference CRUD with dependency
// sweeps, settings with the block period, bootstrap and export.
package services

import (
	"github.com/mgwoorl/design-patterns-galiulina/core"
	"github.com/mgwoorl/design-patterns-galiulina/models"
)

// UpdateDependenciesPayload travels with update_dependencies: every holder
// of a reference to Old rewrites it to New.
type UpdateDependenciesPayload struct {
	Old models.Reference
	New models.Reference
}

// CheckDependenciesPayload travels with check_dependencies: any subscriber
// still referencing Target vetoes the deletion.
type CheckDependenciesPayload struct {
	Target models.Reference
}

// ReferencePayload travels with add/change/remove_reference notifications.
type ReferencePayload struct {
	Kind   string
	Entity models.Reference
}

// integrityHandler pairs one repository entity with the bus: on
// update_dependencies it rewrites the entity's references in place, on
// check_dependencies it vetoes deletions the entity still depends on. Log
// events and everything else are ignored.
type integrityHandler struct {
	holder models.DependencyHolder
}

// Handle implements core.Subscriber.
func (h *integrityHandler) Handle(kind core.EventKind, payload interface{}) error {
	switch kind {
	case core.EventUpdateDependencies:
		p, ok := payload.(UpdateDependenciesPayload)
		if !ok || p.Old == nil || p.New == nil {
			return nil
		}
		if h.holder.Code() == p.Old.Code() {
			// The entity being replaced does not sweep itself.
			return nil
		}
		h.holder.RewriteReferences(p.Old, p.New)
	case core.EventCheckDependencies:
		p, ok := payload.(CheckDependenciesPayload)
		if !ok || p.Target == nil {
			return nil
		}
		if h.holder.Code() == p.Target.Code() {
			return nil
		}
		if h.holder.DependsOn(p.Target) {
			return core.NewVetoError(h.holder.Describe())
		}
	}
	return nil
}

// IntegrityRegistry tracks the integrity handler of every watched entity, so
// handlers can be unregistered when their entity leaves the repository.
type IntegrityRegistry struct {
	bus      *core.Bus
	handlers map[string]*integrityHandler
}

// NewIntegrityRegistry creates an empty registry over the bus.
func NewIntegrityRegistry(bus *core.Bus) *IntegrityRegistry {
	return &IntegrityRegistry{bus: bus, handlers: make(map[string]*integrityHandler)}
}

// Watch registers an integrity handler for the entity. Entities without
// reference fields have nothing to sweep or veto and are skipped.
func (r *IntegrityRegistry) Watch(entity models.Reference) {
	holder, ok := entity.(models.DependencyHolder)
	if !ok {
		return
	}
	if _, exists := r.handlers[entity.Code()]; exists {
		return
	}
	h := &integrityHandler{holder: holder}
	r.handlers[entity.Code()] = h
	r.bus.Subscribe(h)
}

// Unwatch removes the entity's handler from the bus.
func (r *IntegrityRegistry) Unwatch(entity models.Reference) {
	if entity == nil {
		return
	}
	h, ok := r.handlers[entity.Code()]
	if !ok {
		return
	}
	r.bus.Unsubscribe(h)
	delete(r.handlers, entity.Code())
}
