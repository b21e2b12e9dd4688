package models

import (
	"github.com/mgwoorl/design-patterns-galiulina/core"
)

// maxUnitDepth bounds the parent chain walk; a deeper chain means a cycle or
// a corrupted tree and is reported as an integrity error.
const maxUnitDepth = 32

// Unit is a unit of measure. Units form a rooted tree per measurement
// family: the root has no parent and factor 1, a non-root unit's factor is
// the count of parent units per this unit (kilogram over gram has factor
// 1000).
type Unit struct {
	Entity
	factor int
	parent *Unit
}

// NewUnit creates a unit with the given positive factor and optional parent.
func NewUnit(name string, factor int, parent *Unit) (*Unit, error) {
	base, err := newEntity(name)
	if err != nil {
		return nil, err
	}
	if factor <= 0 {
		return nil, core.NewArgumentError("unit factor must be positive, got %d", factor)
	}
	return &Unit{Entity: base, factor: factor, parent: parent}, nil
}

// Factor returns the conversion factor relative to the parent unit.
func (u *Unit) Factor() int {
	return u.factor
}

// Parent returns the parent unit, nil for a root.
func (u *Unit) Parent() *Unit {
	return u.parent
}

// Root follows parent links to the base unit of the measurement family.
func (u *Unit) Root() (*Unit, error) {
	current := u
	for depth := 0; depth < maxUnitDepth; depth++ {
		if current.parent == nil {
			return current, nil
		}
		current = current.parent
	}
	return nil, core.NewIntegrityError("unit %q: parent chain exceeds depth %d", u.Name(), maxUnitDepth)
}

// ToRoot converts a quantity expressed in this unit into the root unit of
// its family.
func (u *Unit) ToRoot(quantity float64) (float64, error) {
	current := u
	for depth := 0; depth < maxUnitDepth; depth++ {
		if current.parent == nil {
			return quantity, nil
		}
		quantity *= float64(current.factor)
		current = current.parent
	}
	return 0, core.NewIntegrityError("unit %q: parent chain exceeds depth %d", u.Name(), maxUnitDepth)
}

// FromRoot converts a quantity expressed in the root unit back into this
// unit.
func (u *Unit) FromRoot(quantity float64) (float64, error) {
	current := u
	for depth := 0; depth < maxUnitDepth; depth++ {
		if current.parent == nil {
			return quantity, nil
		}
		quantity /= float64(current.factor)
		current = current.parent
	}
	return 0, core.NewIntegrityError("unit %q: parent chain exceeds depth %d", u.Name(), maxUnitDepth)
}

// Field implements the descriptor table for filtering and formatting.
func (u *Unit) Field(name string) (interface{}, bool) {
	switch name {
	case "unique_code":
		return u.Code(), true
	case "name":
		return u.Name(), true
	case "value":
		return u.factor, true
	case "base":
		if u.parent == nil {
			return nil, false
		}
		return u.parent, true
	}
	return nil, false
}

// FieldNames lists the filterable fields of a unit.
func (u *Unit) FieldNames() []string {
	return []string{"unique_code", "name", "value", "base"}
}

// RewriteReferences replaces the parent link when it points at old.
func (u *Unit) RewriteReferences(old, replacement Reference) {
	if u.parent != nil && u.parent.Code() == old.Code() {
		if next, ok := replacement.(*Unit); ok {
			u.parent = next
		}
	}
}

// DependsOn reports whether the parent link points at target.
func (u *Unit) DependsOn(target Reference) bool {
	return u.parent != nil && u.parent.Code() == target.Code()
}

// Describe names the unit for veto messages.
func (u *Unit) Describe() string {
	return "unit " + u.Name() + " (" + u.Code() + ")"
}
