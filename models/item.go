package models

import (
	"github.com/mgwoorl/design-patterns-galiulina/core"
)

// Item is a catalog position (nomenclature). Every item belongs to a group
// and declares the unit its quantities are expressed in.
type Item struct {
	Entity
	group *Group
	unit  *Unit
}

// NewItem creates an item in the given group with the given declared unit.
func NewItem(name string, group *Group, unit *Unit) (*Item, error) {
	base, err := newEntity(name)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, core.NewArgumentError("item %q: group is required", name)
	}
	if unit == nil {
		return nil, core.NewArgumentError("item %q: unit is required", name)
	}
	return &Item{Entity: base, group: group, unit: unit}, nil
}

// Group returns the item's group.
func (i *Item) Group() *Group {
	return i.group
}

// Unit returns the item's declared unit of measure.
func (i *Item) Unit() *Unit {
	return i.unit
}

// Field implements the descriptor table for filtering and formatting. The
// unit keeps its historical wire name "range".
func (i *Item) Field(name string) (interface{}, bool) {
	switch name {
	case "unique_code":
		return i.Code(), true
	case "name":
		return i.Name(), true
	case "group":
		return i.group, true
	case "range":
		return i.unit, true
	}
	return nil, false
}

// FieldNames lists the filterable fields of an item.
func (i *Item) FieldNames() []string {
	return []string{"unique_code", "name", "group", "range"}
}

// RewriteReferences replaces the group or unit link when it points at old.
func (i *Item) RewriteReferences(old, replacement Reference) {
	if i.group != nil && i.group.Code() == old.Code() {
		if next, ok := replacement.(*Group); ok {
			i.group = next
		}
	}
	if i.unit != nil && i.unit.Code() == old.Code() {
		if next, ok := replacement.(*Unit); ok {
			i.unit = next
		}
	}
}

// DependsOn reports whether the item references target.
func (i *Item) DependsOn(target Reference) bool {
	if i.group != nil && i.group.Code() == target.Code() {
		return true
	}
	return i.unit != nil && i.unit.Code() == target.Code()
}

// Describe names the item for veto messages.
func (i *Item) Describe() string {
	return "item " + i.Name() + " (" + i.Code() + ")"
}
