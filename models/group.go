package models

// Group is an item group, the coarse classification of the catalog.
type Group struct {
	Entity
}

// NewGroup creates a group with the given name.
func NewGroup(name string) (*Group, error) {
	base, err := newEntity(name)
	if err != nil {
		return nil, err
	}
	return &Group{Entity: base}, nil
}

// Field implements the descriptor table for filtering and formatting.
func (g *Group) Field(name string) (interface{}, bool) {
	switch name {
	case "unique_code":
		return g.Code(), true
	case "name":
		return g.Name(), true
	}
	return nil, false
}

// FieldNames lists the filterable fields of a group.
func (g *Group) FieldNames() []string {
	return []string{"unique_code", "name"}
}
