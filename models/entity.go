// Package models holds the domain entities of the inventory catalog: units
// of measure, item groups, items, storages, stock movements, recipes and the
// turnover cache records. Identity is a 32-character lowercase hexadecimal
// code; equality uses the code alone.
package models

import (
	"encoding/hex"
	"strings"

	"github.com/google/uuid"

	"github.com/mgwoorl/design-patterns-galiulina/core"
)

// Reference is the common surface of every stored entity: identity plus the
// explicit field-descriptor table used by the filter engine and the response
// formatters.
type Reference interface {
	core.FieldLookup
	Code() string
	FieldNames() []string
}

// DependencyHolder is implemented by entities that carry references to other
// entities. The integrity subscribers use it to rewrite back-references on
// change and to veto deletions.
type DependencyHolder interface {
	Reference
	RewriteReferences(old, replacement Reference)
	DependsOn(target Reference) bool
	Describe() string
}

// NewCode generates a fresh unique code: a random 128-bit value rendered as
// 32 lowercase hex characters.
func NewCode() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// Same reports identity equality of two references by code.
func Same(a, b Reference) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Code() == b.Code()
}

// Entity is the embedded base of every named domain object.
type Entity struct {
	code string
	name string
}

// Code returns the unique code of the entity.
func (e *Entity) Code() string {
	return e.code
}

// SetCode overrides the generated code, typically when adopting a code from
// a bootstrap DTO or a persisted snapshot.
func (e *Entity) SetCode(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return core.NewArgumentError("unique code must not be empty")
	}
	e.code = code
	return nil
}

// Name returns the display name.
func (e *Entity) Name() string {
	return e.name
}

// SetName assigns the trimmed, non-empty display name.
func (e *Entity) SetName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.NewArgumentError("name must not be empty")
	}
	e.name = name
	return nil
}

func newEntity(name string) (Entity, error) {
	e := Entity{code: NewCode()}
	if err := e.SetName(name); err != nil {
		return Entity{}, err
	}
	return e, nil
}
