package models

import "strings"

// Storage is a stock location.
type Storage struct {
	Entity
	address string
}

// NewStorage creates a storage with an optional address.
func NewStorage(name, address string) (*Storage, error) {
	base, err := newEntity(name)
	if err != nil {
		return nil, err
	}
	return &Storage{Entity: base, address: strings.TrimSpace(address)}, nil
}

// Address returns the storage address, possibly empty.
func (s *Storage) Address() string {
	return s.address
}

// Field implements the descriptor table for filtering and formatting.
func (s *Storage) Field(name string) (interface{}, bool) {
	switch name {
	case "unique_code":
		return s.Code(), true
	case "name":
		return s.Name(), true
	case "address":
		return s.address, true
	}
	return nil, false
}

// FieldNames lists the filterable fields of a storage.
func (s *Storage) FieldNames() []string {
	return []string{"unique_code", "name", "address"}
}
