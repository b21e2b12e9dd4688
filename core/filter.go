package core

import (
	"strconv"
	"strings"
	"time"
)

// FilterOp enumerates the supported comparison operations. The canonical
// wire form is the uppercase name; parsing is case-insensitive.
type FilterOp string

const (
	OpEquals       FilterOp = "EQUALS"
	OpLike         FilterOp = "LIKE"
	OpNotEqual     FilterOp = "NOT_EQUAL"
	OpGreater      FilterOp = "GREATER"
	OpGreaterEqual FilterOp = "GREATER_EQUAL"
	OpLess         FilterOp = "LESS"
	OpLessEqual    FilterOp = "LESS_EQUAL"
)

// FilterOps returns all operator names in their canonical form.
func FilterOps() []FilterOp {
	return []FilterOp{OpEquals, OpLike, OpGreater, OpGreaterEqual, OpLess, OpLessEqual, OpNotEqual}
}

// ParseFilterOp resolves an operator name case-insensitively. Unknown names
// default to EQUALS, matching the tolerant behavior of the wire format.
func ParseFilterOp(name string) FilterOp {
	switch FilterOp(strings.ToUpper(strings.TrimSpace(name))) {
	case OpLike:
		return OpLike
	case OpNotEqual:
		return OpNotEqual
	case OpGreater:
		return OpGreater
	case OpGreaterEqual:
		return OpGreaterEqual
	case OpLess:
		return OpLess
	case OpLessEqual:
		return OpLessEqual
	default:
		return OpEquals
	}
}

// Filter is one predicate: a field path, a literal and an operator. Field
// paths may be nested with "/" as separator, e.g. "group/name".
type Filter struct {
	FieldName string   `json:"field_name"`
	Value     string   `json:"value"`
	Type      FilterOp `json:"type"`
}

// FieldLookup exposes the explicit field-descriptor table of a record. The
// returned value is either a scalar (string, number, time) or another
// FieldLookup for nested access.
type FieldLookup interface {
	Field(name string) (interface{}, bool)
}

// Coded is satisfied by every domain entity; a coded value used as a filter
// leaf compares by its unique code.
type Coded interface {
	Code() string
}

// Named is satisfied by entities carrying a display name.
type Named interface {
	Name() string
}

// Apply filters records by conjunction of all filters, preserving the input
// order. An empty filter list returns the input unchanged; a record whose
// field path cannot be resolved fails the filter rather than erroring.
func Apply[T FieldLookup](records []T, filters []Filter) []T {
	if len(records) == 0 || len(filters) == 0 {
		return records
	}
	result := records
	for _, f := range filters {
		matched := make([]T, 0, len(result))
		for _, record := range result {
			if matchFilter(record, f) {
				matched = append(matched, record)
			}
		}
		result = matched
	}
	return result
}

func matchFilter(record FieldLookup, f Filter) bool {
	value, ok := resolvePath(record, f.FieldName)
	if !ok {
		return false
	}
	return compare(value, f.Value, f.Type)
}

func resolvePath(record FieldLookup, path string) (interface{}, bool) {
	parts := strings.Split(path, "/")
	var current interface{} = record
	for _, part := range parts {
		lookup, ok := current.(FieldLookup)
		if !ok {
			return nil, false
		}
		current, ok = lookup.Field(part)
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func compare(fieldValue interface{}, filterValue string, op FilterOp) bool {
	fieldStr := Stringify(fieldValue)
	switch op {
	case OpEquals:
		return fieldStr == filterValue
	case OpLike:
		return strings.Contains(strings.ToLower(fieldStr), strings.ToLower(filterValue))
	case OpNotEqual:
		return fieldStr != filterValue
	}

	// Ordered operators compare numerically when both sides parse as
	// numbers and fall back to lexicographic comparison otherwise.
	fieldNum, errA := strconv.ParseFloat(fieldStr, 64)
	filterNum, errB := strconv.ParseFloat(filterValue, 64)
	if errA == nil && errB == nil {
		switch op {
		case OpGreater:
			return fieldNum > filterNum
		case OpGreaterEqual:
			return fieldNum >= filterNum
		case OpLess:
			return fieldNum < filterNum
		case OpLessEqual:
			return fieldNum <= filterNum
		}
		return fieldStr == filterValue
	}
	switch op {
	case OpGreater:
		return fieldStr > filterValue
	case OpGreaterEqual:
		return fieldStr >= filterValue
	case OpLess:
		return fieldStr < filterValue
	case OpLessEqual:
		return fieldStr <= filterValue
	}
	return fieldStr == filterValue
}

// Stringify renders a filter leaf value for comparison and display. Entities
// render as their unique code, instants as RFC 3339.
func Stringify(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		return v.Format(time.RFC3339)
	case Coded:
		return v.Code()
	default:
		return ""
	}
}
