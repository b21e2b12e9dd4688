package models

import (
	"math"
	"strings"
	"time"

	"github.com/mgwoorl/design-patterns-galiulina/core"
)

// MinTransactionDate is the lower bound of the accounting window; every
// turnover computation starts here.
var MinTransactionDate = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// Transaction is a signed stock movement: positive quantity for inflow,
// negative for outflow. Quantities are expressed in the item's declared
// unit; the free-form unit label is informational only.
type Transaction struct {
	Entity
	date      time.Time
	item      *Item
	storage   *Storage
	quantity  float64
	unitLabel string
}

// NewTransaction records a movement of the item at the storage. The quantity
// must be finite and non-zero and the date must not precede 1900-01-01.
func NewTransaction(date time.Time, item *Item, storage *Storage, quantity float64, unitLabel string) (*Transaction, error) {
	if item == nil {
		return nil, core.NewArgumentError("transaction: item is required")
	}
	if storage == nil {
		return nil, core.NewArgumentError("transaction: storage is required")
	}
	if quantity == 0 || math.IsNaN(quantity) || math.IsInf(quantity, 0) {
		return nil, core.NewArgumentError("transaction: quantity must be finite and non-zero")
	}
	if date.Before(MinTransactionDate) {
		return nil, core.NewArgumentError("transaction: date %s precedes 1900-01-01", date.Format(time.RFC3339))
	}
	return &Transaction{
		Entity:    Entity{code: NewCode(), name: item.Name()},
		date:      date,
		item:      item,
		storage:   storage,
		quantity:  quantity,
		unitLabel: strings.TrimSpace(unitLabel),
	}, nil
}

// Date returns the instant of the movement.
func (t *Transaction) Date() time.Time {
	return t.date
}

// Item returns the moved item.
func (t *Transaction) Item() *Item {
	return t.item
}

// Storage returns the location of the movement.
func (t *Transaction) Storage() *Storage {
	return t.storage
}

// Quantity returns the signed quantity in the item's declared unit.
func (t *Transaction) Quantity() float64 {
	return t.quantity
}

// UnitLabel returns the informational unit string supplied by the caller.
func (t *Transaction) UnitLabel() string {
	return t.unitLabel
}

// Field implements the descriptor table for filtering and formatting.
func (t *Transaction) Field(name string) (interface{}, bool) {
	switch name {
	case "unique_code":
		return t.Code(), true
	case "date":
		return t.date, true
	case "nomenclature":
		return t.item, true
	case "storage":
		return t.storage, true
	case "quantity":
		return t.quantity, true
	case "unit":
		return t.unitLabel, true
	}
	return nil, false
}

// FieldNames lists the filterable fields of a transaction.
func (t *Transaction) FieldNames() []string {
	return []string{"unique_code", "date", "nomenclature", "storage", "quantity", "unit"}
}

// RewriteReferences replaces the item or storage link when it points at old.
func (t *Transaction) RewriteReferences(old, replacement Reference) {
	if t.item != nil && t.item.Code() == old.Code() {
		if next, ok := replacement.(*Item); ok {
			t.item = next
		}
	}
	if t.storage != nil && t.storage.Code() == old.Code() {
		if next, ok := replacement.(*Storage); ok {
			t.storage = next
		}
	}
}

// DependsOn reports whether the transaction references target.
func (t *Transaction) DependsOn(target Reference) bool {
	if t.item != nil && t.item.Code() == target.Code() {
		return true
	}
	return t.storage != nil && t.storage.Code() == target.Code()
}

// Describe names the transaction for veto messages.
func (t *Transaction) Describe() string {
	return "transaction " + t.Code()
}
