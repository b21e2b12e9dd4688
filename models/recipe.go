package models

import (
	"github.com/mgwoorl/design-patterns-galiulina/core"
)

// RecipeComponent is one ingredient line of a recipe: an item, the unit the
// amount is expressed in and a positive integer amount.
type RecipeComponent struct {
	item  *Item
	unit  *Unit
	value int
}

// NewRecipeComponent creates a component line.
func NewRecipeComponent(item *Item, unit *Unit, value int) (*RecipeComponent, error) {
	if item == nil {
		return nil, core.NewArgumentError("recipe component: item is required")
	}
	if unit == nil {
		return nil, core.NewArgumentError("recipe component: unit is required")
	}
	if value <= 0 {
		return nil, core.NewArgumentError("recipe component: value must be positive, got %d", value)
	}
	return &RecipeComponent{item: item, unit: unit, value: value}, nil
}

// Item returns the component's item.
func (c *RecipeComponent) Item() *Item {
	return c.item
}

// Unit returns the unit the amount is expressed in.
func (c *RecipeComponent) Unit() *Unit {
	return c.unit
}

// Value returns the amount.
func (c *RecipeComponent) Value() int {
	return c.value
}

// Recipe is a named cooking recipe with ordered steps and a component list.
type Recipe struct {
	Entity
	cookingTime string
	portions    int
	steps       []string
	components  []*RecipeComponent
}

// NewRecipe creates a recipe. Portions must be positive.
func NewRecipe(name, cookingTime string, portions int) (*Recipe, error) {
	base, err := newEntity(name)
	if err != nil {
		return nil, err
	}
	if portions <= 0 {
		return nil, core.NewArgumentError("recipe %q: portions must be positive, got %d", name, portions)
	}
	return &Recipe{Entity: base, cookingTime: cookingTime, portions: portions}, nil
}

// CookingTime returns the free-form cooking time description.
func (r *Recipe) CookingTime() string {
	return r.cookingTime
}

// Portions returns the number of portions the recipe yields.
func (r *Recipe) Portions() int {
	return r.portions
}

// Steps returns the ordered preparation steps.
func (r *Recipe) Steps() []string {
	return r.steps
}

// AddStep appends a non-empty preparation step.
func (r *Recipe) AddStep(step string) {
	if step != "" {
		r.steps = append(r.steps, step)
	}
}

// Components returns the ingredient lines.
func (r *Recipe) Components() []*RecipeComponent {
	return r.components
}

// AddComponent appends an ingredient line.
func (r *Recipe) AddComponent(c *RecipeComponent) {
	if c != nil {
		r.components = append(r.components, c)
	}
}

// Field implements the descriptor table for filtering and formatting.
func (r *Recipe) Field(name string) (interface{}, bool) {
	switch name {
	case "unique_code":
		return r.Code(), true
	case "name":
		return r.Name(), true
	case "cooking_time":
		return r.cookingTime, true
	case "portions":
		return r.portions, true
	}
	return nil, false
}

// FieldNames lists the filterable fields of a recipe.
func (r *Recipe) FieldNames() []string {
	return []string{"unique_code", "name", "cooking_time", "portions"}
}

// RewriteReferences sweeps the component list, replacing item and unit links
// that point at old.
func (r *Recipe) RewriteReferences(old, replacement Reference) {
	for _, c := range r.components {
		if c.item != nil && c.item.Code() == old.Code() {
			if next, ok := replacement.(*Item); ok {
				c.item = next
			}
		}
		if c.unit != nil && c.unit.Code() == old.Code() {
			if next, ok := replacement.(*Unit); ok {
				c.unit = next
			}
		}
	}
}

// DependsOn reports whether any component references target.
func (r *Recipe) DependsOn(target Reference) bool {
	for _, c := range r.components {
		if c.item != nil && c.item.Code() == target.Code() {
			return true
		}
		if c.unit != nil && c.unit.Code() == target.Code() {
			return true
		}
	}
	return false
}

// Describe names the recipe for veto messages.
func (r *Recipe) Describe() string {
	return "recipe " + r.Name() + " (" + r.Code() + ")"
}
