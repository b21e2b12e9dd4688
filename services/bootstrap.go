package services

import (
	"encoding/json"
	"os"

	"github.com/mgwoorl/design-patterns-galiulina/core"
	"github.com/mgwoorl/design-patterns-galiulina/models"
	"github.com/mgwoorl/design-patterns-galiulina/repository"
)

const bootstrapServiceName = "bootstrap"

type unitDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Value  int    `json:"value"`
	BaseID string `json:"base_id"`
}

type groupDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type itemDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	GroupID string `json:"group_id"`
	RangeID string `json:"range_id"`
}

type componentDTO struct {
	NomenclatureID string `json:"nomenclature_id"`
	RangeID        string `json:"range_id"`
	Value          int    `json:"value"`
}

type recipeDTO struct {
	Name          string         `json:"name"`
	CookingTime   string         `json:"cooking_time"`
	Portions      int            `json:"portions"`
	Steps         []string       `json:"steps"`
	Ranges        []unitDTO      `json:"ranges"`
	Categories    []groupDTO     `json:"categories"`
	Nomenclatures []itemDTO      `json:"nomenclatures"`
	Composition   []componentDTO `json:"composition"`
}

type bootstrapFile struct {
	DefaultReceipt recipeDTO `json:"default_receipt"`
}

// BootstrapService fills an empty repository from the default recipe file on
// the first start: units, groups, items, the recipe itself and a default
// storage. DTO codes are adopted verbatim, so restarts against the same file
// keep stable identities.
type BootstrapService struct {
	repo      *repository.Repository
	bus       *core.Bus
	integrity *IntegrityRegistry
}

// NewBootstrapService creates the loader.
func NewBootstrapService(repo *repository.Repository, bus *core.Bus, integrity *IntegrityRegistry) *BootstrapService {
	return &BootstrapService{repo: repo, bus: bus, integrity: integrity}
}

// Load reads the recipe file and populates the repository.
func (s *BootstrapService) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.WrapOperationError(err, "cannot build the starting data set from %s", path)
	}
	var file bootstrapFile
	if err := json.Unmarshal(data, &file); err != nil {
		return core.WrapOperationError(err, "cannot parse the recipe file %s", path)
	}
	dto := file.DefaultReceipt

	units := make(map[string]*models.Unit, len(dto.Ranges))
	for _, u := range dto.Ranges {
		var parent *models.Unit
		if u.BaseID != "" {
			parent = units[u.BaseID]
			if parent == nil {
				return core.NewIntegrityError("recipe file: unit %q references unknown base %s", u.Name, u.BaseID)
			}
		}
		unit, err := models.NewUnit(u.Name, u.Value, parent)
		if err != nil {
			return err
		}
		if err := s.adopt(unit, u.ID); err != nil {
			return err
		}
		units[unit.Code()] = unit
		s.append(repository.KindRanges, unit)
	}

	groups := make(map[string]*models.Group, len(dto.Categories))
	for _, g := range dto.Categories {
		group, err := models.NewGroup(g.Name)
		if err != nil {
			return err
		}
		if err := s.adopt(group, g.ID); err != nil {
			return err
		}
		groups[group.Code()] = group
		s.append(repository.KindGroups, group)
	}

	items := make(map[string]*models.Item, len(dto.Nomenclatures))
	for _, n := range dto.Nomenclatures {
		group := groups[n.GroupID]
		if group == nil {
			return core.NewIntegrityError("recipe file: item %q references unknown group %s", n.Name, n.GroupID)
		}
		unit := units[n.RangeID]
		if unit == nil {
			return core.NewIntegrityError("recipe file: item %q references unknown unit %s", n.Name, n.RangeID)
		}
		item, err := models.NewItem(n.Name, group, unit)
		if err != nil {
			return err
		}
		if err := s.adopt(item, n.ID); err != nil {
			return err
		}
		items[item.Code()] = item
		s.append(repository.KindNomenclatures, item)
	}

	recipe, err := models.NewRecipe(dto.Name, dto.CookingTime, dto.Portions)
	if err != nil {
		return err
	}
	for _, step := range dto.Steps {
		recipe.AddStep(step)
	}
	for _, c := range dto.Composition {
		item := items[c.NomenclatureID]
		if item == nil {
			return core.NewIntegrityError("recipe file: component references unknown item %s", c.NomenclatureID)
		}
		unit := units[c.RangeID]
		if unit == nil {
			return core.NewIntegrityError("recipe file: component references unknown unit %s", c.RangeID)
		}
		component, err := models.NewRecipeComponent(item, unit, c.Value)
		if err != nil {
			return err
		}
		recipe.AddComponent(component)
	}
	s.append(repository.KindReceipts, recipe)

	if len(s.repo.Storages()) == 0 {
		storage, err := models.NewStorage("main storage", "")
		if err != nil {
			return err
		}
		s.append(repository.KindStorages, storage)
	}

	s.bus.Info(bootstrapServiceName, "starting data set loaded", map[string]interface{}{
		"file":          path,
		"units":         len(units),
		"groups":        len(groups),
		"nomenclatures": len(items),
	})
	return nil
}

func (s *BootstrapService) adopt(entity interface{ SetCode(string) error }, code string) error {
	if code == "" {
		return nil
	}
	return entity.SetCode(code)
}

func (s *BootstrapService) append(kind repository.Kind, entity models.Reference) {
	s.repo.Append(kind, entity)
	s.integrity.Watch(entity)
}
