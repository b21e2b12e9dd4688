package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mgwoorl/design-patterns-galiulina/core"
	"github.com/mgwoorl/design-patterns-galiulina/models"
	"github.com/mgwoorl/design-patterns-galiulina/repository"
)

// fixture is the shared test world: gram/kilogram units, the cereals group,
// the flour item measured in kilograms and the main storage, all watched by
// the integrity registry.
type fixture struct {
	repo      *repository.Repository
	bus       *core.Bus
	integrity *IntegrityRegistry

	gram     *models.Unit
	kilogram *models.Unit
	cereals  *models.Group
	flour    *models.Item
	main     *models.Storage
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo: repository.New(),
		bus:  core.NewBus(),
	}
	f.integrity = NewIntegrityRegistry(f.bus)

	var err error
	f.gram, err = models.NewUnit("gram", 1, nil)
	require.NoError(t, err)
	f.kilogram, err = models.NewUnit("kilogram", 1000, f.gram)
	require.NoError(t, err)
	f.cereals, err = models.NewGroup("cereals")
	require.NoError(t, err)
	f.flour, err = models.NewItem("flour", f.cereals, f.kilogram)
	require.NoError(t, err)
	f.main, err = models.NewStorage("main", "Baker street 1")
	require.NoError(t, err)

	f.add(repository.KindRanges, f.gram)
	f.add(repository.KindRanges, f.kilogram)
	f.add(repository.KindGroups, f.cereals)
	f.add(repository.KindNomenclatures, f.flour)
	f.add(repository.KindStorages, f.main)
	return f
}

func (f *fixture) add(kind repository.Kind, entity models.Reference) {
	f.repo.Append(kind, entity)
	f.integrity.Watch(entity)
}

// movement records a signed quantity of flour at the main storage.
func (f *fixture) movement(t *testing.T, day string, quantity float64) *models.Transaction {
	t.Helper()
	return f.movementOf(t, day, f.flour, f.main, quantity)
}

func (f *fixture) movementOf(t *testing.T, day string, item *models.Item, storage *models.Storage, quantity float64) *models.Transaction {
	t.Helper()
	tx, err := models.NewTransaction(date(t, day), item, storage, quantity, item.Unit().Name())
	require.NoError(t, err)
	f.add(repository.KindTransactions, tx)
	return tx
}

func date(t *testing.T, day string) time.Time {
	t.Helper()
	parsed, err := core.ParseInstant(day)
	require.NoError(t, err)
	return parsed
}
