package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgwoorl/design-patterns-galiulina/core"
	"github.com/mgwoorl/design-patterns-galiulina/models"
	"github.com/mgwoorl/design-patterns-galiulina/repository"
	"github.com/mgwoorl/design-patterns-galiulina/services"
)

// testServer wires the full stack against an in-memory world seeded with one
// item, its group and unit chain, one storage and one recipe.
type testServer struct {
	echo *echo.Echo
	repo *repository.Repository

	flour   *models.Item
	main    *models.Storage
	recipe  *models.Recipe
	gram    *models.Unit
	cereals *models.Group
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	repo := repository.New()
	bus := core.NewBus()
	integrity := services.NewIntegrityRegistry(bus)

	gram, err := models.NewUnit("gram", 1, nil)
	require.NoError(t, err)
	kilogram, err := models.NewUnit("kilogram", 1000, gram)
	require.NoError(t, err)
	cereals, err := models.NewGroup("cereals")
	require.NoError(t, err)
	flour, err := models.NewItem("flour", cereals, kilogram)
	require.NoError(t, err)
	main, err := models.NewStorage("main", "Baker street 1")
	require.NoError(t, err)
	recipe, err := models.NewRecipe("waffles", "20 min", 4)
	require.NoError(t, err)
	component, err := models.NewRecipeComponent(flour, gram, 250)
	require.NoError(t, err)
	recipe.AddComponent(component)

	seed := []struct {
		kind   repository.Kind
		entity models.Reference
	}{
		{repository.KindRanges, gram},
		{repository.KindRanges, kilogram},
		{repository.KindGroups, cereals},
		{repository.KindNomenclatures, flour},
		{repository.KindStorages, main},
		{repository.KindReceipts, recipe},
	}
	for _, s := range seed {
		repo.Append(s.kind, s.entity)
		integrity.Watch(s.entity)
	}

	turnover := services.NewTurnoverService(repo, bus)
	dir := t.TempDir()
	settings := services.NewSettingsManager(
		filepath.Join(dir, "settings.json"),
		filepath.Join(dir, "turnover_cache.json"),
		bus, turnover)

	h := &Handlers{
		Repo:      repo,
		Bus:       bus,
		Reference: services.NewReferenceService(repo, bus, integrity),
		Turnover:  turnover,
		Balance:   services.NewBalanceService(repo, bus, settings, turnover),
		OSV:       services.NewOSVService(repo, bus),
		Settings:  settings,
		Export:    services.NewExportService(repo, bus, nil),
	}

	e := NewEchoServer(DefaultServerConfig())
	SetupRoutes(e, h)
	return &testServer{
		echo:    e,
		repo:    repo,
		flour:   flour,
		main:    main,
		recipe:  recipe,
		gram:    gram,
		cereals: cereals,
	}
}

func (s *testServer) movement(t *testing.T, day string, quantity float64) {
	t.Helper()
	when, err := core.ParseInstant(day)
	require.NoError(t, err)
	tx, err := models.NewTransaction(when, s.flour, s.main, quantity, s.flour.Unit().Name())
	require.NoError(t, err)
	s.repo.Append(repository.KindTransactions, tx)
}

func (s *testServer) request(method, target, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestAccessibility(t *testing.T) {
	s := newTestServer(t)
	rec := s.request(http.MethodGet, "/api/accessibility", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "SUCCESS", rec.Body.String())
}

func TestEntitiesListsKindsAndFormats(t *testing.T) {
	s := newTestServer(t)
	rec := s.request(http.MethodGet, "/api/entities", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Entities []string `json:"entities"`
		Formats  []string `json:"formats"`
	}
	decodeJSON(t, rec, &body)
	assert.Contains(t, body.Entities, "nomenclatures")
	assert.Contains(t, body.Entities, "transactions")
	assert.Contains(t, body.Formats, "csv")
	assert.Contains(t, body.Formats, "markdown")
}

func TestDataDumpJSON(t *testing.T) {
	s := newTestServer(t)
	rec := s.request(http.MethodGet, "/api/data/nomenclatures/json", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var docs []map[string]interface{}
	decodeJSON(t, rec, &docs)
	require.Len(t, docs, 1)
	assert.Equal(t, "flour", docs[0]["name"])
}

func TestDataDumpCSV(t *testing.T) {
	s := newTestServer(t)
	rec := s.request(http.MethodGet, "/api/data/nomenclatures/csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "unique_code;name;group;range", lines[0])
	assert.Contains(t, lines[1], "flour;cereals;kilogram")
}

func TestDataDumpRejectsUnknownKindAndFormat(t *testing.T) {
	s := newTestServer(t)

	rec := s.request(http.MethodGet, "/api/data/unknown/json", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.request(http.MethodGet, "/api/data/nomenclatures/yaml", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body ErrorResponse
	decodeJSON(t, rec, &body)
	assert.Contains(t, body.Message, "yaml")
}

func TestDataDumpWithFilters(t *testing.T) {
	s := newTestServer(t)
	body := `[{"field_name": "name", "value": "flo", "type": "like"}]`
	rec := s.request(http.MethodPost, "/api/data/nomenclatures/json", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var docs []map[string]interface{}
	decodeJSON(t, rec, &docs)
	require.Len(t, docs, 1)

	body = `[{"field_name": "name", "value": "butter", "type": "EQUALS"}]`
	rec = s.request(http.MethodPost, "/api/data/nomenclatures/json", body)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeJSON(t, rec, &docs)
	assert.Empty(t, docs)
}

func TestFiltersDescribeBucket(t *testing.T) {
	s := newTestServer(t)
	rec := s.request(http.MethodGet, "/api/filters/transactions", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		FieldNames []string `json:"filter_field_names"`
		Types      []string `json:"filter_types"`
	}
	decodeJSON(t, rec, &body)
	assert.Contains(t, body.FieldNames, "date")
	assert.Contains(t, body.FieldNames, "storage")
	assert.Contains(t, body.Types, "LIKE")
}

func TestOSVEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.movement(t, "2024-01-10", 0.1)
	s.movement(t, "2024-02-01", -0.05)

	rec := s.request(http.MethodGet,
		"/api/reports/osv?start_date=2024-01-01&end_date=2024-02-28&storage_id="+s.main.Code(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []map[string]interface{}
	decodeJSON(t, rec, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, "kilogram", rows[0]["unit"])
	assert.InDelta(t, 0.05, rows[0]["end_balance"].(float64), 1e-9)
}

func TestOSVEndpointErrors(t *testing.T) {
	s := newTestServer(t)

	rec := s.request(http.MethodGet, "/api/reports/osv?start_date=2024-01-01&end_date=2024-02-28", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.request(http.MethodGet,
		"/api/reports/osv?start_date=2024-01-01&end_date=2024-02-28&storage_id=missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOSVFilterEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.movement(t, "2024-01-10", 1)

	body := `[
  {"field_name": "period", "value": "2024-01-01", "type": "greater_equal"},
  {"field_name": "period", "value": "2024-01-31", "type": "less_equal"},
  {"field_name": "storage", "value": "` + s.main.Code() + `", "type": "equals"}
]`
	rec := s.request(http.MethodPost, "/api/reports/osv/filter", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []map[string]interface{}
	decodeJSON(t, rec, &rows)
	require.Len(t, rows, 1)
}

func TestBalancesEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.movement(t, "2024-01-10", 100)
	s.movement(t, "2024-02-01", -40)

	rec := s.request(http.MethodGet, "/api/balances?date=2024-06-01", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []map[string]interface{}
	decodeJSON(t, rec, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, 60.0, rows[0]["end_balance"])

	rec = s.request(http.MethodGet, "/api/balances?date=nonsense", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBlockPeriodRoundTrip(t *testing.T) {
	s := newTestServer(t)
	s.movement(t, "2024-01-10", 100)

	rec := s.request(http.MethodGet, "/api/settings/block-period", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	decodeJSON(t, rec, &body)
	assert.Nil(t, body["block_period"])

	rec = s.request(http.MethodPost, "/api/settings/block-period", `{"block_period": "2024-02-01"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.request(http.MethodGet, "/api/settings/block-period", "")
	decodeJSON(t, rec, &body)
	assert.Equal(t, "2024-02-01T00:00:00Z", body["block_period"])

	rec = s.request(http.MethodPost, "/api/settings/block-period", `{"block_period": "not a date"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReferenceLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := s.request(http.MethodPut, "/api/reference/group", `{"name": "dairy"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var doc map[string]interface{}
	decodeJSON(t, rec, &doc)
	code, ok := doc["unique_code"].(string)
	require.True(t, ok)

	rec = s.request(http.MethodGet, "/api/reference/group?id="+code, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.request(http.MethodPatch, "/api/reference/group",
		`{"unique_code": "`+code+`", "name": "dairy products"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeJSON(t, rec, &doc)
	assert.Equal(t, "dairy products", doc["name"])

	rec = s.request(http.MethodDelete, "/api/reference/group?id="+code, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.request(http.MethodGet, "/api/reference/group?id="+code, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReferenceDuplicateCode(t *testing.T) {
	s := newTestServer(t)
	rec := s.request(http.MethodPut, "/api/reference/group",
		`{"name": "dairy", "unique_code": "`+s.cereals.Code()+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReferenceUnknownKind(t *testing.T) {
	s := newTestServer(t)
	rec := s.request(http.MethodGet, "/api/reference/recipe?id=whatever", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReferenceDeleteVetoed(t *testing.T) {
	s := newTestServer(t)

	rec := s.request(http.MethodDelete, "/api/reference/item?id="+s.flour.Code(), "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	var body ErrorResponse
	decodeJSON(t, rec, &body)
	assert.Contains(t, body.Message, "waffles")

	_, stillThere := s.repo.Find(repository.KindNomenclatures, s.flour.Code())
	assert.True(t, stillThere)
}

func TestReceiptEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.request(http.MethodGet, "/api/receipts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var docs []map[string]interface{}
	decodeJSON(t, rec, &docs)
	require.Len(t, docs, 1)
	assert.Equal(t, "waffles", docs[0]["name"])

	rec = s.request(http.MethodGet, "/api/receipt/"+s.recipe.Code(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.request(http.MethodGet, "/api/receipt/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaveToFile(t *testing.T) {
	s := newTestServer(t)
	path := filepath.Join(t.TempDir(), "dump.json")

	rec := s.request(http.MethodPost, "/api/save-to-file", `{"file_name": "`+path+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"export_date"`)
	assert.Contains(t, string(data), "flour")
}
