package api

import (
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/mgwoorl/design-patterns-galiulina/core"
	"github.com/mgwoorl/design-patterns-galiulina/models"
	"github.com/mgwoorl/design-patterns-galiulina/repository"
	"github.com/mgwoorl/design-patterns-galiulina/services"
)

// Handlers carries the service dependencies of every route. The mutex
// serializes requests whole-process: the repository, the cache, the settings
// and the bus are single-writer by contract.
type Handlers struct {
	Repo      *repository.Repository
	Bus       *core.Bus
	Reference *services.ReferenceService
	Turnover  *services.TurnoverService
	Balance   *services.BalanceService
	OSV       *services.OSVService
	Settings  *services.SettingsManager
	Export    *services.ExportService

	mu sync.Mutex
}

// fieldNamesByKind lists the filterable fields of each exposed bucket,
// mirroring the model descriptor tables.
var fieldNamesByKind = map[repository.Kind][]string{
	repository.KindRanges:        {"unique_code", "name", "value", "base"},
	repository.KindGroups:        {"unique_code", "name"},
	repository.KindNomenclatures: {"unique_code", "name", "group", "range"},
	repository.KindStorages:      {"unique_code", "name", "address"},
	repository.KindTransactions:  {"unique_code", "date", "nomenclature", "storage", "quantity", "unit"},
	repository.KindReceipts:      {"unique_code", "name", "cooking_time", "portions"},
}

// SetupRoutes registers every route under /api.
func SetupRoutes(e *echo.Echo, h *Handlers) {
	g := e.Group("/api", h.serialize)

	g.GET("/accessibility", h.getAccessibility)
	g.GET("/entities", h.getEntities)
	g.GET("/data/:kind/:format", h.getData)
	g.POST("/data/:kind/:format", h.postData)
	g.GET("/filters/:kind", h.getFilters)

	g.GET("/reports/osv", h.getOSV)
	g.POST("/reports/osv/filter", h.postOSVFilter)
	g.GET("/balances", h.getBalances)

	g.GET("/settings/block-period", h.getBlockPeriod)
	g.POST("/settings/block-period", h.postBlockPeriod)

	g.GET("/reference/:kind", h.getReference)
	g.PUT("/reference/:kind", h.putReference)
	g.PATCH("/reference/:kind", h.patchReference)
	g.DELETE("/reference/:kind", h.deleteReference)

	g.GET("/receipts", h.getReceipts)
	g.GET("/receipt/:id", h.getReceipt)

	g.POST("/save-to-file", h.postSaveToFile)
}

// serialize runs requests one at a time.
func (h *Handlers) serialize(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		h.mu.Lock()
		defer h.mu.Unlock()
		return next(c)
	}
}

func (h *Handlers) getAccessibility(c echo.Context) error {
	return c.String(http.StatusOK, "SUCCESS")
}

func (h *Handlers) getEntities(c echo.Context) error {
	kinds := make([]string, 0, len(repository.DataKinds()))
	for _, kind := range repository.DataKinds() {
		kinds = append(kinds, string(kind))
	}
	formats := make([]string, 0, len(models.ResponseFormats()))
	for _, format := range models.ResponseFormats() {
		formats = append(formats, string(format))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"entities": kinds,
		"formats":  formats,
	})
}

func (h *Handlers) getData(c echo.Context) error {
	kind, format, err := h.dataParams(c)
	if err != nil {
		return err
	}
	return h.renderBucket(c, format, kind, h.Repo.Bucket(kind))
}

func (h *Handlers) postData(c echo.Context) error {
	kind, format, err := h.dataParams(c)
	if err != nil {
		return err
	}
	filters, err := bindFilters(c)
	if err != nil {
		return err
	}
	entities := core.Apply(h.Repo.Bucket(kind), filters)
	return h.renderBucket(c, format, kind, entities)
}

func (h *Handlers) getFilters(c echo.Context) error {
	kind, err := dataKind(c.Param("kind"))
	if err != nil {
		return err
	}
	ops := make([]string, 0, len(core.FilterOps()))
	for _, op := range core.FilterOps() {
		ops = append(ops, string(op))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"filter_field_names": fieldNamesByKind[kind],
		"filter_types":       ops,
	})
}

func (h *Handlers) getOSV(c echo.Context) error {
	start, err := core.ParseInstant(c.QueryParam("start_date"))
	if err != nil {
		return core.NewArgumentError("start_date: %s", err.Error())
	}
	end, err := core.ParseInstant(c.QueryParam("end_date"))
	if err != nil {
		return core.NewArgumentError("end_date: %s", err.Error())
	}
	storageID := c.QueryParam("storage_id")
	if storageID == "" {
		return core.NewArgumentError("storage_id is required")
	}

	rows, err := h.OSV.Generate(start, end, storageID)
	if err != nil {
		return notFoundOnLookup(err)
	}
	return c.JSON(http.StatusOK, rows)
}

func (h *Handlers) postOSVFilter(c echo.Context) error {
	filters, err := bindFilters(c)
	if err != nil {
		return err
	}
	rows, err := h.OSV.GenerateWithFilters(filters)
	if err != nil {
		return notFoundOnLookup(err)
	}
	return c.JSON(http.StatusOK, rows)
}

func (h *Handlers) getBalances(c echo.Context) error {
	target, err := core.ParseInstant(c.QueryParam("date"))
	if err != nil {
		return core.NewArgumentError("date: %s", err.Error())
	}
	rows, err := h.Balance.Calculate(target, c.QueryParam("storage_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rows)
}

func (h *Handlers) getBlockPeriod(c echo.Context) error {
	var value interface{}
	if period := h.Settings.BlockPeriod(); period != nil {
		value = core.FormatInstant(*period)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"block_period": value})
}

func (h *Handlers) postBlockPeriod(c echo.Context) error {
	var body struct {
		BlockPeriod string `json:"block_period"`
	}
	if err := c.Bind(&body); err != nil {
		return core.NewArgumentError("malformed request body")
	}
	period, err := core.ParseInstant(body.BlockPeriod)
	if err != nil {
		return core.NewArgumentError("block_period: %s", err.Error())
	}
	if err := h.Settings.SetBlockPeriod(period); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"block_period": core.FormatInstant(period),
	})
}

func (h *Handlers) getReference(c echo.Context) error {
	id := c.QueryParam("id")
	if id == "" {
		return core.NewArgumentError("id is required")
	}
	entity, err := h.Reference.Get(c.Param("kind"), id)
	if err != nil {
		return notFoundOnLookup(err)
	}
	return c.JSON(http.StatusOK, models.Document(entity))
}

func (h *Handlers) putReference(c echo.Context) error {
	attrs, err := bindAttrs(c)
	if err != nil {
		return err
	}
	entity, err := h.Reference.Add(c.Param("kind"), attrs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, models.Document(entity))
}

func (h *Handlers) patchReference(c echo.Context) error {
	attrs, err := bindAttrs(c)
	if err != nil {
		return err
	}
	entity, err := h.Reference.Change(c.Param("kind"), attrs)
	if err != nil {
		return notFoundOnLookup(err)
	}
	return c.JSON(http.StatusOK, models.Document(entity))
}

func (h *Handlers) deleteReference(c echo.Context) error {
	attrs, err := bindAttrs(c)
	if err != nil {
		return err
	}
	if _, ok := attrs["unique_code"]; !ok {
		if id := c.QueryParam("id"); id != "" {
			attrs["unique_code"] = id
		}
	}
	if err := h.Reference.Remove(c.Param("kind"), attrs); err != nil {
		return notFoundOnLookup(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"deleted": attrs["unique_code"]})
}

func (h *Handlers) getReceipts(c echo.Context) error {
	docs := make([]map[string]interface{}, 0)
	for _, recipe := range h.Repo.Recipes() {
		docs = append(docs, models.Document(recipe))
	}
	return c.JSON(http.StatusOK, docs)
}

func (h *Handlers) getReceipt(c echo.Context) error {
	entity, ok := h.Repo.Find(repository.KindReceipts, c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "receipt "+c.Param("id")+" not found")
	}
	return c.JSON(http.StatusOK, models.Document(entity))
}

func (h *Handlers) postSaveToFile(c echo.Context) error {
	var body struct {
		FileName string `json:"file_name"`
	}
	_ = c.Bind(&body)
	if body.FileName == "" {
		body.FileName = "data.json"
	}
	if err := h.Export.ExportAll(body.FileName); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"file": body.FileName})
}

func (h *Handlers) dataParams(c echo.Context) (repository.Kind, models.ResponseFormat, error) {
	kind, err := dataKind(c.Param("kind"))
	if err != nil {
		return "", "", err
	}
	format, ok := models.ParseResponseFormat(c.Param("format"))
	if !ok {
		return "", "", core.NewArgumentError("unknown response format %q", c.Param("format"))
	}
	return kind, format, nil
}

func (h *Handlers) renderBucket(c echo.Context, format models.ResponseFormat, kind repository.Kind, entities []models.Reference) error {
	body, contentType, err := FormatBucket(format, kind, entities)
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, contentType, []byte(body))
}

// dataKind resolves a kind path segment against the exposed buckets.
func dataKind(name string) (repository.Kind, error) {
	for _, kind := range repository.DataKinds() {
		if string(kind) == name {
			return kind, nil
		}
	}
	return "", core.NewArgumentError("unknown entity kind %q", name)
}

// bindFilters decodes a filter array from the request body and normalizes
// the operator names.
func bindFilters(c echo.Context) ([]core.Filter, error) {
	var filters []core.Filter
	if err := c.Bind(&filters); err != nil {
		return nil, core.NewArgumentError("malformed filter list")
	}
	for i := range filters {
		filters[i].Type = core.ParseFilterOp(string(filters[i].Type))
	}
	return filters, nil
}

// bindAttrs decodes the attribute map of a reference mutation.
func bindAttrs(c echo.Context) (map[string]interface{}, error) {
	attrs := make(map[string]interface{})
	if err := c.Bind(&attrs); err != nil {
		return nil, core.NewArgumentError("malformed request body")
	}
	return attrs, nil
}

// notFoundOnLookup upgrades a plain operation error to 404; vetoes and the
// other taxonomy kinds keep their own status.
func notFoundOnLookup(err error) error {
	if core.IsOperation(err) && !core.IsVeto(err) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return err
}
