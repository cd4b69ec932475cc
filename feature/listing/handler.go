package listing

import (
	"errors"
	"strconv"

	"catalog-manager/core/logger"
	"catalog-manager/core/middleware/auth"
	"catalog-manager/core/utils"
	"catalog-manager/feature/listing/importer"
	"catalog-manager/feature/listing/query"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// reservedQueryKeys are listing query parameters with a fixed meaning. Any
// other query key is treated as an attribute-bag filter.
var reservedQueryKeys = map[string]struct{}{
	"brand":          {},
	"category":       {},
	"subcategory":    {},
	"subsubcategory": {},
	"color":          {},
	"type":           {},
	"size":           {},
	"price_min":      {},
	"price_max":      {},
	"min_inventory":  {},
	"q":              {},
	"search":         {},
	"sort":           {},
	"page":           {},
	"limit":          {},
	"cursor":         {},
	"api_key":        {},
}

// Handler handles HTTP requests for the listing feature.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers the listing routes. Reads are public; imports,
// deletes, and report downloads sit behind the API key.
func (h *Handler) RegisterRoutes(app fiber.Router, apiKey string) {
	guard := auth.New(auth.Config{ApiKey: apiKey})

	app.Get("/listings", h.HandleListListings)

	catalog := app.Group("/catalog", guard)
	catalog.Post("/import", h.HandleImportCatalog)
	catalog.Delete("/products/:model", h.HandleDeleteProduct)
	catalog.Delete("/variants/:sku", h.HandleDeleteVariant)

	app.Post("/inventory/import", guard, h.HandleImportInventory)
	app.Get("/reports/:name", guard, h.HandleGetReport)
}

// HandleListListings answers a filtered, sorted, paginated listing query.
// @Summary Query Listings
// @Description Filter, sort, and paginate the denormalized product listings. Unrecognized query parameters filter the default variant's attribute bag.
// @Tags listing
// @Produce json
// @Param brand query string false "Brand filter, list-valued (comma, semicolon, or pipe separated)"
// @Param category query string false "Category reference id or legacy free-text name"
// @Param subcategory query string false "Subcategory reference id or name"
// @Param color query string false "Color filter, list-valued"
// @Param type query string false "Type filter, list-valued"
// @Param size query string false "Size filter, list-valued"
// @Param price_min query number false "Minimum price"
// @Param price_max query number false "Maximum price"
// @Param min_inventory query integer false "Minimum total inventory"
// @Param q query string false "Free-text search"
// @Param sort query string false "Sort: price_asc, price_desc, newest, updated"
// @Param page query integer false "Page number (offset mode)"
// @Param limit query integer false "Page size, capped at 100"
// @Param cursor query integer false "Last-seen product id (cursor mode)"
// @Success 200 {object} query.Page "Listing page"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /listings [get]
func (h *Handler) HandleListListings(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	page, err := h.service.Query(c.Context(), parseListingParams(c))
	if err != nil {
		l.Error("Listing query failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "listing query failed",
		})
	}

	return c.JSON(page)
}

// HandleImportCatalog reconciles an uploaded catalog CSV.
// @Summary Import Catalog CSV
// @Description Upsert products and variants from a catalog CSV. Partial success returns 200 with an errors array and an optional error-report object.
// @Tags listing
// @Accept mpfd
// @Produce json
// @Param file formData file true "Catalog CSV"
// @Success 200 {object} importer.CatalogResult "Import summary"
// @Failure 400 {object} map[string]string "Bad Request"
// @Security ApiKeyAuth
// @Router /catalog/import [post]
func (h *Handler) HandleImportCatalog(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing file upload",
		})
	}
	f, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unreadable file upload",
		})
	}
	defer f.Close()

	res, err := h.service.ImportCatalog(c.Context(), f)
	if err != nil {
		l.Error("Catalog import failed", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	l.Info("Catalog import finished",
		zap.Int("rows", res.RowsProcessed),
		zap.Int("products", res.ProductsWritten),
		zap.Int("variants", res.VariantsWritten),
		zap.Int("errors", len(res.Errors)))
	return c.JSON(res)
}

// HandleImportInventory reconciles an uploaded inventory CSV.
// @Summary Import Inventory CSV
// @Description Reconcile stock records from an inventory CSV under the given mode.
// @Tags listing
// @Accept mpfd
// @Produce json
// @Param mode query string false "Reconciliation mode: replace (default), increment, merge"
// @Param file formData file true "Inventory CSV"
// @Success 200 {object} importer.InventoryResult "Import summary"
// @Failure 400 {object} map[string]string "Bad Request"
// @Security ApiKeyAuth
// @Router /inventory/import [post]
func (h *Handler) HandleImportInventory(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	mode, err := importer.ParseMode(c.Query("mode"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing file upload",
		})
	}
	f, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unreadable file upload",
		})
	}
	defer f.Close()

	res, err := h.service.ImportInventory(c.Context(), f, mode)
	if err != nil {
		l.Error("Inventory import failed", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	l.Info("Inventory import finished",
		zap.String("mode", string(mode)),
		zap.Int("rows", res.RowsProcessed),
		zap.Int("created", res.RecordsCreated),
		zap.Int("updated", res.RecordsUpdated),
		zap.Int("errors", len(res.Errors)))
	return c.JSON(res)
}

// HandleDeleteProduct removes a product and everything under it.
// @Summary Delete Product
// @Description Delete a product by model code, cascading to variants and stock.
// @Tags listing
// @Produce json
// @Param model path string true "Model code"
// @Success 200 {object} map[string]string "Deleted"
// @Failure 404 {object} map[string]string "Not Found"
// @Security ApiKeyAuth
// @Router /catalog/products/{model} [delete]
func (h *Handler) HandleDeleteProduct(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)
	model := c.Params("model")

	if err := h.service.DeleteProduct(c.Context(), model); err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "product not found",
			})
		}
		l.Error("Product delete failed", zap.String("model_code", model), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "product delete failed",
		})
	}

	return c.JSON(fiber.Map{"status": "deleted"})
}

// HandleDeleteVariant removes one variant and its stock records.
// @Summary Delete Variant
// @Description Delete a variant by sku code and re-materialize its owner.
// @Tags listing
// @Produce json
// @Param sku path string true "Sku code"
// @Success 200 {object} map[string]string "Deleted"
// @Failure 404 {object} map[string]string "Not Found"
// @Security ApiKeyAuth
// @Router /catalog/variants/{sku} [delete]
func (h *Handler) HandleDeleteVariant(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)
	sku := c.Params("sku")

	if err := h.service.DeleteVariant(c.Context(), sku); err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "variant not found",
			})
		}
		l.Error("Variant delete failed", zap.String("sku_code", sku), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "variant delete failed",
		})
	}

	return c.JSON(fiber.Map{"status": "deleted"})
}

// HandleGetReport streams a stored import error report.
// @Summary Download Error Report
// @Description Download the error-report CSV produced by an earlier import.
// @Tags listing
// @Produce text/csv
// @Param name path string true "Report object name"
// @Success 200 {file} file "Error report CSV"
// @Failure 404 {object} map[string]string "Not Found"
// @Security ApiKeyAuth
// @Router /reports/{name} [get]
func (h *Handler) HandleGetReport(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)
	name := c.Params("name")

	obj, err := h.service.GetReport(c.Context(), name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "report not found",
			})
		}
		l.Error("Report download failed", zap.String("report", name), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "report download failed",
		})
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.SendStream(obj)
}

// parseListingParams maps the request query onto listing query params.
// Reserved keys keep their meaning; everything else becomes an attribute
// filter.
func parseListingParams(c *fiber.Ctx) query.Params {
	p := query.Params{
		Brands:         []string{c.Query("brand")},
		Category:       c.Query("category"),
		Subcategory:    c.Query("subcategory"),
		Subsubcategory: c.Query("subsubcategory"),
		Colors:         []string{c.Query("color")},
		Types:          []string{c.Query("type")},
		Sizes:          []string{c.Query("size")},
		Search:         c.Query("q", c.Query("search")),
		Sort:           c.Query("sort"),
		Page:           c.QueryInt("page"),
		Limit:          c.QueryInt("limit"),
	}

	if v := c.Query("price_min"); v != "" {
		f := utils.ToFloat(v)
		p.PriceMin = &f
	}
	if v := c.Query("price_max"); v != "" {
		f := utils.ToFloat(v)
		p.PriceMax = &f
	}
	if v := c.Query("min_inventory"); v != "" {
		n := int64(utils.ToInt(v))
		p.MinInventory = &n
	}
	if v := c.Query("cursor"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cur := uint(n)
			p.Cursor = &cur
		}
	}

	for key, val := range c.Queries() {
		if val == "" {
			continue
		}
		if _, reserved := reservedQueryKeys[key]; reserved {
			continue
		}
		if p.Attributes == nil {
			p.Attributes = make(map[string][]string)
		}
		p.Attributes[key] = query.SplitList([]string{val})
	}

	return p
}
