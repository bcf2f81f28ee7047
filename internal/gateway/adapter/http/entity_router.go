package http

import (
	"strconv"

	authhttp "buildmarket/internal/auth/adapter/http"
	"buildmarket/internal/gateway/domain/model"
	"buildmarket/internal/gateway/usecase"
	apperrors "buildmarket/internal/shared/errors"
	"buildmarket/internal/shared/logger"
	"buildmarket/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// reservedParams are query parameters with gateway meaning; everything else
// is treated as an equality criterion.
var reservedParams = map[string]bool{
	"sort":  true,
	"limit": true,
	"token": true,
}

// EntityHTTPHandler exposes the uniform entity surface over HTTP. Every
// kind shares the same routes; the collection segment selects the kind.
type EntityHTTPHandler struct {
	gateway  usecase.EntityGatewayInterface
	uploader *storage.Uploader
	log      logger.Logger
}

// NewEntityHTTPHandler creates a new entity HTTP handler
func NewEntityHTTPHandler(gw usecase.EntityGatewayInterface, uploader *storage.Uploader, log logger.Logger) *EntityHTTPHandler {
	return &EntityHTTPHandler{
		gateway:  gw,
		uploader: uploader,
		log:      log.WithComponent("entity_http"),
	}
}

// RegisterRoutes sets up entity and upload routes. Reads carry optional
// identity; mutations require it.
func (h *EntityHTTPHandler) RegisterRoutes(router fiber.Router, middleware *authhttp.AuthMiddleware) {
	entities := router.Group("/entities")
	entities.Get("/:collection", middleware.Optional(), h.List)
	entities.Post("/:collection/query", middleware.Optional(), h.Query)
	entities.Post("/:collection", middleware.Protect(), h.Create)
	entities.Get("/:collection/:id", middleware.Optional(), h.Get)
	entities.Put("/:collection/:id", middleware.Protect(), h.Update)
	entities.Patch("/:collection/:id", middleware.Protect(), h.Update)
	entities.Delete("/:collection/:id", middleware.Protect(), h.Delete)

	router.Post("/upload", middleware.Protect(), h.Upload)
}

func (h *EntityHTTPHandler) kind(c *fiber.Ctx) (model.Kind, error) {
	kind, err := model.KindFromCollection(c.Params("collection"))
	if err != nil {
		return "", err
	}
	return kind, nil
}

// List answers GET /:collection. Non-reserved query parameters become
// equality criteria; sort and limit are passed through.
func (h *EntityHTTPHandler) List(c *fiber.Ctx) error {
	kind, err := h.kind(c)
	if err != nil {
		return errorResponse(c, err)
	}

	criteria := make(map[string]interface{})
	for key, values := range c.Queries() {
		if reservedParams[key] || values == "" {
			continue
		}
		criteria[key] = parseQueryValue(values)
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	records, err := h.gateway.Filter(c.UserContext(), kind, criteria, c.Query("sort"), limit)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(records)
}

// Query answers POST /:collection/query with a JSON body, preserving
// criteria value types that query strings cannot carry.
func (h *EntityHTTPHandler) Query(c *fiber.Ctx) error {
	kind, err := h.kind(c)
	if err != nil {
		return errorResponse(c, err)
	}

	var req struct {
		Criteria map[string]interface{} `json:"criteria"`
		Sort     string                 `json:"sort"`
		Limit    int                    `json:"limit"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	records, err := h.gateway.Filter(c.UserContext(), kind, req.Criteria, req.Sort, req.Limit)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(records)
}

// Get answers GET /:collection/:id
func (h *EntityHTTPHandler) Get(c *fiber.Ctx) error {
	kind, err := h.kind(c)
	if err != nil {
		return errorResponse(c, err)
	}

	record, err := h.gateway.Get(c.UserContext(), kind, c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(record)
}

// Create answers POST /:collection
func (h *EntityHTTPHandler) Create(c *fiber.Ctx) error {
	kind, err := h.kind(c)
	if err != nil {
		return errorResponse(c, err)
	}

	var fields model.Entity
	if err := c.BodyParser(&fields); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	record, err := h.gateway.Create(c.UserContext(), kind, fields)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(record)
}

// Update answers PUT and PATCH /:collection/:id
func (h *EntityHTTPHandler) Update(c *fiber.Ctx) error {
	kind, err := h.kind(c)
	if err != nil {
		return errorResponse(c, err)
	}

	var fields model.Entity
	if err := c.BodyParser(&fields); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	record, err := h.gateway.Update(c.UserContext(), kind, c.Params("id"), fields)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(record)
}

// Delete answers DELETE /:collection/:id
func (h *EntityHTTPHandler) Delete(c *fiber.Ctx) error {
	kind, err := h.kind(c)
	if err != nil {
		return errorResponse(c, err)
	}

	if err := h.gateway.Delete(c.UserContext(), kind, c.Params("id")); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"deleted": true,
	})
}

// Upload answers POST /upload with multipart form data
func (h *EntityHTTPHandler) Upload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing file field",
		})
	}

	f, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unreadable file",
		})
	}
	defer f.Close()

	result, err := h.uploader.Upload(c.UserContext(), fileHeader.Filename, f)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func errorResponse(c *fiber.Ctx, err error) error {
	return c.Status(apperrors.HTTPStatus(err)).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// parseQueryValue widens query-string values so numeric and boolean
// criteria match stored values, not their string renderings.
func parseQueryValue(raw string) interface{} {
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}
