package controller

import (
	"strconv"

	"lucide-core/internal/pkg/logger"
	"lucide-core/internal/pkg/serverutils"
	"lucide-core/pkg/document"

	"github.com/gofiber/fiber/v2"
)

// CodecLister reports the document codecs usable in this process.
type CodecLister interface {
	Codecs() []document.CodecStatus
}

type ISystemController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
	GetLogs(ctx *fiber.Ctx) error
	GetLogDetail(ctx *fiber.Ctx) error
}

type systemController struct {
	logger logger.ILogger
	codecs CodecLister
}

func NewSystemController(log logger.ILogger, codecs CodecLister) ISystemController {
	return &systemController{logger: log, codecs: codecs}
}

func (c *systemController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/system/v1")
	h.Get("health", c.Health)
	h.Get("logs", c.GetLogs)
	h.Get("logs/:id", c.GetLogDetail)
}

func (c *systemController) Health(ctx *fiber.Ctx) error {
	degraded := []string{}
	for _, st := range c.codecs.Codecs() {
		if !st.Available {
			degraded = append(degraded, st.Name)
		}
	}
	return ctx.JSON(serverutils.SuccessResponse("OK", fiber.Map{
		"status":          "ok",
		"degraded_codecs": degraded,
	}))
}

func (c *systemController) GetLogs(ctx *fiber.Ctx) error {
	page, _ := strconv.Atoi(ctx.Query("page", "1"))
	limit, _ := strconv.Atoi(ctx.Query("limit", "50"))
	level := ctx.Query("level", "")
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 50
	}

	logs, err := c.logger.GetLogs(level, limit, (page-1)*limit)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("System logs", logs))
}

func (c *systemController) GetLogDetail(ctx *fiber.Ctx) error {
	// Log ids are content hashes, not UUIDs.
	l, err := c.logger.GetLogById(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "Log not found")
	}
	return ctx.JSON(serverutils.SuccessResponse("Log detail", l))
}
