package controller

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"lucide-core/internal/dto"
	"lucide-core/internal/pkg/logger"
	"lucide-core/internal/pkg/serverutils"
	"lucide-core/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Reindex(ctx *fiber.Ctx) error
	Codecs(ctx *fiber.Ctx) error
	Status(ctx *fiber.Ctx) error
}

type documentController struct {
	documentService  service.IDocumentService
	publisherService service.IPublisherService
	knowledge        service.KnowledgeBase
	logger           logger.ILogger
	tempDir          string
}

func NewDocumentController(
	documentService service.IDocumentService,
	publisherService service.IPublisherService,
	knowledge service.KnowledgeBase,
	log logger.ILogger,
) IDocumentController {
	return &documentController{
		documentService:  documentService,
		publisherService: publisherService,
		knowledge:        knowledge,
		logger:           log,
		tempDir:          os.TempDir(),
	}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/document/v1")
	h.Get("codecs", c.Codecs)
	h.Get("status", c.Status)
	h.Post("", c.Upload)
	h.Get("", c.List)
	h.Get(":id", c.Show)
	h.Delete(":id", c.Delete)
	h.Post(":id/reindex", c.Reindex)
}

func (c *documentController) Upload(ctx *fiber.Ctx) error {
	userId, err := currentUser(ctx)
	if err != nil {
		return err
	}

	fh, err := ctx.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Missing file")
	}

	// Saved to disk so the size check can stat it.
	tmp := filepath.Join(c.tempDir, "lucide-upload-"+uuid.NewString()+filepath.Ext(fh.Filename))
	if err := ctx.SaveFile(fh, tmp); err != nil {
		return err
	}
	defer func() {
		if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
			c.logger.Warn("DOCUMENT", "Failed to remove upload temp file", map[string]interface{}{"path": tmp, "error": err.Error()})
		}
	}()

	doc, err := c.documentService.Upload(ctx.UserContext(), userId, service.FileData{
		Filename: filepath.Base(fh.Filename),
		Path:     tmp,
		Content:  ctx.FormValue("content"),
	}, &service.Metadata{
		Title:       ctx.FormValue("title"),
		Description: ctx.FormValue("description"),
		Tags:        splitTags(ctx.FormValue("tags")),
	})
	if err != nil {
		return err
	}

	// Indexing failures surface as indexed=false; the upload itself stands.
	if err := c.publisherService.EnqueueDocument(ctx.UserContext(), dto.PublishIndexDocumentMessage{
		DocumentId: doc.Id,
		PageBreaks: doc.PageBreaks,
	}); err != nil {
		c.logger.Warn("DOCUMENT", "Failed to enqueue indexing", map[string]interface{}{
			"document_id": doc.Id.String(),
			"error":       err.Error(),
		})
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success upload document", dto.UploadDocumentResponse{
		Id:              doc.Id,
		Title:           doc.Title,
		Filename:        doc.Filename,
		FileType:        doc.FileType,
		FileSize:        doc.FileSize,
		PageCount:       doc.PageCount,
		PageBreakMethod: doc.PageBreakMethod,
		Indexed:         doc.Indexed,
		ChunkCount:      doc.ChunkCount,
	}))
}

func (c *documentController) List(ctx *fiber.Ctx) error {
	userId, err := currentUser(ctx)
	if err != nil {
		return err
	}

	res, err := c.documentService.List(ctx.UserContext(), userId, ctx.QueryInt("limit", 50), ctx.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list documents", res))
}

func (c *documentController) Show(ctx *fiber.Ctx) error {
	userId, err := currentUser(ctx)
	if err != nil {
		return err
	}
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	res, err := c.documentService.Show(ctx.UserContext(), userId, id)
	if err != nil {
		return notFound(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show document", res))
}

func (c *documentController) Delete(ctx *fiber.Ctx) error {
	userId, err := currentUser(ctx)
	if err != nil {
		return err
	}
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	if err := c.documentService.Delete(ctx.UserContext(), userId, id); err != nil {
		return notFound(err)
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete document", nil))
}

// Reindex queues the document again. Page breaks are not stored, so
// chunks of a reindexed document carry no page numbers.
func (c *documentController) Reindex(ctx *fiber.Ctx) error {
	userId, err := currentUser(ctx)
	if err != nil {
		return err
	}
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	if _, err := c.documentService.Show(ctx.UserContext(), userId, id); err != nil {
		return notFound(err)
	}
	if err := c.publisherService.EnqueueDocument(ctx.UserContext(), dto.PublishIndexDocumentMessage{DocumentId: id}); err != nil {
		return err
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Reindex queued", fiber.Map{"id": id}))
}

func (c *documentController) Codecs(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success list codecs", c.documentService.Codecs()))
}

func (c *documentController) Status(ctx *fiber.Ctx) error {
	userId, err := currentUser(ctx)
	if err != nil {
		return err
	}

	status, err := c.knowledge.Status(ctx.UserContext(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get knowledge base status", status))
}

func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

func notFound(err error) error {
	if errors.Is(err, service.ErrDocumentNotFound) || errors.Is(err, service.ErrSessionNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return err
}
