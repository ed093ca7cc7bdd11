package controller

import (
	"strings"

	"lucide-core/internal/dto"
	"lucide-core/internal/pkg/serverutils"
	"lucide-core/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAskController interface {
	RegisterRoutes(r fiber.Router)
	SendMessage(ctx *fiber.Ctx) error
	Cancel(ctx *fiber.Ctx) error
	State(ctx *fiber.Ctx) error
}

type askController struct {
	askService service.IAskService
}

func NewAskController(askService service.IAskService) IAskController {
	return &askController{
		askService: askService,
	}
}

func (c *askController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/ask/v1")
	h.Post("messages", c.SendMessage)
	h.Post("cancel", c.Cancel)
	h.Get("state", c.State)
}

// SendMessage blocks until the request settles. Progress is pushed to the
// window socket meanwhile.
func (c *askController) SendMessage(ctx *fiber.Ctx) error {
	userId, err := currentUser(ctx)
	if err != nil {
		return err
	}

	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	req.Text = strings.TrimSpace(req.Text)
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res := c.askService.SendMessage(ctx.UserContext(), userId, req.Text, req.HistoryHint)
	return ctx.JSON(serverutils.SuccessResponse("Request settled", dto.SendMessageResponse{
		Success:   res.Success,
		Error:     res.Error,
		Cancelled: res.Cancelled,
		SessionId: res.SessionId,
		MessageId: res.MessageId,
	}))
}

func (c *askController) Cancel(ctx *fiber.Ctx) error {
	userId, err := currentUser(ctx)
	if err != nil {
		return err
	}

	var req dto.CancelRequest
	_ = ctx.BodyParser(&req)

	reason := service.ErrUserCancelled
	if text := strings.TrimSpace(req.Reason); text != "" {
		reason = service.CancelReason(text)
	}
	cancelled := c.askService.CancelActiveFor(userId, reason)
	return ctx.JSON(serverutils.SuccessResponse("Cancel processed", fiber.Map{"cancelled": cancelled}))
}

func (c *askController) State(ctx *fiber.Ctx) error {
	st := c.askService.State()
	return ctx.JSON(serverutils.SuccessResponse("Success get state", dto.RequestStateResponse{
		IsLoading:       st.IsLoading,
		IsStreaming:     st.IsStreaming,
		CurrentQuestion: st.CurrentQuestion,
		CurrentResponse: st.CurrentResponse,
		ShowTextInput:   st.ShowTextInput,
		SessionId:       st.SessionId,
	}))
}

// currentUser reads the id set by JwtMiddleware.
func currentUser(ctx *fiber.Ctx) (uuid.UUID, error) {
	userIdStr, _ := ctx.Locals("user_id").(string)
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}
	return userId, nil
}

func pathID(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid id")
	}
	return id, nil
}
