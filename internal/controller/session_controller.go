package controller

import (
	"time"

	"lucide-core/internal/dto"
	"lucide-core/internal/pkg/serverutils"
	"lucide-core/internal/service"
	"lucide-core/pkg/agent"
	"lucide-core/pkg/events"

	"github.com/gofiber/fiber/v2"
)

// ProfileDirectory lists and switches agent profiles.
type ProfileDirectory interface {
	service.ProfileManager
	Profiles() []agent.Profile
}

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Messages(ctx *fiber.Ctx) error
	End(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Profiles(ctx *fiber.Ctx) error
	SetProfile(ctx *fiber.Ctx) error
	Usage(ctx *fiber.Ctx) error
}

type sessionController struct {
	sessionService service.ISessionService
	usageService   service.IUsageService
	profiles       ProfileDirectory
	eventPublisher service.EventPublisher
}

func NewSessionController(
	sessionService service.ISessionService,
	usageService service.IUsageService,
	profiles ProfileDirectory,
	eventPublisher service.EventPublisher,
) ISessionController {
	return &sessionController{
		sessionService: sessionService,
		usageService:   usageService,
		profiles:       profiles,
		eventPublisher: eventPublisher,
	}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/session/v1")
	h.Get("profiles", c.Profiles)
	h.Put("profile", c.SetProfile)
	h.Get("usage", c.Usage)
	h.Get("", c.List)
	h.Get(":id/messages", c.Messages)
	h.Post(":id/end", c.End)
	h.Delete(":id", c.Delete)
}

func (c *sessionController) List(ctx *fiber.Ctx) error {
	userId, err := currentUser(ctx)
	if err != nil {
		return err
	}

	res, err := c.sessionService.List(ctx.UserContext(), userId, ctx.QueryInt("limit", 20), ctx.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list sessions", res))
}

func (c *sessionController) Messages(ctx *fiber.Ctx) error {
	userId, err := currentUser(ctx)
	if err != nil {
		return err
	}
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	res, err := c.sessionService.Messages(ctx.UserContext(), userId, id)
	if err != nil {
		return notFound(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list messages", res))
}

func (c *sessionController) End(ctx *fiber.Ctx) error {
	userId, err := currentUser(ctx)
	if err != nil {
		return err
	}
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	if err := c.sessionService.End(ctx.UserContext(), userId, id); err != nil {
		return notFound(err)
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success end session", nil))
}

func (c *sessionController) Delete(ctx *fiber.Ctx) error {
	userId, err := currentUser(ctx)
	if err != nil {
		return err
	}
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	if err := c.sessionService.Delete(ctx.UserContext(), userId, id); err != nil {
		return notFound(err)
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete session", nil))
}

func (c *sessionController) Profiles(ctx *fiber.Ctx) error {
	userId, err := currentUser(ctx)
	if err != nil {
		return err
	}

	current := c.profiles.CurrentProfile(userId)
	list := c.profiles.Profiles()
	res := make([]dto.ProfileResponse, 0, len(list))
	for _, p := range list {
		res = append(res, dto.ProfileResponse{
			Id:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Active:      p.ID == current,
		})
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list profiles", res))
}

func (c *sessionController) SetProfile(ctx *fiber.Ctx) error {
	userId, err := currentUser(ctx)
	if err != nil {
		return err
	}

	var req dto.SetProfileRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.profiles.SetActiveProfile(ctx.UserContext(), userId, req.Profile); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if c.eventPublisher != nil {
		// Best effort; the switch already happened.
		_ = c.eventPublisher.Publish(ctx.UserContext(), events.New(events.TypeProfileSwitched, userId.String(), map[string]interface{}{
			"profile": req.Profile,
			"source":  "manual",
		}))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success switch profile", fiber.Map{"profile": req.Profile}))
}

// Usage sums estimated token usage over the last `days` days (default 30).
func (c *sessionController) Usage(ctx *fiber.Ctx) error {
	userId, err := currentUser(ctx)
	if err != nil {
		return err
	}

	days := ctx.QueryInt("days", 30)
	if days <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "days must be positive")
	}
	res, err := c.usageService.Summary(ctx.UserContext(), userId, time.Now().AddDate(0, 0, -days))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get usage", res))
}
