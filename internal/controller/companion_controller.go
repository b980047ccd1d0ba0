package controller

import (
	"ai-companion-be/internal/dto"
	"ai-companion-be/internal/pkg/serverutils"
	"ai-companion-be/internal/service"
	"ai-companion-be/pkg/companionform"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ICompanionController interface {
	RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler)
	GetAll(ctx *fiber.Ctx) error
	Mine(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
}

type companionController struct {
	service service.ICompanionService
}

func NewCompanionController(service service.ICompanionService) ICompanionController {
	return &companionController{service: service}
}

func (c *companionController) RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler) {
	h := r.Group("/companion/v1")
	h.Get("", c.GetAll)
	h.Get("mine", jwtMiddleware, c.Mine)
	h.Get(":id", c.Show)
	h.Post("", jwtMiddleware, c.Create)
}

func (c *companionController) GetAll(ctx *fiber.Ctx) error {
	var query dto.ListCompanionsQuery
	if err := ctx.QueryParser(&query); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query")
	}
	if err := serverutils.ValidateRequest(query); err != nil {
		return err
	}

	res, err := c.service.List(ctx.UserContext(), query)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list companions", res))
}

// Mine lists the companions created by the signed-in user.
func (c *companionController) Mine(ctx *fiber.Ctx) error {
	userIdStr, _ := ctx.Locals(serverutils.LocalUserID).(string)
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid user id")
	}

	var query dto.ListCompanionsQuery
	if err := ctx.QueryParser(&query); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query")
	}
	if err := serverutils.ValidateRequest(query); err != nil {
		return err
	}
	query.AuthorId = &userId

	res, err := c.service.List(ctx.UserContext(), query)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list my companions", res))
}

func (c *companionController) Show(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid companion id")
	}

	res, err := c.service.Show(ctx.UserContext(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show companion", res))
}

func (c *companionController) Create(ctx *fiber.Ctx) error {
	userIdStr, _ := ctx.Locals(serverutils.LocalUserID).(string)
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid user id")
	}

	var req dto.CreateCompanionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	companion, err := c.service.Create(ctx.UserContext(), &userId, companionform.Record{
		Name:     req.Name,
		Subject:  req.Subject,
		Topic:    req.Topic,
		Voice:    req.Voice,
		Style:    req.Style,
		Duration: req.Duration,
	})
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create companion", dto.CreateCompanionResponse{
		Id: companion.Id,
	}))
}
