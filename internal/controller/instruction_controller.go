package controller

import (
	"messpal-be/internal/dto"
	"messpal-be/internal/pkg/serverutils"
	"messpal-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IInstructionController interface {
	RegisterRoutes(r fiber.Router)
	GetAll(ctx *fiber.Ctx) error
	GetDefault(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type instructionController struct {
	service service.IInstructionService
	tokens  *serverutils.TokenManager
}

func NewInstructionController(service service.IInstructionService, tokens *serverutils.TokenManager) IInstructionController {
	return &instructionController{service: service, tokens: tokens}
}

func (c *instructionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/instructions")
	h.Use(serverutils.JwtMiddleware(c.tokens))
	h.Get("", c.GetAll)
	h.Post("", c.Create)
	h.Get("default", c.GetDefault) // before :id
	h.Get(":id", c.Show)
	h.Put(":id", c.Update)
	h.Delete(":id", c.Delete)
}

func (c *instructionController) GetAll(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserId(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.List(ctx.UserContext(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get all instructions", res))
}

func (c *instructionController) GetDefault(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserId(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetDefault(ctx.UserContext(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get default instruction", res))
}

func (c *instructionController) Show(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserId(ctx)
	if err != nil {
		return err
	}
	id, err := idParam(ctx, service.ErrInstructionNotFound)
	if err != nil {
		return err
	}

	res, err := c.service.Show(ctx.UserContext(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show instruction", res))
}

func (c *instructionController) Create(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserId(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateInstructionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.BaseResponse[*dto.InstructionResponse]{
		Success: true,
		Code:    fiber.StatusCreated,
		Message: "Success create instruction",
		Data:    res,
	})
}

func (c *instructionController) Update(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserId(ctx)
	if err != nil {
		return err
	}
	id, err := idParam(ctx, service.ErrInstructionNotFound)
	if err != nil {
		return err
	}

	var req dto.UpdateInstructionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	req.Id = id
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Update(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update instruction", res))
}

func (c *instructionController) Delete(ctx *fiber.Ctx) error {
	userId, err := serverutils.CurrentUserId(ctx)
	if err != nil {
		return err
	}
	id, err := idParam(ctx, service.ErrInstructionNotFound)
	if err != nil {
		return err
	}

	if err := c.service.Delete(ctx.UserContext(), userId, id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete instruction", nil))
}
