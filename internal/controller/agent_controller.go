package controller

import (
	"encoding/json"
	"errors"

	"invoicing-agent-be/internal/dto"
	"invoicing-agent-be/internal/pkg/serverutils"
	"invoicing-agent-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAgentController interface {
	RegisterRoutes(r fiber.Router)
	StartSession(ctx *fiber.Ctx) error
	GetSession(ctx *fiber.Ctx) error
	EndSession(ctx *fiber.Ctx) error
	ListTools(ctx *fiber.Ctx) error
	InvokeTool(ctx *fiber.Ctx) error
	Converse(ctx *fiber.Ctx) error
}

type agentController struct {
	service service.IAgentService
}

func NewAgentController(service service.IAgentService) IAgentController {
	return &agentController{service: service}
}

func (c *agentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/agent/v1")
	h.Get("/tools", c.ListTools)
	h.Post("/sessions", c.StartSession)
	h.Get("/sessions/:id", c.GetSession)
	h.Delete("/sessions/:id", c.EndSession)
	h.Post("/sessions/:id/tools/:name", c.InvokeTool)
	h.Post("/sessions/:id/utterances", c.Converse)
}

func (c *agentController) StartSession(ctx *fiber.Ctx) error {
	var req dto.StartSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.StartSession(ctx.UserContext(), req.WorkspaceID)
	if err != nil {
		return mapAgentError(err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Session started", res))
}

func (c *agentController) GetSession(ctx *fiber.Ctx) error {
	res, err := c.service.GetSession(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return mapAgentError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get session", res))
}

func (c *agentController) EndSession(ctx *fiber.Ctx) error {
	if err := c.service.EndSession(ctx.UserContext(), ctx.Params("id")); err != nil {
		return mapAgentError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Session ended", nil))
}

func (c *agentController) ListTools(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success get tools", c.service.ListTools(ctx.UserContext())))
}

// InvokeTool answers 200 for rejected calls too; the outcome is in the body.
func (c *agentController) InvokeTool(ctx *fiber.Ctx) error {
	args := json.RawMessage(ctx.Body())
	if len(args) > 0 && !json.Valid(args) {
		return fiber.NewError(fiber.StatusBadRequest, "Tool arguments must be a JSON object")
	}

	res, err := c.service.InvokeTool(ctx.UserContext(), ctx.Params("id"), ctx.Params("name"), args)
	if err != nil {
		return mapAgentError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Tool invoked", res))
}

func (c *agentController) Converse(ctx *fiber.Ctx) error {
	var req dto.UtteranceRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Converse(ctx.UserContext(), ctx.Params("id"), req.Text)
	if err != nil {
		return mapAgentError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success reply", res))
}

func mapAgentError(err error) error {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Session not found")
	case errors.Is(err, service.ErrToolNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Tool not found")
	case errors.Is(err, service.ErrConverseDisabled):
		return fiber.NewError(fiber.StatusServiceUnavailable, "Conversation is not available")
	case errors.Is(err, service.ErrLanguageModelError):
		return fiber.NewError(fiber.StatusBadGateway, "The language model did not respond")
	}
	return err
}
