package controller

import (
	"dataset-explorer-be/internal/dto"
	"dataset-explorer-be/internal/pkg/serverutils"
	"dataset-explorer-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	OpenView(ctx *fiber.Ctx) error
	GetView(ctx *fiber.Ctx) error
	CloseView(ctx *fiber.Ctx) error
	SetSelection(ctx *fiber.Ctx) error
	SelectCollection(ctx *fiber.Ctx) error
	SetPanel(ctx *fiber.Ctx) error
	SendMessage(ctx *fiber.Ctx) error
	ClearError(ctx *fiber.Ctx) error
	ListConversations(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatService
}

func NewChatController(service service.IChatService) IChatController {
	return &chatController{service: service}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("conversations", c.ListConversations)
	h.Post("views", c.OpenView)
	h.Get("views/:id", c.GetView)
	h.Delete("views/:id", c.CloseView)
	h.Put("views/:id/selection", c.SetSelection)
	h.Put("views/:id/collection", c.SelectCollection)
	h.Put("views/:id/panel", c.SetPanel)
	h.Post("views/:id/messages", c.SendMessage)
	h.Post("views/:id/error/clear", c.ClearError)
}

func (c *chatController) OpenView(ctx *fiber.Ctx) error {
	var req dto.OpenViewRequest
	if len(ctx.Body()) > 0 {
		if err := parseBody(ctx, &req); err != nil {
			return err
		}
	}

	res, err := c.service.OpenView(upstreamContext(ctx), userID(ctx), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success open chat view", res))
}

func (c *chatController) GetView(ctx *fiber.Ctx) error {
	res, err := c.service.GetView(ctx.UserContext(), userID(ctx), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get chat view", res))
}

func (c *chatController) CloseView(ctx *fiber.Ctx) error {
	if err := c.service.CloseView(ctx.UserContext(), userID(ctx), ctx.Params("id")); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success close chat view", nil))
}

func (c *chatController) SetSelection(ctx *fiber.Ctx) error {
	var req dto.SetSelectionRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SetSelection(upstreamContext(ctx), userID(ctx), ctx.Params("id"), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update selection", res))
}

func (c *chatController) SelectCollection(ctx *fiber.Ctx) error {
	var req dto.SelectCollectionRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.SelectCollection(upstreamContext(ctx), userID(ctx), ctx.Params("id"), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success select collection", res))
}

func (c *chatController) SetPanel(ctx *fiber.Ctx) error {
	var req dto.SetPanelRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.SetPanel(ctx.UserContext(), userID(ctx), ctx.Params("id"), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update panel", res))
}

func (c *chatController) SendMessage(ctx *fiber.Ctx) error {
	var req dto.SendMessageRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	// Blank questions are a no-op for the view, so they are not rejected here.
	res, err := c.service.SendMessage(upstreamContext(ctx), userID(ctx), ctx.Params("id"), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send message", res))
}

func (c *chatController) ClearError(ctx *fiber.Ctx) error {
	res, err := c.service.ClearError(ctx.UserContext(), userID(ctx), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success clear error", res))
}

func (c *chatController) ListConversations(ctx *fiber.Ctx) error {
	offset := ctx.QueryInt("offset", 0)
	size := ctx.QueryInt("size", 20)
	if offset < 0 || size <= 0 || size > 100 {
		return fiber.NewError(fiber.StatusBadRequest, "offset must be >= 0 and size between 1 and 100")
	}

	res, err := c.service.ListConversations(upstreamContext(ctx), offset, size)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get conversations", res))
}
