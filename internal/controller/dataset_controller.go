package controller

import (
	"dataset-explorer-be/internal/dto"
	"dataset-explorer-be/internal/pkg/serverutils"
	"dataset-explorer-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IDatasetController interface {
	RegisterRoutes(r fiber.Router)
	Search(ctx *fiber.Ctx) error
}

type datasetController struct {
	service service.IDatasetService
}

func NewDatasetController(service service.IDatasetService) IDatasetController {
	return &datasetController{service: service}
}

func (c *datasetController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/dataset/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("search", c.Search)
}

func (c *datasetController) Search(ctx *fiber.Ctx) error {
	var req dto.DatasetSearchRequest
	if len(ctx.Body()) > 0 {
		if err := parseBody(ctx, &req); err != nil {
			return err
		}
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Search(upstreamContext(ctx), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success search dataset", res))
}
