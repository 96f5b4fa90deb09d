package controller

import (
	"dbquery-be/internal/pkg/serverutils"
	"dbquery-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ICatalogController interface {
	RegisterRoutes(r fiber.Router)
	Show(ctx *fiber.Ctx) error
	Refresh(ctx *fiber.Ctx) error
}

type catalogController struct {
	catalogService service.ICatalogService
}

func NewCatalogController(catalogService service.ICatalogService) ICatalogController {
	return &catalogController{
		catalogService: catalogService,
	}
}

func (c *catalogController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/catalog/v1")
	h.Get("", c.Show)
	h.Post("refresh", c.Refresh)
}

func (c *catalogController) Show(ctx *fiber.Ctx) error {
	res, err := c.catalogService.Show(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show catalog", res))
}

func (c *catalogController) Refresh(ctx *fiber.Ctx) error {
	res, err := c.catalogService.Refresh(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success refresh catalog", res))
}
