package controller

import (
	"dbquery-be/internal/dto"
	"dbquery-be/internal/pkg/serverutils"
	"dbquery-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ICopilotController interface {
	RegisterRoutes(r fiber.Router)
	CreateSession(ctx *fiber.Ctx) error
	Ask(ctx *fiber.Ctx) error
	SwitchMode(ctx *fiber.Ctx) error
	PinInsight(ctx *fiber.Ctx) error
	Export(ctx *fiber.Ctx) error
	ExportCSV(ctx *fiber.Ctx) error
}

type copilotController struct {
	copilotService service.ICopilotService
}

func NewCopilotController(copilotService service.ICopilotService) ICopilotController {
	return &copilotController{
		copilotService: copilotService,
	}
}

func (c *copilotController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/copilot/v1")
	h.Post("sessions", c.CreateSession)
	h.Post("ask", c.Ask)
	h.Post("sessions/:id/mode", c.SwitchMode)
	h.Post("sessions/:id/pin", c.PinInsight)
	h.Get("sessions/:id/export", c.Export)
	h.Get("sessions/:id/export/csv", c.ExportCSV)
}

func (c *copilotController) CreateSession(ctx *fiber.Ctx) error {
	var req dto.CreateSessionRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return err
		}
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.copilotService.CreateSession(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create session", res))
}

func (c *copilotController) Ask(ctx *fiber.Ctx) error {
	var req dto.AskRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.copilotService.Ask(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success answer prompt", res))
}

func (c *copilotController) SwitchMode(ctx *fiber.Ctx) error {
	var req dto.SwitchModeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.SessionId = ctx.Params("id")

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.copilotService.SwitchMode(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success switch mode", res))
}

func (c *copilotController) PinInsight(ctx *fiber.Ctx) error {
	var req dto.PinInsightRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.SessionId = ctx.Params("id")

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.copilotService.PinInsight(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success pin insight", res))
}

// Export defaults to the pinned insight sequence; pinned_only=false opts
// into the full transcript.
func (c *copilotController) Export(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	pinnedOnly := ctx.QueryBool("pinned_only", true)

	export, err := c.copilotService.Export(ctx.Context(), id, pinnedOnly)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success export session", &dto.ExportSessionResponse{Export: export}))
}

func (c *copilotController) ExportCSV(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	pinnedOnly := ctx.QueryBool("pinned_only", true)

	csvBytes, err := c.copilotService.ExportCSV(ctx.Context(), id, pinnedOnly)
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, "text/csv")
	ctx.Set(fiber.HeaderContentDisposition, `attachment; filename="session-`+id+`.csv"`)
	return ctx.Send(csvBytes)
}
