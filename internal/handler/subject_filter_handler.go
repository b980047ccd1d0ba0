package handler

import (
	"net/url"

	"ai-companion-be/internal/config"
	"ai-companion-be/internal/dto"
	"ai-companion-be/internal/pkg/logger"
	"ai-companion-be/internal/pkg/serverutils"
	"ai-companion-be/internal/service"
	"ai-companion-be/pkg/location"
	"ai-companion-be/pkg/querysync"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// SubjectFilterHandler serves the companion listing and its subject filter.
// The request URL is the filter state: each request binds a short lived
// querysync controller to it.
type SubjectFilterHandler struct {
	service service.ICompanionService
	cfg     config.CompanionConfig
	logger  logger.ILogger
}

func NewSubjectFilterHandler(service service.ICompanionService, cfg config.CompanionConfig, log logger.ILogger) *SubjectFilterHandler {
	return &SubjectFilterHandler{
		service: service,
		cfg:     cfg,
		logger:  log,
	}
}

func (h *SubjectFilterHandler) RegisterRoutes(r fiber.Router) {
	g := r.Group("/companions")
	g.Get("", h.List)
	g.Post("/filter", h.Filter)
	g.Get("/:id", h.Show)
}

func (h *SubjectFilterHandler) syncConfig() querysync.Config {
	return querysync.Config{
		Key:        h.cfg.FilterKey,
		Sentinel:   h.cfg.FilterSentinel,
		TargetPath: h.cfg.ListingPath,
	}
}

// List returns one page of companions for the subject in the URL.
func (h *SubjectFilterHandler) List(ctx *fiber.Ctx) error {
	store := location.NewStore(ctx.OriginalURL())
	filter := querysync.New(store, &location.Recorder{}, h.logger, h.syncConfig())
	defer filter.Close()

	var query dto.ListCompanionsQuery
	if err := ctx.QueryParser(&query); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query")
	}
	if err := serverutils.ValidateRequest(query); err != nil {
		return err
	}
	query.Subject = filter.CurrentSelection()

	res, err := h.service.List(ctx.UserContext(), query)
	if err != nil {
		return err
	}

	// res may be shared with the listing cache
	out := *res
	out.Selection = filter.CurrentSelection()
	return ctx.JSON(serverutils.SuccessResponse("Success list companions", out))
}

// Filter applies a user's subject choice to the page they came from and
// redirects to the resulting URL. No navigation answers 204.
func (h *SubjectFilterHandler) Filter(ctx *fiber.Ctx) error {
	var req dto.SubjectFilterRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid filter body")
	}

	store := location.NewStore(h.origin(ctx, req.From))
	nav := &location.Recorder{}
	filter := querysync.New(store, nav, h.logger, h.syncConfig())
	defer filter.Close()

	filter.OnUserSelect(req.Subject)

	last, ok := nav.Last()
	if !ok {
		return ctx.SendStatus(fiber.StatusNoContent)
	}

	if !wantsJSON(ctx) {
		return ctx.Redirect(last.Path, fiber.StatusSeeOther)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success apply filter", dto.NavigationResponse{
		Location:       last.Path,
		Replace:        last.Options.Replace,
		PreserveScroll: last.Options.PreserveScroll,
	}))
}

// origin picks the URL the filter applies to: the explicit from field, the
// Referer, then the listing page. Only path and query are kept.
func (h *SubjectFilterHandler) origin(ctx *fiber.Ctx, from string) string {
	if from != "" {
		return location.Parse(from).String()
	}
	if ref := ctx.Get(fiber.HeaderReferer); ref != "" {
		if u, err := url.Parse(ref); err == nil && u.Path != "" {
			return u.RequestURI()
		}
	}
	return h.cfg.ListingPath
}

func (h *SubjectFilterHandler) Show(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid companion id")
	}

	res, err := h.service.Show(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show companion", res))
}
