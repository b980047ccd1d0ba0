package handler

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"ai-companion-be/internal/config"
	"ai-companion-be/internal/dto"
	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/pkg/logger"
	"ai-companion-be/internal/pkg/serverutils"
	"ai-companion-be/internal/service"
	"ai-companion-be/pkg/companionform"
	"ai-companion-be/pkg/location"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const formSessionTTL = 30 * time.Minute

// formSession is one user's open form and the navigator it writes to.
type formSession struct {
	form *companionform.Controller
	nav  *location.Recorder
}

// CompanionFormHandler serves the companion builder form. Signed-in users
// keep one form session each, so a double submit is rejected while the
// first is still creating; anonymous requests get a throwaway form.
type CompanionFormHandler struct {
	service  service.ICompanionService
	cfg      config.CompanionConfig
	sessions *cache.Cache
	logger   logger.ILogger
}

func NewCompanionFormHandler(service service.ICompanionService, cfg config.CompanionConfig, log logger.ILogger) *CompanionFormHandler {
	sessions := cache.New(formSessionTTL, 10*time.Minute)
	sessions.OnEvicted(func(_ string, v interface{}) {
		v.(*formSession).form.Dispose()
	})
	return &CompanionFormHandler{
		service:  service,
		cfg:      cfg,
		sessions: sessions,
		logger:   log,
	}
}

func (h *CompanionFormHandler) RegisterRoutes(r fiber.Router, authMiddleware fiber.Handler) {
	g := r.Group("/companions", authMiddleware)
	g.Get("/new", h.New)
	g.Post("/new", h.Submit)
}

func (h *CompanionFormHandler) newSession(authorId *uuid.UUID) *formSession {
	nav := &location.Recorder{}
	form := companionform.NewController(
		service.NewFormCreator(h.service, authorId),
		nav,
		h.logger,
		companionform.Config{
			DetailPrefix: strings.TrimSuffix(h.cfg.ListingPath, "/") + "/",
			FallbackPath: h.cfg.FallbackPath,
		},
	)
	if h.cfg.DefaultDuration > 0 && h.cfg.DefaultDuration != companionform.DefaultDuration {
		form.Edit(func(d *companionform.Draft) {
			d.Duration = companionform.RawNumber(strconv.Itoa(h.cfg.DefaultDuration))
		})
	}
	return &formSession{form: form, nav: nav}
}

func (h *CompanionFormHandler) session(ctx *fiber.Ctx) *formSession {
	userIdStr, _ := ctx.Locals(serverutils.LocalUserID).(string)
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return h.newSession(nil)
	}

	key := userId.String()
	if v, ok := h.sessions.Get(key); ok {
		h.sessions.SetDefault(key, v) // slide expiry
		return v.(*formSession)
	}
	s := h.newSession(&userId)
	if err := h.sessions.Add(key, s, cache.DefaultExpiration); err != nil {
		// lost a race with another request from the same user
		if v, ok := h.sessions.Get(key); ok {
			return v.(*formSession)
		}
	}
	return s
}

// New returns the current draft with the choices the form offers.
func (h *CompanionFormHandler) New(ctx *fiber.Ctx) error {
	s := h.session(ctx)
	return ctx.JSON(serverutils.SuccessResponse("Success get companion form", dto.CompanionFormResponse{
		Draft:    s.form.Draft(),
		Errors:   s.form.Errors(),
		Subjects: h.cfg.Subjects,
		Voices:   []string{entity.VoiceMale, entity.VoiceFemale},
		Styles:   []string{entity.StyleFormal, entity.StyleCasual},
	}))
}

func (h *CompanionFormHandler) Submit(ctx *fiber.Ctx) error {
	draft := companionform.NewDraft()
	if err := ctx.BodyParser(&draft); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid form body")
	}

	s := h.session(ctx)
	outcome, err := s.form.Submit(ctx.UserContext(), draft)
	switch {
	case errors.Is(err, companionform.ErrSubmitInFlight):
		return fiber.NewError(fiber.StatusConflict, "Companion is already being created")
	case errors.Is(err, companionform.ErrDisposed):
		return fiber.NewError(fiber.StatusGone, "Form session expired")
	case err != nil:
		// *companionform.ValidationError is rendered as 422 by the error middleware
		return err
	}

	if outcome.Kind == companionform.OutcomeDisposed {
		return ctx.SendStatus(fiber.StatusNoContent)
	}

	nav, ok := s.nav.Last()
	if !ok {
		nav = location.Navigation{Path: outcome.Location}
	}
	return h.respondNavigation(ctx, nav, outcome)
}

func (h *CompanionFormHandler) respondNavigation(ctx *fiber.Ctx, nav location.Navigation, outcome companionform.Outcome) error {
	ctx.Set("X-Companion-Outcome", outcome.Kind.String())

	if !wantsJSON(ctx) {
		return ctx.Redirect(nav.Path, fiber.StatusSeeOther)
	}

	status, message := fiber.StatusOK, "Companion not created"
	switch outcome.Kind {
	case companionform.OutcomeCreated:
		status, message = fiber.StatusCreated, "Success create companion"
	case companionform.OutcomeFailed:
		message = "Failed to create companion"
	}
	return ctx.Status(status).JSON(serverutils.SuccessResponse(message, dto.NavigationResponse{
		Location:       nav.Path,
		Replace:        nav.Options.Replace,
		PreserveScroll: nav.Options.PreserveScroll,
		Outcome:        outcome.Kind.String(),
	}))
}

func wantsJSON(ctx *fiber.Ctx) bool {
	return strings.Contains(ctx.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON)
}
