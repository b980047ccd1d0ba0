// Package companionform drives the "build a companion" form: it owns the
// draft, validates it on submit, asks a Creator to persist it and then
// navigates to the new companion or to a fallback page.
package companionform

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"ai-companion-be/internal/pkg/logger"
	"ai-companion-be/pkg/location"
)

const logModule = "CompanionForm"

var (
	ErrSubmitInFlight = errors.New("companion submission already in progress")
	ErrDisposed       = errors.New("companion form is disposed")
)

// Entity is what the creation service hands back. Only the ID matters here.
type Entity struct {
	ID string
}

type Creator interface {
	Create(ctx context.Context, record Record) (*Entity, error)
}

type CreatorFunc func(ctx context.Context, record Record) (*Entity, error)

func (f CreatorFunc) Create(ctx context.Context, record Record) (*Entity, error) {
	return f(ctx, record)
}

type Config struct {
	DetailPrefix string // e.g. "/companions/"
	FallbackPath string // e.g. "/"
}

func DefaultConfig() Config {
	return Config{DetailPrefix: "/companions/", FallbackPath: "/"}
}

type OutcomeKind int

const (
	// OutcomeCreated: navigated to the detail page of the new companion.
	OutcomeCreated OutcomeKind = iota + 1
	// OutcomeFallback: create returned nothing usable; navigated to fallback.
	OutcomeFallback
	// OutcomeFailed: create returned an error; navigated to fallback.
	OutcomeFailed
	// OutcomeDisposed: the controller went away mid-call; nothing navigated.
	OutcomeDisposed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeCreated:
		return "created"
	case OutcomeFallback:
		return "fallback"
	case OutcomeFailed:
		return "failed"
	case OutcomeDisposed:
		return "disposed"
	}
	return "unknown"
}

type Outcome struct {
	Kind     OutcomeKind
	EntityID string
	Location string
	Err      error // create error, set only for OutcomeFailed
}

type Controller struct {
	creator Creator
	nav     location.Navigator
	log     logger.ILogger
	cfg     Config

	mu       sync.Mutex
	draft    Draft
	errs     FieldErrors
	inFlight bool
	disposed bool
}

func NewController(creator Creator, nav location.Navigator, log logger.ILogger, cfg Config) *Controller {
	if cfg.DetailPrefix == "" {
		cfg.DetailPrefix = DefaultConfig().DetailPrefix
	}
	if cfg.FallbackPath == "" {
		cfg.FallbackPath = DefaultConfig().FallbackPath
	}
	return &Controller{
		creator: creator,
		nav:     nav,
		log:     log,
		cfg:     cfg,
		draft:   NewDraft(),
	}
}

// Draft returns a copy of the current draft.
func (c *Controller) Draft() Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Edit applies a user edit to the draft.
func (c *Controller) Edit(fn func(*Draft)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.draft)
}

// Errors returns the field errors of the last failed submit.
func (c *Controller) Errors() FieldErrors {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(FieldErrors, len(c.errs))
	for k, v := range c.errs {
		out[k] = v
	}
	return out
}

// Dispose detaches the controller. Any outstanding submit finishes its
// create call but will not navigate.
func (c *Controller) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disposed = true
}

// Submit validates d and, when it passes, creates the companion and
// navigates exactly once. A validation failure returns *ValidationError and
// has no side effects beyond annotating the retained draft.
func (c *Controller) Submit(ctx context.Context, d Draft) (Outcome, error) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return Outcome{}, ErrDisposed
	}
	if c.inFlight {
		c.mu.Unlock()
		return Outcome{}, ErrSubmitInFlight
	}
	c.draft = d
	record, errs := Validate(d)
	if len(errs) > 0 {
		c.errs = errs
		c.mu.Unlock()
		return Outcome{}, &ValidationError{Errors: errs}
	}
	c.errs = nil
	c.inFlight = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	entity, createErr := c.creator.Create(ctx, record)

	c.mu.Lock()
	gone := c.disposed || ctx.Err() != nil
	c.mu.Unlock()
	if gone {
		c.log.Warn(logModule, "Submission finished after form was disposed", map[string]interface{}{
			"name": record.Name,
		})
		return Outcome{Kind: OutcomeDisposed, Err: createErr}, nil
	}

	out := c.decide(entity, createErr)
	opts := location.NavigateOptions{}
	if err := c.nav.Navigate(out.Location, opts); err != nil {
		return out, fmt.Errorf("navigate to %s: %w", out.Location, err)
	}

	if out.Kind == OutcomeCreated {
		c.mu.Lock()
		c.draft = NewDraft()
		c.mu.Unlock()
	}
	return out, nil
}

func (c *Controller) decide(entity *Entity, createErr error) Outcome {
	switch {
	case createErr != nil:
		c.log.Error(logModule, "Companion creation failed", map[string]interface{}{
			"error": createErr.Error(),
		})
		return Outcome{Kind: OutcomeFailed, Location: c.cfg.FallbackPath, Err: createErr}
	case entity == nil || strings.TrimSpace(entity.ID) == "":
		c.log.Warn(logModule, "Invalid companion object", map[string]interface{}{
			"companion": entity,
		})
		return Outcome{Kind: OutcomeFallback, Location: c.cfg.FallbackPath}
	default:
		c.log.Info(logModule, "Companion created", map[string]interface{}{
			"id": entity.ID,
		})
		return Outcome{
			Kind:     OutcomeCreated,
			EntityID: entity.ID,
			Location: c.cfg.DetailPrefix + url.PathEscape(entity.ID),
		}
	}
}
