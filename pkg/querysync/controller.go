// Package querysync keeps a single filter selection in step with one key of
// the current URL query. The URL is the source of truth: external changes
// overwrite the local selection, and user selections are written back as a
// navigation.
package querysync

import (
	"strings"
	"sync"

	"ai-companion-be/internal/pkg/logger"
	"ai-companion-be/pkg/location"
	"ai-companion-be/pkg/urlquery"
)

const logModule = "QuerySync"

type Config struct {
	Key        string // query key, "subject"
	Sentinel   string // "no filter" value, never written to the query
	TargetPath string // only here does selecting the sentinel clear the key
}

func DefaultConfig() Config {
	return Config{Key: "subject", Sentinel: "all", TargetPath: "/companions"}
}

type State int

const (
	StateSentinel State = iota
	StateValue
)

func (s State) String() string {
	if s == StateValue {
		return "value"
	}
	return "sentinel"
}

type Controller struct {
	store *location.Store
	nav   location.Navigator
	log   logger.ILogger
	cfg   Config

	mu          sync.Mutex
	selected    string
	unsubscribe func()
}

// New binds a controller to store. When nav is nil the store itself is used
// as the navigator.
func New(store *location.Store, nav location.Navigator, log logger.ILogger, cfg Config) *Controller {
	def := DefaultConfig()
	if cfg.Key == "" {
		cfg.Key = def.Key
	}
	if cfg.Sentinel == "" {
		cfg.Sentinel = def.Sentinel
	}
	if cfg.TargetPath == "" {
		cfg.TargetPath = def.TargetPath
	}
	if nav == nil {
		nav = store
	}

	c := &Controller{store: store, nav: nav, log: log, cfg: cfg}
	c.selected = c.normalize(store.Current().Get(cfg.Key))
	c.unsubscribe = store.Subscribe(c.observe)
	return c
}

func (c *Controller) normalize(v string) string {
	if v == "" {
		return c.cfg.Sentinel
	}
	return v
}

func (c *Controller) observe(loc location.Location) {
	v := c.normalize(loc.Get(c.cfg.Key))
	c.mu.Lock()
	c.selected = v
	c.mu.Unlock()
}

func (c *Controller) CurrentSelection() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

func (c *Controller) State() State {
	if c.CurrentSelection() == c.cfg.Sentinel {
		return StateSentinel
	}
	return StateValue
}

// OnUserSelect records v locally and rewrites the query to match. Failures
// to build or follow the new URL are logged and otherwise ignored.
func (c *Controller) OnUserSelect(v string) {
	v = c.normalize(v)
	c.mu.Lock()
	c.selected = v
	c.mu.Unlock()

	current := c.store.Current()
	var (
		target string
		err    error
	)
	if v == c.cfg.Sentinel {
		if !samePath(current.Path, c.cfg.TargetPath) {
			return
		}
		target, err = urlquery.RemoveParams(current.String(), c.cfg.Key)
	} else {
		target, err = urlquery.SetParam(current.String(), c.cfg.Key, v)
	}
	if err != nil {
		c.log.Warn(logModule, "Could not build filter URL", map[string]interface{}{
			"error": err.Error(),
			"value": v,
		})
		return
	}

	opts := location.NavigateOptions{Replace: true, PreserveScroll: true}
	if err := c.nav.Navigate(target, opts); err != nil {
		c.log.Warn(logModule, "Filter navigation failed", map[string]interface{}{
			"error":  err.Error(),
			"target": target,
		})
	}
}

// samePath compares paths ignoring a trailing slash.
func samePath(a, b string) bool {
	return strings.TrimSuffix(a, "/") == strings.TrimSuffix(b, "/")
}

// Close stops observing the store.
func (c *Controller) Close() {
	c.unsubscribe()
}
