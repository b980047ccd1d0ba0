// Package location holds the navigable path+query state that the
// controllers observe. It stands in for the browser URL so controllers can
// be driven from HTTP handlers and tests alike.
package location

import (
	"net/url"
	"strings"
	"sync"

	"ai-companion-be/pkg/urlquery"
)

// NavigateOptions mirrors the router options of a client-side navigation.
type NavigateOptions struct {
	Replace        bool `json:"replace"`
	PreserveScroll bool `json:"preserve_scroll"`
}

// Navigator moves the user to path.
type Navigator interface {
	Navigate(path string, opts NavigateOptions) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string, opts NavigateOptions) error

func (f NavigatorFunc) Navigate(path string, opts NavigateOptions) error {
	return f(path, opts)
}

// Navigation is a single recorded call to Navigate.
type Navigation struct {
	Path    string          `json:"location"`
	Options NavigateOptions `json:"options"`
}

// Location is a parsed path and query.
type Location struct {
	Path  string
	Query url.Values
}

// Parse never fails: an unparsable raw value yields the root path and
// undecodable query segments are dropped.
func Parse(raw string) Location {
	u, err := url.Parse(raw)
	if err != nil {
		return Location{Path: "/", Query: url.Values{}}
	}
	p := u.Path
	if p == "" {
		p = "/"
	}
	return Location{Path: p, Query: urlquery.ParseQuery(u.RawQuery)}
}

func (l Location) Get(key string) string {
	if l.Query == nil {
		return ""
	}
	return l.Query.Get(key)
}

func (l Location) String() string {
	var b strings.Builder
	b.WriteString((&url.URL{Path: l.Path}).EscapedPath())
	if enc := l.Query.Encode(); enc != "" {
		b.WriteByte('?')
		b.WriteString(enc)
	}
	return b.String()
}

type listener struct {
	id int
	fn func(Location)
}

// Store is an observable Location. It also implements Navigator, so a
// navigation immediately becomes the new observed location.
type Store struct {
	mu        sync.Mutex
	current   Location
	listeners []listener
	nextID    int
	history   []Navigation
}

func NewStore(raw string) *Store {
	return &Store{current: Parse(raw)}
}

func (s *Store) Current() Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Subscribe registers fn for every subsequent change. Listeners run in
// registration order, outside the store lock.
func (s *Store) Subscribe(fn func(Location)) (unsubscribe func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listener{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, l := range s.listeners {
				if l.id == id {
					s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// Set replaces the current location. Listeners are notified only when the
// location actually changed.
func (s *Store) Set(raw string) {
	next := Parse(raw)

	s.mu.Lock()
	if next.String() == s.current.String() {
		s.mu.Unlock()
		return
	}
	s.current = next
	fns := make([]func(Location), len(s.listeners))
	for i, l := range s.listeners {
		fns[i] = l.fn
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(next)
	}
}

func (s *Store) Navigate(path string, opts NavigateOptions) error {
	s.mu.Lock()
	s.history = append(s.history, Navigation{Path: path, Options: opts})
	s.mu.Unlock()

	s.Set(path)
	return nil
}

// History returns every navigation made through the store, oldest first.
func (s *Store) History() []Navigation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Navigation, len(s.history))
	copy(out, s.history)
	return out
}

// Recorder is a Navigator that only remembers what it was asked to do.
// HTTP handlers use it to turn a navigation into a redirect.
type Recorder struct {
	mu   sync.Mutex
	navs []Navigation
}

func (r *Recorder) Navigate(path string, opts NavigateOptions) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.navs = append(r.navs, Navigation{Path: path, Options: opts})
	return nil
}

// Last reports the most recent navigation, if any.
func (r *Recorder) Last() (Navigation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.navs) == 0 {
		return Navigation{}, false
	}
	return r.navs[len(r.navs)-1], true
}

func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.navs)
}
