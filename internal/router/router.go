// Package router maps paths to screens and guards the dashboard.
package router

import "sync"

// Screen identifies a top-level view
type Screen int

const (
	Feed Screen = iota
	Auth
	Dashboard
)

// Paths of the reachable screens
const (
	FeedPath      = "/"
	AuthPath      = "/auth"
	DashboardPath = "/dashboard"
)

func (s Screen) String() string {
	switch s {
	case Auth:
		return "auth"
	case Dashboard:
		return "dashboard"
	default:
		return "feed"
	}
}

// Path returns the canonical path of the screen
func (s Screen) Path() string {
	switch s {
	case Auth:
		return AuthPath
	case Dashboard:
		return DashboardPath
	default:
		return FeedPath
	}
}

// Resolve applies the route table and the guard to path. Unknown paths lead
// to the feed; the dashboard without a session leads to the auth screen.
func Resolve(path string, authenticated bool) Screen {
	switch path {
	case AuthPath:
		return Auth
	case DashboardPath:
		if !authenticated {
			return Auth
		}
		return Dashboard
	default:
		return Feed
	}
}

// Router tracks the current screen and the navigation history. The guard is
// evaluated only when a screen is entered.
type Router struct {
	mu      sync.Mutex
	current Screen
	history []Screen
}

// New creates a router positioned on the feed
func New() *Router {
	return &Router{current: Feed}
}

// Current returns the active screen
func (r *Router) Current() Screen {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Navigate enters the screen resolved for path and returns it. Navigating to
// the active screen does not grow the history.
func (r *Router) Navigate(path string, authenticated bool) Screen {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := Resolve(path, authenticated)
	if next != r.current {
		r.history = append(r.history, r.current)
		r.current = next
	}
	return r.current
}

// Back returns to the previous screen, re-running the guard on it. With no
// history it goes to the feed.
func (r *Router) Back(authenticated bool) Screen {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := Feed
	if n := len(r.history); n > 0 {
		prev = r.history[n-1]
		r.history = r.history[:n-1]
	}
	r.current = Resolve(prev.Path(), authenticated)
	return r.current
}

// Reset clears the history and goes to the screen resolved for path
func (r *Router) Reset(path string, authenticated bool) Screen {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.history = nil
	r.current = Resolve(path, authenticated)
	return r.current
}
