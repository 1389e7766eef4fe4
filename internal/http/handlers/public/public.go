package public

import "github.com/ayoubsiyari/talaria-log-v3-sub002/internal/provider"

// Handler serves the customer-facing API.
type Handler struct {
	*provider.Container
}

// New creates the public handler.
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
