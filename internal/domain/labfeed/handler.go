package labfeed

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/internal/platform/store"
)

type Handler struct {
	notifier *Notifier
	feed     Feed
}

func NewHandler(notifier *Notifier, feed Feed) *Handler {
	return &Handler{notifier: notifier, feed: feed}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleDoctor))
	g.GET("/lab-notifications", h.DrainNotifications)
	g.PUT("/lab-notifications/view", h.SetViewActive)
	g.GET("/lab-results", h.ListResults)
}

// DrainNotifications hands the accumulated alerts to the caller. Each alert
// is delivered once; polling this endpoint is how the UI picks them up.
func (h *Handler) DrainNotifications(c echo.Context) error {
	notes := h.notifier.Drain()
	if notes == nil {
		notes = []Notification{}
	}
	return c.JSON(http.StatusOK, notes)
}

type viewRequest struct {
	Active bool `json:"active"`
}

func (h *Handler) SetViewActive(c echo.Context) error {
	var req viewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	h.notifier.SetViewActive(req.Active)
	return c.NoContent(http.StatusNoContent)
}

// ListResults proxies the full result listing from the store. The cached
// copy from the notifier's refresh is served when the store is unreachable.
func (h *Handler) ListResults(c echo.Context) error {
	results, err := h.feed.ListAll(c.Request().Context())
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			if cached := h.notifier.CachedResults(); len(cached) > 0 {
				return c.JSON(http.StatusOK, cached)
			}
			return echo.NewHTTPError(http.StatusBadGateway, "clinic store unavailable")
		}
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	if results == nil {
		results = []LabUpdate{}
	}
	return c.JSON(http.StatusOK, results)
}
