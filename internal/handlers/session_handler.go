package handlers

import (
	"github.com/Thierryn8n/MetalFly/internal/dto"
	"github.com/Thierryn8n/MetalFly/internal/scope"
	"github.com/Thierryn8n/MetalFly/internal/session"
	"github.com/gofiber/fiber/v2"
)

// SessionHandler exposes the per-principal session core over HTTP. Each
// request acquires the principal's controller from the manager; the
// manager owns creation, reuse and disposal.
type SessionHandler struct {
	manager *session.Manager
}

func NewSessionHandler(manager *session.Manager) *SessionHandler {
	return &SessionHandler{manager: manager}
}

func (h *SessionHandler) acquire(c *fiber.Ctx) (*session.ClientSession, error) {
	userID, err := scope.GetUserID(c)
	if err != nil {
		return nil, err
	}
	return h.manager.Acquire(userID, scope.GetAccessToken(c), c.Get("X-Refresh-Token")), nil
}

// GetState returns the controller's current {user, profile, loading}
// triple, drains pending notices and consumes any forced-navigation
// target.
func (h *SessionHandler) GetState(c *fiber.Ctx) error {
	cs, err := h.acquire(c)
	if err != nil {
		return unauthorized(c)
	}

	state := cs.Controller.State()
	return c.JSON(dto.SessionStateResponse{
		User:     state.User,
		Profile:  state.Profile,
		Loading:  state.Loading,
		Notices:  cs.Feed.Drain(),
		Redirect: cs.Nav.Consume(),
	})
}

// RefreshProfile re-runs profile resolution for the current identity.
func (h *SessionHandler) RefreshProfile(c *fiber.Ctx) error {
	cs, err := h.acquire(c)
	if err != nil {
		return unauthorized(c)
	}

	cs.Controller.RefreshProfile()
	state := cs.Controller.State()
	return c.JSON(dto.SessionStateResponse{
		User:    state.User,
		Profile: state.Profile,
		Loading: state.Loading,
		Notices: cs.Feed.Drain(),
	})
}

// RestoreSession forces the manual recovery path: token refresh with an
// identity-check fallback.
func (h *SessionHandler) RestoreSession(c *fiber.Ctx) error {
	cs, err := h.acquire(c)
	if err != nil {
		return unauthorized(c)
	}

	cs.Controller.RestoreSession()
	state := cs.Controller.State()
	return c.JSON(dto.SessionStateResponse{
		User:    state.User,
		Profile: state.Profile,
		Loading: state.Loading,
		Notices: cs.Feed.Drain(),
	})
}

// ResetAttempts clears the resolver's global retry counter and the
// sticky reload notice, so the client can resolve again after a reload.
func (h *SessionHandler) ResetAttempts(c *fiber.Ctx) error {
	cs, err := h.acquire(c)
	if err != nil {
		return unauthorized(c)
	}

	cs.Controller.ResetFetchAttempts()
	cs.Feed.ClearSticky(session.NoticeReloadRequired)
	return c.SendStatus(fiber.StatusNoContent)
}

// SignOut clears the principal's state, invalidates the hosted session
// and disposes the managed controller. The response carries the forced
// navigation target.
func (h *SessionHandler) SignOut(c *fiber.Ctx) error {
	userID, err := scope.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	cs := h.manager.Acquire(userID, scope.GetAccessToken(c), c.Get("X-Refresh-Token"))
	cs.Controller.SignOut()
	redirect := cs.Nav.Consume()
	notices := cs.Feed.Drain()
	h.manager.Drop(userID)

	return c.JSON(dto.SessionStateResponse{
		Loading:  false,
		Notices:  notices,
		Redirect: redirect,
	})
}

// CacheUserData snapshots the resolved profile with the caller's
// current path.
func (h *SessionHandler) CacheUserData(c *fiber.Ctx) error {
	cs, err := h.acquire(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.CacheUserDataRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := cs.Helper.CacheUserData(c.Context(), req.CurrentPath); err != nil {
		return badRequest(c, err.Error())
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CachedUserData returns the advisory snapshot when it is still inside
// the freshness window.
func (h *SessionHandler) CachedUserData(c *fiber.Ctx) error {
	cs, err := h.acquire(c)
	if err != nil {
		return unauthorized(c)
	}

	snap, ok := cs.Helper.CachedUserData(c.Context())
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error:   true,
			Message: "No cached data",
		})
	}
	return c.JSON(snap)
}

// ClearSavedData purges the snapshot and the saved redirect target.
func (h *SessionHandler) ClearSavedData(c *fiber.Ctx) error {
	cs, err := h.acquire(c)
	if err != nil {
		return unauthorized(c)
	}

	if err := cs.Helper.ClearSavedData(c.Context()); err != nil {
		return internalError(c, "Failed to clear saved data")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SaveLocation records the path to return to after the next login.
func (h *SessionHandler) SaveLocation(c *fiber.Ctx) error {
	cs, err := h.acquire(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.SaveLocationRequest
	if err := c.BodyParser(&req); err != nil || req.Path == "" {
		return badRequest(c, "Invalid path")
	}

	if err := cs.Helper.SaveCurrentLocation(c.Context(), req.Path); err != nil {
		return internalError(c, "Failed to save location")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Redirect consumes the saved post-login location, falling back to the
// default landing route.
func (h *SessionHandler) Redirect(c *fiber.Ctx) error {
	cs, err := h.acquire(c)
	if err != nil {
		return unauthorized(c)
	}

	return c.JSON(dto.RedirectResponse{
		Path: cs.Helper.RedirectToSavedLocation(c.Context()),
	})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error:   true,
		Message: "Unauthorized",
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error:   true,
		Message: msg,
	})
}

func internalError(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error:   true,
		Message: msg,
	})
}
