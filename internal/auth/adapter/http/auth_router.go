package http

import (
	"errors"
	"time"

	"buildmarket/internal/auth/usecase"
	"buildmarket/internal/gateway/domain/model"
	gatewayusecase "buildmarket/internal/gateway/usecase"
	apperrors "buildmarket/internal/shared/errors"

	"github.com/gofiber/fiber/v2"
)

// AuthHTTPHandler handles HTTP requests for authentication and the current
// user's session.
type AuthHTTPHandler struct {
	usecase      usecase.AuthUsecaseInterface
	sessions     *gatewayusecase.SessionResolver
	cookieName   string
	cookieMaxAge time.Duration
	cookieSecure bool
}

// NewAuthHTTPHandler creates a new authentication HTTP handler
func NewAuthHTTPHandler(
	uc usecase.AuthUsecaseInterface,
	sessions *gatewayusecase.SessionResolver,
	cookieName string,
	cookieMaxAge time.Duration,
	cookieSecure bool,
) *AuthHTTPHandler {
	return &AuthHTTPHandler{
		usecase:      uc,
		sessions:     sessions,
		cookieName:   cookieName,
		cookieMaxAge: cookieMaxAge,
		cookieSecure: cookieSecure,
	}
}

// SetupAuthRoutes sets up authentication routes with middleware
func (h *AuthHTTPHandler) SetupAuthRoutes(router fiber.Router, middleware *AuthMiddleware) {
	// Public routes (no authentication required)
	router.Post("/register", middleware.RateLimiter(), h.Register)
	router.Post("/login", middleware.RateLimiter(), h.Login)

	// The session probe resolves its own identity so it can answer 401
	// with a login redirect instead of being cut off by Protect.
	router.Get("/me", middleware.Optional(), h.GetCurrentUser)

	// Protected routes (authentication required)
	protected := router.Group("/", middleware.Protect())
	protected.Post("/logout", h.Logout)
	protected.Put("/me", h.UpdateCurrentUser)
	protected.Post("/change-password", h.ChangePassword)
}

// Register handles user registration
func (h *AuthHTTPHandler) Register(c *fiber.Ctx) error {
	var req usecase.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	account, token, err := h.usecase.Register(c.Context(), req)
	if err != nil {
		if errors.Is(err, apperrors.ErrEmailTaken) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Email already registered",
			})
		}
		return c.Status(apperrors.HTTPStatus(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	h.setCookie(c, token)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user":         account,
		"access_token": token,
	})
}

// Login handles user login
func (h *AuthHTTPHandler) Login(c *fiber.Ctx) error {
	var req usecase.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	account, token, err := h.usecase.Login(c.Context(), req)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid email or password",
			})
		}
		return c.Status(apperrors.HTTPStatus(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	h.setCookie(c, token)
	return c.JSON(fiber.Map{
		"user":         account,
		"access_token": token,
	})
}

// Logout revokes the presented token and clears the cookie
func (h *AuthHTTPHandler) Logout(c *fiber.Ctx) error {
	token := bearerToken(c, h.cookieName)
	if token != "" {
		if err := h.usecase.Logout(c.Context(), token); err != nil {
			return c.Status(apperrors.HTTPStatus(err)).JSON(fiber.Map{
				"error": "Logout failed",
			})
		}
	}

	h.clearCookie(c)
	return c.JSON(fiber.Map{
		"message": "Logged out successfully",
	})
}

// GetCurrentUser returns the resolved session for the request. Without a
// resolvable session it answers 401 together with the sign-in URL the
// client should navigate to.
func (h *AuthHTTPHandler) GetCurrentUser(c *fiber.Ctx) error {
	session, err := h.sessions.CurrentSession(c.UserContext())
	if err != nil {
		if apperrors.IsNotAuthenticated(err) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":     "Not authenticated",
				"login_url": h.sessions.RedirectToLogin(c.OriginalURL()),
			})
		}
		return c.Status(apperrors.HTTPStatus(err)).JSON(fiber.Map{
			"error": "Failed to resolve session",
		})
	}
	return c.JSON(session)
}

// UpdateCurrentUser merges the request body into the caller's profile document
func (h *AuthHTTPHandler) UpdateCurrentUser(c *fiber.Ctx) error {
	var fields model.Entity
	if err := c.BodyParser(&fields); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	updated, err := h.sessions.UpdateProfile(c.UserContext(), fields)
	if err != nil {
		return c.Status(apperrors.HTTPStatus(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(updated)
}

// ChangePassword replaces the caller's password
func (h *AuthHTTPHandler) ChangePassword(c *fiber.Ctx) error {
	var req struct {
		NewPassword string `json:"new_password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.usecase.UpdatePassword(c.UserContext(), req.NewPassword); err != nil {
		return c.Status(apperrors.HTTPStatus(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": "Password updated successfully",
	})
}

func (h *AuthHTTPHandler) setCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookieMaxAge.Seconds()),
		Secure:   h.cookieSecure,
		HTTPOnly: true,
		SameSite: "Lax",
	})
}

func (h *AuthHTTPHandler) clearCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   h.cookieSecure,
		HTTPOnly: true,
		SameSite: "Lax",
	})
}

func bearerToken(c *fiber.Ctx, cookieName string) string {
	authHeader := c.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return c.Cookies(cookieName)
}
