package auth

import (
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/kelechi-dev/workbid/internal/errs"
	"github.com/kelechi-dev/workbid/internal/identity"
	"github.com/kelechi-dev/workbid/internal/logger"
)

var log = logger.NewSublogger("auth")

type SignupRequest struct {
	Name     string `json:"name" validate:"required"`
	Age      int    `json:"age" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	Token    string `json:"token"`
	Identity string `json:"identity"`
}

// Handler exposes signup/login/me. It owns credentials; the profile itself
// lives in the identity registry.
type Handler struct {
	creds    CredentialStore
	registry *identity.Registry
}

func NewHandler(creds CredentialStore, registry *identity.Registry) *Handler {
	return &Handler{creds: creds, registry: registry}
}

// Signup registers a profile, stores the credential and returns a signed
// token.
func (h *Handler) Signup(c echo.Context) error {
	req := new(SignupRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	role, ok := identity.ParseRole(req.Role)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be client or service_provider"})
	}
	if req.Name == "" || req.Email == "" || len(req.Password) < 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, email and a password of at least 6 characters are required"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	ctx := c.Request().Context()
	id := uuid.New().String()

	if err := h.registry.Register(ctx, req.Name, req.Age, id, role); err != nil {
		return c.JSON(errs.HTTPStatus(err), echo.Map{"error": err.Error()})
	}
	err = h.creds.SaveCredential(ctx, Credential{
		ID:           uuid.New().String(),
		Identity:     id,
		Email:        req.Email,
		PasswordHash: string(hashed),
		CreatedAt:    time.Now(),
	})
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already exists"})
	}

	signed, err := issueToken(id, role.String())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
	}
	return c.JSON(http.StatusOK, TokenResponse{Token: signed, Identity: id})
}

// Login verifies the credential and returns a fresh token.
func (h *Handler) Login(c echo.Context) error {
	req := new(LoginRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	ctx := c.Request().Context()
	cred, ok, err := h.creds.GetByEmail(ctx, req.Email)
	if err != nil || !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(req.Password)); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	role, err := h.registry.RoleOf(ctx, cred.Identity)
	if err != nil {
		log.WithField("identity", cred.Identity).Warn("credential without profile")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	signed, err := issueToken(cred.Identity, role.String())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
	}
	return c.JSON(http.StatusOK, TokenResponse{Token: signed, Identity: cred.Identity})
}

// Me returns the authenticated caller's profile.
func (h *Handler) Me(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	u, err := h.registry.Profile(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(errs.HTTPStatus(err), echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, u)
}

func issueToken(userID, role string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(72 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}
