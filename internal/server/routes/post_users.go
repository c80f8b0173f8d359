package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/openlit/litmine/backend/internal/server/middleware"
	"github.com/openlit/litmine/backend/pkg/common"
	"github.com/openlit/litmine/backend/pkg/logger"
	"github.com/openlit/litmine/backend/pkg/store"
)

// RegisterUserHandler creates an account. The username becomes the
// ownership scope for everything the account imports.
func RegisterUserHandler(c echo.Context) error {
	type registerBody struct {
		Username string `json:"username" validate:"required,min=3"`
		Password string `json:"password" validate:"required,min=8"`
	}

	type registerResponse struct {
		Message string `json:"message"`
		UserID  string `json:"user_id,omitempty"`
	}

	data := new(registerBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, registerResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, registerResponse{
			Message: "Invalid request body",
		})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	if _, err := app.Store.GetUserByUsername(ctx, data.Username); err == nil {
		return c.JSON(http.StatusConflict, registerResponse{
			Message: "Username already taken",
		})
	} else if !errors.Is(err, store.ErrNotFound) {
		logger.Error("Failed to check username", "err", err)
		return c.JSON(http.StatusInternalServerError, registerResponse{
			Message: "Internal server error",
		})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(data.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("Failed to hash password", "err", err)
		return c.JSON(http.StatusInternalServerError, registerResponse{
			Message: "Internal server error",
		})
	}

	user := &common.User{
		Username:     data.Username,
		PasswordHash: string(hash),
	}
	id, err := app.Store.CreateUser(ctx, user)
	if err != nil {
		logger.Error("Failed to create user", "err", err)
		return c.JSON(http.StatusInternalServerError, registerResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusCreated, registerResponse{
		Message: "User created",
		UserID:  id,
	})
}

// LoginUserHandler verifies credentials and issues a bearer token.
func LoginUserHandler(c echo.Context) error {
	type loginBody struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	type loginResponse struct {
		Message string `json:"message"`
		Token   string `json:"token,omitempty"`
	}

	data := new(loginBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, loginResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, loginResponse{
			Message: "Invalid request body",
		})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	user, err := app.Store.GetUserByUsername(ctx, data.Username)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, loginResponse{
			Message: "Invalid credentials",
		})
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(data.Password)); err != nil {
		return c.JSON(http.StatusUnauthorized, loginResponse{
			Message: "Invalid credentials",
		})
	}

	token, err := middleware.GenerateToken(app.JWTSecret, user.PublicID, user.Username)
	if err != nil {
		logger.Error("Failed to sign token", "err", err)
		return c.JSON(http.StatusInternalServerError, loginResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, loginResponse{
		Message: "Login successful",
		Token:   token,
	})
}
