package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/aizah-price-admin/internal/model"
	"github.com/iliyamo/aizah-price-admin/internal/repository"
)

// Messages shown on the users page.
const (
	MsgUsersDisabled = "User details are not available: no user database is configured."
	MsgUsersFailed   = "Failed to load users."
)

// UserLister reads the users shown on the user details page.
type UserLister interface {
	List(ctx context.Context, limit int) ([]model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// UserHandler serves the user details page.  A nil Users means the database
// is not configured and the page says so instead of failing.
type UserHandler struct {
	Users  UserLister
	Logger *zap.Logger
}

// NewUserHandler builds a UserHandler; users may be nil.
func NewUserHandler(users UserLister, logger *zap.Logger) *UserHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserHandler{Users: users, Logger: logger}
}

type usersPage struct {
	Title string
	Error string
	Users []model.User
}

func limitParam(c echo.Context) int {
	n, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil {
		return repository.DefaultUserLimit
	}
	return repository.ClampLimit(n)
}

// Page handles GET /users.
func (h *UserHandler) Page(c echo.Context) error {
	data := usersPage{Title: "User Details"}
	if h.Users == nil {
		data.Error = MsgUsersDisabled
		return c.Render(http.StatusOK, "users.html", data)
	}
	users, err := h.Users.List(c.Request().Context(), limitParam(c))
	if err != nil {
		h.Logger.Error("list users", zap.Error(err))
		data.Error = MsgUsersFailed
		return c.Render(http.StatusInternalServerError, "users.html", data)
	}
	data.Users = users
	return c.Render(http.StatusOK, "users.html", data)
}

// List handles GET /v1/users.
func (h *UserHandler) List(c echo.Context) error {
	if h.Users == nil {
		return c.JSON(http.StatusServiceUnavailable, errorBody("user database not configured"))
	}
	users, err := h.Users.List(c.Request().Context(), limitParam(c))
	if err != nil {
		h.Logger.Error("list users", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorBody("db error"))
	}
	if users == nil {
		users = []model.User{}
	}
	return c.JSON(http.StatusOK, map[string]any{"users": users})
}

// Get handles GET /v1/users/:id.
func (h *UserHandler) Get(c echo.Context) error {
	if h.Users == nil {
		return c.JSON(http.StatusServiceUnavailable, errorBody("user database not configured"))
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, errorBody("invalid user id"))
	}
	u, err := h.Users.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, errorBody("user not found"))
		}
		h.Logger.Error("get user", zap.Uint64("user_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorBody("db error"))
	}
	return c.JSON(http.StatusOK, u)
}
