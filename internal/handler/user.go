package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/OSU-CS493-Sp18/mongodb/internal/model"
    "github.com/OSU-CS493-Sp18/mongodb/internal/service"
)

const userBodyMsg = "Request needs a JSON body with a userID, a name, and an email"

// UserHandler serves /users on top of UserService.
type UserHandler struct {
    Users  *service.UserService
    Logger *logrus.Logger
}

// NewUserHandler panics if a dependency is nil.
func NewUserHandler(users *service.UserService, logger *logrus.Logger) *UserHandler {
    if users == nil || logger == nil {
        panic("nil dependency passed to NewUserHandler")
    }
    return &UserHandler{Users: users, Logger: logger}
}

// Create handles POST /users.
func (h *UserHandler) Create(c echo.Context) error {
    var in model.UserInput
    if err := c.Bind(&in); err != nil {
        return c.JSON(http.StatusBadRequest, map[string]string{"error": userBodyMsg})
    }
    oid, err := h.Users.Create(c.Request().Context(), in)
    if err != nil {
        if errors.Is(err, service.ErrValidation) {
            return c.JSON(http.StatusBadRequest, map[string]string{"error": userBodyMsg})
        }
        h.Logger.WithError(err).Error("create user")
        return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Error inserting user into DB.  Please try again later."})
    }
    hex := oid.Hex()
    return c.JSON(http.StatusCreated, map[string]interface{}{
        "_id":   hex,
        "links": map[string]string{"user": "/users/" + hex},
    })
}

// Get handles GET /users/:id where :id is either the document _id or the
// application userID.
func (h *UserHandler) Get(c echo.Context) error {
    id := c.Param("id")
    u, err := h.Users.GetByID(c.Request().Context(), id)
    if err != nil {
        if errors.Is(err, service.ErrNotFound) {
            return NotFound(c)
        }
        h.Logger.WithError(err).WithField("user", id).Error("get user")
        return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Unable to fetch user."})
    }
    return c.JSON(http.StatusOK, u)
}

// ListLodgings handles GET /users/:id/lodgings.  It scans the lodgings
// table by owner; an unknown owner simply has no lodgings.
func (h *UserHandler) ListLodgings(c echo.Context) error {
    ownerID := c.Param("id")
    lodgings, err := h.Users.ListLodgingsByOwner(c.Request().Context(), ownerID)
    if err != nil {
        h.Logger.WithError(err).WithField("owner_id", ownerID).Error("list owner lodgings")
        return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Unable to fetch lodgings for user " + ownerID})
    }
    return c.JSON(http.StatusOK, map[string]interface{}{"lodgings": lodgings})
}
