package handler

import (
    "errors"
    "fmt"
    "math"
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/OSU-CS493-Sp18/mongodb/internal/model"
    "github.com/OSU-CS493-Sp18/mongodb/internal/service"
)

const lodgingBodyMsg = "Request needs a JSON body with a name, a price, and an owner ID"

// LodgingHandler serves /lodgings on top of LodgingService.
type LodgingHandler struct {
    Lodgings *service.LodgingService
    Logger   *logrus.Logger
}

// NewLodgingHandler panics if a dependency is nil.
func NewLodgingHandler(lodgings *service.LodgingService, logger *logrus.Logger) *LodgingHandler {
    if lodgings == nil || logger == nil {
        panic("nil dependency passed to NewLodgingHandler")
    }
    return &LodgingHandler{Lodgings: lodgings, Logger: logger}
}

func lodgingLink(id int64) map[string]string {
    return map[string]string{"lodging": fmt.Sprintf("/lodgings/%d", id)}
}

// leadingInt reads an optionally signed run of digits at the start of s,
// after any leading spaces, and ignores the rest: "2abc" is 2.  ok is
// false when there are no digits.
func leadingInt(s string) (int64, bool) {
    s = strings.TrimLeft(s, " \t\n\r")
    end := 0
    if end < len(s) && (s[end] == '-' || s[end] == '+') {
        end++
    }
    digits := end
    for end < len(s) && s[end] >= '0' && s[end] <= '9' {
        end++
    }
    if end == digits {
        return 0, false
    }
    n, err := strconv.ParseInt(s[:end], 10, 64)
    return n, err == nil
}

// lodgingID parses :id the way leadingInt does.  ok is false when it has
// no leading number, in which case the request is treated as an unknown
// path.
func lodgingID(c echo.Context) (int64, bool) {
    return leadingInt(c.Param("id"))
}

// List handles GET /lodgings?page=N.  A page without a leading number is 1.
func (h *LodgingHandler) List(c echo.Context) error {
    page := 1
    if n, ok := leadingInt(c.QueryParam("page")); ok {
        page = clampInt(n)
    }
    out, err := h.Lodgings.List(c.Request().Context(), page)
    if err != nil {
        h.Logger.WithError(err).Error("list lodgings")
        return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Error fetching lodgings list.  Please try again later."})
    }
    return c.JSON(http.StatusOK, out)
}

func clampInt(n int64) int {
    switch {
    case n > math.MaxInt32:
        return math.MaxInt32
    case n < math.MinInt32:
        return math.MinInt32
    }
    return int(n)
}

// Create handles POST /lodgings.
func (h *LodgingHandler) Create(c echo.Context) error {
    var in model.LodgingInput
    if err := c.Bind(&in); err != nil {
        return c.JSON(http.StatusBadRequest, map[string]string{"error": lodgingBodyMsg})
    }

    id, err := h.Lodgings.Create(c.Request().Context(), in)
    if err != nil {
        var invalidOwner *service.InvalidOwnerError
        switch {
        case errors.Is(err, service.ErrValidation):
            return c.JSON(http.StatusBadRequest, map[string]string{"error": lodgingBodyMsg})
        case errors.As(err, &invalidOwner):
            return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid owner ID: " + invalidOwner.OwnerID})
        }
        h.Logger.WithError(err).WithField("lodging_id", id).Error("create lodging")
        return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Error inserting lodging into DB.  Please try again later."})
    }
    return c.JSON(http.StatusCreated, map[string]interface{}{
        "id":    id,
        "links": lodgingLink(id),
    })
}

// Get handles GET /lodgings/:id.  Missing lodgings fall through to NotFound.
func (h *LodgingHandler) Get(c echo.Context) error {
    id, ok := lodgingID(c)
    if !ok {
        return NotFound(c)
    }
    l, err := h.Lodgings.GetByID(c.Request().Context(), id)
    if err != nil {
        if errors.Is(err, service.ErrNotFound) {
            return NotFound(c)
        }
        h.Logger.WithError(err).WithField("lodging_id", id).Error("get lodging")
        return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Unable to fetch lodging."})
    }
    return c.JSON(http.StatusOK, l)
}

// Update handles PUT /lodgings/:id, replacing every field.
func (h *LodgingHandler) Update(c echo.Context) error {
    id, ok := lodgingID(c)
    if !ok {
        return NotFound(c)
    }
    var in model.LodgingInput
    if err := c.Bind(&in); err != nil {
        return c.JSON(http.StatusBadRequest, map[string]string{"err": lodgingBodyMsg})
    }

    updated, err := h.Lodgings.Update(c.Request().Context(), id, in)
    if err != nil {
        if errors.Is(err, service.ErrValidation) {
            return c.JSON(http.StatusBadRequest, map[string]string{"err": lodgingBodyMsg})
        }
        h.Logger.WithError(err).WithField("lodging_id", id).Error("update lodging")
        return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Unable to update lodging."})
    }
    if !updated {
        return NotFound(c)
    }
    return c.JSON(http.StatusOK, map[string]interface{}{"links": lodgingLink(id)})
}

// Delete handles DELETE /lodgings/:id.
func (h *LodgingHandler) Delete(c echo.Context) error {
    id, ok := lodgingID(c)
    if !ok {
        return NotFound(c)
    }
    deleted, err := h.Lodgings.Delete(c.Request().Context(), id)
    if err != nil {
        h.Logger.WithError(err).WithField("lodging_id", id).Error("delete lodging")
        return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Unable to delete lodging."})
    }
    if !deleted {
        return NotFound(c)
    }
    return c.NoContent(http.StatusNoContent)
}
