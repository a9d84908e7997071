package handler // handler package contains the cross-panel report endpoint

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/hotel-info-panels/internal/model"
    "github.com/iliyamo/hotel-info-panels/internal/repository"
)

// Report handles GET /v1/report?sort=rating|price and returns every item
// across every panel the owner holds, joined with its panel's destination
// and dates.  The default ordering is by rating.
func (h *PanelHandler) Report(c echo.Context) error {
    ownerID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
    }
    sort := model.AggregateSort(c.QueryParam("sort"))
    if sort == "" {
        sort = model.AggregateByRating
    }
    rows, err := h.Repo.Aggregate(c.Request().Context(), ownerID, sort)
    if err != nil {
        if errors.Is(err, repository.ErrInvalidSort) {
            return c.JSON(http.StatusBadRequest, map[string]string{"error": "sort must be rating or price"})
        }
        return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
    }
    items := make([]map[string]any, 0, len(rows))
    for _, row := range rows {
        items = append(items, map[string]any{
            "name":        row.Name,
            "price":       row.Price,
            "rating":      row.Rating,
            "destination": row.Destination,
            "check_in":    row.CheckIn.Format(model.DateOnly),
            "check_out":   row.CheckOut.Format(model.DateOnly),
            "photo":       row.Photo,
            "link":        row.Link,
        })
    }
    return c.JSON(http.StatusOK, map[string]any{"sort": string(sort), "items": items})
}
