package handler // handler package contains refresh endpoints

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// RefreshOne handles POST /v1/panels/:ref/refresh and runs the refresh
// state machine for a single panel.  A stale reference maps to 404 so the
// gateway can take down the rendered surface; every other outcome, cooldown
// and expiry included, is a 200 with the outcome status.
func (h *PanelHandler) RefreshOne(c echo.Context) error {
    ownerID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
    }
    out, err := h.Engine.Refresh(c.Request().Context(), ownerID, c.Param("ref"))
    if err != nil {
        return c.JSON(http.StatusInternalServerError, map[string]string{"error": "refresh failed"})
    }
    if out == nil { // the reference no longer resolves to a panel
        return c.JSON(http.StatusNotFound, map[string]string{"error": "panel no longer active"})
    }
    return c.JSON(http.StatusOK, out)
}

// RefreshAll handles POST /v1/panels/refresh and refreshes every panel the
// owner holds.  The response lists one outcome per panel in creation order,
// so the gateway can update each surface from its positional entry.
func (h *PanelHandler) RefreshAll(c echo.Context) error {
    ownerID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
    }
    outs, err := h.Engine.RefreshAll(c.Request().Context(), ownerID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, map[string]string{"error": "refresh failed"})
    }
    return c.JSON(http.StatusOK, map[string]any{"results": outs})
}
