package handler // handler package contains cursor navigation handlers

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/hotel-info-panels/internal/model"
    "github.com/iliyamo/hotel-info-panels/internal/navigation"
)

// moveBody is the payload of both navigation endpoints.  Move is one of
// "previous", "next", "jump" (single view) or "open", "previous",
// "next" (list view); Target is only read for jumps.
type moveBody struct {
    Move   string `json:"move"`
    Target int    `json:"target"`
}

// Navigate handles POST /v1/panels/:ref/cursor and moves the single-item
// cursor.  An out-of-range move is not an error: the cursor stays where it
// was and the response reports moved=false with no item payload.
func (h *PanelHandler) Navigate(c echo.Context) error {
    ownerID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
    }
    var body moveBody
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
    }

    var move navigation.Move
    switch body.Move {
    case "previous":
        move = navigation.Move{Kind: navigation.Previous}
    case "next":
        move = navigation.Move{Kind: navigation.Next}
    case "jump":
        move = navigation.Move{Kind: navigation.Jump, Target: body.Target}
    default:
        return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown move"})
    }

    ctx := c.Request().Context()
    panel, err := h.Repo.GetPanel(ctx, ownerID, c.Param("ref"))
    if err != nil {
        return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
    }
    if panel == nil {
        return c.JSON(http.StatusNotFound, map[string]string{"error": "panel no longer active"})
    }

    next, ok := navigation.Step(panel.Cursor, panel.Length, move)
    if !ok { // boundary hit; leave the stored cursor untouched
        return c.JSON(http.StatusOK, map[string]any{
            "moved":  false,
            "cursor": panel.Cursor,
            "length": panel.Length,
        })
    }

    detail, err := h.Repo.SetCursor(ctx, panel.ID, next)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
    }
    return c.JSON(http.StatusOK, map[string]any{
        "moved":  true,
        "cursor": next,
        "length": panel.Length,
        "item":   itemDetailJSON(*detail),
    })
}

// NavigateList handles POST /v1/panels/:ref/list and moves the 5-item page
// cursor.  "open" switches from single view to the page containing the
// current item; "previous" and "next" page through.  Out-of-range moves
// keep the stored cursor and report moved=false.
func (h *PanelHandler) NavigateList(c echo.Context) error {
    ownerID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
    }
    var body moveBody
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
    }

    ctx := c.Request().Context()
    panel, err := h.Repo.GetPanel(ctx, ownerID, c.Param("ref"))
    if err != nil {
        return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
    }
    if panel == nil {
        return c.JSON(http.StatusNotFound, map[string]string{"error": "panel no longer active"})
    }

    var next int
    switch body.Move {
    case "open": // derive the page that contains the current single-item cursor
        next = navigation.ListStart(panel.Cursor)
    case "previous":
        n, ok := navigation.ListStep(panel.ListCursor, panel.Length, navigation.Move{Kind: navigation.Previous})
        if !ok {
            return c.JSON(http.StatusOK, listStayPut(panel))
        }
        next = n
    case "next":
        n, ok := navigation.ListStep(panel.ListCursor, panel.Length, navigation.Move{Kind: navigation.Next})
        if !ok {
            return c.JSON(http.StatusOK, listStayPut(panel))
        }
        next = n
    default:
        return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown move"})
    }

    entries, err := h.Repo.SetListCursor(ctx, panel.ID, next)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
    }
    return c.JSON(http.StatusOK, map[string]any{
        "moved":       true,
        "list_cursor": next,
        "pages":       navigation.ListLength(panel.Length),
        "length":      panel.Length,
        "entries":     listEntriesJSON(entries),
    })
}

func listStayPut(panel *model.Panel) map[string]any {
    return map[string]any{
        "moved":       false,
        "list_cursor": panel.ListCursor,
        "pages":       navigation.ListLength(panel.Length),
        "length":      panel.Length,
    }
}

// itemDetailJSON shapes an item detail for the wire; dates go out as
// calendar strings, the nullable rating stays a nullable number.
func itemDetailJSON(d model.ItemDetail) map[string]any {
    return map[string]any{
        "name":        d.Name,
        "price":       d.Price,
        "rating":      d.Rating,
        "photo":       d.Photo,
        "link":        d.Link,
        "position":    d.Position,
        "destination": d.Destination,
        "check_in":    d.CheckIn.Format(model.DateOnly),
        "check_out":   d.CheckOut.Format(model.DateOnly),
    }
}

func listEntriesJSON(entries []model.ListEntry) []map[string]any {
    out := make([]map[string]any, 0, len(entries))
    for _, e := range entries {
        out = append(out, map[string]any{
            "name":   e.Name,
            "price":  e.Price,
            "rating": e.Rating,
        })
    }
    return out
}
