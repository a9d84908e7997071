package handler // handler package contains panel lifecycle handlers

import (
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/hotel-info-panels/internal/model"
    "github.com/iliyamo/hotel-info-panels/internal/policy"
    "github.com/iliyamo/hotel-info-panels/internal/queue"
    "github.com/iliyamo/hotel-info-panels/internal/refresh"
)

// stayBody is one check-in/check-out pair in a creation request.
type stayBody struct {
    CheckIn  string `json:"check_in"`
    CheckOut string `json:"check_out"`
}

// createBody is the payload of POST /v1/panels.  It carries one search
// form: the destinations and stays are crossed into one panel per
// combination, external_refs supplies the gateway handle for each
// combination in destination-major order.
type createBody struct {
    Destinations []string   `json:"destinations"`
    Stays        []stayBody `json:"stays"`
    Adults       int        `json:"adults"`
    Children     int        `json:"children"`
    ChildrenAges []int      `json:"children_ages"`
    Rooms        int        `json:"rooms"`
    SortKey      string     `json:"sort_key"`
    ExternalRefs []string   `json:"external_refs"`
}

// CreatePanels handles POST /v1/panels and materializes a search form into
// panels, one per (destination, stay) combination.  The whole batch is
// admitted or rejected against the owner's panel ceiling; combinations whose
// initial fetch comes back empty produce no panel but are reported.
func (h *PanelHandler) CreatePanels(c echo.Context) error {
    ownerID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
    }
    var body createBody
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
    }

    stays := make([]refresh.Stay, 0, len(body.Stays))
    for _, s := range body.Stays {
        checkIn, err := time.Parse(model.DateOnly, s.CheckIn)
        if err != nil {
            return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid check_in date"})
        }
        checkOut, err := time.Parse(model.DateOnly, s.CheckOut)
        if err != nil {
            return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid check_out date"})
        }
        stays = append(stays, refresh.Stay{CheckIn: checkIn, CheckOut: checkOut})
    }

    outcomes, err := h.Engine.Submit(c.Request().Context(), ownerID, refresh.Submission{
        Destinations: body.Destinations,
        Stays:        stays,
        Adults:       body.Adults,
        Children:     body.Children,
        ChildrenAges: body.ChildrenAges,
        Rooms:        body.Rooms,
        SortKey:      model.SortKey(body.SortKey),
        ExternalRefs: body.ExternalRefs,
    })
    if err != nil {
        if errors.Is(err, policy.ErrCapacityExceeded) { // the batch does not fit under the owner's ceiling
            return c.JSON(http.StatusConflict, map[string]string{"error": "panel limit reached"})
        }
        if strings.Contains(err.Error(), "1062") { // duplicate (owner_id, external_ref) key
            return c.JSON(http.StatusConflict, map[string]string{"error": "external ref already in use"})
        }
        // Validation failures from the submission carry descriptive text.
        if isValidationError(err) {
            return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
        }
        return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not create panels"})
    }
    return c.JSON(http.StatusCreated, map[string]any{"results": outcomes})
}

// isValidationError distinguishes submission validation failures from
// infrastructure errors; validation errors are safe to echo back.
func isValidationError(err error) bool {
    msg := err.Error()
    for _, marker := range []string{"submission", "invalid criteria", "external refs"} {
        if strings.Contains(msg, marker) {
            return true
        }
    }
    return false
}

// formSummary is one entry of the GET /v1/panels listing: the panel's
// criteria plus its current pagination state.
type formSummary struct {
    ExternalRef  string `json:"external_ref"`
    Destination  string `json:"destination"`
    CheckIn      string `json:"check_in"`
    CheckOut     string `json:"check_out"`
    Adults       int    `json:"adults"`
    Children     int    `json:"children"`
    ChildrenAges []int  `json:"children_ages"`
    Rooms        int    `json:"rooms"`
    SortKey      string `json:"sort_key"`
    SortLabel    string `json:"sort_label"`
    Length       int    `json:"length"`
    Cursor       int    `json:"cursor"`
    ListCursor   int    `json:"list_cursor"`
    LastRefresh  string `json:"last_refresh"`
}

// ListForms handles GET /v1/panels and returns every panel the owner holds
// with its criteria summary, in creation order.
func (h *PanelHandler) ListForms(c echo.Context) error {
    ownerID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
    }
    panels, err := h.Repo.ListAll(c.Request().Context(), ownerID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
    }
    items := make([]formSummary, 0, len(panels))
    for _, pc := range panels {
        items = append(items, summarize(pc))
    }
    return c.JSON(http.StatusOK, map[string]any{"items": items})
}

func summarize(pc model.PanelCriteria) formSummary {
    return formSummary{
        ExternalRef:  pc.Panel.ExternalRef,
        Destination:  pc.Criteria.Destination,
        CheckIn:      pc.Criteria.CheckIn.Format(model.DateOnly),
        CheckOut:     pc.Criteria.CheckOut.Format(model.DateOnly),
        Adults:       pc.Criteria.Adults,
        Children:     pc.Criteria.Children,
        ChildrenAges: pc.Criteria.ChildrenAges,
        Rooms:        pc.Criteria.Rooms,
        SortKey:      string(pc.Criteria.SortKey),
        SortLabel:    model.SortKeyDescriptions[pc.Criteria.SortKey],
        Length:       pc.Panel.Length,
        Cursor:       pc.Panel.Cursor,
        ListCursor:   pc.Panel.ListCursor,
        LastRefresh:  pc.Panel.LastRefresh.UTC().Format(time.RFC3339),
    }
}

// GetPanel handles GET /v1/panels/:ref and returns one panel's summary.
func (h *PanelHandler) GetPanel(c echo.Context) error {
    ownerID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
    }
    pc, err := h.Repo.GetCriteriaAndPanel(c.Request().Context(), ownerID, c.Param("ref"))
    if err != nil {
        return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
    }
    if pc == nil { // stale reference, the panel is gone
        return c.JSON(http.StatusNotFound, map[string]string{"error": "panel no longer active"})
    }
    return c.JSON(http.StatusOK, summarize(*pc))
}

// Delete handles DELETE /v1/panels/:ref.  The panel and everything hanging
// off it are removed and a removal event is published for the gateway.
func (h *PanelHandler) Delete(c echo.Context) error {
    ownerID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
    }
    ctx := c.Request().Context()
    pc, err := h.Repo.GetCriteriaAndPanel(ctx, ownerID, c.Param("ref"))
    if err != nil {
        return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
    }
    if pc == nil {
        return c.JSON(http.StatusNotFound, map[string]string{"error": "panel no longer active"})
    }
    if err := h.Repo.Delete(ctx, pc.Panel.ID); err != nil {
        return c.JSON(http.StatusInternalServerError, map[string]string{"error": "delete failed"})
    }
    h.Events.PanelRemoved(ctx, removalEvent(*pc, queue.RemovalDeleted))
    return c.NoContent(http.StatusNoContent)
}

// DeleteAll handles DELETE /v1/panels and removes every panel the owner
// holds, publishing one removal event per panel.
func (h *PanelHandler) DeleteAll(c echo.Context) error {
    ownerID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
    }
    ctx := c.Request().Context()
    panels, err := h.Repo.ListAll(ctx, ownerID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
    }
    removed := 0
    for _, pc := range panels {
        if err := h.Repo.Delete(ctx, pc.Panel.ID); err != nil {
            return c.JSON(http.StatusInternalServerError, map[string]string{"error": "delete failed"})
        }
        h.Events.PanelRemoved(ctx, removalEvent(pc, queue.RemovalDeleted))
        removed++
    }
    return c.JSON(http.StatusOK, map[string]any{"removed": removed})
}

func removalEvent(pc model.PanelCriteria, reason queue.RemovalReason) queue.PanelRemovedEvent {
    return queue.PanelRemovedEvent{
        PanelID:     pc.Panel.ID,
        OwnerID:     pc.Panel.OwnerID,
        ExternalRef: pc.Panel.ExternalRef,
        Reason:      reason,
        Destination: pc.Criteria.Destination,
        CheckIn:     pc.Criteria.CheckIn.Format(model.DateOnly),
        CheckOut:    pc.Criteria.CheckOut.Format(model.DateOnly),
        RemovedAt:   time.Now().UTC().Format(time.RFC3339),
    }
}
