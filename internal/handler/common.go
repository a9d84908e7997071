package handler // handler defines http handlers

import (
    "errors"  // errors provides sentinel values used in getUserID
    "strconv" // strconv converts strings to numeric types

    "github.com/labstack/echo/v4" // echo defines request context types

    "github.com/iliyamo/hotel-info-panels/internal/refresh"    // refresh drives the panel lifecycle engine
    "github.com/iliyamo/hotel-info-panels/internal/repository" // repository holds data access layer
)

// PanelHandler bundles the dependencies every panel endpoint needs: the
// repository for direct reads and cursor writes, the orchestrator for
// creation and refresh, and the event sink for removal notifications.
type PanelHandler struct {
    Repo   *repository.PanelRepo // Repo provides panel persistence
    Engine *refresh.Orchestrator // Engine runs creation and the refresh state machine
    Events refresh.EventSink     // Events receives removal notifications on deletes
}

// NewPanelHandler constructs a new PanelHandler and panics if any dependency is nil
func NewPanelHandler(repo *repository.PanelRepo, engine *refresh.Orchestrator, events refresh.EventSink) *PanelHandler {
    if repo == nil || engine == nil || events == nil { // check for nil dependencies
        panic("nil dependency passed to NewPanelHandler") // panic when a dependency is missing
    }
    return &PanelHandler{
        Repo:   repo,
        Engine: engine,
        Events: events,
    }
}

// getUserID extracts the user_id from echo.Context and converts it to uint64
func getUserID(c echo.Context) (uint64, error) {
    v := c.Get("user_id") // fetch user_id from context
    switch t := v.(type) { // perform type switch on the value
    case uint64: // when already uint64
        return t, nil
    case int: // when stored as int
        return uint64(t), nil
    case int64: // when stored as int64
        return uint64(t), nil
    case float64: // when stored as float64 (JSON numbers decode to float64)
        return uint64(t), nil
    case string: // when stored as string (JWT subject claims are strings)
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context") // return error if value is missing or invalid
}
