package api

import (
	"context"

	"github.com/yourname/macrotracker/internal"
	"github.com/yourname/macrotracker/internal/service"
)

// Tracker is the subset of service.Tracker the handlers need.
type Tracker interface {
	Summary(ctx context.Context, sessionID string) (*service.Summary, error)
	Submit(ctx context.Context, sessionID, description string) (*service.Summary, error)
	Clear(ctx context.Context, sessionID string) (*service.Summary, error)
	Goals() internal.NutrientGoals
}

type App interface {
	Logger() internal.Logger
	Tracker() Tracker
	Hub() *Hub
}

type app struct {
	logger  internal.Logger
	tracker Tracker
	hub     *Hub
}

func NewApp(logger internal.Logger, tracker Tracker, hub *Hub) App {
	return &app{logger: logger, tracker: tracker, hub: hub}
}

func (a *app) Logger() internal.Logger { return a.logger }
func (a *app) Tracker() Tracker        { return a.tracker }
func (a *app) Hub() *Hub               { return a.hub }

var _ Tracker = (*service.Tracker)(nil)
