package api

import (
	"context"

	"github.com/neexbeast/weatherwidget/internal/storage"
	"github.com/neexbeast/weatherwidget/internal/weather"
	"github.com/neexbeast/weatherwidget/internal/widget"
)

// WeatherWidget is the part of *widget.Widget the handlers drive.
type WeatherWidget interface {
	Current(ctx context.Context) (*weather.Record, error)
	Search(ctx context.Context, city string) (widget.Outcome, error)
	Input(ctx context.Context) *widget.Input
}

// FailureJournal lists recent failed lookups for operators.
type FailureJournal interface {
	RecentFailures(ctx context.Context, limit int) ([]storage.Lookup, error)
}

// Pinger is anything the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}
