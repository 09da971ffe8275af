package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fakhrymubarak/weather-dashboard/internal/model"
	"github.com/fakhrymubarak/weather-dashboard/internal/storage"
)

// ErrMalformedState is returned when the saved widget list cannot be parsed.
var ErrMalformedState = errors.New("malformed saved widget state")

// WidgetRepository persists the dashboard's widget list as a single JSON array.
type WidgetRepository interface {
	LoadWidgets(ctx context.Context) ([]model.WidgetConfig, error)
	SaveWidgets(ctx context.Context, widgets []model.WidgetConfig) error
}

type widgetRepository struct {
	store storage.Store
	key   string
}

// NewWidgetRepository stores the widget list in store under key.
func NewWidgetRepository(store storage.Store, key string) WidgetRepository {
	return &widgetRepository{store: store, key: key}
}

// LoadWidgets returns the saved list, or nil when nothing was saved yet.
func (r *widgetRepository) LoadWidgets(ctx context.Context) ([]model.WidgetConfig, error) {
	raw, err := r.store.Get(ctx, r.key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var widgets []model.WidgetConfig
	if err := json.Unmarshal([]byte(raw), &widgets); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	for i, w := range widgets {
		if w.ID == "" || w.City == "" {
			return nil, fmt.Errorf("%w: entry %d has no id or city", ErrMalformedState, i)
		}
	}
	return widgets, nil
}

func (r *widgetRepository) SaveWidgets(ctx context.Context, widgets []model.WidgetConfig) error {
	if widgets == nil {
		widgets = []model.WidgetConfig{}
	}
	b, err := json.Marshal(widgets)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, r.key, string(b))
}
