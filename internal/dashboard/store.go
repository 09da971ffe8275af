// Package dashboard holds the widget store: the list of city widgets, their
// weather data and loading flags, persisted on every change of the list.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/fakhrymubarak/weather-dashboard/internal/config"
	"github.com/fakhrymubarak/weather-dashboard/internal/model"
	"github.com/fakhrymubarak/weather-dashboard/internal/notify"
	"github.com/fakhrymubarak/weather-dashboard/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrCityExists    = errors.New("city already on dashboard")
	ErrInvalidConfig = errors.New("invalid widget config")
)

// WeatherFetcher returns the view-model for one location.
type WeatherFetcher interface {
	FetchWeather(ctx context.Context, city string, lat, lon float64) (model.WeatherData, error)
}

// Options wires a Store. Fetcher and Widgets are required.
type Options struct {
	Fetcher  WeatherFetcher
	Widgets  repository.WidgetRepository
	Notifier notify.Notifier
	Logger   *zap.SugaredLogger
	// ForecastDays is the display default for new widgets (3, 5 or 7).
	ForecastDays int
	// DefaultLocation is used for saved widgets that have no coordinates.
	DefaultLocation model.GeoLocation
}

type Store struct {
	fetcher         WeatherFetcher
	repo            repository.WidgetRepository
	notifier        notify.Notifier
	logger          *zap.SugaredLogger
	validate        *validator.Validate
	forecastDays    int
	defaultLocation model.GeoLocation

	mu        sync.RWMutex
	widgets   []model.WidgetConfig
	weather   map[string]model.WeatherData
	batches   int            // in-flight all-widget refreshes
	loading   map[string]int // widget id (or city while adding) -> in-flight count
	seq       map[string]uint64
	version   uint64
	listeners []func()

	persistMu sync.Mutex
	persisted uint64
}

func NewStore(opts Options) *Store {
	s := &Store{
		fetcher:         opts.Fetcher,
		repo:            opts.Widgets,
		notifier:        opts.Notifier,
		logger:          opts.Logger,
		validate:        validator.New(),
		forecastDays:    opts.ForecastDays,
		defaultLocation: opts.DefaultLocation,
		weather:         make(map[string]model.WeatherData),
		loading:         make(map[string]int),
		seq:             make(map[string]uint64),
	}
	if s.logger == nil {
		s.logger = config.GetLogger()
	}
	if s.notifier == nil {
		s.notifier = notify.NewLogNotifier(s.logger)
	}
	switch s.forecastDays {
	case 3, 5, 7:
	default:
		s.forecastDays = 7
	}
	return s
}

// OnChange registers fn to run after every change to the widget list.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Load replaces the in-memory list with the saved one and refreshes every
// restored widget. Unreadable saved state is logged and treated as empty.
func (s *Store) Load(ctx context.Context) {
	widgets, err := s.repo.LoadWidgets(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrMalformedState) {
			s.logger.Errorw("Failed to parse saved widgets", "error", err)
		} else {
			s.logger.Errorw("Failed to load saved widgets", "error", err)
		}
		widgets = nil
	}

	s.mu.Lock()
	s.widgets = widgets
	s.weather = make(map[string]model.WeatherData)
	s.version++
	s.mu.Unlock()
	s.changed()

	s.logger.Infow("Restored widgets", "count", len(widgets))
	for i, err := range s.refreshAll(ctx, widgets) {
		if err != nil {
			s.refreshFailed(widgets[i], err)
		}
	}
}

// AddWidget fetches weather for the city and only then appends its widget, so
// a widget is never visible without data.
func (s *Store) AddWidget(ctx context.Context, city string, lat, lon float64, country string) error {
	city = strings.TrimSpace(city)
	if city == "" {
		return fmt.Errorf("%w: city is required", ErrInvalidConfig)
	}

	s.mu.Lock()
	if s.hasCityLocked(city) {
		s.mu.Unlock()
		s.duplicateCity(city)
		return ErrCityExists
	}
	s.loading[city]++
	s.mu.Unlock()
	defer s.doneLoading(city)

	id := "widget-" + uuid.NewString()
	data, err := s.fetcher.FetchWeather(ctx, city, lat, lon)
	if err != nil {
		s.logger.Errorw("Failed to add widget", "city", city, "error", err)
		s.notifier.Notify(notify.Failure("Failed to Add City", "There was an error adding this city. Please try again."))
		return fmt.Errorf("add %s: %w", city, err)
	}
	if data.Country == "" {
		data.Country = country
	}

	s.mu.Lock()
	// Another add for the same city may have committed while we were fetching.
	if s.hasCityLocked(city) {
		s.mu.Unlock()
		s.duplicateCity(city)
		return ErrCityExists
	}
	widget := model.WidgetConfig{
		ID:              id,
		City:            city,
		Position:        gridPosition(len(s.widgets)),
		ForecastDays:    s.forecastDays,
		IsHourlyVisible: true,
		Latitude:        &lat,
		Longitude:       &lon,
	}
	s.widgets = append(s.widgets, widget)
	s.weather[id] = data
	snapshot, version := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(ctx, snapshot, version)
	s.changed()
	s.notifier.Notify(notify.Success("Widget Added", fmt.Sprintf("%s has been added to your dashboard.", city)))
	return nil
}

// RemoveWidget drops the widget and its weather data. Unknown ids are ignored.
func (s *Store) RemoveWidget(ctx context.Context, id string) {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	removed := s.widgets[i]
	s.widgets = slices.Delete(s.widgets, i, i+1)
	delete(s.weather, id)
	delete(s.loading, id)
	delete(s.seq, id)
	snapshot, version := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(ctx, snapshot, version)
	s.changed()
	s.notifier.Notify(notify.Success("Widget Removed", fmt.Sprintf("%s has been removed from your dashboard.", removed.City)))
}

// UpdateWidgetPosition moves the widget at srcIndex to destIndex, then stamps
// {x,y} on the widget matching id in the reordered list. An out-of-range
// srcIndex skips the move, destIndex is clamped and an unknown id skips the stamp.
func (s *Store) UpdateWidgetPosition(ctx context.Context, id string, x, y, srcIndex, destIndex int) {
	s.mu.Lock()
	changed := false
	if srcIndex >= 0 && srcIndex < len(s.widgets) {
		moved := s.widgets[srcIndex]
		s.widgets = slices.Delete(s.widgets, srcIndex, srcIndex+1)
		dest := min(max(destIndex, 0), len(s.widgets))
		s.widgets = slices.Insert(s.widgets, dest, moved)
		changed = dest != srcIndex
	}
	if i := s.indexLocked(id); i >= 0 {
		s.widgets[i].Position = model.Position{X: x, Y: y}
		changed = true
	}
	if !changed {
		s.mu.Unlock()
		return
	}
	snapshot, version := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(ctx, snapshot, version)
	s.changed()
}

// UpdateWidgetConfig merges the set fields of patch into the widget. Unknown
// ids are ignored.
func (s *Store) UpdateWidgetConfig(ctx context.Context, id string, patch model.WidgetPatch) error {
	if err := s.validate.Struct(patch); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	w := &s.widgets[i]
	if patch.Position != nil {
		w.Position = *patch.Position
	}
	if patch.ForecastDays != nil {
		w.ForecastDays = *patch.ForecastDays
	}
	if patch.IsHourlyVisible != nil {
		w.IsHourlyVisible = *patch.IsHourlyVisible
	}
	if patch.Latitude != nil {
		lat := *patch.Latitude
		w.Latitude = &lat
	}
	if patch.Longitude != nil {
		lon := *patch.Longitude
		w.Longitude = &lon
	}
	snapshot, version := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(ctx, snapshot, version)
	s.changed()
	return nil
}

// Widgets returns a copy of the widget list in display order.
func (s *Store) Widgets() []model.WidgetConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.widgets)
}

// WeatherData returns a copy of the widget id -> weather map.
func (s *Store) WeatherData() map[string]model.WeatherData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]model.WeatherData, len(s.weather))
	for k, v := range s.weather {
		out[k] = v
	}
	return out
}

// Weather returns the data for one widget; ok is false while it is not loaded.
func (s *Store) Weather(id string) (model.WeatherData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.weather[id]
	return d, ok
}

// IsLoading reports whether an all-widget refresh is running.
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.batches > 0
}

// LoadingWidgets returns the keys with a refresh or add in flight.
func (s *Store) LoadingWidgets() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]bool, len(s.loading))
	for k, n := range s.loading {
		if n > 0 {
			out[k] = true
		}
	}
	return out
}

// View joins each widget with its weather, trimmed to the widget's display
// preferences: daily cut to ForecastDays, hourly dropped when hidden.
func (s *Store) View() []model.WidgetView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	views := make([]model.WidgetView, 0, len(s.widgets))
	for _, w := range s.widgets {
		v := model.WidgetView{Widget: w, Loading: s.loading[w.ID] > 0}
		if d, ok := s.weather[w.ID]; ok {
			if w.ForecastDays > 0 && len(d.Daily) > w.ForecastDays {
				d.Daily = slices.Clone(d.Daily[:w.ForecastDays])
			}
			if !w.IsHourlyVisible {
				d.Hourly = nil
			}
			v.Weather = &d
		}
		views = append(views, v)
	}
	return views
}

func gridPosition(index int) model.Position {
	return model.Position{X: (index % 3) * 10, Y: (index / 3) * 10}
}

func (s *Store) hasCityLocked(city string) bool {
	for _, w := range s.widgets {
		if strings.EqualFold(w.City, city) {
			return true
		}
	}
	return false
}

func (s *Store) indexLocked(id string) int {
	return slices.IndexFunc(s.widgets, func(w model.WidgetConfig) bool { return w.ID == id })
}

func (s *Store) widget(id string) (model.WidgetConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.widgets[i], true
	}
	return model.WidgetConfig{}, false
}

func (s *Store) duplicateCity(city string) {
	s.notifier.Notify(notify.Failure("City Already Added", fmt.Sprintf("%s is already on your dashboard.", city)))
}

func (s *Store) startLoading(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading[key]++
}

func (s *Store) doneLoading(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading[key] <= 1 {
		delete(s.loading, key)
		return
	}
	s.loading[key]--
}

func (s *Store) snapshotLocked() ([]model.WidgetConfig, uint64) {
	s.version++
	return slices.Clone(s.widgets), s.version
}

// persist writes snapshot unless a newer version has already been written.
// Failures are logged only.
func (s *Store) persist(ctx context.Context, snapshot []model.WidgetConfig, version uint64) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if version <= s.persisted {
		return
	}
	if err := s.repo.SaveWidgets(context.WithoutCancel(ctx), snapshot); err != nil {
		s.logger.Warnw("Failed to persist widgets", "count", len(snapshot), "error", err)
		return
	}
	s.persisted = version
}

func (s *Store) changed() {
	s.mu.RLock()
	listeners := slices.Clone(s.listeners)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn()
	}
}
