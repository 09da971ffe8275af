package dashboard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/fakhrymubarak/weather-dashboard/internal/model"
	"github.com/fakhrymubarak/weather-dashboard/internal/notify"
)

// RefreshWeatherData re-fetches one widget when widgetID is set, otherwise
// every widget concurrently. The all-widget form emits exactly one
// notification and returns the joined per-widget errors.
func (s *Store) RefreshWeatherData(ctx context.Context, widgetID string) error {
	if widgetID != "" {
		return s.refreshOne(ctx, widgetID)
	}

	s.mu.Lock()
	s.batches++
	widgets := slices.Clone(s.widgets)
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.batches--
		s.mu.Unlock()
	}()

	var failed []error
	for i, err := range s.refreshAll(ctx, widgets) {
		if err != nil {
			s.logger.Errorw("Failed to refresh weather", "widget", widgets[i].ID, "city", widgets[i].City, "error", err)
			failed = append(failed, err)
		}
	}
	if len(failed) > 0 {
		s.notifier.Notify(notify.Failure("Update Failed",
			fmt.Sprintf("Failed to refresh weather data for %d of %d cities. Please try again.", len(failed), len(widgets))))
		return errors.Join(failed...)
	}
	s.notifier.Notify(notify.Success("Weather Updated", "All weather data has been refreshed."))
	return nil
}

func (s *Store) refreshOne(ctx context.Context, id string) error {
	w, ok := s.widget(id)
	if !ok {
		return nil
	}
	s.startLoading(id)
	defer s.doneLoading(id)

	if err := s.refreshWidget(ctx, w); err != nil {
		s.refreshFailed(w, err)
		return err
	}
	s.notifier.Notify(notify.Success("Weather Updated", fmt.Sprintf("Weather data for %s has been refreshed.", w.City)))
	return nil
}

// refreshAll refreshes widgets concurrently; errs[i] belongs to widgets[i].
func (s *Store) refreshAll(ctx context.Context, widgets []model.WidgetConfig) []error {
	errs := make([]error, len(widgets))
	var wg sync.WaitGroup
	for i, w := range widgets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = s.refreshWidget(ctx, w)
		}()
	}
	wg.Wait()
	return errs
}

// refreshWidget fetches and commits weather for w. A result is dropped when a
// newer refresh of the same widget started meanwhile or the widget is gone.
func (s *Store) refreshWidget(ctx context.Context, w model.WidgetConfig) error {
	lat, lon := s.coordinates(w)

	s.mu.Lock()
	s.seq[w.ID]++
	seq := s.seq[w.ID]
	s.mu.Unlock()

	data, err := s.fetcher.FetchWeather(ctx, w.City, lat, lon)
	if err != nil {
		return fmt.Errorf("%s: %w", w.City, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq[w.ID] != seq || s.indexLocked(w.ID) < 0 {
		s.logger.Debugw("Discarding stale weather result", "widget", w.ID, "city", w.City)
		return nil
	}
	s.weather[w.ID] = data
	return nil
}

func (s *Store) refreshFailed(w model.WidgetConfig, err error) {
	s.logger.Errorw("Failed to update weather", "widget", w.ID, "city", w.City, "error", err)
	s.notifier.Notify(notify.Failure("Failed to update weather",
		fmt.Sprintf("Could not update weather for %s. Please try again later.", w.City)))
}

func (s *Store) coordinates(w model.WidgetConfig) (float64, float64) {
	if w.HasCoordinates() {
		return *w.Latitude, *w.Longitude
	}
	return s.defaultLocation.Lat, s.defaultLocation.Lon
}
