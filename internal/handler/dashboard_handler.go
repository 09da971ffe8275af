package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/fakhrymubarak/weather-dashboard/internal/config"
	"github.com/fakhrymubarak/weather-dashboard/internal/dashboard"
	"github.com/fakhrymubarak/weather-dashboard/internal/model"
	"github.com/fakhrymubarak/weather-dashboard/internal/repository"
	"github.com/fakhrymubarak/weather-dashboard/internal/service"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Dashboard is the widget store as seen by HTTP callers.
type Dashboard interface {
	AddWidget(ctx context.Context, city string, lat, lon float64, country string) error
	RemoveWidget(ctx context.Context, id string)
	UpdateWidgetPosition(ctx context.Context, id string, x, y, srcIndex, destIndex int)
	UpdateWidgetConfig(ctx context.Context, id string, patch model.WidgetPatch) error
	RefreshWeatherData(ctx context.Context, widgetID string) error
	View() []model.WidgetView
	IsLoading() bool
}

// NotificationSource hands out pending notifications once.
type NotificationSource interface {
	Drain() []model.Notification
}

type DashboardHandler struct {
	WeatherService service.WeatherServiceInterface
	Dashboard      Dashboard
	Notifications  NotificationSource
	logger         *zap.SugaredLogger
	validate       *validator.Validate
}

func NewDashboardHandler(svc service.WeatherServiceInterface, store Dashboard, notifications NotificationSource) *DashboardHandler {
	return &DashboardHandler{
		WeatherService: svc,
		Dashboard:      store,
		Notifications:  notifications,
		logger:         config.GetLogger(),
		validate:       validator.New(),
	}
}

type addWidgetRequest struct {
	City    string   `json:"city" validate:"required"`
	Lat     *float64 `json:"lat" validate:"required,latitude"`
	Lon     *float64 `json:"lon" validate:"required,longitude"`
	Country string   `json:"country"`
}

type positionRequest struct {
	X         int `json:"x"`
	Y         int `json:"y"`
	SrcIndex  int `json:"srcIndex"`
	DestIndex int `json:"destIndex"`
}

type dashboardResponse struct {
	Widgets   []model.WidgetView `json:"widgets"`
	IsLoading bool               `json:"isLoading"`
}

// Routes registers every endpoint. limit wraps the routes that spend
// OpenWeatherMap quota.
func (h *DashboardHandler) Routes(limit func(http.Handler) http.Handler) *http.ServeMux {
	if limit == nil {
		limit = func(next http.Handler) http.Handler { return next }
	}
	mux := http.NewServeMux()
	mux.Handle("GET /api/locations", limit(http.HandlerFunc(h.HandleSearchLocations)))
	mux.HandleFunc("GET /api/widgets", h.HandleGetDashboard)
	mux.Handle("POST /api/widgets", limit(http.HandlerFunc(h.HandleAddWidget)))
	mux.HandleFunc("DELETE /api/widgets/{id}", h.HandleRemoveWidget)
	mux.HandleFunc("PATCH /api/widgets/{id}", h.HandleUpdateWidgetConfig)
	mux.HandleFunc("PUT /api/widgets/{id}/position", h.HandleUpdateWidgetPosition)
	mux.Handle("POST /api/refresh", limit(http.HandlerFunc(h.HandleRefresh)))
	mux.HandleFunc("GET /api/notifications", h.HandleNotifications)
	mux.HandleFunc("GET /health", h.HandleHealth)
	return mux
}

func (h *DashboardHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Errorw("could not encode json", "error", err)
	}
}

func (h *DashboardHandler) writeError(w http.ResponseWriter, statusCode int, errMsg string) {
	h.writeJSONResponse(w, statusCode, model.Response{
		Error:   &errMsg,
		Message: "Error",
	})
}

func (h *DashboardHandler) writeSuccess(w http.ResponseWriter, statusCode int, data interface{}) {
	h.writeJSONResponse(w, statusCode, model.Response{
		Data:    data,
		Message: "Success",
	})
}

// writeServiceError maps store and upstream errors to status codes.
func (h *DashboardHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dashboard.ErrCityExists):
		h.writeError(w, http.StatusConflict, "City is already on the dashboard")
	case errors.Is(err, dashboard.ErrInvalidConfig), errors.Is(err, repository.ErrEmptyQuery):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrAPIKeyMissing):
		h.writeError(w, http.StatusInternalServerError, "Weather API key is not configured")
	case errors.Is(err, repository.ErrExternalAPI):
		h.writeError(w, http.StatusBadGateway, "Failed to fetch weather data")
	case errors.Is(err, context.DeadlineExceeded):
		h.writeError(w, http.StatusGatewayTimeout, "Weather service timed out")
	default:
		h.logger.Errorw("Unhandled dashboard error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *DashboardHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func (h *DashboardHandler) HandleSearchLocations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "Missing 'q' query parameter")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 10 {
			h.writeError(w, http.StatusBadRequest, "'limit' must be between 1 and 10")
			return
		}
		limit = n
	}

	locations, err := h.WeatherService.SearchLocation(r.Context(), query, limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeSuccess(w, http.StatusOK, locations)
}

func (h *DashboardHandler) HandleGetDashboard(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, http.StatusOK, h.dashboardView())
}

func (h *DashboardHandler) HandleAddWidget(w http.ResponseWriter, r *http.Request) {
	var req addWidgetRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.Dashboard.AddWidget(r.Context(), req.City, *req.Lat, *req.Lon, req.Country); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeSuccess(w, http.StatusCreated, h.dashboardView())
}

func (h *DashboardHandler) HandleRemoveWidget(w http.ResponseWriter, r *http.Request) {
	h.Dashboard.RemoveWidget(r.Context(), r.PathValue("id"))
	h.writeSuccess(w, http.StatusOK, h.dashboardView())
}

func (h *DashboardHandler) HandleUpdateWidgetConfig(w http.ResponseWriter, r *http.Request) {
	var patch model.WidgetPatch
	if !h.decode(w, r, &patch) {
		return
	}
	if err := h.Dashboard.UpdateWidgetConfig(r.Context(), r.PathValue("id"), patch); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeSuccess(w, http.StatusOK, h.dashboardView())
}

func (h *DashboardHandler) HandleUpdateWidgetPosition(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.Dashboard.UpdateWidgetPosition(r.Context(), r.PathValue("id"), req.X, req.Y, req.SrcIndex, req.DestIndex)
	h.writeSuccess(w, http.StatusOK, h.dashboardView())
}

func (h *DashboardHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.Dashboard.RefreshWeatherData(r.Context(), r.URL.Query().Get("widget")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeSuccess(w, http.StatusOK, h.dashboardView())
}

func (h *DashboardHandler) HandleNotifications(w http.ResponseWriter, r *http.Request) {
	var pending []model.Notification
	if h.Notifications != nil {
		pending = h.Notifications.Drain()
	}
	if pending == nil {
		pending = []model.Notification{}
	}
	h.writeSuccess(w, http.StatusOK, pending)
}

func (h *DashboardHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *DashboardHandler) dashboardView() dashboardResponse {
	return dashboardResponse{Widgets: h.Dashboard.View(), IsLoading: h.Dashboard.IsLoading()}
}
