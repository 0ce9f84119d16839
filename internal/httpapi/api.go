// Package httpapi is the HTTP surface of the MES backend. Routing stays on
// net/http; handlers parse path segments by hand.
package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"mesworks.org/internal/auth"
	"mesworks.org/internal/mes"
	"mesworks.org/internal/obs"
)

// ReadyProbe — простая проверка готовности (например, ping БД).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API — HTTP слой.
type API struct {
	mux        *http.ServeMux
	auth       *auth.Service
	mes        *mes.Service
	readyProbe ReadyProbe
	version    string
}

func New(authsvc *auth.Service, mesService *mes.Service, rp ReadyProbe, version string) *API {
	a := &API{
		mux:        http.NewServeMux(),
		auth:       authsvc,
		mes:        mesService,
		readyProbe: rp,
		version:    version,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// auth
	a.mux.HandleFunc("/v1/auth/token", a.handleAuthToken)
	a.mux.HandleFunc("/v1/auth/permissions", a.handleAuthPermissions)
	a.mux.HandleFunc("/v1/users/register-admin", a.handleRegisterAdmin)
	// deprecated alias kept for older shop-floor clients
	a.mux.HandleFunc("/v1/users/login", a.handleAuthToken)

	// users
	a.mux.HandleFunc("/v1/users", a.handleUsers)
	a.mux.HandleFunc("/v1/users/", a.handleUserResource)

	// assets
	a.mux.HandleFunc("/v1/stations", a.handleStations)
	a.mux.HandleFunc("/v1/stations/", a.handleStationResource)
	a.mux.HandleFunc("/v1/lines", a.handleLines)
	a.mux.HandleFunc("/v1/lines/", a.handleLineResource)

	// tracking
	a.mux.HandleFunc("/v1/workorders", a.handleWorkOrders)
	a.mux.HandleFunc("/v1/workorders/", a.handleWorkOrderResource)
	a.mux.HandleFunc("/v1/bookings", a.handleBookings)
	a.mux.HandleFunc("/v1/bookings/", a.handleBookingResource)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler возвращает http.Handler для сервера (без доп. аргументов).
func (a *API) Handler() http.Handler {
	// оборачиваем весь mux авторизацией и метриками
	return obs.Instrument(a.withAuth(a.mux))
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "mesworks-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "mesworks-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
