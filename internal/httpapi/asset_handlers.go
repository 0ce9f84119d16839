package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"mesworks.org/internal/audit"
	"mesworks.org/internal/auth"
	"mesworks.org/internal/mes"
)

var (
	permStationCreate = auth.MustPermission("station:create")
	permStationRead   = auth.MustPermission("station:read")
	permStationUpdate = auth.MustPermission("station:update")
	permStationDelete = auth.MustPermission("station:delete")

	permLineCreate = auth.MustPermission("line:create")
	permLineRead   = auth.MustPermission("line:read")
	permLineUpdate = auth.MustPermission("line:update")
	permLineDelete = auth.MustPermission("line:delete")
)

type stationRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type stationUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (a *API) handleStations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !a.ensurePermission(w, r, permStationRead) {
			return
		}
		stations, err := a.mes.Stations(r.Context())
		if err != nil {
			handleMESError(w, r, err)
			return
		}
		if stations == nil {
			stations = []mes.Station{}
		}
		writeJSON(w, http.StatusOK, stations)
	case http.MethodPost:
		if !a.ensurePermission(w, r, permStationCreate) {
			return
		}
		var req stationRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		station, err := a.mes.CreateStation(r.Context(), req.Name, req.Description)
		if err != nil {
			handleMESError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "station.create", map[string]any{
			"station_id": station.ID,
			"name":       station.Name,
		})
		w.Header().Set("Location", fmt.Sprintf("/v1/stations/%d", station.ID))
		writeJSON(w, http.StatusCreated, station)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleStationResource(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r.URL.Path, "/v1/stations/")
	if !ok {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		if !a.ensurePermission(w, r, permStationRead) {
			return
		}
		station, err := a.mes.StationByID(r.Context(), id)
		if err != nil {
			handleMESError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, station)
	case http.MethodPut:
		if !a.ensurePermission(w, r, permStationUpdate) {
			return
		}
		var req stationUpdateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		station, err := a.mes.UpdateStation(r.Context(), id, mes.StationUpdate{
			Name:        req.Name,
			Description: req.Description,
		})
		if err != nil {
			handleMESError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "station.update", map[string]any{"station_id": id})
		writeJSON(w, http.StatusOK, station)
	case http.MethodDelete:
		if !a.ensurePermission(w, r, permStationDelete) {
			return
		}
		if err := a.mes.DeleteStation(r.Context(), id); err != nil {
			handleMESError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "station.delete", map[string]any{"station_id": id})
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

type lineRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	StationIDs  []int64 `json:"station_ids"`
}

type lineUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	StationIDs  []int64 `json:"station_ids"`
}

func (a *API) handleLines(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !a.ensurePermission(w, r, permLineRead) {
			return
		}
		lines, err := a.listLines(r)
		if err != nil {
			handleMESError(w, r, err)
			return
		}
		if lines == nil {
			lines = []mes.Line{}
		}
		writeJSON(w, http.StatusOK, lines)
	case http.MethodPost:
		if !a.ensurePermission(w, r, permLineCreate) {
			return
		}
		var req lineRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		line, err := a.mes.CreateLine(r.Context(), req.Name, req.Description, req.StationIDs)
		if err != nil {
			handleMESError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "line.create", map[string]any{
			"line_id": line.ID,
			"name":    line.Name,
		})
		w.Header().Set("Location", fmt.Sprintf("/v1/lines/%d", line.ID))
		writeJSON(w, http.StatusCreated, line)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listLines(r *http.Request) ([]mes.Line, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("station_id"))
	if raw == "" {
		return a.mes.Lines(r.Context())
	}
	stationID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: station_id must be an integer", mes.ErrInvalidInput)
	}
	return a.mes.LinesByStationID(r.Context(), stationID)
}

func (a *API) handleLineResource(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r.URL.Path, "/v1/lines/")
	if !ok {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		if !a.ensurePermission(w, r, permLineRead) {
			return
		}
		line, err := a.mes.LineByID(r.Context(), id)
		if err != nil {
			handleMESError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, line)
	case http.MethodPut:
		if !a.ensurePermission(w, r, permLineUpdate) {
			return
		}
		var req lineUpdateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		line, err := a.mes.UpdateLine(r.Context(), id, mes.LineUpdate{
			Name:        req.Name,
			Description: req.Description,
			StationIDs:  req.StationIDs,
		})
		if err != nil {
			handleMESError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "line.update", map[string]any{"line_id": id})
		writeJSON(w, http.StatusOK, line)
	case http.MethodDelete:
		if !a.ensurePermission(w, r, permLineDelete) {
			return
		}
		if err := a.mes.DeleteLine(r.Context(), id); err != nil {
			handleMESError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "line.delete", map[string]any{"line_id": id})
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}
