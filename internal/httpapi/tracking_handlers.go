package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"mesworks.org/internal/audit"
	"mesworks.org/internal/auth"
	"mesworks.org/internal/mes"
)

var (
	permWorkOrderCreate = auth.MustPermission("workorder:create")
	permWorkOrderRead   = auth.MustPermission("workorder:read")
	permWorkOrderUpdate = auth.MustPermission("workorder:update")
	permWorkOrderDelete = auth.MustPermission("workorder:delete")

	permBookingCreate = auth.MustPermission("booking:create")
	permBookingRead   = auth.MustPermission("booking:read")
	permBookingUpdate = auth.MustPermission("booking:update")
	permBookingDelete = auth.MustPermission("booking:delete")
)

type workOrderRequest struct {
	Number     string     `json:"number"`
	PartNumber string     `json:"part_number"`
	Quantity   int64      `json:"quantity"`
	DueDate    *time.Time `json:"due_date"`
}

type workOrderUpdateRequest struct {
	PartNumber *string `json:"part_number"`
	Quantity   *int64  `json:"quantity"`
	State      *string `json:"state"`
}

func (a *API) handleWorkOrders(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !a.ensurePermission(w, r, permWorkOrderRead) {
			return
		}
		orders, err := a.mes.WorkOrders(r.Context())
		if err != nil {
			handleMESError(w, r, err)
			return
		}
		if orders == nil {
			orders = []mes.WorkOrder{}
		}
		writeJSON(w, http.StatusOK, orders)
	case http.MethodPost:
		if !a.ensurePermission(w, r, permWorkOrderCreate) {
			return
		}
		var req workOrderRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		wo, err := a.mes.CreateWorkOrder(r.Context(), req.Number, req.PartNumber, req.Quantity, req.DueDate)
		if err != nil {
			handleMESError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "workorder.create", map[string]any{
			"workorder_id": wo.ID,
			"number":       wo.Number,
		})
		w.Header().Set("Location", fmt.Sprintf("/v1/workorders/%d", wo.ID))
		writeJSON(w, http.StatusCreated, wo)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleWorkOrderResource(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r.URL.Path, "/v1/workorders/")
	if !ok {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		if !a.ensurePermission(w, r, permWorkOrderRead) {
			return
		}
		wo, err := a.mes.WorkOrderByID(r.Context(), id)
		if err != nil {
			handleMESError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, wo)
	case http.MethodPut:
		if !a.ensurePermission(w, r, permWorkOrderUpdate) {
			return
		}
		var req workOrderUpdateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		wo, err := a.mes.UpdateWorkOrder(r.Context(), id, mes.WorkOrderUpdate{
			PartNumber: req.PartNumber,
			Quantity:   req.Quantity,
			State:      req.State,
		})
		if err != nil {
			handleMESError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "workorder.update", map[string]any{"workorder_id": id})
		writeJSON(w, http.StatusOK, wo)
	case http.MethodDelete:
		if !a.ensurePermission(w, r, permWorkOrderDelete) {
			return
		}
		if err := a.mes.DeleteWorkOrder(r.Context(), id); err != nil {
			handleMESError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "workorder.delete", map[string]any{"workorder_id": id})
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

type bookingRequest struct {
	WorkOrderID int64     `json:"workorder_id"`
	StationID   int64     `json:"station_id"`
	Quantity    int64     `json:"quantity"`
	Scrap       int64     `json:"scrap"`
	BookedAt    time.Time `json:"booked_at"`
}

type bookingUpdateRequest struct {
	Quantity *int64 `json:"quantity"`
	Scrap    *int64 `json:"scrap"`
}

func (a *API) handleBookings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !a.ensurePermission(w, r, permBookingRead) {
			return
		}
		bookings, err := a.mes.Bookings(r.Context())
		if err != nil {
			handleMESError(w, r, err)
			return
		}
		if bookings == nil {
			bookings = []mes.Booking{}
		}
		writeJSON(w, http.StatusOK, bookings)
	case http.MethodPost:
		if !a.ensurePermission(w, r, permBookingCreate) {
			return
		}
		var req bookingRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		booking, err := a.mes.CreateBooking(r.Context(), req.WorkOrderID, req.StationID, req.Quantity, req.Scrap, req.BookedAt)
		if err != nil {
			handleMESError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "booking.create", map[string]any{
			"booking_id":   booking.ID,
			"workorder_id": booking.WorkOrderID,
			"station_id":   booking.StationID,
		})
		w.Header().Set("Location", fmt.Sprintf("/v1/bookings/%d", booking.ID))
		writeJSON(w, http.StatusCreated, booking)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleBookingResource(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r.URL.Path, "/v1/bookings/")
	if !ok {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		if !a.ensurePermission(w, r, permBookingRead) {
			return
		}
		booking, err := a.mes.BookingByID(r.Context(), id)
		if err != nil {
			handleMESError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, booking)
	case http.MethodPut:
		if !a.ensurePermission(w, r, permBookingUpdate) {
			return
		}
		var req bookingUpdateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		booking, err := a.mes.UpdateBooking(r.Context(), id, mes.BookingUpdate{
			Quantity: req.Quantity,
			Scrap:    req.Scrap,
		})
		if err != nil {
			handleMESError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "booking.update", map[string]any{"booking_id": id})
		writeJSON(w, http.StatusOK, booking)
	case http.MethodDelete:
		if !a.ensurePermission(w, r, permBookingDelete) {
			return
		}
		if err := a.mes.DeleteBooking(r.Context(), id); err != nil {
			handleMESError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "booking.delete", map[string]any{"booking_id": id})
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}
