package mes

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Service validates inputs and forwards to the stores. It performs no
// authorization; the HTTP layer gates every call with a catalog permission.
type Service struct {
	stations   StationStore
	lines      LineStore
	workorders WorkOrderStore
	bookings   BookingStore
}

// NewService wires the resource stores.
func NewService(stations StationStore, lines LineStore, workorders WorkOrderStore, bookings BookingStore) (*Service, error) {
	if stations == nil || lines == nil || workorders == nil || bookings == nil {
		return nil, fmt.Errorf("mes: all stores are required")
	}
	return &Service{stations: stations, lines: lines, workorders: workorders, bookings: bookings}, nil
}

// Stations --------------------------------------------------------------

func (s *Service) Stations(ctx context.Context) ([]Station, error) {
	return s.stations.GetAll(ctx)
}

func (s *Service) StationByID(ctx context.Context, id int64) (Station, error) {
	return s.stations.GetByID(ctx, id)
}

func (s *Service) CreateStation(ctx context.Context, name, description string) (Station, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Station{}, fmt.Errorf("%w: station name is required", ErrInvalidInput)
	}
	station := Station{Name: name, Description: strings.TrimSpace(description)}
	if err := s.stations.Create(ctx, &station); err != nil {
		return Station{}, err
	}
	return station, nil
}

func (s *Service) UpdateStation(ctx context.Context, id int64, upd StationUpdate) (Station, error) {
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return Station{}, fmt.Errorf("%w: station name is required", ErrInvalidInput)
		}
		upd.Name = &name
	}
	return s.stations.Update(ctx, id, upd)
}

func (s *Service) DeleteStation(ctx context.Context, id int64) error {
	return s.stations.Delete(ctx, id)
}

// Lines -----------------------------------------------------------------

func (s *Service) Lines(ctx context.Context) ([]Line, error) {
	return s.lines.GetAll(ctx)
}

func (s *Service) LineByID(ctx context.Context, id int64) (Line, error) {
	return s.lines.GetByID(ctx, id)
}

func (s *Service) LinesByStationID(ctx context.Context, stationID int64) ([]Line, error) {
	if stationID <= 0 {
		return nil, fmt.Errorf("%w: station_id is required", ErrInvalidInput)
	}
	return s.lines.GetByStationID(ctx, stationID)
}

func (s *Service) CreateLine(ctx context.Context, name, description string, stationIDs []int64) (Line, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Line{}, fmt.Errorf("%w: line name is required", ErrInvalidInput)
	}
	ids, err := normalizeStationIDs(stationIDs)
	if err != nil {
		return Line{}, err
	}
	if len(ids) == 0 {
		return Line{}, fmt.Errorf("%w: at least one station id is required", ErrInvalidInput)
	}
	line := Line{Name: name, Description: strings.TrimSpace(description), StationIDs: ids}
	if err := s.lines.Create(ctx, &line); err != nil {
		return Line{}, err
	}
	return line, nil
}

func (s *Service) UpdateLine(ctx context.Context, id int64, upd LineUpdate) (Line, error) {
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return Line{}, fmt.Errorf("%w: line name is required", ErrInvalidInput)
		}
		upd.Name = &name
	}
	if upd.StationIDs != nil {
		ids, err := normalizeStationIDs(upd.StationIDs)
		if err != nil {
			return Line{}, err
		}
		upd.StationIDs = ids
	}
	return s.lines.Update(ctx, id, upd)
}

func (s *Service) DeleteLine(ctx context.Context, id int64) error {
	return s.lines.Delete(ctx, id)
}

// Work orders -----------------------------------------------------------

func (s *Service) WorkOrders(ctx context.Context) ([]WorkOrder, error) {
	return s.workorders.GetAll(ctx)
}

func (s *Service) WorkOrderByID(ctx context.Context, id int64) (WorkOrder, error) {
	return s.workorders.GetByID(ctx, id)
}

func (s *Service) CreateWorkOrder(ctx context.Context, number, partNumber string, quantity int64, dueDate *time.Time) (WorkOrder, error) {
	number = strings.TrimSpace(number)
	partNumber = strings.TrimSpace(partNumber)
	if number == "" || partNumber == "" {
		return WorkOrder{}, fmt.Errorf("%w: number and part_number are required", ErrInvalidInput)
	}
	if quantity <= 0 {
		return WorkOrder{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	wo := WorkOrder{Number: number, PartNumber: partNumber, Quantity: quantity, State: WorkOrderOpen, DueDate: dueDate}
	if err := s.workorders.Create(ctx, &wo); err != nil {
		return WorkOrder{}, err
	}
	return wo, nil
}

func (s *Service) UpdateWorkOrder(ctx context.Context, id int64, upd WorkOrderUpdate) (WorkOrder, error) {
	if upd.Quantity != nil && *upd.Quantity <= 0 {
		return WorkOrder{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	if upd.State != nil {
		state := strings.TrimSpace(strings.ToLower(*upd.State))
		switch state {
		case WorkOrderOpen, WorkOrderRunning, WorkOrderDone, WorkOrderCanceled:
		default:
			return WorkOrder{}, fmt.Errorf("%w: unsupported state %q", ErrInvalidInput, state)
		}
		upd.State = &state
	}
	return s.workorders.Update(ctx, id, upd)
}

func (s *Service) DeleteWorkOrder(ctx context.Context, id int64) error {
	return s.workorders.Delete(ctx, id)
}

// Bookings --------------------------------------------------------------

func (s *Service) Bookings(ctx context.Context) ([]Booking, error) {
	return s.bookings.GetAll(ctx)
}

func (s *Service) BookingByID(ctx context.Context, id int64) (Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

func (s *Service) CreateBooking(ctx context.Context, workOrderID, stationID, quantity, scrap int64, bookedAt time.Time) (Booking, error) {
	if workOrderID <= 0 || stationID <= 0 {
		return Booking{}, fmt.Errorf("%w: workorder_id and station_id are required", ErrInvalidInput)
	}
	if quantity < 0 || scrap < 0 {
		return Booking{}, fmt.Errorf("%w: quantities must not be negative", ErrInvalidInput)
	}
	if bookedAt.IsZero() {
		bookedAt = time.Now().UTC()
	}
	b := Booking{WorkOrderID: workOrderID, StationID: stationID, Quantity: quantity, Scrap: scrap, BookedAt: bookedAt}
	if err := s.bookings.Create(ctx, &b); err != nil {
		return Booking{}, err
	}
	return b, nil
}

func (s *Service) UpdateBooking(ctx context.Context, id int64, upd BookingUpdate) (Booking, error) {
	if upd.Quantity != nil && *upd.Quantity < 0 {
		return Booking{}, fmt.Errorf("%w: quantity must not be negative", ErrInvalidInput)
	}
	if upd.Scrap != nil && *upd.Scrap < 0 {
		return Booking{}, fmt.Errorf("%w: scrap must not be negative", ErrInvalidInput)
	}
	return s.bookings.Update(ctx, id, upd)
}

func (s *Service) DeleteBooking(ctx context.Context, id int64) error {
	return s.bookings.Delete(ctx, id)
}

// DiffStationIDs computes which associations to add and remove to move the
// current station set to the desired one. Both outputs are sorted.
func DiffStationIDs(current, desired []int64) (add, remove []int64) {
	have := make(map[int64]struct{}, len(current))
	for _, id := range current {
		have[id] = struct{}{}
	}
	want := make(map[int64]struct{}, len(desired))
	for _, id := range desired {
		want[id] = struct{}{}
	}
	for id := range want {
		if _, ok := have[id]; !ok {
			add = append(add, id)
		}
	}
	for id := range have {
		if _, ok := want[id]; !ok {
			remove = append(remove, id)
		}
	}
	sort.Slice(add, func(i, j int) bool { return add[i] < add[j] })
	sort.Slice(remove, func(i, j int) bool { return remove[i] < remove[j] })
	return add, remove
}

func normalizeStationIDs(ids []int64) ([]int64, error) {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return nil, fmt.Errorf("%w: station ids must be positive", ErrInvalidInput)
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}
