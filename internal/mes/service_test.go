package mes

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

type stubStationStore struct {
	createFn func(context.Context, *Station) error
	updateFn func(context.Context, int64, StationUpdate) (Station, error)
}

func (s *stubStationStore) GetAll(context.Context) ([]Station, error)       { return nil, nil }
func (s *stubStationStore) GetByID(context.Context, int64) (Station, error) { return Station{}, nil }
func (s *stubStationStore) Create(ctx context.Context, st *Station) error {
	if s.createFn != nil {
		return s.createFn(ctx, st)
	}
	return nil
}
func (s *stubStationStore) Update(ctx context.Context, id int64, upd StationUpdate) (Station, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, id, upd)
	}
	return Station{}, nil
}
func (s *stubStationStore) Delete(context.Context, int64) error { return nil }

type stubLineStore struct {
	createFn func(context.Context, *Line) error
	updateFn func(context.Context, int64, LineUpdate) (Line, error)
}

func (s *stubLineStore) GetAll(context.Context) ([]Line, error)              { return nil, nil }
func (s *stubLineStore) GetByID(context.Context, int64) (Line, error)        { return Line{}, nil }
func (s *stubLineStore) GetByStationID(context.Context, int64) ([]Line, error) { return nil, nil }
func (s *stubLineStore) Create(ctx context.Context, l *Line) error {
	if s.createFn != nil {
		return s.createFn(ctx, l)
	}
	return nil
}
func (s *stubLineStore) Update(ctx context.Context, id int64, upd LineUpdate) (Line, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, id, upd)
	}
	return Line{}, nil
}
func (s *stubLineStore) Delete(context.Context, int64) error { return nil }

type stubWorkOrderStore struct {
	createFn func(context.Context, *WorkOrder) error
}

func (s *stubWorkOrderStore) GetAll(context.Context) ([]WorkOrder, error) { return nil, nil }
func (s *stubWorkOrderStore) GetByID(context.Context, int64) (WorkOrder, error) {
	return WorkOrder{}, nil
}
func (s *stubWorkOrderStore) Create(ctx context.Context, wo *WorkOrder) error {
	if s.createFn != nil {
		return s.createFn(ctx, wo)
	}
	return nil
}
func (s *stubWorkOrderStore) Update(context.Context, int64, WorkOrderUpdate) (WorkOrder, error) {
	return WorkOrder{}, nil
}
func (s *stubWorkOrderStore) Delete(context.Context, int64) error { return nil }

type stubBookingStore struct{}

func (s *stubBookingStore) GetAll(context.Context) ([]Booking, error)       { return nil, nil }
func (s *stubBookingStore) GetByID(context.Context, int64) (Booking, error) { return Booking{}, nil }
func (s *stubBookingStore) Create(context.Context, *Booking) error          { return nil }
func (s *stubBookingStore) Update(context.Context, int64, BookingUpdate) (Booking, error) {
	return Booking{}, nil
}
func (s *stubBookingStore) Delete(context.Context, int64) error { return nil }

func newStubService(t *testing.T, stations StationStore, lines LineStore, workorders WorkOrderStore) *Service {
	t.Helper()
	if stations == nil {
		stations = &stubStationStore{}
	}
	if lines == nil {
		lines = &stubLineStore{}
	}
	if workorders == nil {
		workorders = &stubWorkOrderStore{}
	}
	svc, err := NewService(stations, lines, workorders, &stubBookingStore{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestCreateStationTrimsAndValidates(t *testing.T) {
	var captured Station
	stations := &stubStationStore{createFn: func(_ context.Context, st *Station) error {
		captured = *st
		st.ID = 1
		return nil
	}}
	svc := newStubService(t, stations, nil, nil)

	if _, err := svc.CreateStation(context.Background(), "   ", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	station, err := svc.CreateStation(context.Background(), "  Drill 4 ", " left bay ")
	if err != nil {
		t.Fatalf("CreateStation: %v", err)
	}
	if captured.Name != "Drill 4" || captured.Description != "left bay" {
		t.Fatalf("expected trimmed fields, got %+v", captured)
	}
	if station.ID != 1 {
		t.Fatalf("expected store-assigned id")
	}
}

func TestCreateLineRequiresStations(t *testing.T) {
	svc := newStubService(t, nil, nil, nil)

	if _, err := svc.CreateLine(context.Background(), "Line A", "", nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty station list, got %v", err)
	}
	if _, err := svc.CreateLine(context.Background(), "Line A", "", []int64{0}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for non-positive id, got %v", err)
	}
}

func TestCreateLineDeduplicatesStationIDs(t *testing.T) {
	var captured Line
	lines := &stubLineStore{createFn: func(_ context.Context, l *Line) error {
		captured = *l
		return nil
	}}
	svc := newStubService(t, nil, lines, nil)

	if _, err := svc.CreateLine(context.Background(), "Line A", "", []int64{3, 1, 3, 2}); err != nil {
		t.Fatalf("CreateLine: %v", err)
	}
	if !reflect.DeepEqual(captured.StationIDs, []int64{3, 1, 2}) {
		t.Fatalf("expected deduplicated ids, got %v", captured.StationIDs)
	}
}

func TestUpdateWorkOrderValidatesState(t *testing.T) {
	svc := newStubService(t, nil, nil, nil)

	bad := "paused"
	if _, err := svc.UpdateWorkOrder(context.Background(), 1, WorkOrderUpdate{State: &bad}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad state, got %v", err)
	}

	qty := int64(-5)
	if _, err := svc.UpdateWorkOrder(context.Background(), 1, WorkOrderUpdate{Quantity: &qty}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative quantity, got %v", err)
	}
}

func TestCreateWorkOrderDefaultsToOpen(t *testing.T) {
	var captured WorkOrder
	workorders := &stubWorkOrderStore{createFn: func(_ context.Context, wo *WorkOrder) error {
		captured = *wo
		return nil
	}}
	svc := newStubService(t, nil, nil, workorders)

	due := time.Now().Add(48 * time.Hour)
	if _, err := svc.CreateWorkOrder(context.Background(), "WO-1001", "P-77", 50, &due); err != nil {
		t.Fatalf("CreateWorkOrder: %v", err)
	}
	if captured.State != WorkOrderOpen {
		t.Fatalf("expected open state, got %s", captured.State)
	}
}

func TestCreateBookingValidation(t *testing.T) {
	svc := newStubService(t, nil, nil, nil)

	if _, err := svc.CreateBooking(context.Background(), 0, 1, 5, 0, time.Time{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing workorder, got %v", err)
	}
	if _, err := svc.CreateBooking(context.Background(), 1, 1, -1, 0, time.Time{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative quantity, got %v", err)
	}
}

func TestDiffStationIDs(t *testing.T) {
	cases := []struct {
		name            string
		current         []int64
		desired         []int64
		wantAdd         []int64
		wantRemove      []int64
	}{
		{"no change", []int64{1, 2}, []int64{2, 1}, nil, nil},
		{"pure addition", []int64{1}, []int64{1, 2, 3}, []int64{2, 3}, nil},
		{"pure removal", []int64{1, 2, 3}, []int64{2}, nil, []int64{1, 3}},
		{"swap", []int64{1, 2}, []int64{2, 3}, []int64{3}, []int64{1}},
		{"clear all", []int64{4, 5}, nil, nil, []int64{4, 5}},
		{"from empty", nil, []int64{9}, []int64{9}, nil},
	}
	for _, tc := range cases {
		add, remove := DiffStationIDs(tc.current, tc.desired)
		if !reflect.DeepEqual(add, tc.wantAdd) {
			t.Fatalf("%s: add=%v, want %v", tc.name, add, tc.wantAdd)
		}
		if !reflect.DeepEqual(remove, tc.wantRemove) {
			t.Fatalf("%s: remove=%v, want %v", tc.name, remove, tc.wantRemove)
		}
	}
}
