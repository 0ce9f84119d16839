package mes

import "context"

// StationStore manages stations.
type StationStore interface {
	GetAll(ctx context.Context) ([]Station, error)
	GetByID(ctx context.Context, id int64) (Station, error)
	Create(ctx context.Context, s *Station) error
	Update(ctx context.Context, id int64, upd StationUpdate) (Station, error)
	Delete(ctx context.Context, id int64) error
}

// StationUpdate is a partial update; nil fields are left untouched.
type StationUpdate struct {
	Name        *string
	Description *string
}

// LineStore manages lines and their station associations. Update reconciles
// StationIDs against the current association set inside one transaction.
type LineStore interface {
	GetAll(ctx context.Context) ([]Line, error)
	GetByID(ctx context.Context, id int64) (Line, error)
	GetByStationID(ctx context.Context, stationID int64) ([]Line, error)
	Create(ctx context.Context, l *Line) error
	Update(ctx context.Context, id int64, upd LineUpdate) (Line, error)
	Delete(ctx context.Context, id int64) error
}

// LineUpdate is a partial update. A non-nil StationIDs replaces the full
// association set; the store diffs it against the current one.
type LineUpdate struct {
	Name        *string
	Description *string
	StationIDs  []int64
}

// WorkOrderStore manages work orders.
type WorkOrderStore interface {
	GetAll(ctx context.Context) ([]WorkOrder, error)
	GetByID(ctx context.Context, id int64) (WorkOrder, error)
	Create(ctx context.Context, wo *WorkOrder) error
	Update(ctx context.Context, id int64, upd WorkOrderUpdate) (WorkOrder, error)
	Delete(ctx context.Context, id int64) error
}

// WorkOrderUpdate is a partial update; nil fields are left untouched.
type WorkOrderUpdate struct {
	PartNumber *string
	Quantity   *int64
	State      *string
}

// BookingStore manages bookings.
type BookingStore interface {
	GetAll(ctx context.Context) ([]Booking, error)
	GetByID(ctx context.Context, id int64) (Booking, error)
	Create(ctx context.Context, b *Booking) error
	Update(ctx context.Context, id int64, upd BookingUpdate) (Booking, error)
	Delete(ctx context.Context, id int64) error
}

// BookingUpdate is a partial update; nil fields are left untouched.
type BookingUpdate struct {
	Quantity *int64
	Scrap    *int64
}
