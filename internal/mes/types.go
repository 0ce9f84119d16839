// Package mes holds the manufacturing master-data resources served by the
// API: stations, lines, work orders and bookings. Every resource follows the
// same contract: list, get, create, partial update, delete, with permission
// enforcement left entirely to the HTTP layer.
package mes

import "time"

// Station is a single machine position on the shop floor.
type Station struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Line is a production line grouping stations. StationIDs is the many-to-many
// association; updates reconcile it by set difference.
type Line struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	StationIDs  []int64   `json:"station_ids"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// WorkOrder is a production order for a part quantity.
type WorkOrder struct {
	ID         int64      `json:"id"`
	Number     string     `json:"number"`
	PartNumber string     `json:"part_number"`
	Quantity   int64      `json:"quantity"`
	State      string     `json:"state"`
	DueDate    *time.Time `json:"due_date,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Work order states. Transitions are free-form; the store only persists the
// label.
const (
	WorkOrderOpen     = "open"
	WorkOrderRunning  = "running"
	WorkOrderDone     = "done"
	WorkOrderCanceled = "canceled"
)

// Booking records produced/scrapped quantities at a station for a work order.
type Booking struct {
	ID          int64     `json:"id"`
	WorkOrderID int64     `json:"workorder_id"`
	StationID   int64     `json:"station_id"`
	Quantity    int64     `json:"quantity"`
	Scrap       int64     `json:"scrap"`
	BookedAt    time.Time `json:"booked_at"`
	CreatedAt   time.Time `json:"created_at"`
}
