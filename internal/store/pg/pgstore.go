// Package pg provides the PostgreSQL persistence layer for the MES
// resources, built on database/sql with the pgx stdlib driver.
package pg

import (
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Store owns the connection pool shared by the resource stores.
type Store struct {
	db *sql.DB
}

// Open connects to PostgreSQL and applies pool tuning.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewStore wraps an existing pool; used by tests.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// Stations returns the station store.
func (s *Store) Stations() *StationStore { return &StationStore{db: s.db} }

// Lines returns the line store.
func (s *Store) Lines() *LineStore { return &LineStore{db: s.db} }

// WorkOrders returns the work order store.
func (s *Store) WorkOrders() *WorkOrderStore { return &WorkOrderStore{db: s.db} }

// Bookings returns the booking store.
func (s *Store) Bookings() *BookingStore { return &BookingStore{db: s.db} }
