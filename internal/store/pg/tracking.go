package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"mesworks.org/internal/mes"
)

const (
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"
)

var _ mes.WorkOrderStore = (*WorkOrderStore)(nil)

// WorkOrderStore persists work orders.
type WorkOrderStore struct {
	db *sql.DB
}

const workOrderColumns = `id, number, part_number, quantity, state, due_date, created_at, updated_at`

func (s *WorkOrderStore) GetAll(ctx context.Context) ([]mes.WorkOrder, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+workOrderColumns+` from workorders order by id asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []mes.WorkOrder
	for rows.Next() {
		var wo mes.WorkOrder
		if err := rows.Scan(&wo.ID, &wo.Number, &wo.PartNumber, &wo.Quantity, &wo.State, &wo.DueDate, &wo.CreatedAt, &wo.UpdatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, wo)
	}
	return orders, rows.Err()
}

func (s *WorkOrderStore) GetByID(ctx context.Context, id int64) (mes.WorkOrder, error) {
	var wo mes.WorkOrder
	err := s.db.QueryRowContext(ctx,
		`select `+workOrderColumns+` from workorders where id=$1`, id).
		Scan(&wo.ID, &wo.Number, &wo.PartNumber, &wo.Quantity, &wo.State, &wo.DueDate, &wo.CreatedAt, &wo.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return mes.WorkOrder{}, mes.ErrNotFound
	}
	if err != nil {
		return mes.WorkOrder{}, err
	}
	return wo, nil
}

func (s *WorkOrderStore) Create(ctx context.Context, wo *mes.WorkOrder) error {
	err := s.db.QueryRowContext(ctx,
		`insert into workorders(number, part_number, quantity, state, due_date)
		 values($1,$2,$3,$4,$5)
		 returning id, created_at, updated_at`,
		wo.Number, wo.PartNumber, wo.Quantity, wo.State, wo.DueDate).
		Scan(&wo.ID, &wo.CreatedAt, &wo.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: work order number taken", mes.ErrAlreadyExists)
	}
	return err
}

func (s *WorkOrderStore) Update(ctx context.Context, id int64, upd mes.WorkOrderUpdate) (mes.WorkOrder, error) {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 4)
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if upd.PartNumber != nil {
		sets = append(sets, "part_number="+next(*upd.PartNumber))
	}
	if upd.Quantity != nil {
		sets = append(sets, "quantity="+next(*upd.Quantity))
	}
	if upd.State != nil {
		sets = append(sets, "state="+next(*upd.State))
	}
	if len(sets) == 0 {
		return s.GetByID(ctx, id)
	}
	sets = append(sets, "updated_at=now()")
	query := `update workorders set ` + strings.Join(sets, ", ") +
		` where id=` + next(id) + ` returning ` + workOrderColumns

	var wo mes.WorkOrder
	err := s.db.QueryRowContext(ctx, query, args...).
		Scan(&wo.ID, &wo.Number, &wo.PartNumber, &wo.Quantity, &wo.State, &wo.DueDate, &wo.CreatedAt, &wo.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return mes.WorkOrder{}, mes.ErrNotFound
	}
	if err != nil {
		return mes.WorkOrder{}, err
	}
	return wo, nil
}

func (s *WorkOrderStore) Delete(ctx context.Context, id int64) error {
	return execExpectingRow(ctx, s.db, `delete from workorders where id=$1`, id)
}

var _ mes.BookingStore = (*BookingStore)(nil)

// BookingStore persists bookings.
type BookingStore struct {
	db *sql.DB
}

const bookingColumns = `id, workorder_id, station_id, quantity, scrap, booked_at, created_at`

func (s *BookingStore) GetAll(ctx context.Context) ([]mes.Booking, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+bookingColumns+` from bookings order by id asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []mes.Booking
	for rows.Next() {
		var b mes.Booking
		if err := rows.Scan(&b.ID, &b.WorkOrderID, &b.StationID, &b.Quantity, &b.Scrap, &b.BookedAt, &b.CreatedAt); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (s *BookingStore) GetByID(ctx context.Context, id int64) (mes.Booking, error) {
	var b mes.Booking
	err := s.db.QueryRowContext(ctx,
		`select `+bookingColumns+` from bookings where id=$1`, id).
		Scan(&b.ID, &b.WorkOrderID, &b.StationID, &b.Quantity, &b.Scrap, &b.BookedAt, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return mes.Booking{}, mes.ErrNotFound
	}
	if err != nil {
		return mes.Booking{}, err
	}
	return b, nil
}

func (s *BookingStore) Create(ctx context.Context, b *mes.Booking) error {
	err := s.db.QueryRowContext(ctx,
		`insert into bookings(workorder_id, station_id, quantity, scrap, booked_at)
		 values($1,$2,$3,$4,$5)
		 returning id, created_at`,
		b.WorkOrderID, b.StationID, b.Quantity, b.Scrap, b.BookedAt).
		Scan(&b.ID, &b.CreatedAt)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: work order or station does not exist", mes.ErrInvalidInput)
	}
	return err
}

func (s *BookingStore) Update(ctx context.Context, id int64, upd mes.BookingUpdate) (mes.Booking, error) {
	sets := make([]string, 0, 3)
	args := make([]any, 0, 3)
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if upd.Quantity != nil {
		sets = append(sets, "quantity="+next(*upd.Quantity))
	}
	if upd.Scrap != nil {
		sets = append(sets, "scrap="+next(*upd.Scrap))
	}
	if len(sets) == 0 {
		return s.GetByID(ctx, id)
	}
	query := `update bookings set ` + strings.Join(sets, ", ") +
		` where id=` + next(id) + ` returning ` + bookingColumns

	var b mes.Booking
	err := s.db.QueryRowContext(ctx, query, args...).
		Scan(&b.ID, &b.WorkOrderID, &b.StationID, &b.Quantity, &b.Scrap, &b.BookedAt, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return mes.Booking{}, mes.ErrNotFound
	}
	if err != nil {
		return mes.Booking{}, err
	}
	return b, nil
}

func (s *BookingStore) Delete(ctx context.Context, id int64) error {
	return execExpectingRow(ctx, s.db, `delete from bookings where id=$1`, id)
}

// Shared helpers --------------------------------------------------------

func execExpectingRow(ctx context.Context, db *sql.DB, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return mes.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrForeignKeyViolation
}
