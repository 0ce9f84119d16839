package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"mesworks.org/internal/mes"
)

var _ mes.StationStore = (*StationStore)(nil)

// StationStore persists stations.
type StationStore struct {
	db *sql.DB
}

const stationColumns = `id, name, description, created_at, updated_at`

func (s *StationStore) GetAll(ctx context.Context) ([]mes.Station, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+stationColumns+` from stations order by id asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []mes.Station
	for rows.Next() {
		var st mes.Station
		if err := rows.Scan(&st.ID, &st.Name, &st.Description, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, err
		}
		stations = append(stations, st)
	}
	return stations, rows.Err()
}

func (s *StationStore) GetByID(ctx context.Context, id int64) (mes.Station, error) {
	var st mes.Station
	err := s.db.QueryRowContext(ctx,
		`select `+stationColumns+` from stations where id=$1`, id).
		Scan(&st.ID, &st.Name, &st.Description, &st.CreatedAt, &st.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return mes.Station{}, mes.ErrNotFound
	}
	if err != nil {
		return mes.Station{}, err
	}
	return st, nil
}

func (s *StationStore) Create(ctx context.Context, st *mes.Station) error {
	err := s.db.QueryRowContext(ctx,
		`insert into stations(name, description) values($1,$2)
		 returning id, created_at, updated_at`,
		st.Name, st.Description).
		Scan(&st.ID, &st.CreatedAt, &st.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: station name taken", mes.ErrAlreadyExists)
	}
	return err
}

func (s *StationStore) Update(ctx context.Context, id int64, upd mes.StationUpdate) (mes.Station, error) {
	sets := make([]string, 0, 3)
	args := make([]any, 0, 3)
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if upd.Name != nil {
		sets = append(sets, "name="+next(*upd.Name))
	}
	if upd.Description != nil {
		sets = append(sets, "description="+next(*upd.Description))
	}
	if len(sets) == 0 {
		return s.GetByID(ctx, id)
	}
	sets = append(sets, "updated_at=now()")
	query := `update stations set ` + strings.Join(sets, ", ") +
		` where id=` + next(id) + ` returning ` + stationColumns

	var st mes.Station
	err := s.db.QueryRowContext(ctx, query, args...).
		Scan(&st.ID, &st.Name, &st.Description, &st.CreatedAt, &st.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return mes.Station{}, mes.ErrNotFound
	}
	if isUniqueViolation(err) {
		return mes.Station{}, fmt.Errorf("%w: station name taken", mes.ErrAlreadyExists)
	}
	if err != nil {
		return mes.Station{}, err
	}
	return st, nil
}

func (s *StationStore) Delete(ctx context.Context, id int64) error {
	return execExpectingRow(ctx, s.db, `delete from stations where id=$1`, id)
}
