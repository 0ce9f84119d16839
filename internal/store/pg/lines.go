package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"mesworks.org/internal/mes"
)

var _ mes.LineStore = (*LineStore)(nil)

// LineStore persists lines and the line_stations association table.
type LineStore struct {
	db *sql.DB
}

const lineColumns = `id, name, description, created_at, updated_at`

func (s *LineStore) GetAll(ctx context.Context) ([]mes.Line, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+lineColumns+` from lines order by id asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []mes.Line
	index := map[int64]int{}
	for rows.Next() {
		var l mes.Line
		if err := rows.Scan(&l.ID, &l.Name, &l.Description, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		l.StationIDs = []int64{}
		index[l.ID] = len(lines)
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return lines, nil
	}

	assocRows, err := s.db.QueryContext(ctx,
		`select line_id, station_id from line_stations order by line_id, station_id`)
	if err != nil {
		return nil, err
	}
	defer assocRows.Close()
	for assocRows.Next() {
		var lineID, stationID int64
		if err := assocRows.Scan(&lineID, &stationID); err != nil {
			return nil, err
		}
		if i, ok := index[lineID]; ok {
			lines[i].StationIDs = append(lines[i].StationIDs, stationID)
		}
	}
	return lines, assocRows.Err()
}

func (s *LineStore) GetByID(ctx context.Context, id int64) (mes.Line, error) {
	var l mes.Line
	err := s.db.QueryRowContext(ctx,
		`select `+lineColumns+` from lines where id=$1`, id).
		Scan(&l.ID, &l.Name, &l.Description, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return mes.Line{}, mes.ErrNotFound
	}
	if err != nil {
		return mes.Line{}, err
	}
	l.StationIDs, err = s.stationIDs(ctx, s.db, id)
	if err != nil {
		return mes.Line{}, err
	}
	return l, nil
}

func (s *LineStore) GetByStationID(ctx context.Context, stationID int64) ([]mes.Line, error) {
	rows, err := s.db.QueryContext(ctx,
		`select l.id, l.name, l.description, l.created_at, l.updated_at
		 from lines l
		 join line_stations ls on ls.line_id = l.id
		 where ls.station_id=$1
		 order by l.id asc`, stationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []mes.Line
	for rows.Next() {
		var l mes.Line
		if err := rows.Scan(&l.ID, &l.Name, &l.Description, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range lines {
		lines[i].StationIDs, err = s.stationIDs(ctx, s.db, lines[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return lines, nil
}

func (s *LineStore) Create(ctx context.Context, l *mes.Line) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowContext(ctx,
		`insert into lines(name, description) values($1,$2)
		 returning id, created_at, updated_at`,
		l.Name, l.Description).
		Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: line name taken", mes.ErrAlreadyExists)
	}
	if err != nil {
		return err
	}
	for _, stationID := range l.StationIDs {
		if _, err := tx.ExecContext(ctx,
			`insert into line_stations(line_id, station_id) values($1,$2)`,
			l.ID, stationID); err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("%w: station %d does not exist", mes.ErrInvalidInput, stationID)
			}
			return err
		}
	}
	return tx.Commit()
}

// Update applies field changes and, when StationIDs is non-nil, reconciles
// the association set by diffing desired against current inside the same
// transaction: only the changed rows are touched.
func (s *LineStore) Update(ctx context.Context, id int64, upd mes.LineUpdate) (mes.Line, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mes.Line{}, err
	}
	defer func() { _ = tx.Rollback() }()

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
	var l mes.Line
	if len(sets) > 0 {
		sets = append(sets, "updated_at=now()")
		query := `update lines set ` + strings.Join(sets, ", ") +
			` where id=` + next(id) + ` returning ` + lineColumns
		err = tx.QueryRowContext(ctx, query, args...).
			Scan(&l.ID, &l.Name, &l.Description, &l.CreatedAt, &l.UpdatedAt)
	} else {
		err = tx.QueryRowContext(ctx,
			`select `+lineColumns+` from lines where id=$1`, id).
			Scan(&l.ID, &l.Name, &l.Description, &l.CreatedAt, &l.UpdatedAt)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return mes.Line{}, mes.ErrNotFound
	}
	if isUniqueViolation(err) {
		return mes.Line{}, fmt.Errorf("%w: line name taken", mes.ErrAlreadyExists)
	}
	if err != nil {
		return mes.Line{}, err
	}

	if upd.StationIDs != nil {
		current, err := s.stationIDs(ctx, tx, id)
		if err != nil {
			return mes.Line{}, err
		}
		add, remove := mes.DiffStationIDs(current, upd.StationIDs)
		for _, stationID := range add {
			if _, err := tx.ExecContext(ctx,
				`insert into line_stations(line_id, station_id) values($1,$2)`,
				id, stationID); err != nil {
				if isForeignKeyViolation(err) {
					return mes.Line{}, fmt.Errorf("%w: station %d does not exist", mes.ErrInvalidInput, stationID)
				}
				return mes.Line{}, err
			}
		}
		for _, stationID := range remove {
			if _, err := tx.ExecContext(ctx,
				`delete from line_stations where line_id=$1 and station_id=$2`,
				id, stationID); err != nil {
				return mes.Line{}, err
			}
		}
		l.StationIDs = upd.StationIDs
	} else {
		l.StationIDs, err = s.stationIDs(ctx, tx, id)
		if err != nil {
			return mes.Line{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return mes.Line{}, err
	}
	return l, nil
}

func (s *LineStore) Delete(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `delete from line_stations where line_id=$1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `delete from lines where id=$1`, id)
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
	return tx.Commit()
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *LineStore) stationIDs(ctx context.Context, q querier, lineID int64) ([]int64, error) {
	rows, err := q.QueryContext(ctx,
		`select station_id from line_stations where line_id=$1 order by station_id asc`, lineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
