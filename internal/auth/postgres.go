package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgErrUniqueViolation = "23505"

var _ UserStore = (*PGUserStore)(nil)

// PGUserStore implements UserStore on PostgreSQL. The permissions list is
// stored as a jsonb column.
type PGUserStore struct {
	db *sql.DB
}

func NewPGUserStore(db *sql.DB) *PGUserStore {
	return &PGUserStore{db: db}
}

const userColumns = `id, email, password_hash, is_active, role, permissions, created_at, updated_at`

func (s *PGUserStore) Create(ctx context.Context, u *User) error {
	perms, err := json.Marshal(permsOrEmpty(u.Permissions))
	if err != nil {
		return err
	}
	row := s.db.QueryRowContext(ctx,
		`insert into users(email, password_hash, is_active, role, permissions)
		 values($1,$2,$3,$4,$5)
		 returning id, created_at, updated_at`,
		u.Email, u.PasswordHash, u.IsActive, u.Role, perms,
	)
	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email already registered", ErrAlreadyExists)
		}
		return err
	}
	return nil
}

func (s *PGUserStore) GetAll(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+userColumns+` from users order by id asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *PGUserStore) GetByID(ctx context.Context, id int64) (User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id=$1`, id)
	return scanUserRow(row)
}

func (s *PGUserStore) GetByEmail(ctx context.Context, email string) (User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where email=$1`, email)
	return scanUserRow(row)
}

func (s *PGUserStore) Update(ctx context.Context, id int64, upd UserUpdate) (User, error) {
	sets := make([]string, 0, 6)
	args := make([]any, 0, 6)
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if upd.Email != nil {
		sets = append(sets, "email="+next(*upd.Email))
	}
	if upd.PasswordHash != nil {
		sets = append(sets, "password_hash="+next(*upd.PasswordHash))
	}
	if upd.IsActive != nil {
		sets = append(sets, "is_active="+next(*upd.IsActive))
	}
	if upd.Role != nil {
		sets = append(sets, "role="+next(*upd.Role))
	}
	if upd.Permissions != nil {
		perms, err := json.Marshal(upd.Permissions)
		if err != nil {
			return User{}, err
		}
		sets = append(sets, "permissions="+next(perms))
	}
	if len(sets) == 0 {
		return s.GetByID(ctx, id)
	}
	sets = append(sets, "updated_at=now()")
	query := `update users set ` + strings.Join(sets, ", ") +
		` where id=` + next(id) + ` returning ` + userColumns
	row := s.db.QueryRowContext(ctx, query, args...)
	u, err := scanUserRow(row)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, fmt.Errorf("%w: email already registered", ErrAlreadyExists)
		}
		return User{}, err
	}
	return u, nil
}

func (s *PGUserStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `delete from users where id=$1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGUserStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `select count(*) from users`).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var (
		u     User
		perms []byte
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.IsActive, &u.Role, &perms, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return User{}, err
	}
	if err := json.Unmarshal(perms, &u.Permissions); err != nil {
		return User{}, err
	}
	if u.Permissions == nil {
		u.Permissions = []string{}
	}
	return u, nil
}

func scanUserRow(row *sql.Row) (User, error) {
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func permsOrEmpty(perms []string) []string {
	if perms == nil {
		return []string{}
	}
	return perms
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgErrUniqueViolation
	}
	return false
}
