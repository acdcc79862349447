package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/user-management-service/internal/model"
)

const userColumns = "id,email,name,role,password_hash,password_change_required,created_at,updated_at"

// UserRepo implements UserRepository over the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts the aggregate. A duplicate email (MySQL 1062) maps to
// model.ErrEmailExists so the unique-constraint race surfaces as the
// same error the uniqueness pre-check produces.
func (r *UserRepo) Create(ctx context.Context, u model.User) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (id,email,name,role,password_hash,password_change_required,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?)",
		u.ID, u.Email.String(), u.Name, string(u.Role), nullable(u.PasswordHash), u.PasswordChangeRequired, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return model.ErrEmailExists
		}
		return err
	}
	return nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email model.Email) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email.String()))
}

// Update replaces the whole aggregate, keyed by id.
func (r *UserRepo) Update(ctx context.Context, u model.User) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET email=?,name=?,role=?,password_hash=?,password_change_required=?,updated_at=? WHERE id=?",
		u.Email.String(), u.Name, string(u.Role), nullable(u.PasswordHash), u.PasswordChangeRequired, u.UpdatedAt, u.ID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return model.ErrEmailExists
		}
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		// RowsAffected is 0 both for a missing row and a no-op update;
		// confirm existence before reporting not found.
		if _, gerr := r.GetByID(ctx, u.ID); gerr != nil {
			return gerr
		}
	}
	return nil
}

// Delete removes the row; deleting an absent user is not an error the
// services care to distinguish, so it reports not found.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// EmailExists reports whether the normalized address is already taken.
func (r *UserRepo) EmailExists(ctx context.Context, email model.Email) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM users WHERE email=? LIMIT 1", email.String()).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Search filters by term (email/name LIKE), roles and creation window,
// returning one page plus the unpaged total.
func (r *UserRepo) Search(ctx context.Context, q SearchQuery) ([]model.User, int64, error) {
	where := []string{}
	args := []any{}

	if term := strings.TrimSpace(q.Term); term != "" {
		where = append(where, "(LOWER(email) LIKE ? OR LOWER(name) LIKE ?)")
		pat := "%" + strings.ToLower(term) + "%"
		args = append(args, pat, pat)
	}
	if len(q.Roles) > 0 {
		ph := make([]string, len(q.Roles))
		for i, role := range q.Roles {
			ph[i] = "?"
			args = append(args, string(role))
		}
		where = append(where, "role IN ("+strings.Join(ph, ",")+")")
	}
	if q.CreatedAfter != nil {
		where = append(where, "created_at >= ?")
		args = append(args, *q.CreatedAfter)
	}
	if q.CreatedBefore != nil {
		where = append(where, "created_at <= ?")
		args = append(args, *q.CreatedBefore)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := q.PageSize
	offset := (q.Page - 1) * q.PageSize
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+cond+" ORDER BY created_at DESC, id LIMIT ? OFFSET ?",
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

// CountByRole counts users holding the given role.
func (r *UserRepo) CountByRole(ctx context.Context, role model.Role) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE role=?", string(role)).Scan(&n)
	return n, err
}

// Count returns the total number of users.
func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

type rowScanner interface{ Scan(dest ...any) error }

func scanUser(s rowScanner) (model.User, error) {
	var (
		u     model.User
		email string
		role  string
		hash  sql.NullString
	)
	err := s.Scan(&u.ID, &email, &u.Name, &role, &hash, &u.PasswordChangeRequired, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	u.Email = model.Email(email)
	u.Role = model.Role(role)
	u.PasswordHash = hash.String
	return u, nil
}

func (r *UserRepo) scanOne(row *sql.Row) (model.User, error) {
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return model.User{}, model.ErrUserNotFound
	}
	return u, err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
