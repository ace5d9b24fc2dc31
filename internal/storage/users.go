package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/magabrotheeeer/content-paywall/internal/models"
)

const userColumns = `id, open_id, name, email, login_method, role, password_hash,
		created_at, updated_at, last_signed_in`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u                                   models.User
		openID, email, loginMethod, pwdHash sql.NullString
		lastSignedIn                        sql.NullTime
	)
	if err := row.Scan(&u.ID, &openID, &u.Name, &email, &loginMethod, &u.Role, &pwdHash,
		&u.CreatedAt, &u.UpdatedAt, &lastSignedIn); err != nil {
		return nil, err
	}
	u.OpenID = nullString(openID)
	u.Email = nullString(email)
	u.LoginMethod = nullString(loginMethod)
	u.PasswordHash = nullString(pwdHash)
	u.LastSignedIn = nullTime(lastSignedIn)
	return &u, nil
}

// CreateUser сохраняет нового пользователя и возвращает сохранённую запись.
// Email приводится к нижнему регистру; повтор возвращает ErrEmailTaken.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	const op = "storage.CreateUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	db, err := s.DB(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var email any
	if user.Email != nil {
		email = strings.ToLower(strings.TrimSpace(*user.Email))
	}
	var loginMethod, pwdHash any
	if user.LoginMethod != nil {
		loginMethod = *user.LoginMethod
	}
	if user.PasswordHash != nil {
		pwdHash = *user.PasswordHash
	}
	role := user.Role
	if role == "" {
		role = models.RoleUser
	}

	query := `INSERT INTO users (name, email, login_method, role, password_hash, last_signed_in)
			  VALUES ($1, $2, $3, $4, $5, NOW())
			  RETURNING ` + userColumns
	created, err := scanUser(db.QueryRowContext(ctx, query, user.Name, email, loginMethod, string(role), pwdHash))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// GetUserByEmail возвращает пользователя по email без учёта регистра.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	db, err := s.DB(ctx)
	if err != nil {
		return degrade[*models.User](s, op, err)
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(db.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(email))))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByID возвращает пользователя по идентификатору.
func (s *Storage) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	const op = "storage.GetUserByID"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	db, err := s.DB(ctx)
	if err != nil {
		return degrade[*models.User](s, op, err)
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// TouchLastSignedIn обновляет время последнего входа.
func (s *Storage) TouchLastSignedIn(ctx context.Context, id int64) error {
	const op = "storage.TouchLastSignedIn"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	db, err := s.DB(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `UPDATE users SET last_signed_in = NOW(), updated_at = NOW() WHERE id = $1`
	if _, err = db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetUserRole меняет роль пользователя.
func (s *Storage) SetUserRole(ctx context.Context, id int64, role models.Role) error {
	const op = "storage.SetUserRole"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	db, err := s.DB(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	result, err := db.ExecContext(ctx, `UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2`, string(role), id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// ListUsers возвращает всех пользователей, новые первыми.
func (s *Storage) ListUsers(ctx context.Context) ([]*models.User, error) {
	const op = "storage.ListUsers"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	db, err := s.DB(ctx)
	if err != nil {
		return degrade[[]*models.User](s, op, err)
	}

	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, id DESC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
