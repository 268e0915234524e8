package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ekaya/yolda/database"
	"github.com/ekaya/yolda/models"
	"github.com/ekaya/yolda/pkg"
)

// sqliteUserRepo, UserRepository interface'inin SQLite implementasyonu.
// DB bağlantısı dışarıya açık değildir — field küçük harfle başlar.
type sqliteUserRepo struct {
	db database.TxQuerier
}

// NewSQLiteUserRepo, constructor. UserRepository interface'i döner
// (concrete struct değil) — çağıran taraf implementasyondan bağımsız kalır.
func NewSQLiteUserRepo(db database.TxQuerier) UserRepository {
	return &sqliteUserRepo{db: db}
}

func (r *sqliteUserRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = uuid.NewString()

	query := `
		INSERT INTO users (id, email, password_hash, name, surname, phone, role, is_blocked, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Surname,
		user.Phone,
		user.Role,
		user.IsBlocked,
		user.IsActive,
	).Scan(&user.CreatedAt)

	if err != nil {
		// UNIQUE constraint violation → email zaten kayıtlı
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email already in use", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

const userColumns = `id, email, password_hash, name, surname, phone, role, is_blocked, is_active, created_at`

func (r *sqliteUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *sqliteUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(email))
	return scanUser(row)
}

func (r *sqliteUserRepo) GetAll(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

func (r *sqliteUserRepo) GetByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE role = ? AND is_active = 1 AND is_blocked = 0`, role)
	if err != nil {
		return nil, fmt.Errorf("failed to query users by role: %w", err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

func (r *sqliteUserRepo) SetBlocked(ctx context.Context, userID string, blocked bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_blocked = ? WHERE id = ?`, blocked, userID)
	if err != nil {
		return fmt.Errorf("failed to update user block flag: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: user %s", pkg.ErrNotFound, userID)
	}
	return nil
}

func (r *sqliteUserRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: user %s", pkg.ErrNotFound, id)
	}
	return nil
}

// rowScanner, hem *sql.Row hem *sql.Rows tarafından karşılanan scan interface'i.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanUser, tek bir user satırını okur. sql.ErrNoRows → pkg.ErrNotFound.
func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Surname, &u.Phone,
		&u.Role, &u.IsBlocked, &u.IsActive, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: user", pkg.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

// collectUsers, rows'taki tüm user satırlarını toplar.
func collectUsers(rows *sql.Rows) ([]models.User, error) {
	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// isUniqueViolation, SQLite UNIQUE constraint hatasını tespit eder.
func isUniqueViolation(err error) bool {
	return err != nil && !errors.Is(err, sql.ErrNoRows) &&
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}
