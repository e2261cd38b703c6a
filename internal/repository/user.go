package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dan9191/bank-rest/internal/models"
	"github.com/lib/pq"
)

const userColumns = `id, name, email, password_hash, roles, created_at`

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO bank.users (name, email, password_hash, roles, created_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := r.q.QueryRowContext(ctx, query, user.Name, user.Email, user.PasswordHash, pq.Array(roleNames(user.Roles))).
		Scan(&user.ID, &user.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("user %s: %w", user.Email, ErrConflict)
	}
	if err != nil {
		return storeErr("create user", err)
	}
	return nil
}

// FindUserByID retrieves a user by id
func (r *Repository) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	return r.findUser(ctx, `SELECT `+userColumns+` FROM bank.users WHERE id = $1`, id)
}

// FindUserByEmail retrieves a user by email
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findUser(ctx, `SELECT `+userColumns+` FROM bank.users WHERE email = $1`, email)
}

// FindAllUsers returns every user
func (r *Repository) FindAllUsers(ctx context.Context) ([]models.User, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+userColumns+` FROM bank.users ORDER BY id`)
	if err != nil {
		return nil, storeErr("find users", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, storeErr("find users", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("find users", err)
	}
	return users, nil
}

func (r *Repository) findUser(ctx context.Context, query string, arg any) (*models.User, error) {
	user, err := scanUser(r.q.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr("find user", err)
	}
	return user, nil
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		user  models.User
		roles []string
	)
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, pq.Array(&roles), &user.CreatedAt); err != nil {
		return nil, err
	}
	for _, name := range roles {
		role, err := models.ParseRole(name)
		if err != nil {
			return nil, err
		}
		user.Roles = append(user.Roles, role)
	}
	return &user, nil
}

func roleNames(roles []models.Role) []string {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}
	return names
}
