package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"user_api/internal/observability"
	"user_api/internal/utils"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
)

const uniqueViolation = "23505"

type UserRepositoryInterface interface {
	Create(ctx context.Context, user *User) error
	List(ctx context.Context) ([]*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, id string, apply func(*User)) (*User, error)
	Delete(ctx context.Context, id string) error
}

type UserRepository struct {
	db      *sql.DB
	metrics *observability.Metrics
}

func NewUserRepository(db *sql.DB, metrics *observability.Metrics) UserRepositoryInterface {
	return &UserRepository{db: db, metrics: metrics}
}

func (r *UserRepository) observe(queryType string, start time.Time) {
	if r.metrics != nil {
		r.metrics.DBQueryDuration.WithLabelValues(queryType).Observe(time.Since(start).Seconds())
	}
}

// Create inserts user and fills CreatedAt/UpdatedAt from the database.
func (r *UserRepository) Create(ctx context.Context, user *User) error {
	defer r.observe("INSERT", time.Now())

	query := `
		INSERT INTO users (
			id, username, email, password, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err := utils.WithTransaction(ctx, r.db, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, query,
			user.ID,
			user.Username,
			user.Email,
			user.Password,
		).Scan(&user.CreatedAt, &user.UpdatedAt)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		logrus.WithError(err).Error("Failed to create user")
		return err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("User created successfully")

	return nil
}

func (r *UserRepository) List(ctx context.Context) ([]*User, error) {
	defer r.observe("SELECT", time.Now())

	query := `
		SELECT id, username, email, password, created_at, updated_at
		FROM users
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		logrus.WithError(err).Error("Failed to list users")
		return nil, err
	}
	defer rows.Close()

	users := make([]*User, 0)
	for rows.Next() {
		var u User
		if err := rows.Scan(
			&u.ID,
			&u.Username,
			&u.Email,
			&u.Password,
			&u.CreatedAt,
			&u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, &u)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getOne(ctx, "id", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, "email", email)
}

// getOne looks a user up by a unique column. column is never user input.
func (r *UserRepository) getOne(ctx context.Context, column, value string) (*User, error) {
	defer r.observe("SELECT", time.Now())

	query := `
		SELECT id, username, email, password, created_at, updated_at
		FROM users
		WHERE ` + column + ` = $1
	`

	user := &User{}
	err := r.db.QueryRowContext(ctx, query, value).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Password,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logrus.WithField(column, value).Debug("User not found")
			return nil, ErrUserNotFound
		}
		logrus.WithError(err).Errorf("Failed to get user by %s", column)
		return nil, err
	}

	return user, nil
}

// Update locks the row, lets apply change it and writes it back in a single
// transaction, so concurrent partial updates never drop each other's fields.
func (r *UserRepository) Update(ctx context.Context, id string, apply func(*User)) (*User, error) {
	defer r.observe("UPDATE", time.Now())

	selectQuery := `
		SELECT id, username, email, password, created_at, updated_at
		FROM users
		WHERE id = $1
		FOR UPDATE
	`
	updateQuery := `
		UPDATE users
		SET username = $1, email = $2, password = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at
	`

	user := &User{}
	err := utils.WithTransaction(ctx, r.db, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, selectQuery, id).Scan(
			&user.ID,
			&user.Username,
			&user.Email,
			&user.Password,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return err
		}

		apply(user)

		return tx.QueryRowContext(ctx, updateQuery,
			user.Username,
			user.Email,
			user.Password,
			user.ID,
		).Scan(&user.UpdatedAt)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		logrus.WithError(err).Error("Failed to update user")
		return nil, err
	}

	logrus.WithField("user_id", user.ID).Info("User updated successfully")
	return user, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	defer r.observe("DELETE", time.Now())

	err := utils.WithTransaction(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return err
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			logrus.WithError(err).Error("Failed to delete user")
		}
		return err
	}

	logrus.WithField("user_id", id).Info("User deleted successfully")
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
