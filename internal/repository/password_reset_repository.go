package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/deliverynote-service/internal/domain"
)

// PasswordResetRepository manages password reset code persistence.
type PasswordResetRepository interface {
	Create(ctx context.Context, reset *domain.PasswordReset) error
	GetActive(ctx context.Context, userID, code string) (*domain.PasswordReset, error)
	MarkUsed(ctx context.Context, id string) error
}

type passwordResetRepository struct {
	pool *pgxpool.Pool
}

// NewPasswordResetRepository constructs repository.
func NewPasswordResetRepository(pool *pgxpool.Pool) PasswordResetRepository {
	return &passwordResetRepository{pool: pool}
}

func (r *passwordResetRepository) Create(ctx context.Context, reset *domain.PasswordReset) error {
	const query = `
        INSERT INTO password_resets (user_id, code, expires_at)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		reset.UserID,
		reset.Code,
		reset.ExpiresAt,
	).Scan(&reset.ID, &reset.CreatedAt)
}

// GetActive returns the newest unused reset for the user matching code.
func (r *passwordResetRepository) GetActive(ctx context.Context, userID, code string) (*domain.PasswordReset, error) {
	const query = `
        SELECT id, user_id, code, expires_at, used_at, created_at
        FROM password_resets WHERE user_id=$1 AND code=$2 AND used_at IS NULL
        ORDER BY created_at DESC LIMIT 1`
	var reset domain.PasswordReset
	if err := r.pool.QueryRow(ctx, query, userID, code).Scan(
		&reset.ID,
		&reset.UserID,
		&reset.Code,
		&reset.ExpiresAt,
		&reset.UsedAt,
		&reset.CreatedAt,
	); err != nil {
		return nil, translate(err)
	}
	return &reset, nil
}

func (r *passwordResetRepository) MarkUsed(ctx context.Context, id string) error {
	const query = `
        UPDATE password_resets SET used_at=NOW()
        WHERE id=$1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}
