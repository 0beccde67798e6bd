package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/deliverynote-service/internal/domain"
)

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, email, password_hash, name, surname, nif, company_name, company_cif, company_address,
               company_id, status, role, verification_code, attempts, logo_url, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (email, password_hash, name, surname, nif, company_name, company_cif, company_address,
                           company_id, status, role, verification_code, attempts, logo_url)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING id, created_at, updated_at`

	name, cif, address := companyColumns(user.Company)
	err := r.pool.QueryRow(ctx, query,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Surname,
		user.NIF,
		name,
		cif,
		address,
		user.CompanyID,
		user.Status,
		user.Role,
		user.VerificationCode,
		user.Attempts,
		user.LogoURL,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	return translate(err)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET email=$1, password_hash=$2, name=$3, surname=$4, nif=$5, company_name=$6,
            company_cif=$7, company_address=$8, company_id=$9, status=$10, role=$11,
            verification_code=$12, attempts=$13, logo_url=$14, updated_at=NOW()
        WHERE id=$15
        RETURNING updated_at`

	name, cif, address := companyColumns(user.Company)
	err := r.pool.QueryRow(ctx, query,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Surname,
		user.NIF,
		name,
		cif,
		address,
		user.CompanyID,
		user.Status,
		user.Role,
		user.VerificationCode,
		user.Attempts,
		user.LogoURL,
		user.ID,
	).Scan(&user.UpdatedAt)
	return translate(err)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	var companyName, cif, address *string
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.Surname,
		&user.NIF,
		&companyName,
		&cif,
		&address,
		&user.CompanyID,
		&user.Status,
		&user.Role,
		&user.VerificationCode,
		&user.Attempts,
		&user.LogoURL,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, translate(err)
	}
	if companyName != nil || cif != nil || address != nil {
		user.Company = &domain.Company{Name: deref(companyName), CIF: deref(cif), Address: deref(address)}
	}
	return &user, nil
}

func companyColumns(c *domain.Company) (name, cif, address *string) {
	if c == nil {
		return nil, nil, nil
	}
	return &c.Name, &c.CIF, &c.Address
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
