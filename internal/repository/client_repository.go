package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/deliverynote-service/internal/domain"
)

// ClientRepository encapsulates client persistence.
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) error
	Update(ctx context.Context, client *domain.Client) error
	GetByID(ctx context.Context, id string) (*domain.Client, error)
	FindOne(ctx context.Context, filter ScopeFilter) (*domain.Client, error)
	List(ctx context.Context, filter ScopeFilter) ([]domain.Client, error)
	ExistsByName(ctx context.Context, name, company string) (bool, error)
	SetArchived(ctx context.Context, id string, archived bool) (*domain.Client, error)
	Delete(ctx context.Context, id string) error
}

type clientRepository struct {
	pool *pgxpool.Pool
}

// NewClientRepository instantiates repository.
func NewClientRepository(pool *pgxpool.Pool) ClientRepository {
	return &clientRepository{pool: pool}
}

const clientColumns = `id, name, contact_email, phone, address, created_by, company_id, archived, created_at, updated_at`

func (r *clientRepository) Create(ctx context.Context, client *domain.Client) error {
	const query = `
        INSERT INTO clients (name, contact_email, phone, address, created_by, company_id, archived)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		client.Name,
		client.ContactEmail,
		client.Phone,
		client.Address,
		client.CreatedBy,
		client.Company,
		client.Archived,
	).Scan(&client.ID, &client.CreatedAt, &client.UpdatedAt)
}

func (r *clientRepository) Update(ctx context.Context, client *domain.Client) error {
	const query = `
        UPDATE clients SET name=$1, contact_email=$2, phone=$3, address=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		client.Name,
		client.ContactEmail,
		client.Phone,
		client.Address,
		client.ID,
	).Scan(&client.UpdatedAt)
	return translate(err)
}

func (r *clientRepository) GetByID(ctx context.Context, id string) (*domain.Client, error) {
	return r.FindOne(ctx, ScopeFilter{ID: &id})
}

func (r *clientRepository) FindOne(ctx context.Context, filter ScopeFilter) (*domain.Client, error) {
	where, args := filter.where()
	row := r.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE `+where+` LIMIT 1`, args...)
	client, err := scanClient(row)
	if err != nil {
		return nil, translate(err)
	}
	return client, nil
}

func (r *clientRepository) List(ctx context.Context, filter ScopeFilter) ([]domain.Client, error) {
	where, args := filter.where()
	rows, err := r.pool.Query(ctx, `SELECT `+clientColumns+` FROM clients WHERE `+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Client{}
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *client)
	}
	return result, rows.Err()
}

func (r *clientRepository) ExistsByName(ctx context.Context, name, company string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM clients WHERE name=$1 AND company_id=$2 AND archived=false)`
	var exists bool
	err := r.pool.QueryRow(ctx, query, name, company).Scan(&exists)
	return exists, err
}

func (r *clientRepository) SetArchived(ctx context.Context, id string, archived bool) (*domain.Client, error) {
	query := `UPDATE clients SET archived=$1, updated_at=NOW() WHERE id=$2 RETURNING ` + clientColumns
	client, err := scanClient(r.pool.QueryRow(ctx, query, archived, id))
	if err != nil {
		return nil, translate(err)
	}
	return client, nil
}

func (r *clientRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM clients WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanClient(row pgx.Row) (*domain.Client, error) {
	var client domain.Client
	if err := row.Scan(
		&client.ID,
		&client.Name,
		&client.ContactEmail,
		&client.Phone,
		&client.Address,
		&client.CreatedBy,
		&client.Company,
		&client.Archived,
		&client.CreatedAt,
		&client.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &client, nil
}
