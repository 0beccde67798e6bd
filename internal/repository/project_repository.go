package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/deliverynote-service/internal/domain"
)

// ProjectRepository encapsulates project persistence.
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	Update(ctx context.Context, project *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	FindOne(ctx context.Context, filter ScopeFilter) (*domain.Project, error)
	List(ctx context.Context, filter ScopeFilter) ([]domain.Project, error)
	ExistsByName(ctx context.Context, name, clientID, company string) (bool, error)
	SetArchived(ctx context.Context, id string, archived bool) (*domain.Project, error)
	Delete(ctx context.Context, id string) error
}

type projectRepository struct {
	pool *pgxpool.Pool
}

// NewProjectRepository instantiates repository.
func NewProjectRepository(pool *pgxpool.Pool) ProjectRepository {
	return &projectRepository{pool: pool}
}

const projectColumns = `id, name, description, client_id, created_by, company_id, archived, created_at, updated_at`

func (r *projectRepository) Create(ctx context.Context, project *domain.Project) error {
	const query = `
        INSERT INTO projects (name, description, client_id, created_by, company_id, archived)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		project.Name,
		project.Description,
		project.ClientID,
		project.CreatedBy,
		project.Company,
		project.Archived,
	).Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt)
}

func (r *projectRepository) Update(ctx context.Context, project *domain.Project) error {
	const query = `
        UPDATE projects SET name=$1, description=$2, client_id=$3, updated_at=NOW()
        WHERE id=$4
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		project.Name,
		project.Description,
		project.ClientID,
		project.ID,
	).Scan(&project.UpdatedAt)
	return translate(err)
}

func (r *projectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	return r.FindOne(ctx, ScopeFilter{ID: &id})
}

func (r *projectRepository) FindOne(ctx context.Context, filter ScopeFilter) (*domain.Project, error) {
	where, args := filter.where()
	row := r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE `+where+` LIMIT 1`, args...)
	project, err := scanProject(row)
	if err != nil {
		return nil, translate(err)
	}
	return project, nil
}

func (r *projectRepository) List(ctx context.Context, filter ScopeFilter) ([]domain.Project, error) {
	where, args := filter.where()
	rows, err := r.pool.Query(ctx, `SELECT `+projectColumns+` FROM projects WHERE `+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Project{}
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *project)
	}
	return result, rows.Err()
}

func (r *projectRepository) ExistsByName(ctx context.Context, name, clientID, company string) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM projects WHERE name=$1 AND client_id=$2 AND company_id=$3 AND archived=false
        )`
	var exists bool
	err := r.pool.QueryRow(ctx, query, name, clientID, company).Scan(&exists)
	return exists, err
}

func (r *projectRepository) SetArchived(ctx context.Context, id string, archived bool) (*domain.Project, error) {
	query := `UPDATE projects SET archived=$1, updated_at=NOW() WHERE id=$2 RETURNING ` + projectColumns
	project, err := scanProject(r.pool.QueryRow(ctx, query, archived, id))
	if err != nil {
		return nil, translate(err)
	}
	return project, nil
}

func (r *projectRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var project domain.Project
	if err := row.Scan(
		&project.ID,
		&project.Name,
		&project.Description,
		&project.ClientID,
		&project.CreatedBy,
		&project.Company,
		&project.Archived,
		&project.CreatedAt,
		&project.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &project, nil
}
