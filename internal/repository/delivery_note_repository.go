package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/deliverynote-service/internal/domain"
)

// DeliveryNoteRepository encapsulates delivery note persistence.
type DeliveryNoteRepository interface {
	Create(ctx context.Context, note *domain.DeliveryNote) error
	Update(ctx context.Context, note *domain.DeliveryNote) error
	GetByID(ctx context.Context, id string) (*domain.DeliveryNote, error)
	FindOne(ctx context.Context, filter ScopeFilter) (*domain.DeliveryNote, error)
	List(ctx context.Context, filter ScopeFilter) ([]domain.DeliveryNote, error)
	SetArchived(ctx context.Context, id string, archived bool) (*domain.DeliveryNote, error)
	Delete(ctx context.Context, id string) error
}

type deliveryNoteRepository struct {
	pool *pgxpool.Pool
}

// NewDeliveryNoteRepository instantiates repository.
func NewDeliveryNoteRepository(pool *pgxpool.Pool) DeliveryNoteRepository {
	return &deliveryNoteRepository{pool: pool}
}

const deliveryNoteColumns = `id, type, project_id, created_by, company_id, hours, materials, signed,
               signature_url, pdf_url, archived, created_at, updated_at`

func (r *deliveryNoteRepository) Create(ctx context.Context, note *domain.DeliveryNote) error {
	const query = `
        INSERT INTO delivery_notes (type, project_id, created_by, company_id, hours, materials, signed,
                                    signature_url, pdf_url, archived)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		note.Type,
		note.ProjectID,
		note.CreatedBy,
		note.Company,
		nonNilHours(note.Hours),
		nonNilMaterials(note.Materials),
		note.Signed,
		note.SignatureURL,
		note.PDFURL,
		note.Archived,
	).Scan(&note.ID, &note.CreatedAt, &note.UpdatedAt)
}

func (r *deliveryNoteRepository) Update(ctx context.Context, note *domain.DeliveryNote) error {
	const query = `
        UPDATE delivery_notes SET type=$1, project_id=$2, hours=$3, materials=$4, signed=$5,
            signature_url=$6, pdf_url=$7, updated_at=NOW()
        WHERE id=$8
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		note.Type,
		note.ProjectID,
		nonNilHours(note.Hours),
		nonNilMaterials(note.Materials),
		note.Signed,
		note.SignatureURL,
		note.PDFURL,
		note.ID,
	).Scan(&note.UpdatedAt)
	return translate(err)
}

func (r *deliveryNoteRepository) GetByID(ctx context.Context, id string) (*domain.DeliveryNote, error) {
	return r.FindOne(ctx, ScopeFilter{ID: &id})
}

func (r *deliveryNoteRepository) FindOne(ctx context.Context, filter ScopeFilter) (*domain.DeliveryNote, error) {
	where, args := filter.where()
	row := r.pool.QueryRow(ctx, `SELECT `+deliveryNoteColumns+` FROM delivery_notes WHERE `+where+` LIMIT 1`, args...)
	note, err := scanDeliveryNote(row)
	if err != nil {
		return nil, translate(err)
	}
	return note, nil
}

func (r *deliveryNoteRepository) List(ctx context.Context, filter ScopeFilter) ([]domain.DeliveryNote, error) {
	where, args := filter.where()
	rows, err := r.pool.Query(ctx, `SELECT `+deliveryNoteColumns+` FROM delivery_notes WHERE `+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.DeliveryNote{}
	for rows.Next() {
		note, err := scanDeliveryNote(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *note)
	}
	return result, rows.Err()
}

func (r *deliveryNoteRepository) SetArchived(ctx context.Context, id string, archived bool) (*domain.DeliveryNote, error) {
	query := `UPDATE delivery_notes SET archived=$1, updated_at=NOW() WHERE id=$2 RETURNING ` + deliveryNoteColumns
	note, err := scanDeliveryNote(r.pool.QueryRow(ctx, query, archived, id))
	if err != nil {
		return nil, translate(err)
	}
	return note, nil
}

// Delete removes an unsigned note. The signed guard is repeated in SQL so a note
// signed between the service check and the delete survives.
func (r *deliveryNoteRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM delivery_notes WHERE id=$1 AND signed=false`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanDeliveryNote(row pgx.Row) (*domain.DeliveryNote, error) {
	var note domain.DeliveryNote
	if err := row.Scan(
		&note.ID,
		&note.Type,
		&note.ProjectID,
		&note.CreatedBy,
		&note.Company,
		&note.Hours,
		&note.Materials,
		&note.Signed,
		&note.SignatureURL,
		&note.PDFURL,
		&note.Archived,
		&note.CreatedAt,
		&note.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &note, nil
}

func nonNilHours(h []domain.HourEntry) []domain.HourEntry {
	if h == nil {
		return []domain.HourEntry{}
	}
	return h
}

func nonNilMaterials(m []domain.MaterialEntry) []domain.MaterialEntry {
	if m == nil {
		return []domain.MaterialEntry{}
	}
	return m
}
