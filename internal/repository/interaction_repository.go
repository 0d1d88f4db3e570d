package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/havenpath/outreach-backend/internal/model"
)

// InteractionRepositoryInterface defines methods used by services
type InteractionRepositoryInterface interface {
	Create(rec *model.Interaction) error
	ListByLead(leadID string) ([]model.Interaction, error)
	CountByTypeSince(t model.InteractionType, since time.Time) (int, error)
}

// InteractionRepository is the concrete implementation
type InteractionRepository struct {
	DB *sql.DB
}

// Create appends an interaction record. Interactions are never updated.
func (r *InteractionRepository) Create(rec *model.Interaction) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	query := `
        INSERT INTO interactions (id, lead_id, type, template_id, subject, day_offset, message_id, body, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `
	_, err := r.DB.Exec(query,
		rec.ID, rec.LeadID, rec.Type, rec.TemplateID, rec.Subject,
		rec.DayOffset, rec.MessageID, rec.Body, rec.CreatedAt,
	)
	return err
}

// ListByLead fetches a lead's history, oldest first
func (r *InteractionRepository) ListByLead(leadID string) ([]model.Interaction, error) {
	query := `
        SELECT id, lead_id, type, template_id, subject, day_offset, message_id, body, created_at
        FROM interactions
        WHERE lead_id=$1
        ORDER BY created_at
    `
	rows, err := r.DB.Query(query, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []model.Interaction{}
	for rows.Next() {
		var rec model.Interaction
		if err := rows.Scan(&rec.ID, &rec.LeadID, &rec.Type, &rec.TemplateID, &rec.Subject,
			&rec.DayOffset, &rec.MessageID, &rec.Body, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// CountByTypeSince counts interactions of one type after a cutoff, used by
// the daily and weekly reports.
func (r *InteractionRepository) CountByTypeSince(t model.InteractionType, since time.Time) (int, error) {
	var count int
	err := r.DB.QueryRow(
		`SELECT COUNT(*) FROM interactions WHERE type=$1 AND created_at >= $2`,
		t, since,
	).Scan(&count)
	return count, err
}

var _ InteractionRepositoryInterface = (*InteractionRepository)(nil)
