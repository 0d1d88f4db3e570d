package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	appErrors "github.com/havenpath/outreach-backend/internal/errors"
	"github.com/havenpath/outreach-backend/internal/model"
)

// LeadRepositoryInterface defines methods used by services
type LeadRepositoryInterface interface {
	Create(l *model.Lead) error
	GetByID(id string) (*model.Lead, error)
	GetByEmail(email string) (*model.Lead, error)
	GetByPhone(phone string) (*model.Lead, error)
	UpdateStatus(leadID string, status model.LeadStatus) error
	SetOptedOut(leadID string, optedOut bool) error
	ListWithInteractions(statuses []model.LeadStatus, excludeOptedOut bool) ([]model.LeadWithInteractions, error)
}

// LeadRepository is the concrete implementation
type LeadRepository struct {
	DB *sql.DB
}

const leadColumns = `id, name, email, phone, veteran, in_recovery, reentry, currently_homeless,
        employment_status, tags, source, notes, opted_out, status, created_at, updated_at`

// Create inserts a lead, assigning an id and created_at when unset.
func (r *LeadRepository) Create(l *model.Lead) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	if l.Status == "" {
		l.Status = model.LeadStatusNew
	}
	if l.EmploymentStatus == "" {
		l.EmploymentStatus = model.EmploymentUnknown
	}
	query := `
        INSERT INTO leads (id, name, email, phone, veteran, in_recovery, reentry, currently_homeless,
            employment_status, tags, source, notes, opted_out, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
    `
	_, err := r.DB.Exec(query,
		l.ID, l.Name, l.Email, l.Phone, l.Veteran, l.InRecovery, l.Reentry, l.CurrentlyHomeless,
		l.EmploymentStatus, pq.Array(l.Tags), l.Source, l.Notes, l.OptedOut, l.Status, l.CreatedAt,
	)
	return err
}

// GetByID fetches a lead by ID
func (r *LeadRepository) GetByID(id string) (*model.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id=$1`
	l, err := scanLead(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewLeadNotFound(id)
		}
		return nil, err
	}
	return l, nil
}

// GetByEmail fetches a lead by email address
func (r *LeadRepository) GetByEmail(email string) (*model.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE lower(email)=lower($1) ORDER BY created_at LIMIT 1`
	l, err := scanLead(r.DB.QueryRow(query, email))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return l, nil
}

// GetByPhone fetches a lead by phone number
func (r *LeadRepository) GetByPhone(phone string) (*model.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE phone=$1 ORDER BY created_at LIMIT 1`
	l, err := scanLead(r.DB.QueryRow(query, phone))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return l, nil
}

func (r *LeadRepository) UpdateStatus(leadID string, status model.LeadStatus) error {
	query := `UPDATE leads SET status=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.DB.Exec(query, status, leadID)
	return err
}

func (r *LeadRepository) SetOptedOut(leadID string, optedOut bool) error {
	query := `UPDATE leads SET opted_out=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.DB.Exec(query, optedOut, leadID)
	return err
}

// ListWithInteractions fetches every lead in the given statuses together with
// its interaction history, ordered oldest lead first. This is the one query
// the campaign sweep runs.
func (r *LeadRepository) ListWithInteractions(statuses []model.LeadStatus, excludeOptedOut bool) ([]model.LeadWithInteractions, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE status = ANY($1)`
	if excludeOptedOut {
		query += ` AND opted_out = FALSE`
	}
	query += ` ORDER BY created_at`

	statusStrs := make([]string, len(statuses))
	for i, s := range statuses {
		statusStrs[i] = string(s)
	}

	rows, err := r.DB.Query(query, pq.Array(statusStrs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []model.LeadWithInteractions{}
	index := map[string]int{}
	ids := []string{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		index[l.ID] = len(result)
		ids = append(ids, l.ID)
		result = append(result, model.LeadWithInteractions{Lead: *l})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return result, nil
	}

	iQuery := `
        SELECT id, lead_id, type, template_id, subject, day_offset, message_id, body, created_at
        FROM interactions
        WHERE lead_id = ANY($1)
        ORDER BY created_at
    `
	iRows, err := r.DB.Query(iQuery, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer iRows.Close()

	for iRows.Next() {
		var rec model.Interaction
		if err := iRows.Scan(&rec.ID, &rec.LeadID, &rec.Type, &rec.TemplateID, &rec.Subject,
			&rec.DayOffset, &rec.MessageID, &rec.Body, &rec.CreatedAt); err != nil {
			return nil, err
		}
		i, ok := index[rec.LeadID]
		if !ok {
			continue
		}
		result[i].Interactions = append(result[i].Interactions, rec)
	}
	return result, iRows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLead(row rowScanner) (*model.Lead, error) {
	var l model.Lead
	var tags pq.StringArray
	if err := row.Scan(&l.ID, &l.Name, &l.Email, &l.Phone, &l.Veteran, &l.InRecovery, &l.Reentry,
		&l.CurrentlyHomeless, &l.EmploymentStatus, &tags, &l.Source, &l.Notes, &l.OptedOut,
		&l.Status, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	l.Tags = []string(tags)
	return &l, nil
}

var _ LeadRepositoryInterface = (*LeadRepository)(nil)
