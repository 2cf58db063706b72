package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/charlesng35/caseintake/internal/models"
	apperrors "github.com/charlesng35/caseintake/pkg/errors"
	"github.com/charlesng35/caseintake/pkg/metrics"
)

// CreateLeadInput describes the fields accepted from a public submission.
type CreateLeadInput struct {
	FirstName       string
	LastName        string
	Email           string
	Country         string
	LinkedInProfile string
	VisasOfInterest []string
	AdditionalInfo  string
}

// LeadFilter narrows a lead listing. An empty Status or "all" matches every status.
type LeadFilter struct {
	Search string
	Status string
}

// LeadServiceOption configures a LeadService.
type LeadServiceOption func(*LeadService)

// WithLeadClock overrides the clock used to stamp new leads.
func WithLeadClock(now func() time.Time) LeadServiceOption {
	return func(s *LeadService) {
		if now != nil {
			s.now = now
		}
	}
}

// LeadService stores, lists and updates leads.
type LeadService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewLeadService constructs a LeadService.
func NewLeadService(db *gorm.DB, opts ...LeadServiceOption) (*LeadService, error) {
	if db == nil {
		return nil, errors.New("lead service: db is required")
	}
	svc := &LeadService{db: db, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Create stores a new lead. The status is always PENDING.
func (s *LeadService) Create(ctx context.Context, input CreateLeadInput) (*models.Lead, error) {
	ctx = ensureContext(ctx)

	lead := &models.Lead{
		FirstName:       strings.TrimSpace(input.FirstName),
		LastName:        strings.TrimSpace(input.LastName),
		Email:           strings.TrimSpace(input.Email),
		Country:         strings.TrimSpace(input.Country),
		LinkedInProfile: strings.TrimSpace(input.LinkedInProfile),
		VisasOfInterest: datatypes.JSONSlice[string](normaliseVisas(input.VisasOfInterest)),
		AdditionalInfo:  strings.TrimSpace(input.AdditionalInfo),
		Status:          models.LeadStatusPending,
	}
	lead.CreatedAt = s.now().UTC()

	switch {
	case lead.FirstName == "":
		return nil, apperrors.NewValidation("first_name is required")
	case lead.LastName == "":
		return nil, apperrors.NewValidation("last_name is required")
	case lead.Email == "":
		return nil, apperrors.NewValidation("email is required")
	case lead.LinkedInProfile == "":
		return nil, apperrors.NewValidation("linkedin_profile is required")
	case len(lead.VisasOfInterest) == 0:
		return nil, apperrors.NewValidation("visas_of_interest is required")
	}

	if err := s.db.WithContext(ctx).Create(lead).Error; err != nil {
		return nil, apperrors.ErrPersistence.WithInternal(fmt.Errorf("lead service: create lead: %w", err))
	}

	metrics.LeadsSubmitted.Inc()
	return lead, nil
}

// List returns leads matching filter, newest first, with their files attached.
func (s *LeadService) List(ctx context.Context, filter LeadFilter) ([]models.Lead, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).Model(&models.Lead{}).Preload("Files", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("created_at ASC")
	})

	status := strings.TrimSpace(filter.Status)
	if status != "" && !strings.EqualFold(status, "all") {
		parsed := models.LeadStatus(strings.ToUpper(status))
		if !parsed.Valid() {
			return nil, ErrInvalidStatus
		}
		query = query.Where("status = ?", parsed)
	}

	if term := strings.TrimSpace(filter.Search); term != "" {
		like := "%" + escapeLike(strings.ToLower(term)) + "%"
		query = query.Where(
			"LOWER(first_name) LIKE ? ESCAPE '"+likeEscape+"' OR LOWER(last_name) LIKE ? ESCAPE '"+likeEscape+"' OR LOWER(email) LIKE ? ESCAPE '"+likeEscape+"'",
			like, like, like,
		)
	}

	var leads []models.Lead
	if err := query.Order("created_at DESC").Order("id DESC").Find(&leads).Error; err != nil {
		return nil, apperrors.ErrPersistence.WithInternal(fmt.Errorf("lead service: list leads: %w", err))
	}
	return leads, nil
}

// Get loads a lead with its files.
func (s *LeadService) Get(ctx context.Context, id string) (*models.Lead, error) {
	ctx = ensureContext(ctx)
	return s.get(s.db.WithContext(ctx), id)
}

func (s *LeadService) get(tx *gorm.DB, id string) (*models.Lead, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrLeadNotFound
	}

	var lead models.Lead
	err := tx.Preload("Files", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("created_at ASC")
	}).First(&lead, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, apperrors.ErrPersistence.WithInternal(fmt.Errorf("lead service: load lead: %w", err))
	}
	return &lead, nil
}

// UpdateStatus sets the status of a lead and nothing else.
func (s *LeadService) UpdateStatus(ctx context.Context, id string, status models.LeadStatus) (*models.Lead, error) {
	ctx = ensureContext(ctx)

	status = models.LeadStatus(strings.ToUpper(strings.TrimSpace(string(status))))
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	var updated *models.Lead
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lead, err := s.get(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Model(lead).Update("status", status).Error; err != nil {
			return apperrors.ErrPersistence.WithInternal(fmt.Errorf("lead service: update status: %w", err))
		}
		lead.Status = status
		updated = lead
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.LeadStatusChanges.WithLabelValues(string(status)).Inc()
	return updated, nil
}

// CountByStatus returns the number of leads per status. Every known status
// is present in the result.
func (s *LeadService) CountByStatus(ctx context.Context) (map[models.LeadStatus]int64, error) {
	ctx = ensureContext(ctx)

	var rows []struct {
		Status models.LeadStatus
		Total  int64
	}
	err := s.db.WithContext(ctx).Model(&models.Lead{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.ErrPersistence.WithInternal(fmt.Errorf("lead service: count leads: %w", err))
	}

	counts := make(map[models.LeadStatus]int64, len(models.LeadStatuses))
	for _, status := range models.LeadStatuses {
		counts[status] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

// CountStalePending returns the number of pending leads created before cutoff.
func (s *LeadService) CountStalePending(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx = ensureContext(ctx)

	var total int64
	err := s.db.WithContext(ctx).Model(&models.Lead{}).
		Where("status = ? AND created_at < ?", models.LeadStatusPending, cutoff.UTC()).
		Count(&total).Error
	if err != nil {
		return 0, apperrors.ErrPersistence.WithInternal(fmt.Errorf("lead service: count stale leads: %w", err))
	}
	return total, nil
}
