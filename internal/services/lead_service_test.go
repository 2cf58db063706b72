package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/caseintake/internal/database/testutil"
	"github.com/charlesng35/caseintake/internal/models"
	apperrors "github.com/charlesng35/caseintake/pkg/errors"
)

func TestLeadServiceCreateForcesPending(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := newLeadService(t, db)

	input := sampleLeadInput("  Ada ", "Lovelace", "ada@example.com")
	input.VisasOfInterest = []string{models.VisaO1, " ", "H-1B", models.VisaO1, models.VisaEB1A}

	lead, err := svc.Create(context.Background(), input)
	require.NoError(t, err)
	require.NotEmpty(t, lead.ID)
	require.Equal(t, "Ada", lead.FirstName)
	require.Equal(t, models.LeadStatusPending, lead.Status)
	require.Equal(t, []string{models.VisaO1, models.VisaEB1A}, []string(lead.VisasOfInterest))
	require.Nil(t, lead.ResumeFileID)

	var stored models.Lead
	require.NoError(t, db.First(&stored, "id = ?", lead.ID).Error)
	require.Equal(t, models.LeadStatusPending, stored.Status)
}

func TestLeadServiceCreateRequiresFields(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := newLeadService(t, db)

	input := sampleLeadInput("Ada", "Lovelace", "ada@example.com")
	input.VisasOfInterest = nil

	_, err := svc.Create(context.Background(), input)
	appErr := apperrors.FromError(err)
	require.Equal(t, apperrors.ErrValidation.Code, appErr.Code)
	require.Equal(t, "visas_of_interest is required", appErr.Message)

	input = sampleLeadInput("Ada", "Lovelace", " ")
	_, err = svc.Create(context.Background(), input)
	require.Equal(t, "email is required", apperrors.FromError(err).Message)

	var count int64
	require.NoError(t, db.Model(&models.Lead{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestLeadServiceListNewestFirst(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := newLeadService(t, db)

	first := mustCreateLead(t, svc, "Ada", "Lovelace", "ada@example.com")
	second := mustCreateLead(t, svc, "Grace", "Hopper", "grace@example.com")
	third := mustCreateLead(t, svc, "Alan", "Turing", "alan@example.com")

	leads, err := svc.List(context.Background(), LeadFilter{})
	require.NoError(t, err)
	require.Equal(t, []string{third.ID, second.ID, first.ID}, leadIDs(leads))
}

func TestLeadServiceListFiltersByStatus(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := newLeadService(t, db)
	ctx := context.Background()

	a := mustCreateLead(t, svc, "Ada", "Lovelace", "ada@example.com")
	b := mustCreateLead(t, svc, "Grace", "Hopper", "grace@example.com")
	c := mustCreateLead(t, svc, "Alan", "Turing", "alan@example.com")

	_, err := svc.UpdateStatus(ctx, b.ID, models.LeadStatusReachedOut)
	require.NoError(t, err)

	pending, err := svc.List(ctx, LeadFilter{Status: "PENDING"})
	require.NoError(t, err)
	require.Equal(t, []string{c.ID, a.ID}, leadIDs(pending))
	for _, lead := range pending {
		require.Equal(t, models.LeadStatusPending, lead.Status)
	}

	reached, err := svc.List(ctx, LeadFilter{Status: "reached_out"})
	require.NoError(t, err)
	require.Equal(t, []string{b.ID}, leadIDs(reached))

	all, err := svc.List(ctx, LeadFilter{Status: "all"})
	require.NoError(t, err)
	require.Len(t, all, 3)

	_, err = svc.List(ctx, LeadFilter{Status: "ARCHIVED"})
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestLeadServiceListSearch(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := newLeadService(t, db)
	ctx := context.Background()

	ada := mustCreateLead(t, svc, "Ada", "Lovelace", "countess@example.com")
	grace := mustCreateLead(t, svc, "Grace", "Hopper", "grace@navy.mil")
	mustCreateLead(t, svc, "Alan", "Turing", "alan@example.com")

	cases := map[string][]string{
		"ada":      {ada.ID},
		"HOPPER":   {grace.ID},
		"navy.mil": {grace.ID},
		"countess": {ada.ID},
		"zzz":      nil,
		"%":        nil,
		"_":        nil,
	}
	for term, want := range cases {
		leads, err := svc.List(ctx, LeadFilter{Search: term})
		require.NoError(t, err, term)
		require.Equal(t, want, leadIDs(leads), term)
	}

	combined, err := svc.List(ctx, LeadFilter{Search: "a", Status: "PENDING"})
	require.NoError(t, err)
	require.Len(t, combined, 3)
}

func TestLeadServiceGet(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := newLeadService(t, db)

	lead := mustCreateLead(t, svc, "Ada", "Lovelace", "ada@example.com")

	got, err := svc.Get(context.Background(), lead.ID)
	require.NoError(t, err)
	require.Equal(t, lead.Email, got.Email)
	require.Empty(t, got.Files)

	_, err = svc.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrLeadNotFound)
}

func TestLeadServiceUpdateStatusChangesOnlyStatus(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := newLeadService(t, db)
	ctx := context.Background()

	lead := mustCreateLead(t, svc, "Ada", "Lovelace", "ada@example.com")

	updated, err := svc.UpdateStatus(ctx, lead.ID, models.LeadStatusReachedOut)
	require.NoError(t, err)
	require.Equal(t, models.LeadStatusReachedOut, updated.Status)

	reloaded, err := svc.Get(ctx, lead.ID)
	require.NoError(t, err)
	require.Equal(t, models.LeadStatusReachedOut, reloaded.Status)
	require.Equal(t, lead.FirstName, reloaded.FirstName)
	require.Equal(t, lead.LastName, reloaded.LastName)
	require.Equal(t, lead.Email, reloaded.Email)
	require.Equal(t, lead.Country, reloaded.Country)
	require.Equal(t, lead.LinkedInProfile, reloaded.LinkedInProfile)
	require.Equal(t, lead.VisasOfInterest, reloaded.VisasOfInterest)
	require.Equal(t, lead.AdditionalInfo, reloaded.AdditionalInfo)
	require.True(t, lead.CreatedAt.Equal(reloaded.CreatedAt))
}

func TestLeadServiceUpdateStatusErrors(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := newLeadService(t, db)
	ctx := context.Background()

	_, err := svc.UpdateStatus(ctx, "00000000-0000-0000-0000-000000000000", models.LeadStatusReachedOut)
	require.ErrorIs(t, err, ErrLeadNotFound)

	lead := mustCreateLead(t, svc, "Ada", "Lovelace", "ada@example.com")
	_, err = svc.UpdateStatus(ctx, lead.ID, models.LeadStatus("CLOSED"))
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestLeadServiceUpdateStatusIsIdempotent(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc := newLeadService(t, db)
	ctx := context.Background()

	lead := mustCreateLead(t, svc, "Ada", "Lovelace", "ada@example.com")

	for i := 0; i < 2; i++ {
		updated, err := svc.UpdateStatus(ctx, lead.ID, models.LeadStatusReachedOut)
		require.NoError(t, err)
		require.Equal(t, models.LeadStatusReachedOut, updated.Status)
	}
}

func TestLeadServiceCounts(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	clock := &steppingClock{now: start, step: 24 * time.Hour}
	svc, err := NewLeadService(db, WithLeadClock(clock.Now))
	require.NoError(t, err)
	ctx := context.Background()

	counts, err := svc.CountByStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, map[models.LeadStatus]int64{
		models.LeadStatusPending:    0,
		models.LeadStatusReachedOut: 0,
	}, counts)

	mustCreateLead(t, svc, "Ada", "Lovelace", "ada@example.com")       // day 1
	b := mustCreateLead(t, svc, "Grace", "Hopper", "grace@example.com") // day 2
	mustCreateLead(t, svc, "Alan", "Turing", "alan@example.com")        // day 3
	_, err = svc.UpdateStatus(ctx, b.ID, models.LeadStatusReachedOut)
	require.NoError(t, err)

	counts, err = svc.CountByStatus(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, counts[models.LeadStatusPending])
	require.EqualValues(t, 1, counts[models.LeadStatusReachedOut])

	stale, err := svc.CountStalePending(ctx, start.Add(60*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, stale)
}

func leadIDs(leads []models.Lead) []string {
	if len(leads) == 0 {
		return nil
	}
	ids := make([]string, len(leads))
	for i, lead := range leads {
		ids[i] = lead.ID
	}
	return ids
}
