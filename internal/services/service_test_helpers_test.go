package services

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/caseintake/internal/database/testutil"
	"github.com/charlesng35/caseintake/internal/models"
	"github.com/charlesng35/caseintake/internal/storage"
)

type steppingClock struct {
	now  time.Time
	step time.Duration
}

func (c *steppingClock) Now() time.Time {
	c.now = c.now.Add(c.step)
	return c.now
}

func newLeadService(t *testing.T, db *gorm.DB) *LeadService {
	t.Helper()
	clock := &steppingClock{now: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC), step: time.Minute}
	svc, err := NewLeadService(db, WithLeadClock(clock.Now))
	require.NoError(t, err)
	return svc
}

func sampleLeadInput(first, last, email string) CreateLeadInput {
	return CreateLeadInput{
		FirstName:       first,
		LastName:        last,
		Email:           email,
		Country:         "India",
		LinkedInProfile: "https://linkedin.com/in/" + first,
		VisasOfInterest: []string{models.VisaO1},
		AdditionalInfo:  "Researcher with many citations.",
	}
}

func mustCreateLead(t *testing.T, svc *LeadService, first, last, email string) *models.Lead {
	t.Helper()
	lead, err := svc.Create(context.Background(), sampleLeadInput(first, last, email))
	require.NoError(t, err)
	return lead
}

type fileFixture struct {
	db    *gorm.DB
	leads *LeadService
	files *FileService
	store storage.BlobStore
}

func newFileFixture(t *testing.T, cfg FileServiceConfig) fileFixture {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store, err := storage.NewDatabaseStore(db)
	require.NoError(t, err)
	files, err := NewFileService(db, store, cfg)
	require.NoError(t, err)
	return fileFixture{db: db, leads: newLeadService(t, db), files: files, store: store}
}

// failingStore rejects every write.
type failingStore struct{}

func (failingStore) Backend() string { return "failing" }

func (failingStore) Put(context.Context, string, io.Reader, int64, string) error {
	return errors.New("bucket unavailable")
}

func (failingStore) Open(context.Context, string) (io.ReadCloser, error) {
	return nil, storage.ErrBlobNotFound
}

func (failingStore) Delete(context.Context, string) error { return nil }
