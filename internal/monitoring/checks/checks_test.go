package checks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/caseintake/internal/database/testutil"
	"github.com/charlesng35/caseintake/internal/monitoring"
	"github.com/charlesng35/caseintake/internal/storage"
)

func TestDatabaseAndStorageChecks(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store, err := storage.NewFilesystemStore(t.TempDir())
	require.NoError(t, err)

	mgr := monitoring.NewManager(0)
	mgr.Register(Database(db), BlobStore(store))

	report := mgr.Evaluate(context.Background())
	require.True(t, report.Healthy(), "%+v", report)
	require.Equal(t, "database", report.Checks[0].Component)
	require.Equal(t, "storage", report.Checks[1].Component)
}

func TestChecksReportMissingDependencies(t *testing.T) {
	mgr := monitoring.NewManager(0)
	mgr.Register(Database(nil), BlobStore(nil))

	report := mgr.Evaluate(context.Background())
	require.Equal(t, monitoring.StatusDown, report.Status)
	require.Equal(t, "database not configured", report.Checks[0].Details)
	require.Equal(t, "blob store not configured", report.Checks[1].Details)
}
