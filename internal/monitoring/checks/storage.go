package checks

import (
	"context"
	"errors"

	"github.com/charlesng35/caseintake/internal/monitoring"
	"github.com/charlesng35/caseintake/internal/storage"
)

// BlobStore probes the resume store. Stores that cannot be pinged are
// reported as up once configured.
func BlobStore(store storage.BlobStore) monitoring.Check {
	return monitoring.Check{
		Name: "storage",
		Run: func(ctx context.Context) error {
			if store == nil {
				return errors.New("blob store not configured")
			}
			if pinger, ok := store.(storage.Pinger); ok {
				return pinger.Ping(ctx)
			}
			return nil
		},
	}
}
