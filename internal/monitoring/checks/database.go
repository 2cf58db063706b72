package checks

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/charlesng35/caseintake/internal/monitoring"
)

// Database pings the underlying sql.DB of the gorm handle.
func Database(db *gorm.DB) monitoring.Check {
	return monitoring.Check{
		Name: "database",
		Run: func(ctx context.Context) error {
			if db == nil {
				return errors.New("database not configured")
			}
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
}
