package cache

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/caseintake/internal/models"
)

// DatabaseStore implements Counter on the rate_counters table.
type DatabaseStore struct {
	db    *gorm.DB
	clock func() time.Time
}

// NewDatabaseStore constructs a database-backed Counter.
func NewDatabaseStore(db *gorm.DB) (*DatabaseStore, error) {
	if db == nil {
		return nil, errors.New("cache: db is required")
	}
	return &DatabaseStore{db: db, clock: time.Now}, nil
}

// IncrementWithTTL increments the counter for key inside a row-locked transaction.
func (s *DatabaseStore) IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if window <= 0 {
		window = time.Minute
	}

	now := s.clock()
	var entry models.RateCounter

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Take(&entry, "counter_key = ?", key).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			entry = models.RateCounter{Key: key, Count: 1, ExpiresAt: now.Add(window)}
			return tx.Create(&entry).Error
		}
		if err != nil {
			return err
		}

		if !entry.ExpiresAt.After(now) {
			entry.Count = 1
			entry.ExpiresAt = now.Add(window)
		} else {
			entry.Count++
		}
		return tx.Save(&entry).Error
	})
	if err != nil {
		return 0, 0, err
	}

	return entry.Count, entry.ExpiresAt.Sub(now), nil
}

// PurgeExpired removes counters whose window has ended.
func (s *DatabaseStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	result := s.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.RateCounter{})
	return result.RowsAffected, result.Error
}

var _ Counter = (*DatabaseStore)(nil)
