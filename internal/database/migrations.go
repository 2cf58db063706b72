package database

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/caseintake/internal/models"
	"github.com/charlesng35/caseintake/pkg/crypto"
)

// AdminSeed describes the admin account created on first start.
type AdminSeed struct {
	Email    string
	Password string
	Name     string
}

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Lead{},
		&models.File{},
		&models.FileBlob{},
		&models.RateCounter{},
	)
}

// SeedAdmin creates the admin user when no account with that email exists.
// Existing accounts are left untouched so a changed password is never reset.
// An empty seed is a no-op.
func SeedAdmin(db *gorm.DB, seed AdminSeed) error {
	email := strings.ToLower(strings.TrimSpace(seed.Email))
	if email == "" && seed.Password == "" {
		return nil
	}
	if email == "" || seed.Password == "" {
		return errors.New("admin seed requires both email and password")
	}

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := crypto.HashPassword(seed.Password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	name := strings.TrimSpace(seed.Name)
	if name == "" {
		name = "Admin User"
	}

	return db.Create(&models.User{
		Email:    email,
		Name:     name,
		Password: hash,
	}).Error
}
