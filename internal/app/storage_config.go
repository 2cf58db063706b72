package app

import (
	"strings"

	"github.com/charlesng35/caseintake/internal/database"
	"github.com/charlesng35/caseintake/internal/services"
	"github.com/charlesng35/caseintake/internal/storage"
)

// ConnectionConfig converts DatabaseConfig into database.Open parameters.
func (c DatabaseConfig) ConnectionConfig() database.Config {
	return database.Config{
		Driver:   strings.ToLower(strings.TrimSpace(c.Driver)),
		Path:     c.Path,
		DSN:      c.DSN,
		Host:     c.Host,
		Port:     c.Port,
		Name:     c.Name,
		User:     c.User,
		Password: c.Password,
		Options:  c.Options,
	}
}

// BlobStoreConfig converts StorageConfig into storage.New parameters.
func (c StorageConfig) BlobStoreConfig() storage.Config {
	return storage.Config{
		Driver: strings.ToLower(strings.TrimSpace(c.Driver)),
		Path:   c.Path,
		S3: storage.S3Config{
			Bucket:          c.S3.Bucket,
			Region:          c.S3.Region,
			Endpoint:        c.S3.Endpoint,
			AccessKeyID:     c.S3.AccessKeyID,
			SecretAccessKey: c.S3.SecretAccessKey,
			Prefix:          c.S3.Prefix,
			UsePathStyle:    c.S3.UsePathStyle,
		},
	}
}

// FileServiceConfig converts StorageConfig into FileService limits.
func (c StorageConfig) FileServiceConfig() services.FileServiceConfig {
	return services.FileServiceConfig{
		MaxBytes: c.MaxUploadBytes,
		Inspect:  c.InspectDocuments,
	}
}
