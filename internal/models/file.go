package models

// File records an uploaded resume. The payload itself lives in the blob store
// named by StorageBackend under StorageKey.
type File struct {
	BaseModel

	LeadID         string `gorm:"type:uuid;not null;index" json:"lead_id"`
	Filename       string `gorm:"type:varchar(255);not null" json:"filename"`
	ContentType    string `gorm:"type:varchar(127);not null" json:"content_type"`
	Size           int64  `gorm:"not null" json:"size"`
	Checksum       string `gorm:"type:varchar(64)" json:"checksum"`
	PageCount      int    `json:"page_count,omitempty"`
	StorageBackend string `gorm:"type:varchar(32);not null" json:"-"`
	StorageKey     string `gorm:"type:varchar(512);not null" json:"-"`
}

// FileBlob holds payload bytes for the database blob store.
type FileBlob struct {
	Key  string `gorm:"column:blob_key;primaryKey;type:varchar(512)"`
	Data []byte `gorm:"not null"`
}
