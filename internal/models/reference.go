package models

import (
	"time"

	"github.com/google/uuid"
)

// ReferenceDocument is an admissions reference PDF ingested into the vector store.
type ReferenceDocument struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Filename         string    `gorm:"type:text" json:"filename"`
	OriginalFileName string    `gorm:"type:text" json:"originalFilename"`
	DocType          string    `gorm:"type:text;index" json:"docType"`
	FilePath         string    `gorm:"type:text" json:"-"`
	ChunkCount       int       `gorm:"not null;default:0" json:"chunkCount"`
	CreatedAt        time.Time `gorm:"not null" json:"createdAt"`
}

func (ReferenceDocument) TableName() string {
	return "reference_documents"
}
