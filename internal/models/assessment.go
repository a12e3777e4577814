package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Assessment is one immutable history entry owned by a single user.
type Assessment struct {
	ID            uuid.UUID                            `gorm:"type:uuid;primary_key" json:"id"`
	UserID        uuid.UUID                            `gorm:"type:uuid;not null;index:idx_assessments_user_created,priority:1" json:"userId"`
	FormData      datatypes.JSONType[Profile]          `gorm:"type:jsonb;not null" json:"formData"`
	Results       datatypes.JSONType[AssessmentResult] `gorm:"type:jsonb;not null" json:"results"`
	IsAIGenerated bool                                 `gorm:"not null;default:false" json:"isAIGenerated"`
	CreatedAt     time.Time                            `gorm:"not null;index:idx_assessments_user_created,priority:2,sort:desc" json:"createdAt"`
}

func (Assessment) TableName() string {
	return "assessments"
}

// AssessmentStats aggregates a user's history. LastAssessmentDate is nil when
// the user has no records.
type AssessmentStats struct {
	TotalAssessments            int        `json:"totalAssessments"`
	AverageOverallScore         int        `json:"averageOverallScore"`
	AverageAcademicScore        int        `json:"averageAcademicScore"`
	AverageExtracurricularScore int        `json:"averageExtracurricularScore"`
	HighestScore                int        `json:"highestScore"`
	LowestScore                 int        `json:"lowestScore"`
	Improvement                 int        `json:"improvement"`
	LastAssessmentDate          *time.Time `json:"lastAssessmentDate,omitempty"`
}
