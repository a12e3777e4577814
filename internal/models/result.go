package models

import (
	"encoding/json"
	"time"
)

type SignupRequest struct {
	FullName string `json:"fullName" form:"fullName"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Grade    string `json:"grade" form:"grade"`
	Country  string `json:"country" form:"country"`
}

type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Session is the token pair handed to a client after signup, login or refresh.
type Session struct {
	AccessToken  string    `json:"token"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

type GenerateRequest struct {
	Prompt string `json:"prompt"`
}

type CreateAssessmentRequest struct {
	Profile *Profile `json:"profile"`
	Save    bool     `json:"save"`
}

// SaveAssessmentRequest keeps results raw so they go through the same schema
// validation as model output.
type SaveAssessmentRequest struct {
	UserID        string          `json:"userId"`
	FormData      *Profile        `json:"formData"`
	Results       json.RawMessage `json:"results"`
	IsAIGenerated bool            `json:"isAIGenerated"`
}

type HistoryEntry struct {
	ID            string           `json:"id"`
	Date          time.Time        `json:"date"`
	FormData      Profile          `json:"formData"`
	Results       AssessmentResult `json:"results"`
	IsAIGenerated bool             `json:"isAIGenerated"`
}

func NewHistoryEntry(a *Assessment) HistoryEntry {
	return HistoryEntry{
		ID:            a.ID.String(),
		Date:          a.CreatedAt,
		FormData:      a.FormData.Data(),
		Results:       a.Results.Data(),
		IsAIGenerated: a.IsAIGenerated,
	}
}
