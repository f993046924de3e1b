// Package domain defines the persistence models for model applications and
// the audit trail. These types are mapped with GORM and shared across the
// repository, intake and service layers.
package domain

import (
	"time"

	"gorm.io/datatypes"
)

// ApplicationStatus is the review state of an Application.
type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "pending"
	StatusApproved ApplicationStatus = "approved"
	StatusRejected ApplicationStatus = "rejected"
)

// Valid reports whether s is one of the known statuses.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Application is a prospective model's intake submission.
//
// Rows are created only by the intake service, always as pending. After
// insertion only Status and UpdatedAt change, and only through admin review.
//
// Fields:
//   - ID: UUID assigned at persistence time (char(36)).
//   - Name / Email: required, sanitized; email is lower-cased.
//   - Phone, Age, Height, Weight, Measurements, Experience, AdditionalInfo:
//     optional, nil when the applicant left them out.
//   - PortfolioURLs: up to 10 http(s) links, stored as a JSON array.
//   - Status: pending | approved | rejected.
type Application struct {
	ID             string                      `json:"id"                        gorm:"type:char(36);primaryKey"`
	Name           string                      `json:"name"                      gorm:"type:varchar(100);not null"`
	Email          string                      `json:"email"                     gorm:"type:varchar(100);not null;index"`
	Phone          *string                     `json:"phone,omitempty"           gorm:"type:varchar(20)"`
	Age            *int                        `json:"age,omitempty"`
	Height         *int                        `json:"height,omitempty"`
	Weight         *int                        `json:"weight,omitempty"`
	Measurements   *string                     `json:"measurements,omitempty"    gorm:"type:varchar(50)"`
	Experience     *string                     `json:"experience,omitempty"      gorm:"type:text"`
	PortfolioURLs  datatypes.JSONSlice[string] `json:"portfolio_urls,omitempty"  gorm:"column:portfolio_urls"`
	AdditionalInfo *string                     `json:"additional_info,omitempty" gorm:"type:text"`
	Status         ApplicationStatus           `json:"status"                    gorm:"type:varchar(16);not null;default:'pending';index;check:status IN ('pending','approved','rejected')"`
	CreatedAt      time.Time                   `json:"created_at"                gorm:"index"`
	UpdatedAt      time.Time                   `json:"updated_at"`
}

// TableName returns the database table name for Application.
func (Application) TableName() string { return "applications" }
