package model

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// HackathonRowKey is the constant row key of hackathon records. Each
// hackathon owns its own partition.
const HackathonRowKey = "hackathon"

// Hackathon is the parent record of enrollments. Enrollment holds the number
// of approved enrollments and is only written by the counter reconciler.
type Hackathon struct {
	bun.BaseModel `bun:"table:hackathons" json:"-" dynamodbav:"-"`

	Name                string    `bun:"partition_key,pk" json:"name" dynamodbav:"partition_key"`
	RowKey              string    `bun:"row_key,pk" json:"-" dynamodbav:"row_key"`
	DisplayName         string    `bun:"display_name" json:"displayName,omitempty" dynamodbav:"display_name,omitempty"`
	AutoApprove         bool      `bun:"auto_approve" json:"autoApprove" dynamodbav:"auto_approve"`
	Enrollment          int       `bun:"enrollment" json:"enrollment" dynamodbav:"enrollment"`
	MaxEnrollment       int       `bun:"max_enrollment" json:"maxEnrollment" dynamodbav:"max_enrollment"`
	EnrollmentStartedAt time.Time `bun:"enrollment_started_at,nullzero" json:"enrollmentStartedAt,omitempty" dynamodbav:"enrollment_started_at,omitempty"`
	EnrollmentEndedAt   time.Time `bun:"enrollment_ended_at,nullzero" json:"enrollmentEndedAt,omitempty" dynamodbav:"enrollment_ended_at,omitempty"`
	CreatedAt           time.Time `bun:"created_at,notnull" json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt           time.Time `bun:"updated_at,notnull" json:"updatedAt" dynamodbav:"updated_at"`
}

// NewHackathon returns a hackathon keyed by the normalized name.
func NewHackathon(name string) Hackathon {
	return Hackathon{
		Name:   NormalizeHackathonName(name),
		RowKey: HackathonRowKey,
	}
}

// NormalizeHackathonName lowercases and trims a hackathon name. Hackathon
// names are case insensitive everywhere they are used as keys.
func NormalizeHackathonName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (h Hackathon) GetPartitionKey() string { return h.Name }

func (h Hackathon) GetRowKey() string { return HackathonRowKey }

func (h Hackathon) GetCreatedAt() time.Time { return h.CreatedAt }

// EnrollmentOpen reports whether now falls inside the enrollment window.
// A zero bound leaves that side of the window open.
func (h Hackathon) EnrollmentOpen(now time.Time) bool {
	return !h.EnrollmentNotStarted(now) && !h.EnrollmentEnded(now)
}

func (h Hackathon) EnrollmentNotStarted(now time.Time) bool {
	return !h.EnrollmentStartedAt.IsZero() && now.Before(h.EnrollmentStartedAt)
}

func (h Hackathon) EnrollmentEnded(now time.Time) bool {
	return !h.EnrollmentEndedAt.IsZero() && now.After(h.EnrollmentEndedAt)
}
