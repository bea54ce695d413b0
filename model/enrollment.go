package model

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// EnrollmentStatus is the approval state of an enrollment. The ordinal values
// are persisted and used in store filters, do not reorder.
type EnrollmentStatus int

const (
	EnrollmentStatusNone EnrollmentStatus = iota
	EnrollmentStatusPendingApproval
	EnrollmentStatusApproved
	EnrollmentStatusRejected
)

var enrollmentStatusNames = map[EnrollmentStatus]string{
	EnrollmentStatusNone:            "none",
	EnrollmentStatusPendingApproval: "pendingApproval",
	EnrollmentStatusApproved:        "approved",
	EnrollmentStatusRejected:        "rejected",
}

// EnrollmentStatuses lists every status in ordinal order.
func EnrollmentStatuses() []EnrollmentStatus {
	return []EnrollmentStatus{
		EnrollmentStatusNone,
		EnrollmentStatusPendingApproval,
		EnrollmentStatusApproved,
		EnrollmentStatusRejected,
	}
}

func (s EnrollmentStatus) String() string {
	if name, ok := enrollmentStatusNames[s]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether s is one of the known statuses.
func (s EnrollmentStatus) Valid() bool {
	_, ok := enrollmentStatusNames[s]
	return ok
}

// ParseEnrollmentStatus accepts the status name (case insensitive).
func ParseEnrollmentStatus(v string) (EnrollmentStatus, bool) {
	for status, name := range enrollmentStatusNames {
		if strings.EqualFold(name, v) {
			return status, true
		}
	}
	return EnrollmentStatusNone, false
}

// Extension is a free-form name/value pair attached to an enrollment.
type Extension struct {
	Name  string `json:"name" dynamodbav:"name"`
	Value string `json:"value" dynamodbav:"value"`
}

// Enrollment is a user's registration to a hackathon. The hackathon name is
// the partition key and the user id the row key.
type Enrollment struct {
	bun.BaseModel `bun:"table:enrollments" json:"-" dynamodbav:"-"`

	HackathonName string           `bun:"partition_key,pk" json:"hackathonName" dynamodbav:"partition_key"`
	UserID        string           `bun:"row_key,pk" json:"userId" dynamodbav:"row_key"`
	Status        EnrollmentStatus `bun:"status,notnull" json:"status" dynamodbav:"status"`
	Extensions    []Extension      `bun:"extensions" json:"extensions,omitempty" dynamodbav:"extensions,omitempty"`
	CreatedAt     time.Time        `bun:"created_at,notnull" json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt     time.Time        `bun:"updated_at,notnull" json:"updatedAt" dynamodbav:"updated_at"`
}

func (e Enrollment) GetPartitionKey() string { return e.HackathonName }

func (e Enrollment) GetRowKey() string { return e.UserID }

func (e Enrollment) GetCreatedAt() time.Time { return e.CreatedAt }

// Approved reports whether the enrollment counts towards the hackathon total.
func (e Enrollment) Approved() bool {
	return e.Status == EnrollmentStatusApproved
}
