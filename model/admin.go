package model

import (
	"time"

	"github.com/uptrace/bun"
)

// HackathonAdmin grants a user admin rights on one hackathon.
type HackathonAdmin struct {
	bun.BaseModel `bun:"table:hackathon_admins" json:"-" dynamodbav:"-"`

	HackathonName string    `bun:"partition_key,pk" json:"hackathonName" dynamodbav:"partition_key"`
	UserID        string    `bun:"row_key,pk" json:"userId" dynamodbav:"row_key"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,notnull" json:"updatedAt" dynamodbav:"updated_at"`
}

func (a HackathonAdmin) GetPartitionKey() string { return a.HackathonName }

func (a HackathonAdmin) GetRowKey() string { return a.UserID }

func (a HackathonAdmin) GetCreatedAt() time.Time { return a.CreatedAt }
