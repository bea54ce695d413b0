package model

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// WorkType is the kind of artifact a team submits.
type WorkType int

const (
	WorkTypeWebsite WorkType = iota
	WorkTypeImage
	WorkTypeVideo
	WorkTypeWord
	WorkTypePowerPoint
)

var workTypeNames = map[WorkType]string{
	WorkTypeWebsite:    "website",
	WorkTypeImage:      "image",
	WorkTypeVideo:      "video",
	WorkTypeWord:       "word",
	WorkTypePowerPoint: "powerpoint",
}

func (t WorkType) String() string {
	if name, ok := workTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseWorkType accepts the type name (case insensitive).
func ParseWorkType(v string) (WorkType, bool) {
	for t, name := range workTypeNames {
		if strings.EqualFold(name, v) {
			return t, true
		}
	}
	return WorkTypeWebsite, false
}

// TeamWork is an artifact submitted by a team, partitioned by team id.
type TeamWork struct {
	bun.BaseModel `bun:"table:team_works" json:"-" dynamodbav:"-"`

	TeamID        string    `bun:"partition_key,pk" json:"teamId" dynamodbav:"partition_key"`
	ID            string    `bun:"row_key,pk" json:"id" dynamodbav:"row_key"`
	HackathonName string    `bun:"hackathon_name" json:"hackathonName" dynamodbav:"hackathon_name"`
	Title         string    `bun:"title" json:"title" dynamodbav:"title"`
	Description   string    `bun:"description" json:"description,omitempty" dynamodbav:"description,omitempty"`
	URL           string    `bun:"url" json:"url,omitempty" dynamodbav:"url,omitempty"`
	Type          WorkType  `bun:"type" json:"type" dynamodbav:"type"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,notnull" json:"updatedAt" dynamodbav:"updated_at"`
}

func (w TeamWork) GetPartitionKey() string { return w.TeamID }

func (w TeamWork) GetRowKey() string { return w.ID }

func (w TeamWork) GetCreatedAt() time.Time { return w.CreatedAt }
