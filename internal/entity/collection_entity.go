package entity

import (
	"time"

	"github.com/google/uuid"
)

// Collection is a user-created set of datasets.
type Collection struct {
	Id         uuid.UUID
	UserId     string
	Name       string
	DatasetIds []string
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}
