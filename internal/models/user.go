package models

import (
	"time"

	"github.com/google/uuid"
)

const MinPasswordLength = 6

type User struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	Username       string
	Email          string
	HashedPassword string
}
