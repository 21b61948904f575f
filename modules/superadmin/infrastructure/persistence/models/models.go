package models

import (
	"database/sql"
	"time"
)

type Administrator struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
}

type SuperadminAuditLog struct {
	ID         int64
	ActorID    sql.NullString
	ActorEmail string
	TenantSlug sql.NullString
	Action     string
	Payload    []byte
	IPAddress  sql.NullString
	UserAgent  sql.NullString
	CreatedAt  time.Time
}
