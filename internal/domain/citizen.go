package domain

import "time"

// CitizenStatus represents lifecycle states for a citizen account.
type CitizenStatus string

const (
	CitizenStatusActive    CitizenStatus = "ACTIVE"
	CitizenStatusSuspended CitizenStatus = "SUSPENDED"
)

// Citizen is the domain model for residents who file grievances and pay bills.
type Citizen struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Ward         string
	Status       CitizenStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
