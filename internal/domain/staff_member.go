package domain

import "time"

// StaffMember models a municipal operator handling grievances.
type StaffMember struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Department   *Department
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
