package domain

import "time"

// GrievanceStatus enumerates lifecycle states for grievances.
type GrievanceStatus string

const (
	GrievanceStatusRegistered GrievanceStatus = "REGISTERED"
	GrievanceStatusAssigned   GrievanceStatus = "ASSIGNED"
	GrievanceStatusInProgress GrievanceStatus = "IN_PROGRESS"
	GrievanceStatusResolved   GrievanceStatus = "RESOLVED"
	GrievanceStatusClosed     GrievanceStatus = "CLOSED"
	GrievanceStatusRejected   GrievanceStatus = "REJECTED"
)

// GrievancePriority enumerates SLA urgency tiers.
type GrievancePriority string

const (
	GrievancePriorityLow      GrievancePriority = "LOW"
	GrievancePriorityMedium   GrievancePriority = "MEDIUM"
	GrievancePriorityHigh     GrievancePriority = "HIGH"
	GrievancePriorityCritical GrievancePriority = "CRITICAL"
)

// GrievanceCategory is the closed set of service-request categories.
type GrievanceCategory string

const (
	CategoryRoad              GrievanceCategory = "ROAD"
	CategoryWaterSupply       GrievanceCategory = "WATER_SUPPLY"
	CategoryDrainage          GrievanceCategory = "DRAINAGE"
	CategoryStreetlight       GrievanceCategory = "STREETLIGHT"
	CategoryGarbage           GrievanceCategory = "GARBAGE"
	CategorySanitation        GrievanceCategory = "SANITATION"
	CategoryEncroachment      GrievanceCategory = "ENCROACHMENT"
	CategoryBuildingViolation GrievanceCategory = "BUILDING_VIOLATION"
	CategoryOther             GrievanceCategory = "OTHER"
)

// GrievanceCategories lists every valid category.
func GrievanceCategories() []GrievanceCategory {
	return []GrievanceCategory{
		CategoryRoad,
		CategoryWaterSupply,
		CategoryDrainage,
		CategoryStreetlight,
		CategoryGarbage,
		CategorySanitation,
		CategoryEncroachment,
		CategoryBuildingViolation,
		CategoryOther,
	}
}

// GrievanceKind distinguishes complaints from service applications.
// Applications derive their commitment deadline from category, not priority.
type GrievanceKind string

const (
	KindComplaint   GrievanceKind = "COMPLAINT"
	KindApplication GrievanceKind = "APPLICATION"
)

// Department enumerates handling units.
type Department string

const (
	DepartmentGeneral     Department = "GENERAL"
	DepartmentRoads       Department = "ROADS"
	DepartmentWater       Department = "WATER"
	DepartmentElectrical  Department = "ELECTRICAL"
	DepartmentSanitation  Department = "SANITATION"
	DepartmentEnforcement Department = "ENFORCEMENT"
)

// Location pins a grievance to an address and ward.
type Location struct {
	Address   string
	Landmark  *string
	Latitude  *float64
	Longitude *float64
	Ward      string
}

// AuditEntry is an immutable audit trail record. Entries are append-only.
type AuditEntry struct {
	Status  GrievanceStatus
	Note    string
	ActorID string
	At      time.Time
}

// Resolution captures terminal resolution data, set only when a grievance
// transitions to RESOLVED.
type Resolution struct {
	Note        string
	ResolverID  string
	ResolvedAt  time.Time
	ActionTaken string
}

// Feedback is the one-time citizen rating, settable only while RESOLVED.
type Feedback struct {
	Rating      int
	Comment     string
	SubmittedAt time.Time
}

// Grievance is the aggregate for citizen service requests.
//
// Number, PriorityScore, PrioritySignals and CommitmentDue are write-once:
// they are computed at intake and never recomputed. Version is the
// optimistic-concurrency token checked on every update.
type Grievance struct {
	ID              string
	Number          string
	RequesterID     string
	Category        GrievanceCategory
	Kind            GrievanceKind
	Description     string
	Location        Location
	Attachments     []string
	Status          GrievanceStatus
	Priority        GrievancePriority
	PriorityScore   int
	PrioritySignals []string
	Department      Department
	CommitmentDue   time.Time
	AssigneeID      *string
	AuditTrail      []AuditEntry
	Resolution      *Resolution
	Feedback        *Feedback
	Version         int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsTerminal reports whether no further transitions are defined.
func (s GrievanceStatus) IsTerminal() bool {
	return s == GrievanceStatusClosed || s == GrievanceStatusRejected
}
