package domain

import "time"

// MaterialType is the kind of recyclable being picked up.
type MaterialType string

const (
	MaterialPlastic MaterialType = "plastic"
	MaterialPaper   MaterialType = "paper"
	MaterialGlass   MaterialType = "glass"
	MaterialMetal   MaterialType = "metal"
	MaterialEWaste  MaterialType = "e-waste"
	MaterialTextile MaterialType = "textile"
	MaterialOrganic MaterialType = "organic"
	MaterialOther   MaterialType = "other"
)

// Materials lists every accepted material in display order.
var Materials = []MaterialType{
	MaterialPlastic,
	MaterialPaper,
	MaterialGlass,
	MaterialMetal,
	MaterialEWaste,
	MaterialTextile,
	MaterialOrganic,
	MaterialOther,
}

// Valid reports whether m belongs to the closed material set.
func (m MaterialType) Valid() bool {
	for _, known := range Materials {
		if m == known {
			return true
		}
	}
	return false
}

// RequestStatus represents the lifecycle state of a pickup request.
type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusScheduled RequestStatus = "scheduled"
	StatusCompleted RequestStatus = "completed"
)

// Valid reports whether s belongs to the closed status set.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusScheduled, StatusCompleted:
		return true
	}
	return false
}

// forwardTransitions is consulted only under TransitionForward.
var forwardTransitions = map[RequestStatus][]RequestStatus{
	StatusPending:   {StatusScheduled, StatusCompleted},
	StatusScheduled: {StatusCompleted},
}

// CanAdvanceTo reports whether next is reachable from s moving forward only.
// Re-applying the current status is always allowed.
func (s RequestStatus) CanAdvanceTo(next RequestStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range forwardTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// statuses lists the lifecycle in order.
var statuses = []RequestStatus{StatusPending, StatusScheduled, StatusCompleted}

// AdvanceSources returns every status from which next may be set under
// TransitionForward.
func AdvanceSources(next RequestStatus) []RequestStatus {
	var out []RequestStatus
	for _, s := range statuses {
		if s.CanAdvanceTo(next) {
			out = append(out, s)
		}
	}
	return out
}

// TransitionPolicy selects how status updates are checked.
type TransitionPolicy string

const (
	// TransitionAny lets any status be set from any other.
	TransitionAny TransitionPolicy = "any"
	// TransitionForward only allows pending -> scheduled -> completed.
	TransitionForward TransitionPolicy = "forward"
)

// DeletePolicy selects who may delete a pickup request.
type DeletePolicy string

const (
	DeleteAny          DeletePolicy = "any"
	DeleteOwnerOrAdmin DeletePolicy = "owner_or_admin"
)

// PickupRequest is a single recycling pickup request.
type PickupRequest struct {
	ID            string
	UserID        string
	UserName      string
	MaterialType  MaterialType
	Quantity      string
	PickupAddress string
	Status        RequestStatus
	UpdatedBy     string
	UpdatedByName string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
