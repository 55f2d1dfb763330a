package enums

import "fmt"

// BuildingSiteStatus represents the building_site_status enum in Postgres.
type BuildingSiteStatus string

const (
	BuildingSiteStatusActive   BuildingSiteStatus = "active"
	BuildingSiteStatusInactive BuildingSiteStatus = "inactive"
)

var validBuildingSiteStatuses = []BuildingSiteStatus{
	BuildingSiteStatusActive,
	BuildingSiteStatusInactive,
}

// String implements fmt.Stringer.
func (s BuildingSiteStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known BuildingSiteStatus.
func (s BuildingSiteStatus) IsValid() bool {
	for _, candidate := range validBuildingSiteStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseBuildingSiteStatus converts raw input into a BuildingSiteStatus.
func ParseBuildingSiteStatus(value string) (BuildingSiteStatus, error) {
	for _, candidate := range validBuildingSiteStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid building site status %q", value)
}
