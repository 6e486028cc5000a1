// Package authz is the single home of the role hierarchy. Both the API
// layer and the storage policies are generated from this table; keeping it
// in one place avoids the two copies drifting.
package authz

import "github.com/calyxlabs/curator/internal/models"

// rank orders roles; anything absent ranks below user and satisfies nothing.
var rank = map[models.Role]int{
	models.RoleUser:    1,
	models.RoleCurator: 2,
	models.RoleAdmin:   3,
}

// Satisfies reports whether an active holder of actual may act as required.
// Inactive profiles satisfy nothing.
func Satisfies(actual, required models.Role, isActive bool) bool {
	if !isActive {
		return false
	}
	ar, ok := rank[actual]
	if !ok {
		return false
	}
	rr, ok := rank[required]
	if !ok {
		return false
	}
	return ar >= rr
}

// CanReview is the gate for upload, process, and chunk review.
func CanReview(p *models.Profile) bool {
	return p != nil && Satisfies(p.Role, models.RoleCurator, p.IsActive)
}

func IsAdmin(p *models.Profile) bool {
	return p != nil && Satisfies(p.Role, models.RoleAdmin, p.IsActive)
}
