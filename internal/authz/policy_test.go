package authz

import (
	"testing"

	"github.com/calyxlabs/curator/internal/models"
)

func TestSatisfies_RoleTable(t *testing.T) {
	cases := []struct {
		actual, required models.Role
		want             bool
	}{
		{models.RoleUser, models.RoleUser, true},
		{models.RoleUser, models.RoleCurator, false},
		{models.RoleUser, models.RoleAdmin, false},
		{models.RoleCurator, models.RoleUser, true},
		{models.RoleCurator, models.RoleCurator, true},
		{models.RoleCurator, models.RoleAdmin, false},
		{models.RoleAdmin, models.RoleUser, true},
		{models.RoleAdmin, models.RoleCurator, true},
		{models.RoleAdmin, models.RoleAdmin, true},
	}
	for _, c := range cases {
		if got := Satisfies(c.actual, c.required, true); got != c.want {
			t.Fatalf("Satisfies(%s, %s, true) = %v, want %v", c.actual, c.required, got, c.want)
		}
	}
}

func TestSatisfies_InactiveAlwaysFalse(t *testing.T) {
	roles := []models.Role{models.RoleUser, models.RoleCurator, models.RoleAdmin}
	for _, actual := range roles {
		for _, required := range roles {
			if Satisfies(actual, required, false) {
				t.Fatalf("Satisfies(%s, %s, false) = true, want false", actual, required)
			}
		}
	}
}

func TestSatisfies_UnknownRole(t *testing.T) {
	if Satisfies("superuser", models.RoleUser, true) {
		t.Fatalf("unknown actual role must not satisfy anything")
	}
	if Satisfies(models.RoleAdmin, "root", true) {
		t.Fatalf("unknown required role must not be satisfiable")
	}
}

func TestCanReviewAndIsAdmin(t *testing.T) {
	curator := &models.Profile{Role: models.RoleCurator, IsActive: true}
	if !CanReview(curator) {
		t.Fatalf("active curator must be able to review")
	}
	if IsAdmin(curator) {
		t.Fatalf("curator is not admin")
	}

	inactiveAdmin := &models.Profile{Role: models.RoleAdmin, IsActive: false}
	if CanReview(inactiveAdmin) || IsAdmin(inactiveAdmin) {
		t.Fatalf("inactive admin must satisfy nothing")
	}
	if CanReview(nil) {
		t.Fatalf("nil profile must satisfy nothing")
	}
}
