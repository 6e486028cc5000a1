package models

import "time"

type Role string

const (
	RoleUser    Role = "user"
	RoleCurator Role = "curator"
	RoleAdmin   Role = "admin"
)

// Profile mirrors one row per identity-provider user. The ID is the
// provider's user UUID (subject claim), so profiles cascade away if the
// external identity is removed.
type Profile struct {
	ID       string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Email    string `gorm:"column:email;type:text" json:"email"`
	FullName string `gorm:"column:full_name;type:text" json:"full_name"`
	Role     Role   `gorm:"column:role;type:text" json:"role"` // user | curator | admin
	IsActive bool   `gorm:"column:is_active" json:"is_active"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (Profile) TableName() string { return "profiles" }
