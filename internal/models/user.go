package models

// UserEmailInfo is the contact identity of a user for one delivery attempt.
// It is resolved per call and never cached.
type UserEmailInfo struct {
	ID          string  `json:"id" db:"id"`
	Email       string  `json:"email" db:"email"`
	Name        *string `json:"name,omitempty" db:"name"`
	Role        Role    `json:"role" db:"role"`
	FranchiseID *string `json:"franchiseId,omitempty" db:"franchise_id"`
	Phone       *string `json:"phone,omitempty" db:"phone"`
}

func (u *UserEmailInfo) DisplayName() string {
	if u == nil || u.Name == nil {
		return ""
	}
	return *u.Name
}
