package domain

import "time"

type UserID string

// User is the profile document owned by the external document store.
type User struct {
	UID       UserID    `json:"uid"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	LastName  string    `json:"last_name,omitempty"`
	Age       int       `json:"age,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName combines name and last name the way the identity provider
// stores it.
func (u *User) DisplayName() string {
	if u.LastName == "" {
		return u.Name
	}
	return u.Name + " " + u.LastName
}

// UserUpdate carries the optional fields of a profile update. Nil means
// "leave unchanged".
type UserUpdate struct {
	Name     *string
	LastName *string
	Age      *int
	Email    *string
}

// Identity is the verified caller identity produced by session verification.
type Identity struct {
	UID         UserID `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}
