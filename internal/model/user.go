package model

import "time"

// User represents an application user record as stored in the `users`
// table.  PasswordHash is a bcrypt hash and is never serialized.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Name         – display name.
//	Email        – unique, lower-cased email address.
//	PasswordHash – bcrypt hashed password.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    `json:"_id,string"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Profile is the public view returned by GET /profile.
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	ID    uint64 `json:"_id,string"`
}

// Profile strips everything but name, email and id.
func (u User) Profile() Profile {
	return Profile{Name: u.Name, Email: u.Email, ID: u.ID}
}
