package users

import "time"

// User is a server-side account. The password is stored only as a bcrypt
// hash.
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}
