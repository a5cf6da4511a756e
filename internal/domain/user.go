package domain

import "time"

// User identifies a job owner. The engine only needs the identity; credential
// handling lives outside this module.
type User struct {
	ID        string
	Username  string
	APIKey    string
	CreatedAt time.Time
}
