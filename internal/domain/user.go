package domain

import "time"

type User struct {
	ID        string
	Name      string
	Email     string
	Active    bool
	CreatedAt time.Time
}
