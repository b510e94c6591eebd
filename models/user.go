package models

import "time"

type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleVoter UserRole = "voter"
)

type User struct {
	ID           int       `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Nickname     string    `json:"nickname"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"created_at"`

	// AttendedEvents is the raw legacy profile value recording which
	// real-world events the user attended. See ParseAttendance for the
	// encodings it may hold.
	AttendedEvents *string `json:"-"`
}

// Attended reports whether the user is recorded as having attended the
// event. Votes from attendees carry full weight.
func (u *User) Attended(eventKey string) bool {
	if u.AttendedEvents == nil {
		return false
	}
	return ParseAttendance(*u.AttendedEvents).Contains(eventKey)
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
