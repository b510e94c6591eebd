package models

import "time"

// PollStatus mirrors the ENUM in the polls table.
type PollStatus string

const (
	PollStatusOpen   PollStatus = "open"
	PollStatusClosed PollStatus = "closed"
)

// Poll is one ranking campaign: a universe of options voted into a seeding,
// tied to a real-world event whose attendees vote at full weight.
type Poll struct {
	ID        int        `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	EventKey  string     `json:"event_key" db:"event_key"`
	Status    PollStatus `json:"status" db:"status"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

type Option struct {
	ID        int       `json:"id" db:"id"`
	PollID    int       `json:"poll_id" db:"poll_id"`
	Title     string    `json:"title" db:"title"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	PhotoKey  *string   `json:"-" db:"photo_key"`
	PhotoURL  *string   `json:"photo_url,omitempty" db:"-"`
}

// VoteWithAttendance carries a vote together with the voter's raw
// attendance value, as loaded for score aggregation.
type VoteWithAttendance struct {
	Vote
	AttendedEvents *string `json:"-" db:"attended_events"`
}

// Vote is a single rank assignment by one voter. A voter's ballot is their
// set of votes for a poll, at most one per option and at most five ranks.
type Vote struct {
	ID        int       `json:"id" db:"id"`
	PollID    int       `json:"poll_id" db:"poll_id"`
	OptionID  int       `json:"option_id" db:"option_id"`
	VoterID   int       `json:"voter_id" db:"voter_id"`
	Rank      int       `json:"rank" db:"rank"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
