package entity

import "time"

type MembershipAction string

const (
	MemberJoined MembershipAction = "join"
	MemberLeft   MembershipAction = "leave"
)

type MembershipEvent struct {
	GroupID string           `json:"group_id" bson:"group_id" db:"group_id"`
	UserID  string           `json:"user_id" bson:"user_id" db:"user_id"`
	Action  MembershipAction `json:"action" bson:"action" db:"action"`
	At      time.Time        `json:"timestamp" bson:"at" db:"at"`
}

// MemberRecord is one join or leave of a user.
type MemberRecord struct {
	UserID string    `json:"userId" bson:"user_id" db:"user_id"`
	At     time.Time `json:"timestamp" bson:"at" db:"at"`
}

type GroupStats struct {
	GroupID       string         `json:"group_id"`
	Joins         []MemberRecord `json:"joins"`
	Leaves        []MemberRecord `json:"leaves"`
	Messages      map[string]int `json:"messages"`
	TotalMessages int            `json:"total_messages"`
}
