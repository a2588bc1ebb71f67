package models

import "time"

type EdgeKind string

const (
	EdgeKindFollow EdgeKind = "follow"
	EdgeKindFriend EdgeKind = "friend"
)

type EdgeStatus string

const (
	EdgeStatusPending  EdgeStatus = "pending"
	EdgeStatusAccepted EdgeStatus = "accepted"
	EdgeStatusRejected EdgeStatus = "rejected"
)

// RelationshipEdge is a directed relationship record between two accounts.
// PairKey is sender|receiver|kind while the edge is pending or accepted and
// NULL once rejected, so the unique index admits at most one live edge per
// pair and kind while rejected edges remain for audit.
type RelationshipEdge struct {
	ID         string     `json:"id" gorm:"primaryKey;size:191"`
	SenderID   string     `json:"sender_id" gorm:"not null;size:191;index"`
	ReceiverID string     `json:"receiver_id" gorm:"not null;size:191;index"`
	Kind       EdgeKind   `json:"kind" gorm:"not null;size:20"`
	Status     EdgeStatus `json:"status" gorm:"not null;default:'pending';size:20"`
	PairKey    *string    `json:"-" gorm:"uniqueIndex;size:500"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	Sender   Account `json:"sender,omitempty" gorm:"foreignKey:SenderID"`
	Receiver Account `json:"receiver,omitempty" gorm:"foreignKey:ReceiverID"`
}

// EdgePairKey builds the uniqueness key for a live edge
func EdgePairKey(senderID, receiverID string, kind EdgeKind) string {
	return senderID + "|" + receiverID + "|" + string(kind)
}

// IsPending reports whether the edge still awaits a receiver decision
func (e *RelationshipEdge) IsPending() bool {
	return e.Status == EdgeStatusPending
}

// BlockEdge suppresses all relationships between two accounts while present.
type BlockEdge struct {
	ID        string    `json:"id" gorm:"primaryKey;size:191"`
	BlockerID string    `json:"blocker_id" gorm:"not null;size:191;uniqueIndex:uk_block_pair"`
	BlockedID string    `json:"blocked_id" gorm:"not null;size:191;uniqueIndex:uk_block_pair"`
	CreatedAt time.Time `json:"created_at"`

	Blocker Account `json:"-" gorm:"foreignKey:BlockerID"`
	Blocked Account `json:"-" gorm:"foreignKey:BlockedID"`
}

// RelationStatus is the caller-facing summary of the a→b relationship
type RelationStatus string

const (
	RelationStatusNone            RelationStatus = "none"
	RelationStatusPendingSent     RelationStatus = "pending_sent"
	RelationStatusPendingReceived RelationStatus = "pending_received"
	RelationStatusFollowing       RelationStatus = "following"
	RelationStatusFriends         RelationStatus = "friends"
	RelationStatusBlocked         RelationStatus = "blocked"
)
