package models

import (
	"time"
)

// Account is a member of the social graph. The three membership sets are a
// denormalized cache derived from relationship edges; they are written only
// by the graph projector and repaired by reconciliation, never edited by
// request handlers directly.
type Account struct {
	ID            string    `json:"id" gorm:"primaryKey;size:191"`
	Name          string    `json:"name" gorm:"not null;size:255"`
	Handle        string    `json:"handle" gorm:"uniqueIndex;not null;size:50"`
	Email         string    `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Password      string    `json:"-" gorm:"not null;size:255"`
	IsPrivate     bool      `json:"is_private" gorm:"default:false"`
	Avatar        *string   `json:"avatar" gorm:"size:500"`
	FollowerIDs   IDSet     `json:"follower_ids" gorm:"type:json"`
	FollowingIDs  IDSet     `json:"following_ids" gorm:"type:json"`
	FriendIDs     IDSet     `json:"friend_ids" gorm:"type:json"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AccountStatistics summarizes an account's graph membership
type AccountStatistics struct {
	FollowersCount int `json:"followers_count"`
	FollowingCount int `json:"following_count"`
	FriendsCount   int `json:"friends_count"`
}

// Statistics derives counts from the membership sets
func (a *Account) Statistics() AccountStatistics {
	return AccountStatistics{
		FollowersCount: len(a.FollowerIDs),
		FollowingCount: len(a.FollowingIDs),
		FriendsCount:   len(a.FriendIDs),
	}
}
