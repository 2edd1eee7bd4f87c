package model

import "time"

type Follow struct {
	ID         uint64 `gorm:"primaryKey"`
	FollowerID uint64 `gorm:"not null;index:idx_follower_id;uniqueIndex:uk_follow_pair"`
	FolloweeID uint64 `gorm:"not null;index:idx_followee_id;uniqueIndex:uk_follow_pair"`
	Status     int8   `gorm:"not null;default:1;comment:'1=follow,0=unfollow'"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName sets table name for Follow
func (Follow) TableName() string {
	return "follow"
}

const (
	FollowRequestPending  int8 = 0
	FollowRequestAccepted int8 = 1
	FollowRequestRejected int8 = 2
)

// FollowRequest is the pending/accepted handshake in front of a Follow edge.
type FollowRequest struct {
	ID         uint64 `gorm:"primaryKey"`
	FromID     uint64 `gorm:"not null;uniqueIndex:uk_follow_request_pair;index:idx_follow_request_from"`
	ToID       uint64 `gorm:"not null;uniqueIndex:uk_follow_request_pair;index:idx_follow_request_to"`
	Status     int8   `gorm:"not null;default:0;comment:'0=pending,1=accepted,2=rejected'"`
	RejectedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (FollowRequest) TableName() string { return "follow_requests" }

// Block is stored one way; readers check both directions.
type Block struct {
	ID        uint64 `gorm:"primaryKey"`
	BlockerID uint64 `gorm:"not null;uniqueIndex:uk_block_pair;index:idx_block_blocker"`
	BlockedID uint64 `gorm:"not null;uniqueIndex:uk_block_pair;index:idx_block_blocked"`
	CreatedAt time.Time
}

func (Block) TableName() string { return "blocks" }

// Outbox event types
const (
	EventFollow       = "follow"
	EventUnfollow     = "unfollow"
	EventBlock        = "block"
	EventNotification = "notification"
)

// SocialOutbox 社交事件投递表
type SocialOutbox struct {
	ID        uint64 `gorm:"primaryKey"`
	EventType string `gorm:"size:16;not null"`
	ActorID   uint64 `gorm:"not null"`
	TargetID  uint64 `gorm:"not null"`
	Payload   string `gorm:"type:text;not null"`
	Status    int8   `gorm:"not null;default:0;index:idx_outbox_status;comment:'0=pending,1=sent,2=failed'"`
	Retry     int    `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (SocialOutbox) TableName() string { return "social_outbox" }
