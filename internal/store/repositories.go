package store

import (
	"context"
	"time"
)

// UserRepository defines persistence operations for monitored accounts.
type UserRepository interface {
	Upsert(ctx context.Context, email, credential string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Delete(ctx context.Context, id int64) error
}

// SnapshotRepository handles per-user meeting snapshot storage.
type SnapshotRepository interface {
	ListWindow(ctx context.Context, userID int64, start, end time.Time) ([]MeetingSnapshot, error)
	GetByUID(ctx context.Context, userID int64, uid string) (*MeetingSnapshot, error)
	Upsert(ctx context.Context, snap MeetingSnapshot) error
	MarkCancelled(ctx context.Context, userID int64, uid string) error
}

// DigestRepository gates the once-per-day digest.
type DigestRepository interface {
	Sent(ctx context.Context, userID int64, date time.Time) (bool, error)
	MarkSent(ctx context.Context, userID int64, date time.Time) error
}
