package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// userRepo implements UserRepository.
type userRepo struct {
	pool *pgxpool.Pool
}

func (r *userRepo) Upsert(ctx context.Context, email, credential string) (*User, error) {
	const q = `INSERT INTO users (email, credential) VALUES ($1, $2)
ON CONFLICT (email) DO UPDATE SET credential = EXCLUDED.credential
RETURNING id, email, credential, created_at`
	var u User
	err := r.pool.QueryRow(ctx, q, email, credential).Scan(&u.ID, &u.Email, &u.Credential, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return &u, nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*User, error) {
	const q = `SELECT id, email, credential, created_at FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, q, id))
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	const q = `SELECT id, email, credential, created_at FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, q, email))
}

func (r *userRepo) List(ctx context.Context) ([]User, error) {
	const q = `SELECT id, email, credential, created_at FROM users ORDER BY id`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.Credential, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *userRepo) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM users WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Credential, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// snapshotRepo implements SnapshotRepository.
type snapshotRepo struct {
	pool *pgxpool.Pool
}

const snapshotColumns = `user_id, uid, title, start_time, end_time, attendees,
organizer, description, location, status, content_hash, first_seen_at, updated_at`

func (r *snapshotRepo) ListWindow(ctx context.Context, userID int64, start, end time.Time) ([]MeetingSnapshot, error) {
	q := `SELECT ` + snapshotColumns + ` FROM meeting_snapshots
WHERE user_id = $1 AND start_time >= $2 AND start_time < $3
ORDER BY start_time`
	rows, err := r.pool.Query(ctx, q, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []MeetingSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, *snap)
	}
	return snaps, rows.Err()
}

func (r *snapshotRepo) GetByUID(ctx context.Context, userID int64, uid string) (*MeetingSnapshot, error) {
	q := `SELECT ` + snapshotColumns + ` FROM meeting_snapshots WHERE user_id = $1 AND uid = $2`
	snap, err := scanSnapshot(r.pool.QueryRow(ctx, q, userID, uid))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return snap, err
}

func (r *snapshotRepo) Upsert(ctx context.Context, snap MeetingSnapshot) error {
	const q = `INSERT INTO meeting_snapshots
(user_id, uid, title, start_time, end_time, attendees, organizer, description, location, status, content_hash)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (user_id, uid) DO UPDATE SET
    title = EXCLUDED.title,
    start_time = EXCLUDED.start_time,
    end_time = EXCLUDED.end_time,
    attendees = EXCLUDED.attendees,
    organizer = EXCLUDED.organizer,
    description = EXCLUDED.description,
    location = EXCLUDED.location,
    status = EXCLUDED.status,
    content_hash = EXCLUDED.content_hash,
    updated_at = NOW()`
	attendees := snap.Attendees
	if attendees == nil {
		attendees = []string{}
	}
	_, err := r.pool.Exec(ctx, q,
		snap.UserID, snap.UID, snap.Title, snap.Start, snap.End, attendees,
		snap.Organizer, snap.Description, snap.Location, snap.Status, snap.ContentHash)
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

func (r *snapshotRepo) MarkCancelled(ctx context.Context, userID int64, uid string) error {
	const q = `UPDATE meeting_snapshots SET status = 'CANCELLED', updated_at = NOW()
WHERE user_id = $1 AND uid = $2`
	tag, err := r.pool.Exec(ctx, q, userID, uid)
	if err != nil {
		return fmt.Errorf("mark snapshot cancelled: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanSnapshot(row pgx.Row) (*MeetingSnapshot, error) {
	var s MeetingSnapshot
	err := row.Scan(&s.UserID, &s.UID, &s.Title, &s.Start, &s.End, &s.Attendees,
		&s.Organizer, &s.Description, &s.Location, &s.Status, &s.ContentHash,
		&s.FirstSeenAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, fmt.Errorf("scan snapshot: %w", err)
	}
	return &s, nil
}

// digestRepo implements DigestRepository.
type digestRepo struct {
	pool *pgxpool.Pool
}

func (r *digestRepo) Sent(ctx context.Context, userID int64, date time.Time) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM digest_log WHERE user_id = $1 AND digest_date = $2)`
	var sent bool
	if err := r.pool.QueryRow(ctx, q, userID, date).Scan(&sent); err != nil {
		return false, fmt.Errorf("check digest: %w", err)
	}
	return sent, nil
}

func (r *digestRepo) MarkSent(ctx context.Context, userID int64, date time.Time) error {
	const q = `INSERT INTO digest_log (user_id, digest_date) VALUES ($1, $2)
ON CONFLICT (user_id, digest_date) DO NOTHING`
	if _, err := r.pool.Exec(ctx, q, userID, date); err != nil {
		return fmt.Errorf("record digest: %w", err)
	}
	return nil
}
