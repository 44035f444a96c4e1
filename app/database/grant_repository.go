package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/grantscout/grantscout/app/grant"
)

var _ GrantRepository = (*GrantRepo)(nil)

// GrantRepo persists per-user tracked-grant lists. Each user owns exactly one
// row; saves overwrite the whole document and the last writer wins.
type GrantRepo struct {
	db *DB
}

func NewGrantRepository(db *DB) *GrantRepo {
	return &GrantRepo{db: db}
}

func (r *GrantRepo) SaveList(list grant.TrackedGrantList) error {
	payload, err := json.Marshal(list.Grants)
	if err != nil {
		return fmt.Errorf("failed to marshal tracked grants: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO tracked_grants (user_id, payload, grant_count, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			payload = excluded.payload,
			grant_count = excluded.grant_count,
			updated_at = excluded.updated_at
	`, list.UserID, string(payload), len(list.Grants), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save tracked grants: %w", err)
	}

	return nil
}

// LoadList returns the user's tracked-grant list. A user with no saved list
// gets an empty (never nil) document, so callers need not special-case first
// contact.
func (r *GrantRepo) LoadList(userID string) (*grant.TrackedGrantList, error) {
	var payload string
	var updatedAt time.Time

	err := r.db.QueryRow(`
		SELECT payload, updated_at FROM tracked_grants WHERE user_id = ?
	`, userID).Scan(&payload, &updatedAt)

	if err == sql.ErrNoRows {
		return &grant.TrackedGrantList{
			UserID:    userID,
			Grants:    []grant.TrackedGrant{},
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load tracked grants: %w", err)
	}

	var grants []grant.TrackedGrant
	if err := json.Unmarshal([]byte(payload), &grants); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tracked grants: %w", err)
	}
	if grants == nil {
		grants = []grant.TrackedGrant{}
	}

	return &grant.TrackedGrantList{
		UserID:    userID,
		Grants:    grants,
		Timestamp: updatedAt.Format(time.RFC3339),
	}, nil
}

// UpdateGrant applies tracking-field changes to one grant in the user's list
// via read-modify-write. Returns nil when the grant is not tracked.
func (r *GrantRepo) UpdateGrant(userID, grantID string, update grant.TrackedGrantUpdate) (*grant.TrackedGrant, error) {
	list, err := r.LoadList(userID)
	if err != nil {
		return nil, err
	}

	for i := range list.Grants {
		if list.Grants[i].ID != grantID {
			continue
		}

		if update.Status != nil {
			list.Grants[i].Status = *update.Status
		}
		if update.ApplicationDate != nil {
			list.Grants[i].ApplicationDate = *update.ApplicationDate
		}
		if update.SubmittedDate != nil {
			list.Grants[i].SubmittedDate = *update.SubmittedDate
		}
		list.Grants[i].LastUpdate = time.Now().UTC().Format(time.RFC3339)

		if err := r.SaveList(*list); err != nil {
			return nil, err
		}
		return &list.Grants[i], nil
	}

	return nil, nil
}

// DeleteGrant removes one grant from the user's list, reporting whether it
// was present.
func (r *GrantRepo) DeleteGrant(userID, grantID string) (bool, error) {
	list, err := r.LoadList(userID)
	if err != nil {
		return false, err
	}

	kept := make([]grant.TrackedGrant, 0, len(list.Grants))
	found := false
	for _, g := range list.Grants {
		if g.ID == grantID {
			found = true
			continue
		}
		kept = append(kept, g)
	}

	if !found {
		return false, nil
	}

	list.Grants = kept
	if err := r.SaveList(*list); err != nil {
		return false, err
	}
	return true, nil
}

func (r *GrantRepo) DeleteAll(userID string) error {
	_, err := r.db.Exec(`DELETE FROM tracked_grants WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete tracked grants: %w", err)
	}
	return nil
}

func (r *GrantRepo) ListUserIDs() ([]string, error) {
	rows, err := r.db.Query(`SELECT user_id FROM tracked_grants ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	return ids, nil
}

func (r *GrantRepo) GetUserCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM tracked_grants`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tracked users: %w", err)
	}
	return count, nil
}
