package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ayusman/ffbridge/internal/skeleton"
)

// Sample represents a recorded pose sample stored in the database.
type Sample struct {
	ID          int64         `json:"id"`
	PoseID      string        `json:"pose_id"`
	SampleIndex int           `json:"sample_index"`
	Pose        skeleton.Pose `json:"pose"`
	CreatedAt   time.Time     `json:"created_at"`
}

// SampleRepository provides CRUD operations for pose samples.
type SampleRepository struct {
	db *sql.DB
}

// Samples returns the sample repository for this store.
func (s *Store) Samples() *SampleRepository {
	return &SampleRepository{db: s.db}
}

// Create replaces the samples of a pose in a single transaction and updates
// the sample count on the pose.
func (r *SampleRepository) Create(poseID string, samples []skeleton.Pose) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`UPDATE poses SET samples = ?, updated_at = ? WHERE id = ?`,
		len(samples), time.Now(), poseID)
	if err != nil {
		return err
	}
	if err := expectAffected(result); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM pose_samples WHERE pose_id = ?`, poseID); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO pose_samples (pose_id, sample_index, data) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, pose := range samples {
		data, err := json.Marshal(pose)
		if err != nil {
			return fmt.Errorf("encode sample %d: %w", i, err)
		}
		if _, err := stmt.Exec(poseID, i, string(data)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetByPoseID retrieves all samples for a given pose.
func (r *SampleRepository) GetByPoseID(poseID string) ([]Sample, error) {
	rows, err := r.db.Query(
		`SELECT id, pose_id, sample_index, data, created_at
		 FROM pose_samples
		 WHERE pose_id = ?
		 ORDER BY sample_index`,
		poseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var s Sample
		var data string
		if err := rows.Scan(&s.ID, &s.PoseID, &s.SampleIndex, &data, &s.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(data), &s.Pose); err != nil {
			return nil, fmt.Errorf("decode sample %d: %w", s.ID, err)
		}
		samples = append(samples, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}

// DeleteByPoseID removes all samples for a given pose.
func (r *SampleRepository) DeleteByPoseID(poseID string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM pose_samples WHERE pose_id = ?`, poseID); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE poses SET samples = 0, updated_at = ? WHERE id = ?`, time.Now(), poseID); err != nil {
		return err
	}
	return tx.Commit()
}
