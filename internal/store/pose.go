package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/ffbridge/internal/skeleton"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// PoseKind says what a stored pose is used for.
type PoseKind string

const (
	// PoseKindReference is an open or closed reference pose.
	PoseKindReference PoseKind = "reference"
	// PoseKindInteractable is the main pose of an interactable object.
	PoseKindInteractable PoseKind = "interactable"
)

// Valid reports whether k is a known kind.
func (k PoseKind) Valid() bool {
	return k == PoseKindReference || k == PoseKindInteractable
}

// Pose represents a named pose stored in the database. Bone rotations are
// stored separately; see SetBones and GetBones.
type Pose struct {
	ID          string
	Name        string
	Kind        PoseKind
	Description string
	Samples     int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PoseRepository provides CRUD operations for poses.
type PoseRepository struct {
	db *sql.DB
}

// Poses returns the pose repository for this store.
func (s *Store) Poses() *PoseRepository {
	return &PoseRepository{db: s.db}
}

const poseColumns = `id, name, kind, description, samples, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanPose(row scanner) (*Pose, error) {
	p := &Pose{}
	var kind string
	if err := row.Scan(&p.ID, &p.Name, &kind, &p.Description, &p.Samples, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Kind = PoseKind(kind)
	return p, nil
}

// Create inserts a new pose into the database. An empty ID is assigned a
// new UUID.
func (r *PoseRepository) Create(p *Pose) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Kind == "" {
		p.Kind = PoseKindReference
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO poses (`+poseColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, string(p.Kind), p.Description, p.Samples, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

// GetByID retrieves a pose by its ID.
func (r *PoseRepository) GetByID(id string) (*Pose, error) {
	p, err := scanPose(r.db.QueryRow(`SELECT `+poseColumns+` FROM poses WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// GetByName retrieves a pose by its name.
func (r *PoseRepository) GetByName(name string) (*Pose, error) {
	p, err := scanPose(r.db.QueryRow(`SELECT `+poseColumns+` FROM poses WHERE name = ?`, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// List retrieves all poses, optionally filtered by kind. An empty kind lists
// every pose.
func (r *PoseRepository) List(kind PoseKind) ([]*Pose, error) {
	query := `SELECT ` + poseColumns + ` FROM poses`
	var args []any
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY name`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var poses []*Pose
	for rows.Next() {
		p, err := scanPose(rows)
		if err != nil {
			return nil, err
		}
		poses = append(poses, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return poses, nil
}

// Update updates an existing pose in the database.
func (r *PoseRepository) Update(p *Pose) error {
	p.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE poses SET name = ?, kind = ?, description = ?, samples = ?, updated_at = ?
		 WHERE id = ?`,
		p.Name, string(p.Kind), p.Description, p.Samples, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return err
	}

	return expectAffected(result)
}

// Delete removes a pose and its bones and samples by ID.
func (r *PoseRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM poses WHERE id = ?`, id)
	if err != nil {
		return err
	}

	return expectAffected(result)
}

func expectAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetBones replaces the bone rotations of a pose. A nil hand stores no
// rotations for that side.
func (r *PoseRepository) SetBones(id string, pose skeleton.Pose) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`UPDATE poses SET updated_at = ? WHERE id = ?`, time.Now(), id)
	if err != nil {
		return err
	}
	if err := expectAffected(result); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM pose_bones WHERE pose_id = ?`, id); err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO pose_bones (pose_id, side, bone_index, w, x, y, z) VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, side := range skeleton.Sides() {
		for i, rot := range pose.Hand(side) {
			if !rot.Valid() {
				return fmt.Errorf("%s hand bone %d has an invalid rotation", side, i)
			}
			if _, err := stmt.Exec(id, side.String(), i, rot.W, rot.X, rot.Y, rot.Z); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// GetBones retrieves the bone rotations of a pose. A pose without stored
// bones returns an empty Pose.
func (r *PoseRepository) GetBones(id string) (skeleton.Pose, error) {
	if _, err := r.GetByID(id); err != nil {
		return skeleton.Pose{}, err
	}

	rows, err := r.db.Query(
		`SELECT side, bone_index, w, x, y, z FROM pose_bones
		 WHERE pose_id = ?
		 ORDER BY side, bone_index`,
		id,
	)
	if err != nil {
		return skeleton.Pose{}, err
	}
	defer rows.Close()

	var pose skeleton.Pose
	for rows.Next() {
		var (
			sideName string
			index    int
			rot      skeleton.Rotation
		)
		if err := rows.Scan(&sideName, &index, &rot.W, &rot.X, &rot.Y, &rot.Z); err != nil {
			return skeleton.Pose{}, err
		}

		side, err := skeleton.ParseSide(sideName)
		if err != nil {
			return skeleton.Pose{}, err
		}
		set := pose.Hand(side)
		if index != len(set) {
			return skeleton.Pose{}, fmt.Errorf("pose %s %s hand: missing bone %d", id, side, len(set))
		}
		pose.SetHand(side, append(set, rot))
	}

	if err := rows.Err(); err != nil {
		return skeleton.Pose{}, err
	}

	return pose, nil
}

// LoadByName returns the named pose together with its bones.
func (r *PoseRepository) LoadByName(name string) (*Pose, skeleton.Pose, error) {
	p, err := r.GetByName(name)
	if err != nil {
		return nil, skeleton.Pose{}, fmt.Errorf("pose %q: %w", name, err)
	}
	bones, err := r.GetBones(p.ID)
	if err != nil {
		return nil, skeleton.Pose{}, fmt.Errorf("pose %q: %w", name, err)
	}
	return p, bones, nil
}
