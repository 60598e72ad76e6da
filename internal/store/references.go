package store

import (
	"fmt"

	"github.com/ayusman/ffbridge/internal/curl"
	"github.com/ayusman/ffbridge/internal/skeleton"
)

// References loads the open and closed reference poses by name.
func (s *Store) References(openName, closedName string) (curl.References, error) {
	_, open, err := s.Poses().LoadByName(openName)
	if err != nil {
		return curl.References{}, fmt.Errorf("open reference: %w", err)
	}
	_, closed, err := s.Poses().LoadByName(closedName)
	if err != nil {
		return curl.References{}, fmt.Errorf("closed reference: %w", err)
	}

	refs := curl.References{Open: open, Closed: closed}
	if err := refs.Validate(); err != nil {
		return curl.References{}, err
	}
	return refs, nil
}

// Train averages the recorded samples of a pose and stores the result as the
// pose's bones.
func (s *Store) Train(poseID string) (skeleton.Pose, error) {
	samples, err := s.Samples().GetByPoseID(poseID)
	if err != nil {
		return skeleton.Pose{}, err
	}
	if len(samples) == 0 {
		if _, err := s.Poses().GetByID(poseID); err != nil {
			return skeleton.Pose{}, err
		}
		return skeleton.Pose{}, fmt.Errorf("pose %s has no samples", poseID)
	}

	poses := make([]skeleton.Pose, len(samples))
	for i, sample := range samples {
		poses[i] = sample.Pose
	}

	avg, err := skeleton.AveragePose(poses)
	if err != nil {
		return skeleton.Pose{}, err
	}
	if err := s.Poses().SetBones(poseID, avg); err != nil {
		return skeleton.Pose{}, err
	}
	return avg, nil
}

// SeedBuiltin stores the built-in open and closed reference poses under the
// given names if they do not exist yet.
func (s *Store) SeedBuiltin(openName, closedName string) error {
	refs := curl.BuiltinReferences()
	seeds := []struct {
		name string
		pose skeleton.Pose
		desc string
	}{
		{openName, refs.Open, "Built-in open hand"},
		{closedName, refs.Closed, "Built-in closed fist"},
	}

	for _, seed := range seeds {
		if _, err := s.Poses().GetByName(seed.name); err == nil {
			continue
		} else if err != ErrNotFound {
			return err
		}

		p := &Pose{Name: seed.name, Kind: PoseKindReference, Description: seed.desc}
		if err := s.Poses().Create(p); err != nil {
			return fmt.Errorf("seed %s: %w", seed.name, err)
		}
		if err := s.Poses().SetBones(p.ID, seed.pose); err != nil {
			return fmt.Errorf("seed %s: %w", seed.name, err)
		}
	}
	return nil
}
