package store

import (
	"errors"
	"testing"

	"github.com/ayusman/ffbridge/internal/curl"
	"github.com/ayusman/ffbridge/internal/skeleton"
)

func createPose(t *testing.T, s *Store, name string) *Pose {
	t.Helper()
	p := &Pose{Name: name}
	if err := s.Poses().Create(p); err != nil {
		t.Fatalf("failed to create pose: %v", err)
	}
	return p
}

func TestSampleRepository_Create(t *testing.T) {
	s := newTestStore(t)
	pose := createPose(t, s, "fist")

	samples := []skeleton.Pose{skeleton.FistPose(), skeleton.PartialPose(0.9)}
	if err := s.Samples().Create(pose.ID, samples); err != nil {
		t.Fatalf("failed to create samples: %v", err)
	}

	got, err := s.Samples().GetByPoseID(pose.ID)
	if err != nil {
		t.Fatalf("failed to get samples: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(got))
	}
	for i, sample := range got {
		if sample.SampleIndex != i {
			t.Errorf("sample %d has index %d", i, sample.SampleIndex)
		}
		if len(sample.Pose.Left) != skeleton.NumBones {
			t.Errorf("sample %d has %d left bones", i, len(sample.Pose.Left))
		}
	}

	updated, err := s.Poses().GetByID(pose.ID)
	if err != nil {
		t.Fatalf("failed to get pose: %v", err)
	}
	if updated.Samples != 2 {
		t.Errorf("expected sample count 2, got %d", updated.Samples)
	}
}

func TestSampleRepository_Create_Replaces(t *testing.T) {
	s := newTestStore(t)
	pose := createPose(t, s, "fist")

	if err := s.Samples().Create(pose.ID, []skeleton.Pose{skeleton.FistPose(), skeleton.FistPose()}); err != nil {
		t.Fatalf("failed to create samples: %v", err)
	}
	if err := s.Samples().Create(pose.ID, []skeleton.Pose{skeleton.OpenHandPose()}); err != nil {
		t.Fatalf("failed to replace samples: %v", err)
	}

	got, err := s.Samples().GetByPoseID(pose.ID)
	if err != nil {
		t.Fatalf("failed to get samples: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 sample after replace, got %d", len(got))
	}
}

func TestSampleRepository_Create_UnknownPose(t *testing.T) {
	s := newTestStore(t)

	err := s.Samples().Create("missing", []skeleton.Pose{skeleton.FistPose()})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSampleRepository_DeleteByPoseID(t *testing.T) {
	s := newTestStore(t)
	pose := createPose(t, s, "fist")

	if err := s.Samples().Create(pose.ID, []skeleton.Pose{skeleton.FistPose()}); err != nil {
		t.Fatalf("failed to create samples: %v", err)
	}
	if err := s.Samples().DeleteByPoseID(pose.ID); err != nil {
		t.Fatalf("failed to delete samples: %v", err)
	}

	got, err := s.Samples().GetByPoseID(pose.ID)
	if err != nil {
		t.Fatalf("failed to get samples: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no samples, got %d", len(got))
	}
	updated, _ := s.Poses().GetByID(pose.ID)
	if updated.Samples != 0 {
		t.Errorf("expected sample count 0, got %d", updated.Samples)
	}
}

func TestStore_Train(t *testing.T) {
	s := newTestStore(t)
	pose := createPose(t, s, "fist")

	t.Run("no samples", func(t *testing.T) {
		if _, err := s.Train(pose.ID); err == nil {
			t.Error("expected error without samples")
		}
		if _, err := s.Train("missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("averages samples", func(t *testing.T) {
		samples := []skeleton.Pose{skeleton.PartialPose(0.9), skeleton.PartialPose(1.1)}
		if err := s.Samples().Create(pose.ID, samples); err != nil {
			t.Fatalf("failed to create samples: %v", err)
		}

		if _, err := s.Train(pose.ID); err != nil {
			t.Fatalf("failed to train: %v", err)
		}

		bones, err := s.Poses().GetBones(pose.ID)
		if err != nil {
			t.Fatalf("failed to get bones: %v", err)
		}
		want := skeleton.FistPose().Right[skeleton.IndexProximal]
		if a := skeleton.Angle(want, bones.Right[skeleton.IndexProximal]); a > 0.5 {
			t.Errorf("trained bone is %.3f degrees from the fist", a)
		}
	})
}

func TestStore_References(t *testing.T) {
	s := newTestStore(t)

	if err := s.SeedBuiltin("open", "closed"); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}
	// Seeding twice is a no-op.
	if err := s.SeedBuiltin("open", "closed"); err != nil {
		t.Fatalf("failed to reseed: %v", err)
	}

	refs, err := s.References("open", "closed")
	if err != nil {
		t.Fatalf("failed to load references: %v", err)
	}

	est, err := curl.NewEstimator(refs)
	if err != nil {
		t.Fatalf("failed to build estimator: %v", err)
	}
	report, err := est.Estimate(skeleton.Right, skeleton.FistPose().Right)
	if err != nil {
		t.Fatalf("failed to estimate: %v", err)
	}
	if report.Value(skeleton.Index) != curl.MaxValue {
		t.Errorf("expected index %d, got %d", curl.MaxValue, report.Value(skeleton.Index))
	}

	if _, err := s.References("open", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
