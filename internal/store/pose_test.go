package store

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ayusman/ffbridge/internal/skeleton"
)

func TestPoseRepository_Create(t *testing.T) {
	s := newTestStore(t)
	repo := s.Poses()

	pose := &Pose{Name: "grip", Kind: PoseKindInteractable, Description: "mug handle"}
	if err := repo.Create(pose); err != nil {
		t.Fatalf("failed to create pose: %v", err)
	}

	if pose.ID == "" {
		t.Error("ID should be assigned on create")
	}
	if pose.CreatedAt.IsZero() || pose.UpdatedAt.IsZero() {
		t.Error("timestamps should be set after create")
	}

	got, err := repo.GetByID(pose.ID)
	if err != nil {
		t.Fatalf("failed to get pose: %v", err)
	}
	if got.Name != "grip" || got.Kind != PoseKindInteractable || got.Description != "mug handle" {
		t.Errorf("unexpected pose %+v", got)
	}
}

func TestPoseRepository_Create_Defaults(t *testing.T) {
	s := newTestStore(t)

	pose := &Pose{ID: "fixed-id", Name: "flat"}
	if err := s.Poses().Create(pose); err != nil {
		t.Fatalf("failed to create pose: %v", err)
	}
	if pose.ID != "fixed-id" {
		t.Errorf("explicit ID should be kept, got %q", pose.ID)
	}
	if pose.Kind != PoseKindReference {
		t.Errorf("expected default kind %q, got %q", PoseKindReference, pose.Kind)
	}
}

func TestPoseRepository_Create_DuplicateName(t *testing.T) {
	s := newTestStore(t)

	if err := s.Poses().Create(&Pose{Name: "flat"}); err != nil {
		t.Fatalf("failed to create pose: %v", err)
	}
	if err := s.Poses().Create(&Pose{Name: "flat"}); err == nil {
		t.Error("expected error for duplicate name")
	}
}

func TestPoseRepository_Create_InvalidKind(t *testing.T) {
	s := newTestStore(t)

	if err := s.Poses().Create(&Pose{Name: "odd", Kind: "bogus"}); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestPoseRepository_GetByName(t *testing.T) {
	s := newTestStore(t)
	repo := s.Poses()

	if err := repo.Create(&Pose{Name: "fist"}); err != nil {
		t.Fatalf("failed to create pose: %v", err)
	}

	got, err := repo.GetByName("fist")
	if err != nil {
		t.Fatalf("failed to get pose: %v", err)
	}
	if got.Name != "fist" {
		t.Errorf("expected name fist, got %q", got.Name)
	}

	if _, err := repo.GetByName("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPoseRepository_List(t *testing.T) {
	s := newTestStore(t)
	repo := s.Poses()

	for _, p := range []*Pose{
		{Name: "b-open"},
		{Name: "a-closed"},
		{Name: "c-mug", Kind: PoseKindInteractable},
	} {
		if err := repo.Create(p); err != nil {
			t.Fatalf("failed to create pose: %v", err)
		}
	}

	all, err := repo.List("")
	if err != nil {
		t.Fatalf("failed to list poses: %v", err)
	}
	var names []string
	for _, p := range all {
		names = append(names, p.Name)
	}
	if diff := cmp.Diff([]string{"a-closed", "b-open", "c-mug"}, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}

	refs, err := repo.List(PoseKindReference)
	if err != nil {
		t.Fatalf("failed to list poses: %v", err)
	}
	if len(refs) != 2 {
		t.Errorf("expected 2 reference poses, got %d", len(refs))
	}
}

func TestPoseRepository_Update(t *testing.T) {
	s := newTestStore(t)
	repo := s.Poses()

	pose := &Pose{Name: "flat"}
	if err := repo.Create(pose); err != nil {
		t.Fatalf("failed to create pose: %v", err)
	}

	pose.Name = "open"
	pose.Description = "renamed"
	if err := repo.Update(pose); err != nil {
		t.Fatalf("failed to update pose: %v", err)
	}

	got, err := repo.GetByID(pose.ID)
	if err != nil {
		t.Fatalf("failed to get pose: %v", err)
	}
	if got.Name != "open" || got.Description != "renamed" {
		t.Errorf("update not persisted: %+v", got)
	}

	if err := repo.Update(&Pose{ID: "missing", Name: "x", Kind: PoseKindReference}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPoseRepository_Delete(t *testing.T) {
	s := newTestStore(t)
	repo := s.Poses()

	pose := &Pose{Name: "flat"}
	if err := repo.Create(pose); err != nil {
		t.Fatalf("failed to create pose: %v", err)
	}
	if err := repo.SetBones(pose.ID, skeleton.OpenHandPose()); err != nil {
		t.Fatalf("failed to set bones: %v", err)
	}

	if err := repo.Delete(pose.ID); err != nil {
		t.Fatalf("failed to delete pose: %v", err)
	}
	if _, err := repo.GetByID(pose.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	var bones int
	if err := s.DB().QueryRow(`SELECT COUNT(*) FROM pose_bones WHERE pose_id = ?`, pose.ID).Scan(&bones); err != nil {
		t.Fatalf("failed to count bones: %v", err)
	}
	if bones != 0 {
		t.Errorf("expected bones to cascade, %d left", bones)
	}

	if err := repo.Delete(pose.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestPoseRepository_Bones(t *testing.T) {
	s := newTestStore(t)
	repo := s.Poses()

	pose := &Pose{Name: "fist"}
	if err := repo.Create(pose); err != nil {
		t.Fatalf("failed to create pose: %v", err)
	}

	t.Run("empty before set", func(t *testing.T) {
		got, err := repo.GetBones(pose.ID)
		if err != nil {
			t.Fatalf("failed to get bones: %v", err)
		}
		if len(got.Left) != 0 || len(got.Right) != 0 {
			t.Errorf("expected no bones, got %d/%d", len(got.Left), len(got.Right))
		}
	})

	t.Run("round trip", func(t *testing.T) {
		want := skeleton.FistPose()
		if err := repo.SetBones(pose.ID, want); err != nil {
			t.Fatalf("failed to set bones: %v", err)
		}
		got, err := repo.GetBones(pose.ID)
		if err != nil {
			t.Fatalf("failed to get bones: %v", err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("bones mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("replace keeps one hand", func(t *testing.T) {
		want := skeleton.Pose{Right: skeleton.OpenHandPose().Right}
		if err := repo.SetBones(pose.ID, want); err != nil {
			t.Fatalf("failed to set bones: %v", err)
		}
		got, err := repo.GetBones(pose.ID)
		if err != nil {
			t.Fatalf("failed to get bones: %v", err)
		}
		if len(got.Left) != 0 || len(got.Right) != skeleton.NumBones {
			t.Errorf("unexpected bone counts %d/%d", len(got.Left), len(got.Right))
		}
	})

	t.Run("rejects invalid rotation", func(t *testing.T) {
		bad := skeleton.OpenHandPose()
		bad.Left[3] = skeleton.Rotation{}
		if err := repo.SetBones(pose.ID, bad); err == nil {
			t.Error("expected error for zero rotation")
		}
	})

	t.Run("unknown pose", func(t *testing.T) {
		if err := repo.SetBones("missing", skeleton.OpenHandPose()); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if _, err := repo.GetBones("missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
