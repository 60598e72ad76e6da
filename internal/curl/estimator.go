package curl

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ayusman/ffbridge/internal/skeleton"
)

// References holds the open hand and closed fist calibration poses.
type References struct {
	Open   skeleton.Pose `json:"open"`
	Closed skeleton.Pose `json:"closed"`
}

// BuiltinReferences returns the references built from the skeleton presets.
func BuiltinReferences() References {
	return References{
		Open:   skeleton.OpenHandPose(),
		Closed: skeleton.FistPose(),
	}
}

// Validate checks that both references cover the same bones for each hand.
func (r References) Validate() error {
	for _, side := range skeleton.Sides() {
		open, closed := r.Open.Hand(side), r.Closed.Hand(side)
		if len(open) == 0 || len(closed) == 0 {
			return fmt.Errorf("%s hand: %w", side, ErrEmptySet)
		}
		if len(open) != len(closed) {
			return fmt.Errorf("%s hand: %w: open=%d closed=%d", side, ErrLengthMismatch, len(open), len(closed))
		}
	}
	return nil
}

// ReadReferences decodes references from a JSON document of the form
// {"open": {"left": [...], "right": [...]}, "closed": {...}} and validates them.
func ReadReferences(r io.Reader) (References, error) {
	var refs References
	if err := json.NewDecoder(r).Decode(&refs); err != nil {
		return References{}, fmt.Errorf("decode references: %w", err)
	}
	if err := refs.Validate(); err != nil {
		return References{}, err
	}
	return refs, nil
}

// LoadReferences reads references from the JSON file at path.
func LoadReferences(path string) (References, error) {
	f, err := os.Open(path)
	if err != nil {
		return References{}, fmt.Errorf("open references: %w", err)
	}
	defer f.Close()
	return ReadReferences(f)
}

// Estimator estimates curl against a fixed pair of reference poses.
// The references are copied at construction and never modified afterwards.
type Estimator struct {
	refs References
}

// NewEstimator creates an Estimator for the given references.
func NewEstimator(refs References) (*Estimator, error) {
	if err := refs.Validate(); err != nil {
		return nil, fmt.Errorf("invalid reference poses: %w", err)
	}

	var copied References
	for _, side := range skeleton.Sides() {
		copied.Open.SetHand(side, refs.Open.Hand(side).Clone())
		copied.Closed.SetHand(side, refs.Closed.Hand(side).Clone())
	}
	return &Estimator{refs: copied}, nil
}

// Estimate computes the curl report for a live pose of the given hand.
func (e *Estimator) Estimate(side skeleton.Side, live skeleton.JointRotationSet) (Report, error) {
	if !side.Valid() {
		return Report{}, fmt.Errorf("invalid hand side %d", int(side))
	}
	return Estimate(live, e.refs.Open.Hand(side), e.refs.Closed.Hand(side))
}

// References returns a copy of the reference poses.
func (e *Estimator) References() References {
	var out References
	for _, side := range skeleton.Sides() {
		out.Open.SetHand(side, e.refs.Open.Hand(side).Clone())
		out.Closed.SetHand(side, e.refs.Closed.Hand(side).Clone())
	}
	return out
}
