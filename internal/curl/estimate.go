package curl

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/ayusman/ffbridge/internal/skeleton"
)

// Errors returned for malformed estimation input.
var (
	ErrEmptySet          = errors.New("joint rotation set is empty")
	ErrLengthMismatch    = errors.New("joint rotation sets differ in length")
	ErrMalformedRotation = errors.New("malformed bone rotation")
)

// Estimate converts a live joint rotation set into a curl report using the
// open hand and closed fist reference sets as calibration endpoints.
//
// For every bone the angle travelled from the open reference is divided by the
// angle between the two references. Samples with no articulation range, zero
// curl, or no owning finger are discarded; the rest are averaged per finger and
// scaled to [0, 1000]. A finger with no retained samples reports 0.
//
// All three sets must have the same length and bone ordering; violations are
// returned as errors rather than estimated.
func Estimate(live, open, closed skeleton.JointRotationSet) (Report, error) {
	if err := validate(live, open, closed); err != nil {
		return Report{}, err
	}

	var samples [skeleton.FingerCount][]float64

	for bone := range live {
		finger, ok := skeleton.FingerForBone(bone)
		if !ok {
			continue
		}

		openToLive := skeleton.Angle(open[bone], live[bone])
		openToClosed := skeleton.Angle(open[bone], closed[bone])
		if openToClosed == 0 {
			continue
		}

		c := openToLive / openToClosed
		if math.IsNaN(c) || math.IsInf(c, 0) || c == 0 {
			continue
		}

		samples[finger] = append(samples[finger], c)
	}

	var report Report
	for f, s := range samples {
		if len(s) == 0 {
			report[f] = MinValue
			continue
		}
		// mean is 0 at the open reference and 1 at the closed one, which is
		// already the wire orientation.
		mean := stat.Mean(s, nil)
		report[f] = clampFloat(math.Floor(mean * MaxValue))
	}

	return report, nil
}

func validate(live, open, closed skeleton.JointRotationSet) error {
	if len(live) == 0 || len(open) == 0 || len(closed) == 0 {
		return ErrEmptySet
	}
	if len(live) != len(open) || len(live) != len(closed) {
		return fmt.Errorf("%w: live=%d open=%d closed=%d", ErrLengthMismatch, len(live), len(open), len(closed))
	}

	for bone := range live {
		switch {
		case !live[bone].Valid():
			return fmt.Errorf("%w: live bone %d", ErrMalformedRotation, bone)
		case !open[bone].Valid():
			return fmt.Errorf("%w: open reference bone %d", ErrMalformedRotation, bone)
		case !closed[bone].Valid():
			return fmt.Errorf("%w: closed reference bone %d", ErrMalformedRotation, bone)
		}
	}

	return nil
}
