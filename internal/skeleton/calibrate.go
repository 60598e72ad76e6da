package skeleton

import (
	"fmt"

	"gonum.org/v1/gonum/num/quat"
)

// Average combines several recordings of the same pose into a single joint
// rotation set. Each bone is averaged as a sign-aligned quaternion mean, which
// is accurate for samples that are close to each other, as repeated captures
// of one reference pose are.
func Average(samples []JointRotationSet) (JointRotationSet, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples provided")
	}

	numBones := len(samples[0])
	if numBones == 0 {
		return nil, fmt.Errorf("sample 0 has no bones")
	}
	for i, s := range samples {
		if len(s) != numBones {
			return nil, fmt.Errorf("sample %d has %d bones, expected %d", i, len(s), numBones)
		}
		for b, r := range s {
			if !r.Valid() {
				return nil, fmt.Errorf("sample %d bone %d has an invalid rotation", i, b)
			}
		}
	}

	averaged := make(JointRotationSet, numBones)
	for b := 0; b < numBones; b++ {
		ref := samples[0][b].Normalize()
		var sum quat.Number
		for _, s := range samples {
			r := s[b].Normalize()
			// q and -q are the same orientation; flip into ref's hemisphere.
			if Dot(ref, r) < 0 {
				r = FromQuat(quat.Scale(-1, r.Quat()))
			}
			sum = quat.Add(sum, r.Quat())
		}
		averaged[b] = FromQuat(sum).Normalize()
	}

	return averaged, nil
}

// AveragePose averages the left and right hands of several pose samples.
func AveragePose(samples []Pose) (Pose, error) {
	var out Pose
	for _, side := range Sides() {
		sets := make([]JointRotationSet, len(samples))
		for i, p := range samples {
			sets[i] = p.Hand(side)
		}
		avg, err := Average(sets)
		if err != nil {
			return Pose{}, fmt.Errorf("%s hand: %w", side, err)
		}
		out.SetHand(side, avg)
	}
	return out, nil
}
