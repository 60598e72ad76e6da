package skeleton

// Flexion angles in degrees used by the built-in fist pose. Metacarpals, tips
// and aux markers do not articulate and keep the identity rotation.
var fistFlexion = map[int]float64{
	ThumbMiddle: 45,
	ThumbDistal: 60,

	IndexProximal: 80,
	IndexMiddle:   100,
	IndexDistal:   70,

	MiddleProximal: 85,
	MiddleMiddle:   100,
	MiddleDistal:   70,

	RingProximal: 90,
	RingMiddle:   100,
	RingDistal:   65,

	PinkyProximal: 95,
	PinkyMiddle:   95,
	PinkyDistal:   60,
}

// OpenHandPose returns the built-in open hand reference pose: every bone at
// its rest orientation.
func OpenHandPose() Pose {
	return Pose{
		Left:  restSet(),
		Right: restSet(),
	}
}

// FistPose returns the built-in closed fist reference pose.
// Fingers flex around the bone X axis. The thumb folds across the palm around
// Z, mirrored between hands.
func FistPose() Pose {
	return Pose{
		Left:  fistSet(Left),
		Right: fistSet(Right),
	}
}

// PartialPose returns a pose that is fraction of the way from the open hand
// to the fist for every articulating bone. fraction 0 is the open hand and 1
// is the fist.
func PartialPose(fraction float64) Pose {
	return Pose{
		Left:  flexedSet(Left, fraction),
		Right: flexedSet(Right, fraction),
	}
}

func restSet() JointRotationSet {
	set := make(JointRotationSet, NumBones)
	for i := range set {
		set[i] = Identity
	}
	return set
}

func fistSet(side Side) JointRotationSet {
	return flexedSet(side, 1)
}

func flexedSet(side Side, fraction float64) JointRotationSet {
	set := restSet()
	for bone, degrees := range fistFlexion {
		set[bone] = flexion(side, bone, degrees*fraction)
	}
	return set
}

func flexion(side Side, bone int, degrees float64) Rotation {
	finger, _ := FingerForBone(bone)
	if finger == Thumb {
		if side == Left {
			degrees = -degrees
		}
		return FromAxisAngle(0, 0, 1, degrees)
	}
	return FromAxisAngle(1, 0, 0, degrees)
}
