// Package skeleton provides the hand skeleton model used for curl estimation:
// hand sides, fingers, bone indices and per-bone rotations.
package skeleton

import (
	"fmt"
	"strings"
)

// Bone indices of the 31-bone OpenVR hand skeleton.
const (
	Root             = 0
	Wrist            = 1
	ThumbMetacarpal  = 2
	ThumbMiddle      = 3
	ThumbDistal      = 4
	ThumbTip         = 5
	IndexMetacarpal  = 6
	IndexProximal    = 7
	IndexMiddle      = 8
	IndexDistal      = 9
	IndexTip         = 10
	MiddleMetacarpal = 11
	MiddleProximal   = 12
	MiddleMiddle     = 13
	MiddleDistal     = 14
	MiddleTip        = 15
	RingMetacarpal   = 16
	RingProximal     = 17
	RingMiddle       = 18
	RingDistal       = 19
	RingTip          = 20
	PinkyMetacarpal  = 21
	PinkyProximal    = 22
	PinkyMiddle      = 23
	PinkyDistal      = 24
	PinkyTip         = 25
	ThumbAux         = 26
	IndexAux         = 27
	MiddleAux        = 28
	RingAux          = 29
	PinkyAux         = 30
	NumBones         = 31
)

// Finger identifies one of the five fingers of a hand.
type Finger int

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
)

// FingerCount is the number of fingers on a hand.
const FingerCount = 5

var fingerNames = [FingerCount]string{"thumb", "index", "middle", "ring", "pinky"}

func (f Finger) String() string {
	if f < 0 || int(f) >= FingerCount {
		return fmt.Sprintf("Finger(%d)", int(f))
	}
	return fingerNames[f]
}

// Fingers lists every finger in wire order.
func Fingers() [FingerCount]Finger {
	return [FingerCount]Finger{Thumb, Index, Middle, Ring, Pinky}
}

// FingerForBone maps a bone index to the finger it belongs to.
// The second return value is false for bones that belong to no finger
// (root, wrist) and for indices outside the skeleton.
func FingerForBone(bone int) (Finger, bool) {
	switch {
	case bone >= ThumbMetacarpal && bone <= ThumbTip:
		return Thumb, true
	case bone >= IndexMetacarpal && bone <= IndexTip:
		return Index, true
	case bone >= MiddleMetacarpal && bone <= MiddleTip:
		return Middle, true
	case bone >= RingMetacarpal && bone <= RingTip:
		return Ring, true
	case bone >= PinkyMetacarpal && bone <= PinkyTip:
		return Pinky, true
	case bone >= ThumbAux && bone <= PinkyAux:
		return Finger(bone - ThumbAux), true
	default:
		return 0, false
	}
}

// Side identifies a hand.
type Side int

const (
	Left Side = iota
	Right
)

// SideCount is the number of hands.
const SideCount = 2

func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// Valid reports whether s is Left or Right.
func (s Side) Valid() bool {
	return s == Left || s == Right
}

// Sides lists both hands.
func Sides() [SideCount]Side {
	return [SideCount]Side{Left, Right}
}

// ParseSide parses "left" or "right" (case-insensitive).
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "l":
		return Left, nil
	case "right", "r":
		return Right, nil
	default:
		return 0, fmt.Errorf("unknown hand side %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Side) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid hand side %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Side) UnmarshalText(text []byte) error {
	side, err := ParseSide(string(text))
	if err != nil {
		return err
	}
	*s = side
	return nil
}

// JointRotationSet is an ordered sequence of bone rotations for one hand.
// Index i holds the rotation of bone i.
type JointRotationSet []Rotation

// Clone returns a copy of the set.
func (j JointRotationSet) Clone() JointRotationSet {
	if j == nil {
		return nil
	}
	out := make(JointRotationSet, len(j))
	copy(out, j)
	return out
}

// Pose holds a joint rotation set for each hand.
type Pose struct {
	Left  JointRotationSet `json:"left"`
	Right JointRotationSet `json:"right"`
}

// Hand returns the joint rotation set for the given side.
func (p Pose) Hand(side Side) JointRotationSet {
	if side == Left {
		return p.Left
	}
	return p.Right
}

// SetHand replaces the joint rotation set for the given side.
func (p *Pose) SetHand(side Side, set JointRotationSet) {
	if side == Left {
		p.Left = set
		return
	}
	p.Right = set
}
