// Package curl estimates per-finger curl from hand skeleton poses.
package curl

import (
	"encoding/json"
	"fmt"

	"github.com/ayusman/ffbridge/internal/skeleton"
)

// Report value range. 0 is a fully extended finger, MaxValue a fully curled one.
const (
	MinValue = 0
	MaxValue = 1000
)

// Report holds one curl value per finger, indexed by skeleton.Finger.
type Report [skeleton.FingerCount]int16

// Relaxed is the all-zero report that releases any commanded resistance.
var Relaxed = Report{}

// NewReport builds a report from per-finger values in wire order.
func NewReport(thumb, index, middle, ring, pinky int16) Report {
	return Report{thumb, index, middle, ring, pinky}
}

// Value returns the curl value of finger f.
func (r Report) Value(f skeleton.Finger) int16 {
	return r[f]
}

// Validate checks that every value lies in [MinValue, MaxValue].
func (r Report) Validate() error {
	for i, v := range r {
		if v < MinValue || v > MaxValue {
			return fmt.Errorf("%s curl %d out of range [%d, %d]", skeleton.Finger(i), v, MinValue, MaxValue)
		}
	}
	return nil
}

// Clamped returns r with every value forced into [MinValue, MaxValue].
func (r Report) Clamped() Report {
	for i, v := range r {
		r[i] = clamp(int(v))
	}
	return r
}

func (r Report) String() string {
	return fmt.Sprintf("thumb=%d index=%d middle=%d ring=%d pinky=%d", r[0], r[1], r[2], r[3], r[4])
}

type reportJSON struct {
	Thumb  int16 `json:"thumb"`
	Index  int16 `json:"index"`
	Middle int16 `json:"middle"`
	Ring   int16 `json:"ring"`
	Pinky  int16 `json:"pinky"`
}

// MarshalJSON encodes the report as an object keyed by finger name.
func (r Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(reportJSON{r[0], r[1], r[2], r[3], r[4]})
}

// UnmarshalJSON decodes an object keyed by finger name. Missing fingers are 0.
// Values are not range checked.
func (r *Report) UnmarshalJSON(data []byte) error {
	var v reportJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = NewReport(v.Thumb, v.Index, v.Middle, v.Ring, v.Pinky)
	return nil
}

func clamp(v int) int16 {
	if v < MinValue {
		return MinValue
	}
	if v > MaxValue {
		return MaxValue
	}
	return int16(v)
}

func clampFloat(v float64) int16 {
	if v < MinValue {
		return MinValue
	}
	if v > MaxValue {
		return MaxValue
	}
	return int16(v)
}
