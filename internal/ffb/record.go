// Package ffb implements the per-hand force feedback channel and the fixed
// binary record it sends to the driver.
package ffb

import (
	"encoding/binary"
	"fmt"

	"github.com/ayusman/ffbridge/internal/curl"
	"github.com/ayusman/ffbridge/internal/skeleton"
)

// RecordSize is the encoded size of a Record in bytes.
const RecordSize = skeleton.FingerCount * 2

// Record is the wire form of a curl report: five signed 16-bit little-endian
// integers in thumb, index, middle, ring, pinky order. There is no header,
// length prefix or checksum.
type Record struct {
	ThumbCurl  int16
	IndexCurl  int16
	MiddleCurl int16
	RingCurl   int16
	PinkyCurl  int16
}

// RecordFromReport converts a report to a record, clamping out-of-range values.
func RecordFromReport(r curl.Report) Record {
	r = r.Clamped()
	return Record{
		ThumbCurl:  r[skeleton.Thumb],
		IndexCurl:  r[skeleton.Index],
		MiddleCurl: r[skeleton.Middle],
		RingCurl:   r[skeleton.Ring],
		PinkyCurl:  r[skeleton.Pinky],
	}
}

// Report converts the record back to a curl report.
func (r Record) Report() curl.Report {
	return curl.NewReport(r.ThumbCurl, r.IndexCurl, r.MiddleCurl, r.RingCurl, r.PinkyCurl)
}

// AppendBinary appends the encoded record to b.
func (r Record) AppendBinary(b []byte) ([]byte, error) {
	for _, v := range r.values() {
		b = binary.LittleEndian.AppendUint16(b, uint16(v))
	}
	return b, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (r Record) MarshalBinary() ([]byte, error) {
	return r.AppendBinary(make([]byte, 0, RecordSize))
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. data must be exactly
// RecordSize bytes and every value must be in the curl range.
func (r *Record) UnmarshalBinary(data []byte) error {
	if len(data) != RecordSize {
		return fmt.Errorf("record must be %d bytes, got %d", RecordSize, len(data))
	}

	var v [skeleton.FingerCount]int16
	for i := range v {
		v[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}

	decoded := Record{v[0], v[1], v[2], v[3], v[4]}
	if err := decoded.Report().Validate(); err != nil {
		return fmt.Errorf("invalid record: %w", err)
	}
	*r = decoded
	return nil
}

func (r Record) values() [skeleton.FingerCount]int16 {
	return [skeleton.FingerCount]int16{r.ThumbCurl, r.IndexCurl, r.MiddleCurl, r.RingCurl, r.PinkyCurl}
}
