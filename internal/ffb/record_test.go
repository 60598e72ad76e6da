package ffb

import (
	"testing"

	"github.com/ayusman/ffbridge/internal/curl"
)

func TestRecord_MarshalBinary(t *testing.T) {
	t.Run("little endian in finger order", func(t *testing.T) {
		rec := RecordFromReport(curl.NewReport(1000, 500, 1, 256, 0))
		got, err := rec.MarshalBinary()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []byte{0xe8, 0x03, 0xf4, 0x01, 0x01, 0x00, 0x00, 0x01, 0x00, 0x00}
		if string(got) != string(want) {
			t.Errorf("got % x, want % x", got, want)
		}
	})

	t.Run("relaxed is ten zero bytes", func(t *testing.T) {
		got, err := RecordFromReport(curl.Relaxed).MarshalBinary()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != RecordSize {
			t.Fatalf("expected %d bytes, got %d", RecordSize, len(got))
		}
		for i, b := range got {
			if b != 0 {
				t.Errorf("byte %d: expected 0, got %d", i, b)
			}
		}
	})

	t.Run("out of range values are clamped", func(t *testing.T) {
		rec := RecordFromReport(curl.NewReport(-5, 1200, 0, 0, 0))
		if rec.ThumbCurl != 0 || rec.IndexCurl != curl.MaxValue {
			t.Errorf("expected clamped record, got %+v", rec)
		}
	})

	t.Run("append reuses buffer", func(t *testing.T) {
		prefix := []byte{0xaa}
		got, err := Record{PinkyCurl: 2}.AppendBinary(prefix)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1+RecordSize || got[0] != 0xaa || got[9] != 2 {
			t.Errorf("unexpected buffer % x", got)
		}
	})
}

func TestRecord_UnmarshalBinary(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		for _, want := range []curl.Report{
			curl.Relaxed,
			curl.NewReport(1000, 1000, 1000, 1000, 1000),
			curl.NewReport(12, 345, 678, 901, 999),
		} {
			b, err := RecordFromReport(want).MarshalBinary()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var rec Record
			if err := rec.UnmarshalBinary(b); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := rec.Report(); got != want {
				t.Errorf("got %v, want %v", got, want)
			}
		}
	})

	t.Run("wrong length", func(t *testing.T) {
		var rec Record
		if err := rec.UnmarshalBinary(make([]byte, 9)); err == nil {
			t.Error("expected error for short record")
		}
		if err := rec.UnmarshalBinary(make([]byte, 11)); err == nil {
			t.Error("expected error for long record")
		}
	})

	t.Run("out of range", func(t *testing.T) {
		b := make([]byte, RecordSize)
		b[2], b[3] = 0xe9, 0x03 // 1001
		var rec Record
		if err := rec.UnmarshalBinary(b); err == nil {
			t.Error("expected error for value above range")
		}

		b = make([]byte, RecordSize)
		b[0], b[1] = 0xff, 0xff // -1
		if err := rec.UnmarshalBinary(b); err == nil {
			t.Error("expected error for negative value")
		}
	})
}
