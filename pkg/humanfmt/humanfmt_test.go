package humanfmt

import (
	"testing"
	"time"
)

func TestFormatters(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"bytes zero", Bytes(0), "0 B"},
		{"bytes below KiB", Bytes(1000), "1000 B"},
		{"bytes KiB", Bytes(3 * KiB), "3.00 KiB"},
		{"bytes MiB", Bytes(2*MiB + MiB/4), "2.25 MiB"},
		{"bytes GiB", Bytes(5 * GiB), "5.00 GiB"},
		{"bytes TiB", Bytes(2 * TiB), "2.00 TiB"},
		{"bytes negative", Bytes(-7), "-7 B"},
		{"bytes unsigned", BytesUint64(8 * GiB), "8.00 GiB"},

		{"duration ns", Duration(42), "42ns"},
		{"duration µs", Duration(2500 * time.Nanosecond), "2.5µs"},
		{"duration ms", Duration(12 * time.Millisecond), "12.0ms"},
		{"duration s", Duration(4500 * time.Millisecond), "4.50s"},
		{"duration whole minutes", Duration(3 * time.Minute), "3m"},
		{"duration m+s", Duration(2*time.Minute + 5*time.Second), "2m5s"},
		{"duration h+m", Duration(26*time.Hour + 40*time.Minute), "26h40m"},

		{"rate zero elapsed", Throughput(10, 0), "∞"},
		{"rate bytes", Throughput(300, time.Second), "300 B/s"},
		{"rate MiB", Throughput(64*MiB, 2*time.Second), "32.00 MiB/s"},

		{"count small", Count(42), "42"},
		{"count K", Count(12_340), "12.34K"},
		{"count M", Count(7_000_000), "7.00M"},
		{"count B", Count(2_500_000_000), "2.50B"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestParseBytes(t *testing.T) {
	tests := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{in: "1000", want: 1000},
		{in: "17B", want: 17},
		{in: "64KiB", want: 64 * KiB},
		{in: "64K", want: 64 * KiB},
		{in: "2KB", want: 2000},
		{in: "1.5GiB", want: 3 * GiB / 2},
		{in: "3GB", want: 3_000_000_000},
		{in: " 2 MiB ", want: 2 * MiB},
		{in: "1T", want: TiB},
		{in: "", wantErr: true},
		{in: "GiB", wantErr: true},
		{in: "12 bananas", wantErr: true},
		{in: "1.2.3M", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBytes(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %d", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}
