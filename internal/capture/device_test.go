package capture

import (
	"testing"
)

func TestFindDeviceIndex(t *testing.T) {
	tests := []struct {
		name   string
		names  []string
		needle string
		want   int
	}{
		{
			name:   "exact substring match",
			names:  []string{"Built-in Microphone", "Blue Snowball", "HDMI Output"},
			needle: "snowball",
			want:   1,
		},
		{
			name:   "case insensitive needle",
			names:  []string{"Built-in Microphone", "BLUE SNOWBALL"},
			needle: "Snowball",
			want:   1,
		},
		{
			name:   "first of several matches wins",
			names:  []string{"Snowball iCE", "Blue Snowball"},
			needle: "snowball",
			want:   0,
		},
		{
			name:   "no match",
			names:  []string{"Built-in Microphone", "HDMI Output"},
			needle: "snowball",
			want:   -1,
		},
		{
			name:   "empty device list",
			names:  nil,
			needle: "snowball",
			want:   -1,
		},
		{
			name:   "empty needle matches first device",
			names:  []string{"Built-in Microphone"},
			needle: "",
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindDeviceIndex(tt.names, tt.needle); got != tt.want {
				t.Errorf("expected index %d, got %d", tt.want, got)
			}
		})
	}
}
