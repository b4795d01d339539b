package command

import "testing"

func TestLastBytes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "  error: no such vod \n", 64, "error: no such vod"},
		{"truncated", "abcdefghij", 4, "...ghij"},
		{"empty", "", 4, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lastBytes(tt.in, tt.n); got != tt.want {
				t.Errorf("lastBytes(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
		})
	}
}
