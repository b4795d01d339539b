package clip

import (
	"math"
	"path/filepath"
	"testing"
)

func TestNewRequests(t *testing.T) {
	tests := []struct {
		name      string
		videoID   string
		hits      []float64
		useOffset bool
		want      [][2]int
		wantPaths []string
	}{
		{
			name:      "offset applied for remote download",
			videoID:   "[2-5-24][st=10443]2054414193.mp4",
			hits:      []float64{6, 130.4},
			useOffset: true,
			want:      [][2]int{{10446, 10452}, {10570, 10576}},
			wantPaths: []string{
				filepath.Join("HitClips", "[2-5-24][st=10443]2054414193_0.mp4"),
				filepath.Join("HitClips", "[2-5-24][st=10443]2054414193_1.mp4"),
			},
		},
		{
			name:      "offset ignored for local cut",
			videoID:   "[st=10443]2054414193.mp4",
			hits:      []float64{6},
			useOffset: false,
			want:      [][2]int{{3, 9}},
		},
		{
			name:      "begin clamped at zero",
			videoID:   "42.mp4",
			hits:      []float64{1},
			useOffset: true,
			want:      [][2]int{{0, 4}},
		},
		{
			name:      "half seconds round to even",
			videoID:   "42.mp4",
			hits:      []float64{10.5},
			useOffset: true,
			want:      [][2]int{{8, 14}},
		},
		{
			name:    "no hits",
			videoID: "42.mp4",
			want:    [][2]int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewRequests(tt.videoID, tt.hits, DefaultWindow, "HitClips", tt.useOffset)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d requests, want %d", len(got), len(tt.want))
			}
			for i, r := range got {
				if r.Begin != tt.want[i][0] || r.End != tt.want[i][1] {
					t.Errorf("request %d = [%d, %d], want %v", i, r.Begin, r.End, tt.want[i])
				}
				if r.Index != i {
					t.Errorf("request %d has index %d", i, r.Index)
				}
				if r.VideoID != tt.videoID {
					t.Errorf("request %d has video %q", i, r.VideoID)
				}
				if tt.wantPaths != nil && r.OutputPath != tt.wantPaths[i] {
					t.Errorf("request %d path = %q, want %q", i, r.OutputPath, tt.wantPaths[i])
				}
			}
		})
	}
}

func TestWindow_Validate(t *testing.T) {
	tests := []struct {
		name    string
		window  Window
		wantErr bool
	}{
		{"default", DefaultWindow, false},
		{"only after", Window{Pre: 0, Post: 5}, false},
		{"negative", Window{Pre: -1, Post: 3}, true},
		{"empty", Window{}, true},
		{"NaN before", Window{Pre: math.NaN(), Post: 3}, true},
		{"infinite after", Window{Pre: 3, Post: math.Inf(1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.window.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRequest_String(t *testing.T) {
	r := NewRequests("[st=60]123.mp4", []float64{10}, DefaultWindow, "out", true)[0]
	if got, want := r.String(), "[st=60]123 #0 [00:01:07.000 - 00:01:13.000]"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if r.Duration() != 6 {
		t.Errorf("Duration() = %d, want 6", r.Duration())
	}
}
