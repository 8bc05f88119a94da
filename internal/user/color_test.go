package user

import (
	"math"
	"testing"
)

func TestIsValidHexColor(t *testing.T) {
	tests := []struct {
		color string
		want  bool
	}{
		{"#ffffff", true},
		{"#000000", true},
		{"#7289da", true},
		{"#ABCDEF", true},
		{"ffffff", false},
		{"#fff", false},
		{"#gggggg", false},
		{"#1234567", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsValidHexColor(tt.color); got != tt.want {
			t.Errorf("IsValidHexColor(%q) = %v, want %v", tt.color, got, tt.want)
		}
	}
}

func TestColorLuminance(t *testing.T) {
	tests := []struct {
		color string
		want  float64
	}{
		{"#000000", 0},
		{"#ffffff", 255},
		{"#ff0000", 0.2126 * 255},
		{"#00ff00", 0.7152 * 255},
		{"#0000ff", 0.0722 * 255},
	}

	for _, tt := range tests {
		got, err := ColorLuminance(tt.color)
		if err != nil {
			t.Fatalf("ColorLuminance(%q) returned error: %v", tt.color, err)
		}
		if math.Abs(got-tt.want) > 0.001 {
			t.Errorf("ColorLuminance(%q) = %v, want %v", tt.color, got, tt.want)
		}
	}
}

func TestColorLuminance_InvalidFormat_ReturnsError(t *testing.T) {
	_, err := ColorLuminance("not-a-color")
	if err == nil {
		t.Fatal("expected error for invalid color format, got nil")
	}
}

func TestIsColorTooDark(t *testing.T) {
	tests := []struct {
		color string
		want  bool
	}{
		{"#000000", true},  // 輝度0
		{"#111111", true},  // 輝度17
		{"#ffffff", false}, // 輝度255
		{"#7289da", false}, // デフォルトカラー
		{"#ff0000", false}, // 輝度約54
		{"#0000ff", true},  // 輝度約18、青単色は見た目より暗い
	}

	for _, tt := range tests {
		got, err := IsColorTooDark(tt.color)
		if err != nil {
			t.Fatalf("IsColorTooDark(%q) returned error: %v", tt.color, err)
		}
		if got != tt.want {
			t.Errorf("IsColorTooDark(%q) = %v, want %v", tt.color, got, tt.want)
		}
	}
}

func TestIsColorTooDark_InvalidFormat_ReturnsError(t *testing.T) {
	if _, err := IsColorTooDark("#12"); err == nil {
		t.Fatal("expected error for invalid color format, got nil")
	}
}
