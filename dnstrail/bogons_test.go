package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBogonSetMatchDefaults(t *testing.T) {
	set := NewBogonSet(defaultBogonRules())
	tests := []struct {
		addr string
		want bool
	}{
		{"10.1.2.3", true},
		{"102.3.4.5", false},
		{"11.0.0.1", false},
		{"127.0.0.1", true},
		{"192.168.1.1", true},
		{"192.167.1.1", false},
		{"192.0.2.9", true},
		{"192.0.29.1", false},
		{"100.64.0.1", true},
		{"100.63.255.255", false},
		{"100.127.3.4", true},
		{"100.128.0.1", false},
		{"172.16.0.1", true},
		{"172.15.0.1", false},
		{"172.31.255.1", true},
		{"172.32.0.1", false},
		{"169.254.10.10", true},
		{"198.18.0.1", true},
		{"198.20.0.1", false},
		{"203.0.113.9", true},
		{"224.0.0.251", true},
		{"239.255.255.250", true},
		{"255.255.255.255", true},
		{"8.8.8.8", false},
		{"93.184.216.34", false},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			if got := set.Match(tt.addr); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.addr, got, tt.want)
			}
		})
	}
}

func TestBogonSetCustomRules(t *testing.T) {
	set := NewBogonSet([]string{"198.51.*", "203.0.113.77"})
	tests := []struct {
		addr string
		want bool
	}{
		{"198.51.100.1", true},
		{"198.52.100.1", false},
		{"203.0.113.77", true},
		{"203.0.113.78", false},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			if got := set.Match(tt.addr); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.addr, got, tt.want)
			}
		})
	}
}

func TestLoadBogonFile(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "bogons.txt")
	contents := "# reserved ranges\n10.*\n\n192.0.2.* # documentation\n255.255.255.255\n"
	if err := os.WriteFile(fileName, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	rules, err := LoadBogonFile(fileName)
	if err != nil {
		t.Fatal(err)
	}
	if len(rules) != 3 {
		t.Fatalf("LoadBogonFile() returned %d rules, want 3", len(rules))
	}
	set := NewBogonSet(rules)
	if !set.Match("10.0.0.1") {
		t.Errorf("Match(10.0.0.1) = false, want true")
	}
	if !set.Match("255.255.255.255") {
		t.Errorf("Match(255.255.255.255) = false, want true")
	}
	if set.Match("11.0.0.1") {
		t.Errorf("Match(11.0.0.1) = true, want false")
	}
}

func TestLoadBogonFileMissing(t *testing.T) {
	if _, err := LoadBogonFile("/nonexistent/bogons.txt"); err == nil {
		t.Errorf("LoadBogonFile() on a missing file should fail")
	}
}
