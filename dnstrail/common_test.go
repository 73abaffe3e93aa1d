package main

import (
	"bytes"
	"testing"
)

func TestNormalizeQName(t *testing.T) {
	tests := []struct {
		name    string
		qName   string
		want    string
		wantErr bool
	}{
		{"empty becomes root", "", ".", false},
		{"root stays root", ".", ".", false},
		{"lowercase unchanged", "example.com", "example.com", false},
		{"trailing dot stripped", "example.com.", "example.com", false},
		{"uppercase folded", "EXAMPLE.Com.", "example.com", false},
		{"punycode passes", "xn--caf-dma.example", "xn--caf-dma.example", false},
		{"non-ascii rejected", "caf\xc3\xa9.example", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeQName(tt.qName)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeQName(%q) error = %v, wantErr %v", tt.qName, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("NormalizeQName(%q) = %q, want %q", tt.qName, got, tt.want)
			}
		})
	}
}

func TestStringReverse(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"a", "a"},
		{"example.com", "moc.elpmaxe"},
	}
	for _, tt := range tests {
		if got := StringReverse(tt.in); got != tt.want {
			t.Errorf("StringReverse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStringTwoFields(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		wantA  string
		wantB  string
		wantOK bool
	}{
		{"space separated", "a.root-servers.net 198.41.0.4", "a.root-servers.net", "198.41.0.4", true},
		{"tab separated", "key\tvalue", "key", "value", true},
		{"extra spaces", "a  b", "a", "b", true},
		{"single field", "lonely", "", "", false},
		{"too short", "ab", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b, ok := StringTwoFields(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("StringTwoFields(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if ok && (a != tt.wantA || b != tt.wantB) {
				t.Errorf("StringTwoFields(%q) = %q, %q, want %q, %q", tt.in, a, b, tt.wantA, tt.wantB)
			}
		})
	}
}

func TestTrimAndStripInlineComments(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain line", "10.0.0.0", "10.0.0.0"},
		{"inline comment", "10.0.0.0 # private", "10.0.0.0"},
		{"tab before comment", "10.0.0.0\t# private", "10.0.0.0"},
		{"whole line comment", "# nothing here", ""},
		{"padding trimmed", "  10.0.0.0  ", "10.0.0.0"},
		{"hash inside value kept", "left#right", "left#right"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndStripInlineComments(tt.in); got != tt.want {
				t.Errorf("TrimAndStripInlineComments(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtractHostAndPort(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantHost string
		wantPort int
	}{
		{"bare host", "192.0.2.1", "192.0.2.1", 53},
		{"host with port", "192.0.2.1:5353", "192.0.2.1", 5353},
		{"hostname with port", "a.root-servers.net:53", "a.root-servers.net", 53},
		{"junk port ignored", "192.0.2.1:abc", "192.0.2.1:abc", 53},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port := ExtractHostAndPort(tt.in, 53)
			if host != tt.wantHost || port != tt.wantPort {
				t.Errorf("ExtractHostAndPort(%q) = %q, %d, want %q, %d", tt.in, host, port, tt.wantHost, tt.wantPort)
			}
		})
	}
}

func TestPrefixWithSize(t *testing.T) {
	packet := []byte{1, 2, 3, 4, 5}
	prefixed, err := PrefixWithSize(packet)
	if err != nil {
		t.Fatal(err)
	}
	if len(prefixed) != 7 || prefixed[0] != 0 || prefixed[1] != 5 {
		t.Errorf("PrefixWithSize() = %v, want a two byte length prefix", prefixed[:2])
	}
	if !bytes.Equal(prefixed[2:], packet) {
		t.Errorf("PrefixWithSize() mangled the payload")
	}
	if _, err := PrefixWithSize(make([]byte, 0x10000)); err == nil {
		t.Errorf("PrefixWithSize() should refuse oversized packets")
	}
}
