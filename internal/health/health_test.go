package health

import "testing"

func TestCheckSync(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		token    string
		device   string
		expected string
	}{
		{name: "all set", base: "http://api", token: "t", device: "d", expected: "ready"},
		{name: "nothing set", expected: "missing apiBase, apiToken, deviceId"},
		{name: "blank base", base: "  ", token: "t", device: "d", expected: "missing apiBase"},
		{name: "no device", base: "http://api", token: "t", expected: "missing deviceId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := CheckSync(tt.base, tt.token, tt.device)
			if r.String() != tt.expected {
				t.Errorf("CheckSync = %q, want %q", r.String(), tt.expected)
			}
			if r.Ready() != (tt.expected == "ready") {
				t.Errorf("Ready() = %v", r.Ready())
			}
		})
	}
}
