package health

import (
	"strings"
)

// Report says whether remote sync has everything it needs to start polling.
type Report struct {
	Missing []string
}

func (r Report) Ready() bool {
	return len(r.Missing) == 0
}

func (r Report) String() string {
	if r.Ready() {
		return "ready"
	}
	return "missing " + strings.Join(r.Missing, ", ")
}

// CheckSync requires a non-empty endpoint base, token and device id.
func CheckSync(apiBase, apiToken, deviceID string) Report {
	var r Report
	if strings.TrimSpace(apiBase) == "" {
		r.Missing = append(r.Missing, "apiBase")
	}
	if strings.TrimSpace(apiToken) == "" {
		r.Missing = append(r.Missing, "apiToken")
	}
	if strings.TrimSpace(deviceID) == "" {
		r.Missing = append(r.Missing, "deviceId")
	}
	return r
}
