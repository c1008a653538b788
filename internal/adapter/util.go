package adapter

import (
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/amishk599/jobpulse/internal/model"
)

const logoBaseURL = "https://logo.clearbit.com"

// normalizeContractType maps a free-text employment type onto the closed
// contract set. Order matters: "FULL" wins over "CONTRACT" in "FULL_TIME_CONTRACT".
// Unrecognised values pass through unchanged.
func normalizeContractType(raw string) string {
	u := strings.ToUpper(raw)
	switch {
	case strings.Contains(u, "FULL"):
		return model.ContractCDI
	case strings.Contains(u, "PART"), strings.Contains(u, "CONTRACT"):
		return model.ContractCDD
	case strings.Contains(u, "TEMP"):
		return model.ContractInterim
	case strings.Contains(u, "INTERN"):
		return model.ContractStage
	case strings.Contains(u, "APPRENTI"):
		return model.ContractAlternance
	}
	return raw
}

// formatSalary renders raw salary bounds (currency units) as "{min}k-{max}k€",
// "{max}k€" or the placeholder. A bound that rounds to zero counts as absent.
func formatSalary(minSalary, maxSalary *float64) string {
	lo := thousands(minSalary)
	hi := thousands(maxSalary)
	switch {
	case lo > 0 && hi > 0:
		return fmt.Sprintf("%dk-%dk€", lo, hi)
	case hi > 0:
		return fmt.Sprintf("%dk€", hi)
	}
	return model.SalaryPlaceholder
}

func thousands(v *float64) int64 {
	if v == nil || *v <= 0 {
		return 0
	}
	return int64(math.Round(*v / 1000))
}

// joinLocation joins non-empty fragments with ", ".
func joinLocation(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}

// logoURL derives a domain-keyed logo URL from a job link. Returns "" when
// the link has no hostname.
func logoURL(link string) string {
	if link == "" || link == model.URLPlaceholder {
		return ""
	}
	u, err := url.Parse(link)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return logoBaseURL + "/" + u.Hostname()
}

// parseTime accepts RFC 3339 and zone-less ISO timestamps (read as UTC).
// Anything else yields fallback.
func parseTime(value string, fallback time.Time) time.Time {
	if value == "" {
		return fallback
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}
	return fallback
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
