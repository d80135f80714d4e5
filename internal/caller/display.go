package caller

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultLabel is shown by the directory when a record has neither an
// appointment nor a location.
const DefaultLabel = "Mobile"

// DisplayName composes "[prefix ]name[, suffix]". Blank prefixes and
// suffixes are left out. The result is NFC-normalized so that names typed
// on different keyboards compare equal.
func (r Record) DisplayName() string {
	var b strings.Builder
	if strings.TrimSpace(r.Prefix) != "" {
		b.WriteString(r.Prefix)
		b.WriteString(" ")
	}
	b.WriteString(r.Name)
	if strings.TrimSpace(r.Suffix) != "" {
		b.WriteString(", ")
		b.WriteString(r.Suffix)
	}
	return norm.NFC.String(b.String())
}

// Label joins appointment and location with ", " when both are present,
// falls back to whichever one is, and to defaultLabel when neither is.
func (r Record) Label(defaultLabel string) string {
	switch {
	case r.Appointment != "" && r.Location != "":
		return r.Appointment + ", " + r.Location
	case r.Appointment != "":
		return r.Appointment
	case r.Location != "":
		return r.Location
	default:
		return defaultLabel
	}
}
