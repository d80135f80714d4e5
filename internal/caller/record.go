// Package caller defines the caller record stored by the directory and the
// rules for presenting it (display name, label, phone number forms).
package caller

import (
	"strings"

	"golang.org/x/text/language"
)

// Record is the single persisted entity: everything known about one phone
// number. Optional fields are empty strings, never absent.
type Record struct {
	// FullPhoneNumber is the primary key: calling code included, no "+",
	// no separators.
	FullPhoneNumber string `db:"fullPhoneNumber" json:"fullPhoneNumber" yaml:"fullPhoneNumber"`
	// PhoneNumber is the national number (calling code stripped).
	PhoneNumber string `db:"phoneNumber" json:"phoneNumber" yaml:"phoneNumber"`
	// CountryCode is the ISO region the calling code belongs to.
	CountryCode string `db:"countryCode" json:"countryCode" yaml:"countryCode"`

	Name   string `db:"name" json:"name" yaml:"name"`
	Prefix string `db:"prefix" json:"prefix" yaml:"prefix,omitempty"`
	Suffix string `db:"suffix" json:"suffix" yaml:"suffix,omitempty"`

	Appointment string `db:"appointment" json:"appointment" yaml:"appointment,omitempty"`
	Location    string `db:"location" json:"location" yaml:"location,omitempty"`

	Email    string `db:"email" json:"email" yaml:"email,omitempty"`
	Notes    string `db:"notes" json:"notes" yaml:"notes,omitempty"`
	Website  string `db:"website" json:"website" yaml:"website,omitempty"`
	Birthday string `db:"birthday" json:"birthday" yaml:"birthday,omitempty"`
	Labels   string `db:"labels" json:"labels" yaml:"labels,omitempty"`
	Nickname string `db:"nickname" json:"nickname" yaml:"nickname,omitempty"`

	// Photo is empty, a raw base64 string, or a data:<mime>;base64,<data> URI.
	Photo string `db:"photo" json:"photo" yaml:"photo,omitempty"`

	// IOSRow is carried opaquely for records that came from another platform.
	IOSRow string `db:"iosRow" json:"iosRow" yaml:"iosRow,omitempty"`
}

// Valid reports whether the record can be stored: both the name and the
// full phone number must be present.
func (r Record) Valid() bool {
	return r.Name != "" && r.FullPhoneNumber != ""
}

// Normalized returns a copy with both number fields normalized and the
// country code upper-cased.
func (r Record) Normalized() Record {
	r.FullPhoneNumber = NormalizeNumber(r.FullPhoneNumber)
	r.PhoneNumber = NormalizeNumber(r.PhoneNumber)
	r.CountryCode = strings.ToUpper(strings.TrimSpace(r.CountryCode))
	return r
}

// StripPlus removes a single leading "+" from number.
func StripPlus(number string) string {
	return strings.TrimPrefix(number, "+")
}

var separators = strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "")

// NormalizeNumber strips a leading "+" and the usual separators so that the
// result can be used as a store key.
func NormalizeNumber(number string) string {
	return separators.Replace(StripPlus(strings.TrimSpace(number)))
}

// NormalizeRegion upper-cases code and checks that it names an ISO 3166
// country. The second result is false for anything else.
func NormalizeRegion(code string) (string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 2 {
		return "", false
	}
	region, err := language.ParseRegion(code)
	if err != nil || !region.IsCountry() {
		return "", false
	}
	return region.String(), true
}
