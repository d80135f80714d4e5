package caller

import (
	"sort"
	"strings"
)

// callingCodes is the fixed region -> calling code table used when legacy
// rows are split into full and national numbers. It mirrors the list the
// v3 schema shipped with and is intentionally not extended: regions that
// are missing keep their number unmodified.
var callingCodes = map[string][]string{
	"AE": {"971"}, "AR": {"54"}, "AT": {"43"}, "AU": {"61"}, "BD": {"880"},
	"BE": {"32"}, "BH": {"973"}, "BR": {"55"}, "CA": {"1"}, "CH": {"41"},
	"CL": {"56"}, "CN": {"86"}, "CO": {"57"}, "CZ": {"420"}, "DE": {"49"},
	"DK": {"45"}, "EG": {"20"}, "ES": {"34"}, "FI": {"358"}, "FR": {"33"},
	"GB": {"44"}, "GR": {"30"}, "HU": {"36"}, "ID": {"62"}, "IL": {"972"},
	"IN": {"91"}, "IQ": {"964"}, "IR": {"98"}, "IT": {"39"}, "JO": {"962"},
	"JP": {"81"}, "KE": {"254"}, "KR": {"82"}, "KW": {"965"}, "LB": {"961"},
	"LK": {"94"}, "MA": {"212"}, "MX": {"52"}, "MY": {"60"}, "NG": {"234"},
	"NL": {"31"}, "NO": {"47"}, "OM": {"968"}, "PE": {"51"}, "PH": {"63"},
	"PK": {"92"}, "PL": {"48"}, "PT": {"351"}, "QA": {"974"}, "RU": {"7"},
	"SA": {"966"}, "SE": {"46"}, "SG": {"65"}, "TH": {"66"}, "TR": {"90"},
	"US": {"1"}, "VE": {"58"}, "VN": {"84"}, "ZA": {"27"},
}

// CallingCodes returns the known calling codes for region, longest first.
// The result is nil for regions outside the table.
func CallingCodes(region string) []string {
	codes, ok := callingCodes[strings.ToUpper(region)]
	if !ok {
		return nil
	}
	out := append([]string(nil), codes...)
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}

// KnownRegions lists every region in the calling code table, sorted.
func KnownRegions() []string {
	regions := make([]string, 0, len(callingCodes))
	for r := range callingCodes {
		regions = append(regions, r)
	}
	sort.Strings(regions)
	return regions
}

// StripCallingCode removes the calling code of region from full. Codes are
// tried longest first; if none matches, or the region is unknown, full is
// returned unmodified.
func StripCallingCode(region, full string) string {
	for _, code := range CallingCodes(region) {
		if strings.HasPrefix(full, code) {
			return full[len(code):]
		}
	}
	return full
}
