// Package districts carries the canonical list of Bangladesh's 64 districts
// and the name normalization shared by the geocode build and lookup paths.
package districts

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bdmet/climate-cli/internal/model"
)

// Divisions are the eight canonical division names in English.
var Divisions = []string{
	"Barishal", "Chattogram", "Dhaka", "Khulna",
	"Mymensingh", "Rajshahi", "Rangpur", "Sylhet",
}

// divisionByDistrict is the authoritative district→division mapping, using
// canonical English spellings.
var divisionByDistrict = map[string]string{
	// Barishal
	"Barguna": "Barishal", "Barishal": "Barishal", "Bhola": "Barishal",
	"Jhalokathi": "Barishal", "Patuakhali": "Barishal", "Pirojpur": "Barishal",
	// Chattogram
	"Bandarban": "Chattogram", "Brahmanbaria": "Chattogram", "Chandpur": "Chattogram",
	"Chattogram": "Chattogram", "Cumilla": "Chattogram", "Cox's Bazar": "Chattogram",
	"Feni": "Chattogram", "Khagrachhari": "Chattogram", "Lakshmipur": "Chattogram",
	"Noakhali": "Chattogram", "Rangamati": "Chattogram",
	// Dhaka
	"Dhaka": "Dhaka", "Faridpur": "Dhaka", "Gazipur": "Dhaka", "Gopalganj": "Dhaka",
	"Kishoreganj": "Dhaka", "Madaripur": "Dhaka", "Manikganj": "Dhaka",
	"Munshiganj": "Dhaka", "Narayanganj": "Dhaka", "Narsingdi": "Dhaka",
	"Rajbari": "Dhaka", "Shariatpur": "Dhaka", "Tangail": "Dhaka",
	// Khulna
	"Bagerhat": "Khulna", "Chuadanga": "Khulna", "Jashore": "Khulna",
	"Jhenaidah": "Khulna", "Khulna": "Khulna", "Kushtia": "Khulna",
	"Magura": "Khulna", "Meherpur": "Khulna", "Narail": "Khulna", "Satkhira": "Khulna",
	// Mymensingh
	"Jamalpur": "Mymensingh", "Mymensingh": "Mymensingh",
	"Netrokona": "Mymensingh", "Sherpur": "Mymensingh",
	// Rajshahi
	"Bogura": "Rajshahi", "Chapai Nawabganj": "Rajshahi", "Joypurhat": "Rajshahi",
	"Naogaon": "Rajshahi", "Natore": "Rajshahi", "Pabna": "Rajshahi",
	"Rajshahi": "Rajshahi", "Sirajganj": "Rajshahi",
	// Rangpur
	"Dinajpur": "Rangpur", "Gaibandha": "Rangpur", "Kurigram": "Rangpur",
	"Lalmonirhat": "Rangpur", "Nilphamari": "Rangpur", "Panchagarh": "Rangpur",
	"Rangpur": "Rangpur", "Thakurgaon": "Rangpur",
	// Sylhet
	"Habiganj": "Sylhet", "Moulvibazar": "Sylhet",
	"Sunamganj": "Sylhet", "Sylhet": "Sylhet",
}

// legacySpellings maps pre-2018 romanizations to current official names.
var legacySpellings = map[string]string{
	"Chittagong": "Chattogram",
	"Comilla":    "Cumilla",
	"Jessore":    "Jashore",
	"Barisal":    "Barishal",
	"Bogra":      "Bogura",
	"Nawabganj":  "Chapai Nawabganj",
}

// divisionVariants maps legacy and Bangla division names to canonical English.
var divisionVariants = map[string]string{
	"barisal": "Barishal", "barishal": "Barishal",
	"chittagong": "Chattogram", "chattogram": "Chattogram",
	"dhaka":      "Dhaka",
	"khulna":     "Khulna",
	"mymensingh": "Mymensingh",
	"rajshahi":   "Rajshahi",
	"rangpur":    "Rangpur",
	"sylhet":     "Sylhet",
	"বরিশাল":     "Barishal", "চট্টগ্রাম": "Chattogram", "ঢাকা": "Dhaka",
	"খুলনা": "Khulna", "ময়মনসিংহ": "Mymensingh", "রাজশাহী": "Rajshahi",
	"রংপুর": "Rangpur", "সিলেট": "Sylhet",
}

var titleCaser = cases.Title(language.English)

// CanonicalName folds legacy spellings to the current official district name.
func CanonicalName(name string) string {
	name = strings.TrimSpace(name)
	if canonical, ok := legacySpellings[name]; ok {
		return canonical
	}
	return name
}

// DivisionFor returns the canonical division for a district name, folding
// legacy spellings first.
func DivisionFor(district string) (string, bool) {
	div, ok := divisionByDistrict[CanonicalName(district)]
	return div, ok
}

// NormalizeDivision resolves a division name for a district. The canonical
// table wins; otherwise the raw value (possibly Bangla, legacy, or suffixed
// with " Division") is mapped to canonical English. Unknown values are
// title-cased as-is.
func NormalizeDivision(district, raw string) string {
	if div, ok := DivisionFor(district); ok {
		return div
	}
	val := strings.TrimSpace(raw)
	if val == "" {
		return ""
	}
	for _, suffix := range []string{" Division", " বিভাগ"} {
		val = strings.TrimSuffix(val, suffix)
	}
	if canonical, ok := divisionVariants[strings.ToLower(val)]; ok {
		return canonical
	}
	return titleCaser.String(val)
}

// Source yields the district list the geocode build runs over. The HTML
// scrape of the reference table is an external collaborator; StaticSource
// ships the canonical list it would produce.
type Source interface {
	Districts() ([]model.District, error)
}

// StaticSource returns the canonical 64 districts in stable name order.
type StaticSource struct{}

func (StaticSource) Districts() ([]model.District, error) {
	out := make([]model.District, 0, len(divisionByDistrict))
	for name, division := range divisionByDistrict {
		out = append(out, model.District{Name: name, Division: division})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
