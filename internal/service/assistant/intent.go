package assistant

import "strings"

// Intent classifies what the user is trying to do.
type Intent string

const (
	IntentBooking Intent = "booking"
	IntentSearch  Intent = "search"
	IntentMenu    Intent = "menu"
	IntentGeneral Intent = "general"
)

var intentKeywords = map[Intent][]string{
	IntentBooking: {"book", "table", "reservation", "reserve", "seat"},
	IntentSearch:  {"restaurant", "find", "search", "near", "cuisine"},
	IntentMenu:    {"menu", "food", "dish", "order", "popular", "recommend"},
}

// intentPriority resolves ties: booking wins over search wins over menu.
var intentPriority = []Intent{IntentBooking, IntentSearch, IntentMenu}

// cuisines the catalog understands; "pizza" and "pasta" alias italian.
// Checked in order so detection is deterministic.
var cuisineAliases = []struct {
	alias   string
	cuisine string
}{
	{"italian", "italian"},
	{"chinese", "chinese"},
	{"mexican", "mexican"},
	{"indian", "indian"},
	{"japanese", "japanese"},
	{"american", "american"},
	{"pizza", "italian"},
	{"pasta", "italian"},
}

// servedAreas lists locations with catalog coverage; anything matching
// unservedAreas gets the polite redirect instead of a search.
var servedAreas = []string{"new york", "ny", "manhattan", "brooklyn"}

var unservedAreas = []string{
	"ahmedabad", "mumbai", "delhi", "bangalore", "chennai",
	"kolkata", "hyderabad", "pune",
}

// DetectIntent scores the message against the keyword buckets.
func DetectIntent(message string) Intent {
	lower := strings.ToLower(message)
	for _, intent := range intentPriority {
		for _, keyword := range intentKeywords[intent] {
			if strings.Contains(lower, keyword) {
				return intent
			}
		}
	}
	return IntentGeneral
}

// DetectCuisine extracts the first recognized cuisine mention, normalized
// to its catalog name. Empty when none is mentioned.
func DetectCuisine(message string) string {
	lower := strings.ToLower(message)
	for _, entry := range cuisineAliases {
		if strings.Contains(lower, entry.alias) {
			return entry.cuisine
		}
	}
	return ""
}

// MentionsUnservedArea reports whether the message names a location the
// catalog does not cover.
func MentionsUnservedArea(message string) bool {
	lower := strings.ToLower(message)
	for _, area := range unservedAreas {
		if strings.Contains(lower, area) {
			return true
		}
	}
	return false
}
