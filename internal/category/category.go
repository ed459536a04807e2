// Package category holds the fixed expense taxonomy and the normalizer that
// maps free-text labels onto it.
package category

import "strings"

// Category is one of the ten fixed expense categories
type Category string

const (
	Food           Category = "FOOD"
	Transportation Category = "TRANSPORTATION"
	Housing        Category = "HOUSING"
	Utilities      Category = "UTILITIES"
	Entertainment  Category = "ENTERTAINMENT"
	Healthcare     Category = "HEALTHCARE"
	Shopping       Category = "SHOPPING"
	Education      Category = "EDUCATION"
	Personal       Category = "PERSONAL"
	Other          Category = "OTHER"
)

var all = []Category{
	Food,
	Transportation,
	Housing,
	Utilities,
	Entertainment,
	Healthcare,
	Shopping,
	Education,
	Personal,
	Other,
}

// keywordRule maps a category to the keywords that identify it.
// Rules are evaluated in slice order and the first match wins, so a keyword
// listed under two categories (GAS) resolves to the earlier one.
type keywordRule struct {
	category Category
	keywords []string
}

var keywordRules = []keywordRule{
	{Food, []string{"GROCERY", "RESTAURANT", "CAFE", "DINING", "MEAL", "LUNCH", "DINNER", "BREAKFAST", "SNACK", "DRINK"}},
	{Transportation, []string{"TAXI", "UBER", "LYFT", "BUS", "TRAIN", "SUBWAY", "METRO", "GAS", "FUEL", "CAR", "PARKING", "TOLL", "FLIGHT", "AIRPLANE"}},
	{Housing, []string{"RENT", "MORTGAGE", "LEASE", "APARTMENT", "HOUSE", "HOME", "PROPERTY"}},
	{Utilities, []string{"ELECTRIC", "ELECTRICITY", "WATER", "GAS", "INTERNET", "PHONE", "MOBILE", "CELL", "UTILITY", "BILL", "CABLE", "TV"}},
	{Entertainment, []string{"MOVIE", "CONCERT", "THEATRE", "THEATER", "SHOW", "GAME", "EVENT", "STREAMING", "NETFLIX", "SPOTIFY", "HULU", "DISNEY"}},
	{Healthcare, []string{"DOCTOR", "HOSPITAL", "MEDICAL", "MEDICINE", "PHARMACY", "DRUG", "HEALTH", "DENTAL", "VISION", "THERAPY"}},
	{Shopping, []string{"CLOTHES", "CLOTHING", "SHOES", "ACCESSORY", "ACCESSORIES", "RETAIL", "STORE", "MALL", "ONLINE", "AMAZON", "DEPARTMENT", "ELECTRONICS"}},
	{Education, []string{"SCHOOL", "COLLEGE", "UNIVERSITY", "COURSE", "CLASS", "TUITION", "BOOK", "TEXTBOOK", "WORKSHOP", "TRAINING"}},
	{Personal, []string{"SALON", "HAIRCUT", "BEAUTY", "SPA", "MASSAGE", "GYM", "FITNESS", "GROOMING", "HYGIENE", "COSMETICS"}},
}

// All returns the ten categories in declaration order
func All() []Category {
	out := make([]Category, len(all))
	copy(out, all)
	return out
}

// Strings returns the category labels as plain strings, for prompts and schemas
func Strings() []string {
	out := make([]string, len(all))
	for i, c := range all {
		out[i] = string(c)
	}
	return out
}

// Valid reports whether s is exactly one of the fixed labels
func Valid(s string) bool {
	for _, c := range all {
		if string(c) == s {
			return true
		}
	}
	return false
}

// Normalize maps a free-text label to a Category. It never fails: labels
// that match neither a category name nor any keyword become Other.
func Normalize(label string) Category {
	normalized := strings.ToUpper(strings.TrimSpace(label))

	if Valid(normalized) {
		return Category(normalized)
	}

	for _, rule := range keywordRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(normalized, keyword) {
				return rule.category
			}
		}
	}

	return Other
}
