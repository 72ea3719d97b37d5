package servicerequest

import "strings"

// Category is a broad grouping of raw request types.
type Category string

const (
	CategoryPothole     Category = "Pothole"
	CategoryStreetLight Category = "Street Light"
	CategoryAlley       Category = "Alley"
	CategorySidewalk    Category = "Sidewalk"
	CategoryWaterMain   Category = "Water Main"
	CategoryCaveIn      Category = "Cave-In / Sinkhole"
	CategoryStormDrain  Category = "Storm Drain"
	CategoryStreetCurb  Category = "Street / Curb"
	CategoryOther       Category = "Other"
)

// String returns the display name.
func (c Category) String() string { return string(c) }

// CategoryRule pairs a predicate over the lower-cased request type with the
// category it selects.
type CategoryRule struct {
	Match    func(lowerType string) bool
	Category Category
}

// containsAny builds a predicate matching any of the keywords as a substring.
func containsAny(keywords ...string) func(string) bool {
	return func(t string) bool {
		for _, k := range keywords {
			if strings.Contains(t, k) {
				return true
			}
		}
		return false
	}
}

// DefaultCategoryRules is evaluated in order and the first match wins. The
// order matters: "Bridge Street Light" is a street light, not a street.
var DefaultCategoryRules = []CategoryRule{
	{Match: containsAny("pothole"), Category: CategoryPothole},
	{Match: containsAny("light", "streetlight"), Category: CategoryStreetLight},
	{Match: containsAny("alley"), Category: CategoryAlley},
	{Match: containsAny("sidewalk"), Category: CategorySidewalk},
	{Match: containsAny("water", "main"), Category: CategoryWaterMain},
	{Match: containsAny("cave", "sinkhole"), Category: CategoryCaveIn},
	{Match: containsAny("storm", "drain", "catch"), Category: CategoryStormDrain},
	{Match: containsAny("curb", "bridge", "street"), Category: CategoryStreetCurb},
}

// Categorizer maps raw request types to categories through an ordered rule
// list.
type Categorizer struct {
	rules []CategoryRule
}

// NewCategorizer returns a Categorizer over rules; nil selects
// DefaultCategoryRules.
func NewCategorizer(rules []CategoryRule) *Categorizer {
	if rules == nil {
		rules = DefaultCategoryRules
	}
	return &Categorizer{rules: rules}
}

// Categorize returns the first matching category, or CategoryOther.
func (c *Categorizer) Categorize(requestType string) Category {
	if requestType == "" {
		return CategoryOther
	}
	t := strings.ToLower(requestType)
	for _, r := range c.rules {
		if r.Match(t) {
			return r.Category
		}
	}
	return CategoryOther
}

// Categorize classifies with DefaultCategoryRules.
func Categorize(requestType string) Category {
	return defaultCategorizer.Categorize(requestType)
}

var defaultCategorizer = NewCategorizer(nil)

//Personal.AI order the ending
