// Package catalog holds the fixed menu vocabulary of the bot: the ten topic
// buttons with their slugs, the navigation buttons, and the reserved-label
// set. The router and the keyboard builders both consume this single
// enumeration, so the two can never drift apart.
package catalog

// Entry pairs a visible button label with its stable topic slug.
type Entry struct {
	Label string
	Slug  string
}

// Navigation button labels. Exact-match strings; anything else a user types
// is treated as free text.
const (
	LabelAskQuestion = "✍️ Savol berish"
	LabelMainMenu    = "🏠 Asosiy menyu"
)

// Topics is the fixed ten-entry menu, in display order. The table is the
// source of truth for both the reply keyboard and message routing.
var Topics = []Entry{
	{Label: "💰 Bolalar nafaqasi", Slug: "children_benefit"},
	{Label: "🏠 Moddiy yordam", Slug: "social_aid"},
	{Label: "🪪 Pasport olish/almashtirish", Slug: "passport"},
	{Label: "🏫 Maktabga qabul", Slug: "school"},
	{Label: "🧒 Bog'chaga navbat", Slug: "kindergarten"},
	{Label: "💍 Nikoh hujjatlari", Slug: "marriage"},
	{Label: "🚔 Jarimalar", Slug: "fines"},
	{Label: "📋 Doimiy ro'yxat", Slug: "registration"},
	{Label: "💡 Subsidiyalar", Slug: "subsidy"},
	{Label: "🏢 Davlat xizmatlari markazi", Slug: "gov_center"},
}

var (
	labelToSlug = make(map[string]string, len(Topics))
	slugToLabel = make(map[string]string, len(Topics))
	reserved    = make(map[string]struct{}, len(Topics)+3)
)

func init() {
	for _, t := range Topics {
		labelToSlug[t.Label] = t.Slug
		slugToLabel[t.Slug] = t.Label
	}
	reserved[LabelAskQuestion] = struct{}{}
	reserved[LabelMainMenu] = struct{}{}
	reserved["/start"] = struct{}{}
	for _, t := range Topics {
		reserved[t.Label] = struct{}{}
	}
}

// SlugForLabel resolves a button label to its topic slug by exact match.
// The second return is false for anything outside the fixed table.
func SlugForLabel(label string) (string, bool) {
	slug, ok := labelToSlug[label]
	return slug, ok
}

// IsTopicLabel reports whether text is exactly one of the ten topic buttons.
func IsTopicLabel(text string) bool {
	_, ok := labelToSlug[text]
	return ok
}

// IsReserved reports whether text belongs to the reserved-label set: the ten
// topic buttons, the two navigation buttons, or the /start command. Reserved
// input never reaches the free-text branch.
func IsReserved(text string) bool {
	_, ok := reserved[text]
	return ok
}
