package catalog

import "testing"

func TestTopicsTableIntegrity(t *testing.T) {
	if len(Topics) != 10 {
		t.Fatalf("len(Topics) = %d; want 10", len(Topics))
	}

	seenLabel := map[string]bool{}
	seenSlug := map[string]bool{}
	for _, e := range Topics {
		if e.Label == "" || e.Slug == "" {
			t.Fatalf("empty entry: %+v", e)
		}
		if seenLabel[e.Label] {
			t.Fatalf("duplicate label %q", e.Label)
		}
		if seenSlug[e.Slug] {
			t.Fatalf("duplicate slug %q", e.Slug)
		}
		seenLabel[e.Label] = true
		seenSlug[e.Slug] = true
	}
}

func TestSlugForLabel(t *testing.T) {
	slug, ok := SlugForLabel("🪪 Pasport olish/almashtirish")
	if !ok || slug != "passport" {
		t.Fatalf("SlugForLabel = (%q, %v); want (passport, true)", slug, ok)
	}

	// Exact match only, no trimming or fuzziness.
	if _, ok := SlugForLabel("Pasport olish/almashtirish"); ok {
		t.Fatal("matched label without emoji prefix")
	}
	if _, ok := SlugForLabel("passport"); ok {
		t.Fatal("SlugForLabel matched a slug; labels only")
	}
}

func TestIsReserved(t *testing.T) {
	reserved := []string{
		"💰 Bolalar nafaqasi",
		"🏢 Davlat xizmatlari markazi",
		LabelAskQuestion,
		LabelMainMenu,
		"/start",
	}
	for _, s := range reserved {
		if !IsReserved(s) {
			t.Fatalf("IsReserved(%q) = false; want true", s)
		}
	}

	free := []string{
		"",
		"bolalar nafaqasi",
		"Qanday hujjat kerak?",
		"/help",
	}
	for _, s := range free {
		if IsReserved(s) {
			t.Fatalf("IsReserved(%q) = true; want false", s)
		}
	}
}

func TestIsTopicLabel(t *testing.T) {
	if !IsTopicLabel("🏫 Maktabga qabul") {
		t.Fatal("topic label not recognized")
	}
	if IsTopicLabel(LabelAskQuestion) {
		t.Fatal("ask-question button is not a topic")
	}
	if IsTopicLabel(LabelMainMenu) {
		t.Fatal("main-menu button is not a topic")
	}
}
