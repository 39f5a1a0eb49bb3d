package catalog

import (
	_ "embed"
	"encoding/json"
	"math/rand"
)

//go:embed data/azkar.json
var builtinJSON []byte

// Builtin returns the bundled dhikr collection. The result is freshly
// decoded on each call so callers may mutate it.
func Builtin() Data {
	var d Data
	if err := json.Unmarshal(builtinJSON, &d); err != nil {
		// The embedded dataset is validated by tests; a decode failure
		// here means a broken build.
		panic("catalog: corrupt embedded dataset: " + err.Error())
	}
	return d
}

// Fallback returns one of a handful of short, well-known remembrances.
// Used when no category yields any entries.
func Fallback() Dhikr {
	fallbacks := []Dhikr{
		{
			ID:              "fb1",
			Arabic:          "سُبْحَانَ اللَّهِ وَبِحَمْدِهِ",
			Transliteration: "SubhanAllahi wa bihamdihi",
			Translation:     "How perfect Allah is and I praise Him",
			Source:          "صحيح مسلم",
			Times:           1,
			Category:        "general",
		},
		{
			ID:              "fb2",
			Arabic:          "لاَ إِلَهَ إِلاَّ اللَّهُ وَحْدَهُ لاَ شَرِيكَ لَهُ",
			Transliteration: "La ilaha illallahu wahdahu la shareeka lah",
			Translation:     "None has the right to be worshipped except Allah alone",
			Source:          "صحيح البخاري",
			Times:           1,
			Category:        "general",
		},
		{
			ID:              "fb3",
			Arabic:          "أَسْتَغْفِرُ اللَّهَ",
			Transliteration: "Astaghfirullah",
			Translation:     "I ask Allah for forgiveness",
			Source:          "صحيح مسلم",
			Times:           3,
			Category:        "forgiveness",
		},
	}
	return fallbacks[rand.Intn(len(fallbacks))]
}
