// Package catalog provides the dhikr dataset: a built-in collection,
// a remote source refreshed daily, and user-defined entries.
package catalog

// Dhikr is a single remembrance entry.
type Dhikr struct {
	ID               string `json:"id"`
	Arabic           string `json:"arabic"`
	Transliteration  string `json:"transliteration,omitempty"`
	Translation      string `json:"translation,omitempty"`
	Source           string `json:"source,omitempty"`
	Times            int    `json:"times"`
	Category         string `json:"category"`
	AudioFile        string `json:"audioFile,omitempty"`
	AudioURL         string `json:"audioUrl,omitempty"`
	CategoryAudioURL string `json:"categoryAudioUrl,omitempty"`
}

// Data maps category keys to their entries.
type Data map[string][]Dhikr

// Category describes a dhikr grouping for display purposes.
type Category struct {
	ID     string `json:"id"`
	NameAr string `json:"nameAr"`
	NameEn string `json:"nameEn"`
	Icon   string `json:"icon"`
	Color  string `json:"color"`
}

// Categories lists every known category, in display order.
var Categories = []Category{
	{ID: "morning", NameAr: "أذكار الصباح", NameEn: "Morning Azkar", Icon: "☀️", Color: "#FF9800"},
	{ID: "evening", NameAr: "أذكار المساء", NameEn: "Evening Azkar", Icon: "🌙", Color: "#3F51B5"},
	{ID: "afterPrayer", NameAr: "أذكار بعد الصلاة", NameEn: "After Prayer", Icon: "🕌", Color: "#4CAF50"},
	{ID: "sleep", NameAr: "أذكار النوم", NameEn: "Sleep Azkar", Icon: "🌜", Color: "#1A237E"},
	{ID: "forgiveness", NameAr: "الاستغفار والتوبة", NameEn: "Forgiveness", Icon: "🤲", Color: "#009688"},
	{ID: "protection", NameAr: "أذكار الحماية", NameEn: "Protection", Icon: "🛡️", Color: "#F44336"},
	{ID: "general", NameAr: "أذكار عامة", NameEn: "General Dhikr", Icon: "📿", Color: "#795548"},
	{ID: "dua", NameAr: "أدعية", NameEn: "Supplications", Icon: "🕊️", Color: "#E91E63"},
	{ID: "travel", NameAr: "أذكار السفر", NameEn: "Travel Azkar", Icon: "✈️", Color: "#00BCD4"},
	{ID: "food", NameAr: "أذكار الطعام", NameEn: "Food Azkar", Icon: "🍽️", Color: "#8BC34A"},
	{ID: "adhan", NameAr: "أذكار الأذان", NameEn: "Adhan Azkar", Icon: "🔊", Color: "#607D8B"},
	{ID: "wakeup", NameAr: "أذكار الاستيقاظ", NameEn: "Waking Up", Icon: "🌅", Color: "#FFC107"},
	{ID: "mosque", NameAr: "أذكار المسجد", NameEn: "Mosque Azkar", Icon: "🕋", Color: "#5D4037"},
}

func categoryKeys() []string {
	keys := make([]string, len(Categories))
	for i, c := range Categories {
		keys[i] = c.ID
	}
	return keys
}
