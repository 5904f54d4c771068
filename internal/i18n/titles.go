package i18n

// Language is a closed tag for the UI languages the app ships with.
type Language string

const (
	LangEN Language = "en"
	LangHI Language = "hi"
)

// Valid reports whether the tag is one the app knows.
func (l Language) Valid() bool {
	return l == LangEN || l == LangHI
}

// Screen names the titles table is keyed by.
const (
	ScreenHome    = "home"
	ScreenTrade   = "trade"
	ScreenRecords = "records"
	ScreenProfile = "profile"
)

var titles = map[Language]map[string]string{
	LangEN: {
		ScreenHome:    "NeonTrade Markets",
		ScreenTrade:   "Execution Engine",
		ScreenRecords: "Financial Records",
		ScreenProfile: "Account Center",
	},
	LangHI: {
		ScreenHome:    "नियॉनट्रेड बाजार",
		ScreenTrade:   "एग्जीक्यूशन इंजन",
		ScreenRecords: "वित्तीय रिकॉर्ड",
		ScreenProfile: "खाता केंद्र",
	},
}

// Title returns the screen title for a language, falling back to
// English for unknown screens or tags.
func Title(lang Language, screen string) string {
	if table, ok := titles[lang]; ok {
		if t, ok := table[screen]; ok {
			return t
		}
	}
	if t, ok := titles[LangEN][screen]; ok {
		return t
	}
	return "NeonTrade"
}
