package textutil

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// knownTransliterations maps Arabic names to Latin spellings seen in catalog
// metadata. The table is curated and incomplete; phoneticPatterns below
// covers names that are missing here.
var knownTransliterations = map[string][]string{
	"موسى":  {"Moussa", "Mousa", "Musa", "Mousse", "Mowsa"},
	"أحمد":  {"Ahmed", "Ahmad", "Ahmet", "Ahamad"},
	"محمد":  {"Mohamed", "Mohammed", "Muhammad", "Mohamad", "Mahmoud"},
	"حسين":  {"Hussein", "Hosein", "Husain", "Hussien"},
	"علي":   {"Ali", "Aly", "Alee"},
	"عمر":   {"Omar", "Omer", "Umar"},
	"خالد":  {"Khaled", "Khalid", "Chalid"},
	"محمود": {"Mahmoud", "Mahmud", "Mahmod"},
	"يوسف":  {"Youssef", "Yusuf", "Joseph", "Yosef"},
	"كريم":  {"Karim", "Kareem"},
	"رامي":  {"Rami", "Ramey", "Rammy"},
	"سامي":  {"Sami", "Sammy", "Samey"},
	"طارق":  {"Tarek", "Tariq", "Tarik"},
	"وليد":  {"Walid", "Waleed"},
	"هشام":  {"Hisham", "Hesham", "Hicham"},
	"أمير":  {"Amir", "Ameer", "Emir"},
	"فارس":  {"Fares", "Faris"},
	"مراد":  {"Murad", "Morad"},
	"نادر":  {"Nader", "Nadir"},
}

// phoneticPatterns maps each Arabic letter to its common Latin digraph
// renderings, including chat-alphabet digits.
var phoneticPatterns = map[rune][]string{
	'ش': {"sh", "ch"},
	'خ': {"kh", "ch", "x"},
	'ج': {"j", "g"},
	'ح': {"h", "7"},
	'ع': {"a", "e", "3"},
	'غ': {"gh", "g"},
	'ق': {"q", "k"},
	'ص': {"s", "z"},
	'ض': {"d", "z"},
	'ط': {"t"},
	'ظ': {"z", "th"},
	'ذ': {"th", "z"},
	'ث': {"th", "s"},
	'ء': {"a", "e", ""},
	'ى': {"a", "e", "i"},
	'و': {"w", "u", "o"},
	'ي': {"y", "i", "e"},
}

var titleCaser = cases.Title(language.Und)

// IsArabicText reports whether text is predominantly Arabic script.
//
// True when strictly more than 30% of the runes fall inside the Arabic
// Unicode block (U+0600..U+06FF). Exactly 30% is not Arabic.
func IsArabicText(text string) bool {
	if text == "" {
		return false
	}

	runes := []rune(text)
	arabic := 0
	for _, r := range runes {
		if r >= 0x0600 && r <= 0x06FF {
			arabic++
		}
	}

	return float64(arabic) > float64(len(runes))*0.3
}

// TransliterationVariants returns possible Latin renderings of an Arabic
// name: curated table entries first, then phonetic variants derived by
// substituting each Arabic letter with its digraph alternatives. Duplicates
// and empty strings are dropped.
func TransliterationVariants(name string) []string {
	if name == "" {
		return nil
	}

	seen := make(map[string]bool)
	var variants []string
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			return
		}
		seen[v] = true
		variants = append(variants, v)
	}

	for _, v := range knownTransliterations[name] {
		add(v)
	}

	for _, v := range phoneticVariants(name) {
		add(v)
	}

	return variants
}

// phoneticVariants produces one variant per (letter, rendering) substitution
// applied to the whole name.
func phoneticVariants(name string) []string {
	var variants []string

	for arabicChar, renderings := range phoneticPatterns {
		if !strings.ContainsRune(name, arabicChar) {
			continue
		}
		for _, rendering := range renderings {
			variant := strings.ReplaceAll(name, string(arabicChar), rendering)
			if variant != name && len([]rune(variant)) > 1 {
				variants = append(variants, titleCaser.String(variant))
			}
		}
	}

	// Map iteration order is random; keep output deterministic.
	sort.Strings(variants)
	return variants
}

// PhoneticSimilarity scores how closely a Latin candidate name matches an
// Arabic source name: the best similarity across all transliteration
// variants, with a direct comparison as the floor.
func PhoneticSimilarity(sourceName, candidateName string) float64 {
	if sourceName == "" || candidateName == "" {
		return 0
	}

	best := Similarity(sourceName, candidateName)
	for _, variant := range TransliterationVariants(sourceName) {
		if s := Similarity(variant, candidateName); s > best {
			best = s
		}
	}

	return best
}
