package core

import "strings"

// DefaultCategories is the static category list used when the backend has none.
var DefaultCategories = []string{
	"Alimentos", "Alquiler", "Salidas", "Expensas", "Deuda Visa",
	"Deuda Amex", "Mascotas", "Servicios", "Regalos", "Ocio",
	"Auto", "Educacion", "Medicamentos", "Ropa", "Otros",
}

// CategoryKey is the comparison key for category names: trimmed and lower-cased.
// Diacritics are kept as-is.
func CategoryKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NormalizeCategories returns the lower-cased, de-duplicated set, keeping order.
func NormalizeCategories(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		k := CategoryKey(n)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// ContainsCategory reports whether name is in set, ignoring case.
func ContainsCategory(set []string, name string) bool {
	k := CategoryKey(name)
	for _, v := range set {
		if CategoryKey(v) == k {
			return true
		}
	}
	return false
}

// NormalizeCategory lower-cases cat and maps it to FallbackCategory when it
// is empty or not in valid. Applying it twice gives the same result.
func NormalizeCategory(cat string, valid []string) string {
	k := CategoryKey(cat)
	if k == "" || !ContainsCategory(valid, k) {
		return FallbackCategory
	}
	return k
}

// Title capitalises the first letter of s and lower-cases the rest,
// matching how categories are shown in replies.
func Title(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	r := []rune(strings.ToLower(s))
	r[0] = []rune(strings.ToUpper(string(r[0])))[0]
	return string(r)
}
