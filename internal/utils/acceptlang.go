package utils

import (
	"sort"
	"strconv"
	"strings"
)

// Locales lists the locales that have a message table, sorted.
func Locales() []string {
	out := make([]string, 0, len(translations))
	for l := range translations {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// DetermineLocale picks a supported locale: the explicit query value first,
// then the highest-weighted Accept-Language entry, then def. Regional tags
// fall back to their base language (zh-CN -> zh).
func DetermineLocale(queryLang, acceptLang, def string) string {
	if l, ok := supportedLocale(queryLang); ok {
		return l
	}

	type weighted struct {
		lang string
		q    float64
	}
	var cands []weighted
	for _, part := range strings.Split(acceptLang, ",") {
		tag, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		q := 1.0
		if k, v, ok := strings.Cut(strings.TrimSpace(params), "="); ok && strings.TrimSpace(k) == "q" {
			parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				continue
			}
			q = parsed
		}
		if q <= 0 {
			continue
		}
		if l, ok := supportedLocale(tag); ok {
			cands = append(cands, weighted{lang: l, q: q})
		}
	}
	if len(cands) > 0 {
		sort.SliceStable(cands, func(i, j int) bool { return cands[i].q > cands[j].q })
		return cands[0].lang
	}
	if l, ok := supportedLocale(def); ok {
		return l
	}
	return "en"
}

func supportedLocale(tag string) (string, bool) {
	l := strings.ToLower(strings.TrimSpace(tag))
	if l == "" {
		return "", false
	}
	if _, ok := translations[l]; ok {
		return l, true
	}
	if base, _, ok := strings.Cut(l, "-"); ok {
		if _, ok := translations[base]; ok {
			return base, true
		}
	}
	return "", false
}
