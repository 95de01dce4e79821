package etsimport

import (
	"slices"
	"strings"

	"github.com/beevik/etree"
)

// fallbackLanguages are tried, in order, after the caller's preferred language.
var fallbackLanguages = []string{"en", "fr", "de"}

// translations maps an element key (Id without the document prefix) to
// attribute name → translated text.
type translations map[string]map[string]string

// lookup returns the trimmed translation, or "".
func (t translations) lookup(key, attrName string) string {
	if attrs, ok := t[key]; ok {
		return strings.TrimSpace(attrs[attrName])
	}
	return ""
}

// buildTranslations collects the Language blocks of a catalog document.
//
// For each element attribute the first language in languageOrder that
// supplies a non-blank text wins; later languages never overwrite it.
func buildTranslations(root *etree.Element, prefix, preferred string) translations {
	tr := make(translations)
	languages := descendants(root, tagLanguage)

	for _, lang := range languageOrder(languages, preferred) {
		node := languageNode(languages, lang)
		if node == nil {
			continue
		}
		for key, attrs := range collectLanguage(node, prefix) {
			entry, ok := tr[key]
			if !ok {
				entry = make(map[string]string, len(attrs))
				tr[key] = entry
			}
			for name, text := range attrs {
				if _, exists := entry[name]; !exists {
					entry[name] = text
				}
			}
		}
	}
	return tr
}

// languageOrder returns the available language identifiers ordered by
// preference: the preferred code, then en, fr, de, then the rest in
// document order. Codes match by case-insensitive prefix, so "de"
// selects "de-DE".
func languageOrder(languages []*etree.Element, preferred string) []string {
	var ids []string
	for _, lang := range languages {
		id := attr(lang, "Identifier")
		if id != "" && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	var prefs []string
	if p := strings.ToLower(strings.TrimSpace(preferred)); p != "" {
		prefs = append(prefs, p)
	}
	for _, fb := range fallbackLanguages {
		if !slices.Contains(prefs, fb) {
			prefs = append(prefs, fb)
		}
	}

	ordered := make([]string, 0, len(ids))
	for _, pref := range prefs {
		for _, id := range ids {
			if strings.HasPrefix(strings.ToLower(id), pref) && !slices.Contains(ordered, id) {
				ordered = append(ordered, id)
			}
		}
	}
	for _, id := range ids {
		if !slices.Contains(ordered, id) {
			ordered = append(ordered, id)
		}
	}
	return ordered
}

func languageNode(languages []*etree.Element, id string) *etree.Element {
	for _, lang := range languages {
		if attr(lang, "Identifier") == id {
			return lang
		}
	}
	return nil
}

func collectLanguage(lang *etree.Element, prefix string) translations {
	out := make(translations)
	for _, unit := range descendants(lang, tagTranslationUnit) {
		for _, elem := range childElements(unit, tagTranslationElement) {
			refID, _ := rawAttr(elem, "RefId")
			if refID == "" {
				continue
			}
			key := stripPrefix(refID, prefix)
			for _, t := range childElements(elem, tagTranslation) {
				name, _ := rawAttr(t, "AttributeName")
				text, _ := rawAttr(t, "Text")
				if name == "" || strings.TrimSpace(text) == "" {
					continue
				}
				attrs, ok := out[key]
				if !ok {
					attrs = make(map[string]string)
					out[key] = attrs
				}
				attrs[name] = text
			}
		}
	}
	return out
}

// localizedAttr returns the translation of an element attribute, falling
// back to the inline attribute value.
func localizedAttr(el *etree.Element, name string, tr translations, prefix string) string {
	if v := translatedAttr(el, name, tr, prefix); v != "" {
		return v
	}
	return attr(el, name)
}

// translatedAttr returns only the translated value, never the inline one.
func translatedAttr(el *etree.Element, name string, tr translations, prefix string) string {
	id, _ := rawAttr(el, "Id")
	if id == "" {
		return ""
	}
	return tr.lookup(stripPrefix(id, prefix), name)
}
