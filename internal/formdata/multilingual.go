package formdata

import (
	"net/url"
	"strings"

	"github.com/heartmarshall/dictionary-writing-system/internal/domain"
)

// ProcessMultilingualField extracts the multilingual value stored under name.
// Accepted shapes:
//
//	name[en]=...                      one form per language
//	name.en=...
//	name[0][lang]=en&name[0][text]=... list of lang/text pairs
//	name[lang]=en&name[text]=...      one lang/text pair
//	name=...                          bare string, stored under defaultLang
//
// Blank forms are dropped. The result is nil when nothing is left.
func ProcessMultilingualField(values url.Values, name, defaultLang string) domain.MultiText {
	return multiTextFrom(Build(values)[name], defaultLang)
}

// ProcessMultilingualNotes extracts typed notes from notes[type][lang],
// notes[type][lang]+notes[type][text] or notes[type]=text. A bare notes=text
// becomes a general note.
func ProcessMultilingualNotes(values url.Values, defaultLang string) map[string]domain.MultiText {
	return notesFrom(Build(values)["notes"], defaultLang)
}

func multiTextFrom(v any, defaultLang string) domain.MultiText {
	out := make(domain.MultiText)
	collectForms(out, v, defaultLang)
	out.Compact()
	if len(out) == 0 {
		return nil
	}
	return out
}

func collectForms(out domain.MultiText, v any, lang string) {
	switch x := v.(type) {
	case string:
		if s := strings.TrimSpace(x); s != "" {
			out[lang] = s
		}
	case []any:
		for _, item := range x {
			collectForms(out, item, lang)
		}
	case map[string]any:
		if text, ok := x["text"]; ok {
			if l, ok := x["lang"].(string); ok && strings.TrimSpace(l) != "" {
				lang = strings.TrimSpace(l)
			}
			collectForms(out, text, lang)
			return
		}
		for k, item := range x {
			if k == "lang" {
				continue
			}
			collectForms(out, item, k)
		}
	}
}

func notesFrom(v any, defaultLang string) map[string]domain.MultiText {
	out := make(map[string]domain.MultiText)
	switch x := v.(type) {
	case string:
		if mt := multiTextFrom(x, defaultLang); mt != nil {
			out[DefaultNoteType] = mt
		}
	case []any:
		for _, item := range x {
			m, ok := item.(map[string]any)
			if !ok {
				mergeNote(out, DefaultNoteType, multiTextFrom(item, defaultLang))
				continue
			}
			typ, _ := m["type"].(string)
			if typ = strings.TrimSpace(typ); typ == "" {
				typ = DefaultNoteType
			}
			body := make(map[string]any, len(m))
			for k, val := range m {
				if k != "type" {
					body[k] = val
				}
			}
			mergeNote(out, typ, multiTextFrom(body, defaultLang))
		}
	case map[string]any:
		for typ, item := range x {
			mergeNote(out, typ, multiTextFrom(item, defaultLang))
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func mergeNote(out map[string]domain.MultiText, typ string, mt domain.MultiText) {
	if mt == nil {
		return
	}
	if out[typ] == nil {
		out[typ] = mt
		return
	}
	for lang, text := range mt {
		out[typ][lang] = text
	}
}
