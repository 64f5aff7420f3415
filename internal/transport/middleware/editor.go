package middleware

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/heartmarshall/dictionary-writing-system/pkg/ctxutil"
)

// EditorHeader names the lexicographer making the request. It is recorded
// in the entry history and is not an authentication mechanism.
const EditorHeader = "X-Editor"

const maxEditorLen = 100

// Editor stores the X-Editor header value in the request context.
func Editor() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name := strings.TrimSpace(r.Header.Get(EditorHeader))
			if name == "" || !utf8.ValidString(name) {
				next.ServeHTTP(w, r)
				return
			}
			if utf8.RuneCountInString(name) > maxEditorLen {
				name = string([]rune(name)[:maxEditorLen])
			}
			next.ServeHTTP(w, r.WithContext(ctxutil.WithEditor(r.Context(), name)))
		})
	}
}
