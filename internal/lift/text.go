package lift

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// spanElement is the only element LIFT allows inside <text>.
const spanElement = "span"

// xmlText keeps the raw content of a <text> element so <span> runs
// survive a decode/encode cycle.
type xmlText struct {
	Inner string `xml:",innerxml"`
}

// textValue returns the domain value of a <text> element. Content with
// child elements is kept as XML markup; plain content is unescaped.
func textValue(x xmlText) string {
	dec := xml.NewDecoder(strings.NewReader(x.Inner))
	var b strings.Builder
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return strings.TrimSpace(b.String())
		}
		if err != nil {
			return strings.TrimSpace(x.Inner)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return strings.TrimSpace(x.Inner)
		case xml.CharData:
			b.Write(t)
		}
	}
}

// newText encodes a domain value as <text> content. A value that is a
// well-formed fragment of text and <span> elements is written as is;
// anything else is escaped.
func newText(s string) xmlText {
	if IsMarkup(s) {
		return xmlText{Inner: s}
	}
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return xmlText{Inner: b.String()}
}

// IsMarkup reports whether s holds LIFT span markup rather than plain text.
func IsMarkup(s string) bool {
	if !strings.Contains(s, "<") {
		return false
	}
	dec := xml.NewDecoder(strings.NewReader(s))
	spans := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return spans > 0
		}
		if err != nil {
			return false
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != spanElement {
				return false
			}
			spans++
		case xml.ProcInst, xml.Directive:
			return false
		}
	}
}

// PlainText returns the character content of a value, dropping span markup.
func PlainText(s string) string {
	if !IsMarkup(s) {
		return s
	}
	dec := xml.NewDecoder(strings.NewReader(s))
	var b strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return b.String()
		}
		if cd, ok := tok.(xml.CharData); ok {
			b.Write(cd)
		}
	}
}
