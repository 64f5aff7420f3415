package lift

import "encoding/xml"

// Version is the LIFT version written by this package.
const Version = "0.13"

// XML model of the LIFT elements this system reads and writes. Unknown
// elements and attributes are ignored by encoding/xml on decode.

type xmlLift struct {
	XMLName  xml.Name   `xml:"lift"`
	Version  string     `xml:"version,attr,omitempty"`
	Producer string     `xml:"producer,attr,omitempty"`
	Entries  []xmlEntry `xml:"entry"`
}

type xmlEntry struct {
	XMLName         xml.Name            `xml:"entry"`
	ID              string              `xml:"id,attr"`
	GUID            string              `xml:"guid,attr,omitempty"`
	Order           int                 `xml:"order,attr,omitempty"`
	DateCreated     string              `xml:"dateCreated,attr,omitempty"`
	DateModified    string              `xml:"dateModified,attr,omitempty"`
	LexicalUnit     *xmlMultiText       `xml:"lexical-unit"`
	Citation        *xmlMultiText       `xml:"citation"`
	Pronunciations  []xmlPronunciation  `xml:"pronunciation"`
	Variants        []xmlVariant        `xml:"variant"`
	GrammaticalInfo *xmlGrammaticalInfo `xml:"grammatical-info"`
	Senses          []xmlSense          `xml:"sense"`
	Notes           []xmlNote           `xml:"note"`
	Relations       []xmlRelation       `xml:"relation"`
	Etymologies     []xmlEtymology      `xml:"etymology"`
	Traits          []xmlTrait          `xml:"trait"`
}

type xmlSense struct {
	ID              string              `xml:"id,attr,omitempty"`
	Order           int                 `xml:"order,attr,omitempty"`
	GrammaticalInfo *xmlGrammaticalInfo `xml:"grammatical-info"`
	Glosses         []xmlForm           `xml:"gloss"`
	Definition      *xmlMultiText       `xml:"definition"`
	Examples        []xmlExample        `xml:"example"`
	Notes           []xmlNote           `xml:"note"`
	Relations       []xmlRelation       `xml:"relation"`
	Traits          []xmlTrait          `xml:"trait"`
	Subsenses       []xmlSense          `xml:"subsense"`
}

type xmlExample struct {
	ID           string           `xml:"id,attr,omitempty"`
	Source       string           `xml:"source,attr,omitempty"`
	Forms        []xmlForm        `xml:"form"`
	Translations []xmlTranslation `xml:"translation"`
	Notes        []xmlNote        `xml:"note"`
}

type xmlTranslation struct {
	Type  string    `xml:"type,attr,omitempty"`
	Forms []xmlForm `xml:"form"`
}

type xmlVariant struct {
	Ref    string     `xml:"ref,attr,omitempty"`
	Forms  []xmlForm  `xml:"form"`
	Traits []xmlTrait `xml:"trait"`
}

type xmlPronunciation struct {
	Forms []xmlForm  `xml:"form"`
	Media []xmlMedia `xml:"media"`
}

type xmlMedia struct {
	Href string `xml:"href,attr"`
}

type xmlNote struct {
	Type  string    `xml:"type,attr,omitempty"`
	Forms []xmlForm `xml:"form"`
}

type xmlRelation struct {
	Type  string `xml:"type,attr"`
	Ref   string `xml:"ref,attr"`
	Order int    `xml:"order,attr,omitempty"`
}

type xmlEtymology struct {
	Type    string    `xml:"type,attr,omitempty"`
	Source  string    `xml:"source,attr,omitempty"`
	Forms   []xmlForm `xml:"form"`
	Glosses []xmlForm `xml:"gloss"`
}

type xmlTrait struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type xmlGrammaticalInfo struct {
	Value string `xml:"value,attr"`
}

type xmlMultiText struct {
	Forms []xmlForm `xml:"form"`
}

type xmlForm struct {
	Lang string  `xml:"lang,attr"`
	Text xmlText `xml:"text"`
}

// Ranges.

type xmlRanges struct {
	XMLName xml.Name   `xml:"lift-ranges"`
	Ranges  []xmlRange `xml:"range"`
}

type xmlRange struct {
	ID       string            `xml:"id,attr"`
	Href     string            `xml:"href,attr,omitempty"`
	Elements []xmlRangeElement `xml:"range-element"`
}

type xmlRangeElement struct {
	ID          string        `xml:"id,attr"`
	Parent      string        `xml:"parent,attr,omitempty"`
	Label       *xmlMultiText `xml:"label"`
	Abbrev      *xmlMultiText `xml:"abbrev"`
	Description *xmlMultiText `xml:"description"`
}
