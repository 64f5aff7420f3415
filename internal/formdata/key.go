// Package formdata turns flat HTML form fields such as
// senses[0][definition][en] into nested values and merges them into
// dictionary entries.
package formdata

import (
	"strconv"
	"strings"
)

// Segment is one step of a parsed form key.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

func (s Segment) String() string {
	if s.IsIndex {
		return strconv.Itoa(s.Index)
	}
	return s.Key
}

// ParseKey splits a form key into segments. Brackets and dots are both
// accepted as separators, in any mix:
//
//	senses[0][definition][en]
//	senses.0.definition.en
//	senses[0].examples.1[text]
//
// A segment of digits only is a list index. A malformed key (unbalanced
// brackets, empty segments) is returned whole as one literal segment.
func ParseKey(key string) []Segment {
	segs, ok := parseKey(key)
	if !ok {
		return []Segment{{Key: key}}
	}
	return segs
}

func parseKey(key string) ([]Segment, bool) {
	if key == "" {
		return nil, false
	}
	head := strings.IndexAny(key, "[.]")
	if head == 0 {
		return nil, false
	}
	if head < 0 {
		return []Segment{{Key: key}}, true
	}
	if key[head] == ']' {
		return nil, false
	}

	segs := []Segment{{Key: key[:head]}}
	rest := key[head:]
	for rest != "" {
		switch rest[0] {
		case '[':
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil, false
			}
			part := rest[1:end]
			if part == "" || strings.ContainsAny(part, "[") {
				return nil, false
			}
			segs = append(segs, newSegment(part))
			rest = rest[end+1:]
		case '.':
			rest = rest[1:]
			end := strings.IndexAny(rest, "[.]")
			if end < 0 {
				end = len(rest)
			}
			part := rest[:end]
			if part == "" {
				return nil, false
			}
			segs = append(segs, newSegment(part))
			rest = rest[end:]
		default:
			return nil, false
		}
	}
	return segs, true
}

func newSegment(part string) Segment {
	if isDigits(part) {
		if n, err := strconv.Atoi(part); err == nil {
			return Segment{Key: part, Index: n, IsIndex: true}
		}
	}
	return Segment{Key: part}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
