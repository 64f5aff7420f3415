// Package lift reads and writes LIFT (Lexicon Interchange Format) XML.
package lift

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/heartmarshall/dictionary-writing-system/internal/domain"
)

// UnmarshalEntry decodes a single <entry> element.
func UnmarshalEntry(data []byte) (*domain.Entry, error) {
	var x xmlEntry
	if err := xml.Unmarshal(data, &x); err != nil {
		return nil, fmt.Errorf("lift: unmarshal entry: %w", err)
	}
	return toDomainEntry(&x), nil
}

// MarshalEntry encodes e as a single <entry> element.
func MarshalEntry(e *domain.Entry) ([]byte, error) {
	data, err := xml.Marshal(fromDomainEntry(e))
	if err != nil {
		return nil, fmt.Errorf("lift: marshal entry %s: %w", e.ID, err)
	}
	return data, nil
}

// MarshalDocument encodes entries as a complete <lift> document.
func MarshalDocument(producer string, entries []*domain.Entry) ([]byte, error) {
	doc := xmlLift{Version: Version, Producer: producer}
	doc.Entries = make([]xmlEntry, 0, len(entries))
	for _, e := range entries {
		doc.Entries = append(doc.Entries, *fromDomainEntry(e))
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("lift: marshal document: %w", err)
	}
	return buf.Bytes(), nil
}

// Stream calls fn for every <entry> in r, in document order, decoding one
// entry at a time. The index passed to fn is zero-based. Errors returned by
// fn abort the stream and are returned as is.
func Stream(r io.Reader, fn func(index int, e *domain.Entry) error) error {
	dec := xml.NewDecoder(r)
	index := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("lift: stream: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "entry" {
			continue
		}
		var x xmlEntry
		if err := dec.DecodeElement(&x, &start); err != nil {
			return fmt.Errorf("lift: stream entry %d: %w", index, err)
		}
		if err := fn(index, toDomainEntry(&x)); err != nil {
			return err
		}
		index++
	}
}

// UnmarshalEntries decodes every <entry> element in data, whatever element
// wraps them.
func UnmarshalEntries(data []byte) ([]*domain.Entry, error) {
	var out []*domain.Entry
	err := Stream(bytes.NewReader(data), func(_ int, e *domain.Entry) error {
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarshalEntries encodes entries as a <lift> element without XML header,
// for sending to the database.
func MarshalEntries(entries []*domain.Entry) ([]byte, error) {
	doc := xmlLift{Version: Version}
	doc.Entries = make([]xmlEntry, 0, len(entries))
	for _, e := range entries {
		doc.Entries = append(doc.Entries, *fromDomainEntry(e))
	}
	data, err := xml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("lift: marshal entries: %w", err)
	}
	return data, nil
}

// DecodeRanges reads a <lift-ranges> document.
func DecodeRanges(r io.Reader) ([]domain.Range, error) {
	var x xmlRanges
	if err := xml.NewDecoder(r).Decode(&x); err != nil {
		return nil, fmt.Errorf("lift: decode ranges: %w", err)
	}
	out := make([]domain.Range, 0, len(x.Ranges))
	for _, xr := range x.Ranges {
		out = append(out, toRange(xr))
	}
	return out, nil
}

// UnmarshalRange decodes a single <range> element.
func UnmarshalRange(data []byte) (domain.Range, error) {
	var x xmlRange
	if err := xml.Unmarshal(data, &x); err != nil {
		return domain.Range{}, fmt.Errorf("lift: unmarshal range: %w", err)
	}
	return toRange(x), nil
}

// MarshalRanges encodes ranges as a <lift-ranges> document.
func MarshalRanges(ranges []domain.Range) ([]byte, error) {
	x := xmlRanges{Ranges: make([]xmlRange, 0, len(ranges))}
	for _, r := range ranges {
		x.Ranges = append(x.Ranges, fromRange(r))
	}
	data, err := xml.Marshal(x)
	if err != nil {
		return nil, fmt.Errorf("lift: marshal ranges: %w", err)
	}
	return data, nil
}
