// Package tei extracts headword translations from FreeDict TEI XML files.
// Pure function: file path in, lookup table out. No database dependencies.
//
// Only this subset of the TEI structure is read (all elements in the TEI
// namespace):
//
//	entry/form/orth                          headword (first form, first orth)
//	entry//sense//cit[@type="trans"]//quote  translations
package tei

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/heartmarshall/freedict-lookup/internal/domain"
)

// Namespace is the TEI P5 XML namespace.
const Namespace = "http://www.tei-c.org/ns/1.0"

// Stats holds parser statistics for logging.
type Stats struct {
	Entries        int
	NoHeadword     int
	NoTranslations int
	Merged         int
	Translations   int
}

// Parse reads a TEI file and returns lowercase headword → translations.
// Entries without a headword or without translations are skipped silently.
// Malformed XML is returned as an error.
func Parse(filePath string) (*domain.Lookup, Stats, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return ParseReader(f)
}

// ParseReader is Parse for an already opened document.
func ParseReader(r io.Reader) (*domain.Lookup, Stats, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	result := domain.NewLookup()
	var stats Stats
	sawRoot, rootClosed := false, false
	depth := 0

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("decode xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.CharData:
			if depth == 0 && len(bytes.TrimSpace(t)) > 0 {
				return nil, stats, fmt.Errorf("decode xml: %w", errJunk(dec, sawRoot))
			}
			continue
		case xml.EndElement:
			depth--
			if depth == 0 {
				rootClosed = true
			}
			continue
		case xml.StartElement:
			if rootClosed {
				return nil, stats, fmt.Errorf("decode xml: %w", errJunk(dec, true))
			}
			sawRoot = true
			if !isTEI(t.Name, "entry") {
				depth++
				continue
			}

			entry, err := readElement(dec, t)
			if err != nil {
				return nil, stats, fmt.Errorf("decode xml: %w", err)
			}
			if depth == 0 {
				rootClosed = true
			}
			// Nested entries are collected after their parent, in document order.
			for _, e := range entry.iter("entry") {
				collectEntry(e, result, &stats)
			}
		}
	}

	if !sawRoot {
		return nil, stats, fmt.Errorf("decode xml: no root element")
	}
	return result, stats, nil
}

// errJunk reports content outside the single root element.
func errJunk(dec *xml.Decoder, afterRoot bool) error {
	line, col := dec.InputPos()
	if afterRoot {
		return fmt.Errorf("junk after document element: line %d, column %d", line, col)
	}
	return fmt.Errorf("text before document element: line %d, column %d", line, col)
}

func collectEntry(e *element, out *domain.Lookup, stats *Stats) {
	stats.Entries++

	form := e.child("form")
	if form == nil {
		stats.NoHeadword++
		return
	}
	orth := form.child("orth")
	if orth == nil {
		stats.NoHeadword++
		return
	}
	word := strings.TrimSpace(orth.text)
	if word == "" {
		stats.NoHeadword++
		return
	}

	var translations []string
	for _, sense := range e.iter("sense") {
		for _, cit := range sense.iter("cit") {
			if cit.attr("type") != "trans" {
				continue
			}
			for _, quote := range cit.iter("quote") {
				if q := strings.TrimSpace(quote.text); q != "" {
					translations = append(translations, q)
				}
			}
		}
	}

	if len(translations) == 0 {
		stats.NoTranslations++
		return
	}

	key := domain.NormalizeKey(word)
	if out.Has(key) {
		stats.Merged++
	}
	stats.Translations += out.Add(key, translations...)
}

func isTEI(name xml.Name, local string) bool {
	return name.Space == Namespace && name.Local == local
}
