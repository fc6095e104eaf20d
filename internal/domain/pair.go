package domain

import "strings"

// PivotLanguage is the language every reverse table translates into.
// All configured dictionaries translate into Dutch, so the reverse file name
// is always derived with this prefix regardless of the forward file's second
// language code.
const PivotLanguage = "nld"

// Pair describes one dictionary conversion: a TEI source (relative to the
// base directory) and the forward JSON file name (relative to the output
// directory).
type Pair struct {
	Source string `yaml:"source"`
	Output string `yaml:"output"`
}

// SourceLanguage returns the text before the first hyphen of a forward
// output name, e.g. "eng" for "eng-nld.json".
func SourceLanguage(output string) string {
	lang, _, _ := strings.Cut(output, "-")
	return lang
}

// ReverseName derives the reverse table file name from a forward output
// name: "eng-nld.json" becomes "nld-eng.json".
func ReverseName(output string) string {
	return PivotLanguage + "-" + SourceLanguage(output) + ".json"
}

// ReverseName returns the reverse table file name for this pair.
func (p Pair) ReverseName() string { return ReverseName(p.Output) }

// DictionaryName strips the .json extension from a table file name.
// Sinks store tables under this name, e.g. "eng-nld" or "nld-eng".
func DictionaryName(file string) string { return strings.TrimSuffix(file, ".json") }

// Dictionary returns the forward dictionary name, e.g. "eng-nld".
func (p Pair) Dictionary() string { return DictionaryName(p.Output) }

// ReverseDictionary returns the reverse dictionary name, e.g. "nld-eng".
func (p Pair) ReverseDictionary() string { return DictionaryName(p.ReverseName()) }

// DefaultPairs are the FreeDict dictionaries converted when no pairs are
// configured.
func DefaultPairs() []Pair {
	return []Pair{
		{Source: "freedict-eng-nld-0.2.src/eng-nld/eng-nld.tei", Output: "eng-nld.json"},
		{Source: "freedict-deu-nld-0.1.5.src/deu-nld/deu-nld.tei", Output: "deu-nld.json"},
		{Source: "freedict-fra-nld-0.2.src/fra-nld/fra-nld.tei", Output: "fra-nld.json"},
	}
}
