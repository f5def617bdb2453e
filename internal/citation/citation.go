// Package citation holds the canonical reference for the reproduced
// experiment and checks that its BibTeX form survives a parse round-trip.
package citation

import (
	"fmt"
	"strings"

	"github.com/nickng/bibtex"
)

// Entry is the bibliographic record of the reproduced paper.
type Entry struct {
	Key           string   `json:"key"`
	Type          string   `json:"type"`
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	Year          string   `json:"year"`
	Eprint        string   `json:"eprint"`
	ArchivePrefix string   `json:"archive_prefix"`
	PrimaryClass  string   `json:"primary_class"`
	URL           string   `json:"url"`
}

// Canonical returns the citation of the experiment this repository
// reproduces.
func Canonical() Entry {
	return Entry{
		Key:  "novotny2020text",
		Type: "misc",
		Title: "Text classification with word embedding regularization " +
			"and soft similarity measure",
		Authors: []string{
			"Vít Novotný",
			"Eniafe Festus Ayetiran",
			"Petr Sojka",
			"Radim Řehůřek",
		},
		Year:          "2020",
		Eprint:        "2003.05019",
		ArchivePrefix: "arXiv",
		PrimaryClass:  "cs.IR",
		URL:           "https://arxiv.org/abs/2003.05019",
	}
}

// fieldOrder fixes the rendered field order so output is deterministic.
var fieldOrder = []string{"title", "author", "year", "eprint", "archiveprefix", "primaryclass", "url"}

// fields returns the entry as a BibTeX field map.
func (e Entry) fields() map[string]string {
	return map[string]string{
		"title":         e.Title,
		"author":        strings.Join(e.Authors, " and "),
		"year":          e.Year,
		"eprint":        e.Eprint,
		"archiveprefix": e.ArchivePrefix,
		"primaryclass":  e.PrimaryClass,
		"url":           e.URL,
	}
}

// BibTeX renders the entry.
func (e Entry) BibTeX() string {
	var b strings.Builder
	fmt.Fprintf(&b, "@%s{%s,\n", e.Type, e.Key)
	fields := e.fields()
	for _, name := range fieldOrder {
		if v := fields[name]; v != "" {
			fmt.Fprintf(&b, "  %s = {%s},\n", name, v)
		}
	}
	b.WriteString("}\n")
	return b.String()
}

// Parse reads the first entry of a BibTeX document.
func Parse(src string) (Entry, error) {
	bib, err := bibtex.Parse(strings.NewReader(src))
	if err != nil {
		return Entry{}, fmt.Errorf("invalid BibTeX: %w", err)
	}
	if len(bib.Entries) == 0 {
		return Entry{}, fmt.Errorf("no BibTeX entries found")
	}
	parsed := bib.Entries[0]

	get := func(name string) string {
		if v, ok := parsed.Fields[name]; ok {
			return v.String()
		}
		return ""
	}
	e := Entry{
		Key:           parsed.CiteName,
		Type:          parsed.Type,
		Title:         get("title"),
		Year:          get("year"),
		Eprint:        get("eprint"),
		ArchivePrefix: get("archiveprefix"),
		PrimaryClass:  get("primaryclass"),
		URL:           get("url"),
	}
	if author := get("author"); author != "" {
		for _, a := range strings.Split(author, " and ") {
			e.Authors = append(e.Authors, strings.TrimSpace(a))
		}
	}
	return e, nil
}

// Verify renders e and parses it back, failing on any field drift.
func (e Entry) Verify() error {
	parsed, err := Parse(e.BibTeX())
	if err != nil {
		return err
	}
	if parsed.Key != e.Key || parsed.Type != e.Type {
		return fmt.Errorf("entry identity drifted: %s/%s vs %s/%s", parsed.Type, parsed.Key, e.Type, e.Key)
	}
	want := e.fields()
	got := parsed.fields()
	for _, name := range fieldOrder {
		if got[name] != want[name] {
			return fmt.Errorf("field %s drifted: %q vs %q", name, got[name], want[name])
		}
	}
	return nil
}

// Plain renders a one-paragraph human-readable citation.
func (e Entry) Plain() string {
	return fmt.Sprintf("%s. %s. %s. %s:%s [%s]. %s",
		strings.Join(e.Authors, ", "), e.Title, e.Year,
		e.ArchivePrefix, e.Eprint, e.PrimaryClass, e.URL)
}
