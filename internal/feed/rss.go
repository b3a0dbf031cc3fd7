// Package feed renders record sets as RSS 2.0 documents.
package feed

import (
	"bytes"
	"strings"
	"time"

	"github.com/law-makers/nepafeed/pkg/models"
)

// escaper replaces exactly the five reserved markup characters with their
// named entities and leaves everything else untouched.
var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"'", "&apos;",
	`"`, "&quot;",
)

// Escape encodes text for insertion into element content or attributes.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Description renders the present optional fields of r, one per line.
// It is empty when r carries no optional metadata.
func Description(r models.Record) string {
	var lines []string
	for _, f := range []struct{ label, value string }{
		{"State", r.State},
		{"Office", r.Office},
		{"NEPA Type", r.NEPAType},
		{"NEPA Status", r.NEPAStatus},
	} {
		if f.value != "" {
			lines = append(lines, f.label+": "+f.value)
		}
	}
	return strings.Join(lines, "\n")
}

// Serialize renders records in order as an RSS 2.0 channel. Every item is
// stamped with generated, the run time.
func Serialize(title, link string, records []models.Record, generated time.Time) []byte {
	stamp := Escape(generated.UTC().Format(time.RFC1123Z))

	var b bytes.Buffer
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<rss version="2.0">` + "\n")
	b.WriteString("<channel>\n")
	element(&b, "  ", "title", title)
	element(&b, "  ", "link", link)
	element(&b, "  ", "description", title)
	b.WriteString("  <lastBuildDate>" + stamp + "</lastBuildDate>\n")

	for _, r := range records {
		b.WriteString("  <item>\n")
		element(&b, "    ", "title", r.Title)
		element(&b, "    ", "link", r.URL)
		b.WriteString(`    <guid isPermaLink="false">` + Escape(r.ID) + "</guid>\n")
		b.WriteString("    <pubDate>" + stamp + "</pubDate>\n")
		if desc := Description(r); desc != "" {
			element(&b, "    ", "description", desc)
		}
		b.WriteString("  </item>\n")
	}

	b.WriteString("</channel>\n")
	b.WriteString("</rss>\n")
	return b.Bytes()
}

func element(b *bytes.Buffer, indent, name, text string) {
	b.WriteString(indent + "<" + name + ">" + Escape(text) + "</" + name + ">\n")
}
