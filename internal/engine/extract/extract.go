// Package extract pulls project links out of search-result markup.
package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/law-makers/nepafeed/internal/normalize"
	urlutil "github.com/law-makers/nepafeed/internal/utils/url"
	"github.com/law-makers/nepafeed/pkg/models"
)

// ProjectSelector matches candidate project anchors in both static and rendered DOMs.
const ProjectSelector = `a[href*="/eplanning-ui/project/"]`

var projectHref = regexp.MustCompile(`^(?:https?://[^/]+)?/eplanning-ui/project/(\d+)/510/?$`)

// Anchor is an href and its link text as read from a document.
type Anchor struct {
	Href string `json:"href"`
	Text string `json:"text"`
}

// ProjectID returns the digit sequence when href points at a project page.
func ProjectID(href string) (string, bool) {
	m := projectHref.FindStringSubmatch(strings.TrimSpace(href))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// FromHTML parses raw markup and returns one record per project anchor in
// document order. Unparseable input yields no records.
func FromHTML(markup, baseURL string) []models.Record {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return []models.Record{}
	}
	return FromDocument(goquery.NewDocumentFromNode(root), baseURL)
}

// FromDocument extracts project records from an already parsed document.
func FromDocument(doc *goquery.Document, baseURL string) []models.Record {
	if doc == nil {
		return []models.Record{}
	}

	var anchors []Anchor
	doc.Find("a[href]").Each(func(i int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		anchors = append(anchors, Anchor{Href: href, Text: sel.Text()})
	})
	return FromAnchors(anchors, baseURL)
}

// FromAnchors applies the project identity pattern to anchors collected from
// any source. Duplicates are kept.
func FromAnchors(anchors []Anchor, baseURL string) []models.Record {
	records := make([]models.Record, 0, len(anchors))
	base := strings.TrimRight(baseURL, "/") + "/"

	for _, a := range anchors {
		id, ok := ProjectID(a.Href)
		if !ok {
			continue
		}

		title := strings.TrimSpace(a.Text)
		if title == "" {
			title = normalize.FallbackTitle(id)
		}

		records = append(records, models.Record{
			ID:    id,
			Title: title,
			URL:   urlutil.ResolveURL(base, strings.TrimSpace(a.Href)),
		})
	}
	return records
}
