package inventory

import (
	"github.com/PuerkitoBio/goquery"
	"yardsearch-backend/lib/htmlutil"
)

// RowExtractor narrows every structural selector the parser depends on
// to one implementation, so a markup change on the upstream inventory
// pages is a one-file edit. The fixture test in parser_test.go pins
// the expected output for a saved upstream sample.
type RowExtractor interface {
	// Rows selects every listing-row element in the document.
	Rows(doc *goquery.Document) *goquery.Selection
	// ListingId returns the row's stable identifier, or "" when the
	// row carries none (such a row is skipped).
	ListingId(row *goquery.Selection) string
	// Title returns the raw "<year> <make> <model...>" fragment.
	Title(row *goquery.Selection) string
	// DetailFields returns the raw "Label: value" fragments of a row.
	DetailFields(row *goquery.Selection) []string
	// AvailableAt returns the machine-readable timestamp attribute of
	// the row's time element, or "".
	AvailableAt(row *goquery.Selection) string
	// PrimaryImage returns the main photo URL, or "".
	PrimaryImage(row *goquery.Selection) string
	// GalleryImages returns any additional photo URLs.
	GalleryImages(row *goquery.Selection) []string
}

// cardExtractor reads the vehicle-card markup the chain's inventory
// endpoint currently serves.
type cardExtractor struct{}

func (cardExtractor) Rows(doc *goquery.Document) *goquery.Selection {
	return doc.Find("div.vehicle-card")
}

func (cardExtractor) ListingId(row *goquery.Selection) string {
	return row.AttrOr("data-listing-id", "")
}

func (cardExtractor) Title(row *goquery.Selection) string {
	title := row.Find("h3.vehicle-title").First()
	if len(title.Nodes) == 0 {
		return ""
	}
	return htmlutil.CleanText(title.Nodes[0])
}

func (cardExtractor) DetailFields(row *goquery.Selection) []string {
	var fields []string
	row.Find("ul.vehicle-details li").Each(func(_ int, li *goquery.Selection) {
		fields = append(fields, li.Text())
	})
	return fields
}

func (cardExtractor) AvailableAt(row *goquery.Selection) string {
	return row.Find("time").First().AttrOr("datetime", "")
}

func (cardExtractor) PrimaryImage(row *goquery.Selection) string {
	return row.Find("img.vehicle-photo").First().AttrOr("src", "")
}

func (cardExtractor) GalleryImages(row *goquery.Selection) []string {
	var urls []string
	row.Find("[data-gallery-image]").Each(func(_ int, el *goquery.Selection) {
		if src := el.AttrOr("data-gallery-image", ""); src != "" {
			urls = append(urls, src)
		}
	})
	return urls
}
