// Package inventory turns one branch's inventory markup into
// canonical vehicle listings and owns the upstream inventory client.
package inventory

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"yardsearch-backend/internal/chrono"
	"yardsearch-backend/internal/directory"
	"yardsearch-backend/lib/textutil"
)

var tracer = otel.Tracer("yardsearch.inventory")

type ParserOptions struct {
	// BaseURL is prefixed onto relative outbound link templates.
	BaseURL string
	Clock   chrono.API
	// Extractor defaults to the current upstream markup shape.
	Extractor RowExtractor
}

type Parser struct {
	opts ParserOptions
}

func NewParser(opts ParserOptions) *Parser {
	if opts.Clock == nil {
		opts.Clock = chrono.StandardImpl{}
	}
	if opts.Extractor == nil {
		opts.Extractor = cardExtractor{}
	}
	return &Parser{opts: opts}
}

// Parse converts a branch's inventory page into listings. It never
// fails: a malformed document yields an empty list and a malformed row
// is logged and skipped without aborting its siblings.
func (p *Parser) Parse(ctx context.Context, page []byte, branch directory.Branch) []RawListing {
	ctx, span := tracer.Start(ctx, "inventory:Parse")
	defer span.End()
	span.SetAttributes(attribute.String("branch", branch.Code))

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		slog.WarnContext(ctx, "unparseable inventory document", "branch", branch.Code, "err", err)
		return nil
	}

	var listings []RawListing
	p.opts.Extractor.Rows(doc).Each(func(_ int, row *goquery.Selection) {
		id := p.opts.Extractor.ListingId(row)
		if id == "" {
			return
		}
		listing, err := p.parseRow(row, id, branch)
		if err != nil {
			slog.DebugContext(ctx, "skipping listing row", "branch", branch.Code, "id", id, "err", err)
			return
		}
		listings = append(listings, listing)
	})

	span.SetAttributes(attribute.Int("listings", len(listings)))
	return listings
}

func (p *Parser) parseRow(row *goquery.Selection, id string, branch directory.Branch) (listing RawListing, err error) {
	// one bad row must never take down the batch
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while parsing row: %v", r)
		}
	}()

	listing.Id = id

	title := textutil.CollapseWhitespace(p.opts.Extractor.Title(row))
	tokens := strings.Split(title, " ")
	if title == "" || len(tokens) < 3 {
		return listing, fmt.Errorf("title %q has fewer than 3 tokens", title)
	}
	listing.Year, err = strconv.Atoi(tokens[0])
	if err != nil {
		return listing, fmt.Errorf("title %q does not start with a year", title)
	}
	listing.Make = tokens[1]
	listing.Model = strings.Join(tokens[2:], " ")

	listing.Color = "Unknown"
	for _, fragment := range p.opts.Extractor.DetailFields(row) {
		p.applyDetailFragment(&listing, fragment)
	}

	listing.AvailableAt = p.opts.Clock.Now()
	if raw := p.opts.Extractor.AvailableAt(row); raw != "" {
		if at, err := time.Parse(time.RFC3339, raw); err == nil {
			listing.AvailableAt = at
		}
	}

	if src := p.opts.Extractor.PrimaryImage(row); src != "" {
		listing.Images = append(listing.Images, imageFromUrl(src))
	}
	for _, src := range p.opts.Extractor.GalleryImages(row) {
		listing.Images = append(listing.Images, imageFromUrl(src))
	}

	slug := textutil.Slugify(fmt.Sprintf("%d %s %s", listing.Year, listing.Make, listing.Model))
	listing.Links = Links{
		Details: p.expandTemplate(branch.Templates.Details, slug),
		Parts:   p.expandTemplate(branch.Templates.Parts, slug),
		Prices:  p.expandTemplate(branch.Templates.Prices, slug),
	}

	return listing, nil
}

var multiSpaceRegex = regexp.MustCompile(`\s{2,}`)
var nbspReplacer = strings.NewReplacer("\u00a0", " ", "\u2007", " ", "\u202f", " ")

// applyDetailFragment digests one "Label: value" fragment. The
// combined "Section: a  Row: b  Space: c" fragment splits on runs of
// 2+ spaces into its labeled sub-parts. Missing fields never fail a
// row; they just keep their defaults.
func (p *Parser) applyDetailFragment(listing *RawListing, fragment string) {
	fragment = strings.TrimSpace(nbspReplacer.Replace(fragment))
	for _, part := range multiSpaceRegex.Split(fragment, -1) {
		label, value, found := strings.Cut(part, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(label)) {
		case "color":
			listing.Color = value
		case "vin":
			listing.Vin = value
		case "stock #", "stock":
			listing.StockNumber = value
		case "section":
			listing.Position.Section = value
		case "row":
			listing.Position.Row = value
		case "space":
			listing.Position.Space = value
		}
	}
}

func (p *Parser) expandTemplate(template, slug string) string {
	if template == "" {
		return ""
	}
	link := strings.ReplaceAll(template, "{slug}", slug)
	if strings.HasPrefix(link, "/") && p.opts.BaseURL != "" {
		link = strings.TrimSuffix(p.opts.BaseURL, "/") + link
	}
	return link
}

// query parameters the upstream image server uses for on-the-fly crop
// and resize; stripping them yields the full-resolution original.
var resizeParams = []string{"width", "height", "w", "h", "mode", "crop", "scale", "quality"}

func imageFromUrl(src string) Image {
	return Image{
		Url:          stripResizeParams(src),
		ThumbnailUrl: src,
		Type:         classifyImage(src),
	}
}

func stripResizeParams(src string) string {
	parsed, err := url.Parse(src)
	if err != nil {
		return src
	}
	query := parsed.Query()
	for _, param := range resizeParams {
		query.Del(param)
	}
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

// ordered most-specific first so "front-left" wins over "front"
var imageKeywords = []struct {
	keyword string
	imgType ImageType
}{
	{"front-left", ImageFrontLeft},
	{"front-right", ImageFrontRight},
	{"back-left", ImageBackLeft},
	{"back-right", ImageBackRight},
	{"rear-left", ImageBackLeft},
	{"rear-right", ImageBackRight},
	{"front", ImageFront},
	{"back", ImageBack},
	{"rear", ImageBack},
	{"engine", ImageEngine},
	{"interior", ImageInterior},
	{"odometer", ImageOdometer},
	{"left", ImageLeftSide},
	{"right", ImageRightSide},
}

func classifyImage(src string) ImageType {
	normalized := strings.ReplaceAll(strings.ToLower(src), "_", "-")
	for _, entry := range imageKeywords {
		if strings.Contains(normalized, entry.keyword) {
			return entry.imgType
		}
	}
	return ImageOther
}
