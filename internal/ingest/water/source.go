// Package water extracts outage announcements from the water utility's
// paginated news feed.
package water

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/hovq/outage-informer/internal/fingerprint"
	"github.com/hovq/outage-informer/internal/platform/htmlutils"
	"github.com/hovq/outage-informer/internal/platform/webfetch"
)

const (
	panelSelector = "#list-post .panel"
	titleSelector = ".panel-heading"
	bodySelector  = ".panel-body"
)

// boilerplate lists the fixed courtesy sentences the utility appends to
// every announcement; they carry no information and are stripped from the
// dispatched body (the fingerprint still covers the full text).
var boilerplate = []string{
	"Ընկերությունը հայցում է սպառողների ներողամտությունը պատճառված անհանգստության և կանխավ շնորհակալություն հայտնում ըմբռնման համար:",
	"«Վեոլիա Ջուր» ընկերությունը տեղեկացնում է իր հաճախորդներին և սպառողներին, որ վթարային աշխատանքներով պայմանավորված ս.թ.",
}

var (
	trailingDateRe = regexp.MustCompile(`\d{2}\.\d{2}\.\d{4}թ?$`)
	nbspRe         = regexp.MustCompile(`[ \x{00A0}]+`)
	extraBlankRe   = regexp.MustCompile(`\n{3,}`)
)

// Item is one announcement: title, trimmed body, and the content fingerprint
// of the untrimmed body.
type Item struct {
	Hash  string
	Title string
	Body  string
}

type Source struct {
	fetcher *webfetch.Fetcher
	urls    []string
	logger  *zerolog.Logger
}

func New(fetcher *webfetch.Fetcher, urls []string, logger *zerolog.Logger) *Source {
	return &Source{
		fetcher: fetcher,
		urls:    urls,
		logger:  logger,
	}
}

// Extract polls every feed page in order and returns the collected items
// oldest first, so dispatched notifications follow publication order. Any
// page failing to fetch aborts the extraction.
func (s *Source) Extract(ctx context.Context) ([]Item, error) {
	var items []Item

	for _, url := range s.urls {
		pageItems, err := s.extractPage(ctx, url)
		if err != nil {
			return nil, err
		}

		items = append(items, pageItems...)
	}

	reverse(items)

	return items, nil
}

func (s *Source) extractPage(ctx context.Context, url string) ([]Item, error) {
	body, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch water feed: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse water feed: %w", err)
	}

	var items []Item

	doc.Find(panelSelector).Each(func(_ int, panel *goquery.Selection) {
		title := strings.TrimSpace(panel.Find(titleSelector).Text())

		rawBody, err := panel.Find(bodySelector).Html()
		if err != nil || strings.TrimSpace(rawBody) == "" {
			return
		}

		full := normalizeBody(rawBody)

		items = append(items, Item{
			Hash:  fingerprint.New(full),
			Title: title,
			Body:  stripBoilerplate(full),
		})
	})

	s.logger.Debug().Str("url", url).Int("items", len(items)).Msg("water feed page extracted")

	return items, nil
}

// normalizeBody sanitizes the announcement HTML and collapses whitespace
// artifacts left by the CMS.
func normalizeBody(raw string) string {
	body := htmlutils.Sanitize(raw)
	body = htmlutils.Normalize(body)
	body = nbspRe.ReplaceAllString(body, " ")

	return strings.TrimSpace(body)
}

// stripBoilerplate removes the fixed courtesy sentences and the trailing
// date stamp from the dispatched text.
func stripBoilerplate(body string) string {
	for _, phrase := range boilerplate {
		body = strings.ReplaceAll(body, phrase, "")
	}

	body = trailingDateRe.ReplaceAllString(strings.TrimSpace(body), "")
	body = extraBlankRe.ReplaceAllString(body, "\n\n")

	return strings.TrimSpace(body)
}

func reverse(items []Item) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}
