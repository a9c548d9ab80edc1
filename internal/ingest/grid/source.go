// Package grid extracts planned-works announcements and the live emergency
// table from the electric-grid utility's info page.
package grid

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/rs/zerolog"

	"github.com/hovq/outage-informer/internal/platform/htmlutils"
	"github.com/hovq/outage-informer/internal/platform/webfetch"
	db "github.com/hovq/outage-informer/internal/storage"
)

const (
	plannedSelector   = "#ctl00_ContentPlaceHolder1_attenbody"
	emergencySelector = "#ctl00_ContentPlaceHolder1_vtarayin tr"

	startedTimeLayout = "02.01.2006 15:04"
)

// separatorRe matches the "***" lines dividing planned-outage sections.
var separatorRe = regexp.MustCompile(`(?m)^\*{3,}$`)

// Extraction is the result of one poll of the grid page.
type Extraction struct {
	// PlannedChunks are sanitized planned-outage texts, each within the
	// dispatch size bound.
	PlannedChunks []string

	// Emergencies are the rows currently listed in the emergency table.
	Emergencies []db.ObservedEmergency
}

type Source struct {
	fetcher   *webfetch.Fetcher
	url       string
	charLimit int
	loc       *time.Location
	logger    *zerolog.Logger
}

func New(fetcher *webfetch.Fetcher, url string, charLimit int, loc *time.Location, logger *zerolog.Logger) *Source {
	return &Source{
		fetcher:   fetcher,
		url:       url,
		charLimit: charLimit,
		loc:       loc,
		logger:    logger,
	}
}

// Extract polls the page once. A fetch or parse failure aborts the whole
// extraction; no partial result is returned.
func (s *Source) Extract(ctx context.Context) (*Extraction, error) {
	body, err := s.fetcher.Fetch(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("fetch grid page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse grid page: %w", err)
	}

	return &Extraction{
		PlannedChunks: s.extractPlanned(doc),
		Emergencies:   s.extractEmergencies(doc),
	}, nil
}

// extractPlanned pulls the planned-works body, sanitizes it down to the
// allowed tag set and splits it into dispatchable chunks at paragraph
// boundaries.
func (s *Source) extractPlanned(doc *goquery.Document) []string {
	raw, err := doc.Find(plannedSelector).Html()
	if err != nil || raw == "" {
		return nil
	}

	// Paragraph closes become line breaks before the tags are stripped.
	raw = strings.ReplaceAll(raw, "</p>", "</p>\n")
	text := htmlutils.Normalize(htmlutils.Sanitize(raw))

	var chunks []string

	for _, section := range separatorRe.Split(text, -1) {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}

		chunks = append(chunks, htmlutils.ChunkParagraphs(section, s.charLimit)...)
	}

	return chunks
}

// extractEmergencies reads the emergency table: first cell is the start time
// as "DD.MM.YYYY HH:mm", second cell the address. Rows without a time are
// header or filler rows and are skipped.
func (s *Source) extractEmergencies(doc *goquery.Document) []db.ObservedEmergency {
	var observed []db.ObservedEmergency

	doc.Find(emergencySelector).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")

		timeText := strings.TrimSpace(cells.Eq(0).Text())
		if timeText == "" {
			return
		}

		started, err := s.parseStartedTime(timeText)
		if err != nil {
			s.logger.Warn().Str("value", timeText).Err(err).Msg("unparseable emergency start time, row skipped")

			return
		}

		title := strings.TrimSpace(cells.Eq(1).Text())
		if title == "" {
			return
		}

		observed = append(observed, db.ObservedEmergency{StartedTime: started, Title: title})
	})

	return observed
}

func (s *Source) parseStartedTime(value string) (time.Time, error) {
	if t, err := time.ParseInLocation(startedTimeLayout, value, s.loc); err == nil {
		return t, nil
	}

	// The page occasionally varies the format; fall back to lenient parsing.
	t, err := dateparse.ParseIn(value, s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %q: %w", value, err)
	}

	return t, nil
}
