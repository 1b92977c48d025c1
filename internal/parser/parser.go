// Package parser converts raw result-page markup into normalized job
// postings. Extraction is tolerant: individual malformed cards are
// skipped with a logged reason, never surfaced as errors, because the
// upstream markup changes shape without notice.
package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/avlloyd/jobscout/internal/metrics"
	"github.com/avlloyd/jobscout/internal/scout"
)

const cardSelector = "li.jobs-search__result-card, div.base-card"

// Ordered candidate locations per field, first present wins.
const (
	titleSelector      = "h3.base-search-card__title, h3.job-search-card__title, span.sr-only"
	companySelector    = "h4.base-search-card__subtitle a, a.hidden-nested-link, h4.base-search-card__subtitle"
	locationSelector   = "span.job-search-card__location, span.base-search-card__metadata"
	linkSelector       = "a.base-card__full-link, a[href*='/jobs/view/']"
	snippetSelector    = "p.job-search-card__snippet"
	salarySelector     = "span.job-search-card__salary-info, span.base-search-card__salary"
	applicantsSelector = "span.job-search-card__applicant-count"
)

var (
	urnIDPattern  = regexp.MustCompile(`(\d+)$`)
	hrefIDPattern = regexp.MustCompile(`/jobs/view/(\d+)`)
)

// errNoID marks a card that cannot be addressed or deduplicated.
var errNoID = errors.New("no job id in card")

// Parser extracts postings from result documents.
type Parser struct {
	logger *zap.Logger
	now    func() time.Time
}

// New builds a Parser. A nil logger falls back to the no-op logger.
func New(logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{logger: logger, now: time.Now}
}

// Parse extracts all postings from one result document. Criteria, when
// given, influences remote-flag resolution. Postings are deduplicated
// by ID, first occurrence wins, input order preserved.
func (p *Parser) Parse(html string, criteria *scout.Criteria) ([]scout.JobPosting, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	var (
		jobs []scout.JobPosting
		seen = make(map[string]struct{})
	)
	doc.Find(cardSelector).Each(func(_ int, card *goquery.Selection) {
		job, err := p.parseCard(card, criteria)
		if err != nil {
			metrics.ObserveCardSkipped(skipReason(err))
			p.logger.Debug("skipping job card", zap.Error(err))
			return
		}
		if _, dup := seen[job.ID]; dup {
			return
		}
		seen[job.ID] = struct{}{}
		jobs = append(jobs, job)
		metrics.ObserveCardParsed()
	})
	return jobs, nil
}

func (p *Parser) parseCard(card *goquery.Selection, criteria *scout.Criteria) (scout.JobPosting, error) {
	id, err := extractJobID(card)
	if err != nil {
		return scout.JobPosting{}, err
	}

	location := firstText(card, locationSelector)

	job := scout.JobPosting{
		ID:                 id,
		Title:              firstText(card, titleSelector),
		Company:            firstText(card, companySelector),
		Location:           location,
		URL:                scout.JobBaseURL + id,
		PostedAt:           p.extractPostedAt(card),
		DescriptionSnippet: optionalText(card, snippetSelector),
		Salary:             optionalText(card, salarySelector),
		Remote:             resolveRemote(card, location, criteria),
		ApplicantsCount:    optionalText(card, applicantsSelector),
		ScrapedAt:          p.now(),
	}
	return job, nil
}

// extractJobID tries the structured URN attribute first, then the
// detail-page link. A card carrying neither is discarded.
func extractJobID(card *goquery.Selection) (string, error) {
	if urn, ok := card.Attr("data-entity-urn"); ok {
		if m := urnIDPattern.FindStringSubmatch(urn); m != nil {
			return m[1], nil
		}
	}
	if href, ok := card.Find(linkSelector).First().Attr("href"); ok {
		if m := hrefIDPattern.FindStringSubmatch(href); m != nil {
			return m[1], nil
		}
	}
	return "", errNoID
}

func (p *Parser) extractPostedAt(card *goquery.Selection) *time.Time {
	timeElem := card.Find("time").First()
	if timeElem.Length() == 0 {
		return nil
	}
	if attr, ok := timeElem.Attr("datetime"); ok && attr != "" {
		if ts := parseTimestamp(attr); ts != nil {
			return ts
		}
	}
	return parseRelativeTime(strings.TrimSpace(timeElem.Text()), p.now())
}

// parseTimestamp handles the machine-readable datetime attribute, which
// upstream emits either as a bare date or a full RFC 3339 instant.
func parseTimestamp(s string) *time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return &ts
		}
	}
	return nil
}

// firstText resolves a field through its candidate locations, defaulting
// to "Unknown" when none match. Absence here never discards the card.
func firstText(card *goquery.Selection, selector string) string {
	if text := optionalText(card, selector); text != "" {
		return text
	}
	return "Unknown"
}

func optionalText(card *goquery.Selection, selector string) string {
	return strings.TrimSpace(card.Find(selector).First().Text())
}

func skipReason(err error) string {
	if errors.Is(err, errNoID) {
		return "no_id"
	}
	return "malformed"
}
