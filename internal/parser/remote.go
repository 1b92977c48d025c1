package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/avlloyd/jobscout/internal/scout"
)

// remoteBadgeSelector lists the markers upstream uses to tag remote
// listings. Kept to specific classes; broad matches like
// [class*='remote'] hit unrelated elements.
const remoteBadgeSelector = "span.job-search-card__remote-label, " +
	"span.remote-badge, " +
	"div.job-remote-label, " +
	"span[class='remote-label']"

// remoteSignal carries the three information sources the remote flag is
// resolved from.
type remoteSignal struct {
	criteria *scout.Criteria
	location string
	card     *goquery.Selection
}

// remoteRule inspects one signal source. It returns the verdict and
// whether the rule applies; the first applicable rule wins.
type remoteRule struct {
	name  string
	apply func(remoteSignal) (verdict bool, applies bool)
}

// remoteRules is the resolution order. Location text upstream is
// unreliable for remote-eligible jobs tagged to a country or region, so
// an unambiguous remote-only search filter outranks markup inspection.
// A mixed-mode filter says nothing about a single card and falls
// through to the next rule.
var remoteRules = []remoteRule{
	{
		name: "criteria_remote_only",
		apply: func(s remoteSignal) (bool, bool) {
			if s.criteria != nil && s.criteria.RemoteOnly() {
				return true, true
			}
			return false, false
		},
	},
	{
		name: "location_text",
		apply: func(s remoteSignal) (bool, bool) {
			if strings.Contains(strings.ToLower(s.location), "remote") {
				return true, true
			}
			return false, false
		},
	},
	{
		name: "remote_badge",
		apply: func(s remoteSignal) (bool, bool) {
			if s.card != nil && s.card.Find(remoteBadgeSelector).Length() > 0 {
				return true, true
			}
			return false, false
		},
	},
}

// resolveRemote walks the rule list and returns the first applicable
// verdict, defaulting to false.
func resolveRemote(card *goquery.Selection, location string, criteria *scout.Criteria) bool {
	signal := remoteSignal{criteria: criteria, location: location, card: card}
	for _, rule := range remoteRules {
		if v, ok := rule.apply(signal); ok {
			return v
		}
	}
	return false
}
