package source

import (
	"encoding/json"
	"strings"

	"github.com/alanyoungcy/arbscanner/internal/domain"
)

// OutcomeKey maps a flat token-id field to the outcome it represents, for
// providers that expose yes/no token ids as sibling fields instead of a list.
type OutcomeKey struct {
	Key     string
	Outcome string
}

// FieldMap lists, per normalized field, the provider keys to try in order.
type FieldMap struct {
	ID             []string
	Title          []string
	Status         []string
	Active         []string
	Closed         []string
	Tokens         []string
	TokenID        []string
	Outcome        []string
	OutcomeKeys    []OutcomeKey
	ClosedStatuses []string
}

// DefaultFieldMap covers the key spellings observed on both venues.
func DefaultFieldMap() FieldMap {
	return FieldMap{
		ID:      []string{"marketId", "market_id", "id", "conditionId", "condition_id"},
		Title:   []string{"marketTitle", "title", "question", "name"},
		Status:  []string{"status", "statusEnum", "state"},
		Active:  []string{"active", "is_active", "isActive"},
		Closed:  []string{"closed", "is_closed", "isClosed"},
		Tokens:  []string{"tokens", "outcomes"},
		TokenID: []string{"token_id", "tokenId", "id"},
		Outcome: []string{"outcome", "label", "name"},
		OutcomeKeys: []OutcomeKey{
			{Key: "yesTokenId", Outcome: "Yes"},
			{Key: "noTokenId", Outcome: "No"},
			{Key: "yes_token_id", Outcome: "Yes"},
			{Key: "no_token_id", Outcome: "No"},
		},
		ClosedStatuses: []string{"closed", "resolved", "settled", "expired", "cancelled"},
	}
}

// EventFieldMap lists the keys used to read event metadata for providers that
// nest markets inside events.
type EventFieldMap struct {
	Title    []string
	Slug     []string
	Tags     []string
	TagLabel []string
	Markets  []string
}

// DefaultEventFieldMap returns the observed event key spellings.
func DefaultEventFieldMap() EventFieldMap {
	return EventFieldMap{
		Title:    []string{"title", "name"},
		Slug:     []string{"slug"},
		Tags:     []string{"tags"},
		TagLabel: []string{"label", "name", "slug"},
		Markets:  []string{"markets"},
	}
}

// NormalizeMarket converts one raw market object. ok is false when raw is
// not a JSON object.
func NormalizeMarket(source string, raw json.RawMessage, fm FieldMap) (domain.Market, bool) {
	r, ok := decodeRecord(raw)
	if !ok {
		return domain.Market{}, false
	}

	m := domain.Market{Source: source}
	m.ID, _ = r.str(fm.ID)
	m.Title, _ = r.str(fm.Title)

	status, hasStatus := r.str(fm.Status)
	statusClosed := hasStatus && containsFold(fm.ClosedStatuses, status)

	if active, ok := r.boolean(fm.Active); ok {
		m.Active = active
	} else {
		m.Active = !statusClosed
	}
	if closed, ok := r.boolean(fm.Closed); ok {
		m.Closed = closed
	} else {
		m.Closed = statusClosed
	}

	if m.Tradable() {
		m.Status = domain.MarketStatusActive
	} else {
		m.Status = domain.MarketStatusClosed
	}

	m.Tokens = normalizeTokens(r, fm)
	return m, true
}

func normalizeTokens(r record, fm FieldMap) []domain.Token {
	tokens := []domain.Token{}

	if items, ok := r.list(fm.Tokens); ok {
		for _, item := range items {
			tr, ok := decodeRecord(item)
			if !ok {
				continue
			}
			id, ok := tr.str(fm.TokenID)
			if !ok || id == "" {
				continue
			}
			outcome, _ := tr.str(fm.Outcome)
			tokens = append(tokens, domain.Token{ID: id, Outcome: outcome})
		}
		if len(tokens) > 0 {
			return tokens
		}
	}

	for _, k := range fm.OutcomeKeys {
		id, found := r.str([]string{k.Key})
		if !found || id == "" {
			continue
		}
		tokens = append(tokens, domain.Token{ID: id, Outcome: k.Outcome})
	}
	return tokens
}

// NormalizeMarkets converts raw market objects and keeps only tradable ones.
func NormalizeMarkets(source string, items []json.RawMessage, fm FieldMap) []domain.Market {
	out := make([]domain.Market, 0, len(items))
	for _, item := range items {
		m, ok := NormalizeMarket(source, item, fm)
		if !ok || !m.Tradable() {
			continue
		}
		out = append(out, m)
	}
	return out
}

// NormalizeEvents flattens events into their tradable markets, copying the
// parent event's title, slug and tags onto each market. An item without a
// nested market list is a market itself, so a flat listing still normalizes.
func NormalizeEvents(source string, events []json.RawMessage, efm EventFieldMap, fm FieldMap) []domain.Market {
	out := []domain.Market{}
	for _, raw := range events {
		ev, ok := decodeRecord(raw)
		if !ok {
			continue
		}
		items, ok := ev.list(efm.Markets)
		if !ok {
			if m, ok := NormalizeMarket(source, raw, fm); ok && m.Tradable() {
				out = append(out, m)
			}
			continue
		}

		title, _ := ev.str(efm.Title)
		slug, _ := ev.str(efm.Slug)
		tags := eventTags(ev, efm)

		for _, m := range NormalizeMarkets(source, items, fm) {
			m.EventTitle = title
			m.EventSlug = slug
			m.EventTags = append([]string{}, tags...)
			out = append(out, m)
		}
	}
	return out
}

// eventTags reads tags given either as strings or as objects with a label.
func eventTags(ev record, efm EventFieldMap) []string {
	tags := []string{}
	items, ok := ev.list(efm.Tags)
	if !ok {
		return tags
	}
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			if s != "" {
				tags = append(tags, s)
			}
			continue
		}
		tr, ok := decodeRecord(item)
		if !ok {
			continue
		}
		if label, ok := tr.str(efm.TagLabel); ok && label != "" {
			tags = append(tags, label)
		}
	}
	return tags
}

func containsFold(list []string, s string) bool {
	s = strings.TrimSpace(s)
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
