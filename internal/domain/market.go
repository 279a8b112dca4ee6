package domain

// Source names used as cache key prefixes, log attributes and scan fields.
const (
	SourceOpinion  = "opinion"
	SourceProbable = "probable"
)

// MarketStatus is the provider-neutral lifecycle state of a market.
type MarketStatus string

const (
	MarketStatusActive MarketStatus = "active"
	MarketStatusClosed MarketStatus = "closed"
)

// Token is one outcome position inside a market. Price is nil until the
// market has been joined against a price table that contains the token.
type Token struct {
	ID      string   `json:"id"`
	Outcome string   `json:"outcome,omitempty"`
	Price   *float64 `json:"price,omitempty"`
}

// Market is the normalized representation of a tradable question on either
// venue. Event* fields are only populated for providers that nest markets
// inside events.
type Market struct {
	ID         string       `json:"id"`
	Source     string       `json:"source"`
	Title      string       `json:"title"`
	Status     MarketStatus `json:"status"`
	Active     bool         `json:"active"`
	Closed     bool         `json:"closed"`
	Tokens     []Token      `json:"tokens"`
	EventTitle string       `json:"eventTitle,omitempty"`
	EventSlug  string       `json:"eventSlug,omitempty"`
	EventTags  []string     `json:"eventTags,omitempty"`
}

// Tradable reports whether the market should be surfaced to a scan.
func (m Market) Tradable() bool {
	return m.Active && !m.Closed
}

// SetPrice attaches price to every token whose ID is present in prices.
// Tokens without an entry are left untouched.
func (m *Market) SetPrice(prices map[string]float64) {
	for i := range m.Tokens {
		if p, ok := prices[m.Tokens[i].ID]; ok {
			m.Tokens[i].Price = &p
		}
	}
}
