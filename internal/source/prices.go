package source

// DefaultPriceKeys is the envelope order for price tables. The bare object is
// tried last so that {"data": {...}} is not read as a token named "data".
var DefaultPriceKeys = []string{"prices", "data", "."}

// priceValueKeys are tried when a price entry is an object.
var priceValueKeys = []string{"price", "mid", "p", "value"}

// ParsePriceTable decodes a token id -> price mapping. Entries may be numbers,
// numeric strings or objects carrying a price field; anything else is skipped.
func ParsePriceTable(body []byte, strategies []Strategy) (map[string]float64, error) {
	obj, err := ExtractObject(body, strategies)
	if err != nil {
		return nil, err
	}

	prices := make(map[string]float64, len(obj))
	for tokenID, raw := range obj {
		if p, ok := parseNumber(raw); ok {
			prices[tokenID] = p
			continue
		}
		if r, ok := decodeRecord(raw); ok {
			if p, ok := r.number(priceValueKeys); ok {
				prices[tokenID] = p
			}
		}
	}
	return prices, nil
}
