package domain

// SourceMarkets is one source's contribution to a scan.
type SourceMarkets struct {
	Count   int      `json:"count"`
	Markets []Market `json:"markets"`
}

// NewSourceMarkets builds a SourceMarkets whose Count always matches the
// length of Markets. A nil slice is replaced with an empty one so the JSON
// encoding is always an array.
func NewSourceMarkets(markets []Market) SourceMarkets {
	if markets == nil {
		markets = []Market{}
	}
	return SourceMarkets{Count: len(markets), Markets: markets}
}

// ScanResult is the merged snapshot of every source at one instant.
type ScanResult struct {
	Timestamp int64             `json:"timestamp"`
	Opinion   SourceMarkets     `json:"opinion"`
	Probable  SourceMarkets     `json:"probable"`
	Errors    map[string]string `json:"errors,omitempty"`
}
