package source

import (
	"errors"
	"testing"

	"github.com/alanyoungcy/arbscanner/internal/domain"
)

func TestParsePriceTable(t *testing.T) {
	strategies := ParseStrategies(DefaultPriceKeys)
	tests := []struct {
		name string
		body string
		want map[string]float64
	}{
		{"bare numbers", `{"t1":0.42,"t2":0.58}`, map[string]float64{"t1": 0.42, "t2": 0.58}},
		{"numeric strings", `{"t1":"0.42"}`, map[string]float64{"t1": 0.42}},
		{"price objects", `{"t1":{"price":0.3},"t2":{"mid":"0.7"}}`, map[string]float64{"t1": 0.3, "t2": 0.7}},
		{"prices envelope", `{"prices":{"t1":0.1}}`, map[string]float64{"t1": 0.1}},
		{"data envelope", `{"data":{"t1":0.2}}`, map[string]float64{"t1": 0.2}},
		{"junk values skipped", `{"t1":"n/a","t2":true,"t3":0.9}`, map[string]float64{"t3": 0.9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePriceTable([]byte(tt.body), strategies)
			if err != nil {
				t.Fatalf("ParsePriceTable: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("price[%s] = %v, want %v", k, got[k], v)
				}
			}
		})
	}
}

func TestParsePriceTableRejectsArrays(t *testing.T) {
	_, err := ParsePriceTable([]byte(`[0.1, 0.2]`), ParseStrategies(DefaultPriceKeys))
	if !errors.Is(err, domain.ErrUpstreamMalformed) {
		t.Errorf("err = %v, want ErrUpstreamMalformed", err)
	}
}
