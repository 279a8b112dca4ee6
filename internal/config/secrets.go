package config

import "maps"

// RedactedConfig returns a copy of cfg with sensitive fields replaced by the
// redaction placeholder "***". Use this when logging or printing the active
// configuration so secrets are never accidentally exposed.
func RedactedConfig(cfg *Config) Config {
	out := *cfg

	redact(&out.Opinion.APIKey)
	redact(&out.Redis.Password)

	// Copy reference types so callers cannot mutate the original through the
	// redacted copy.
	out.Opinion.MarketsQuery = maps.Clone(cfg.Opinion.MarketsQuery)
	out.Probable.MarketsQuery = maps.Clone(cfg.Probable.MarketsQuery)
	out.Opinion.EnvelopeKeys = append([]string(nil), cfg.Opinion.EnvelopeKeys...)
	out.Probable.EnvelopeKeys = append([]string(nil), cfg.Probable.EnvelopeKeys...)
	out.Probable.PriceEnvelopeKeys = append([]string(nil), cfg.Probable.PriceEnvelopeKeys...)
	out.Server.CORSOrigins = append([]string(nil), cfg.Server.CORSOrigins...)

	return out
}

const redacted = "***"

// redact replaces a non-empty string with the redacted placeholder.
func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}
