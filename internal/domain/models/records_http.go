package models

// Requests for the analyzer HTTP endpoints. Defined in domain for consistency and reuse.

type RecordsRequest struct {
	From string `query:"from" json:"from"`
	To   string `query:"to" json:"to"`
	Days int    `query:"days" json:"days" default:"60" validate:"gte=1,lte=400"`
}

type RecommendationRequest struct {
	OutdoorTemp *float64 `query:"outdoor_temp" json:"outdoor_temp"`
	Days        int      `query:"days" json:"days" default:"60" validate:"gte=1,lte=400"`
}

type RunRequest struct {
	Day string `query:"day" json:"day"` // optional YYYY-MM-DD; empty = resolve from now
}
