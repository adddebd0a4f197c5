package report

// MonthlyStat is one calendar-month bucket of sale statistics.
type MonthlyStat struct {
	Month   int     `json:"month"` // 1..12
	Average float64 `json:"average"`
	Sum     float64 `json:"sum"`
}

// HourlyStat is one hour-of-day bucket of sale statistics.
type HourlyStat struct {
	Hour    int     `json:"hour"` // 0..23
	Average float64 `json:"average"`
	Sum     float64 `json:"sum"`
}

// MachineStat is one machine's sale statistics in a fleet rollup.
type MachineStat struct {
	MacID   string  `json:"macId"`
	Average float64 `json:"average"`
	Sum     float64 `json:"sum"`
	Count   int     `json:"count"`
}
