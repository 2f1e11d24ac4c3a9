package models

import "time"

type ItemCount struct {
	ItemID   string `json:"itemId"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Loans    int64  `json:"loans"`
}

type CareerCount struct {
	Career string `json:"career"`
	Loans  int64  `json:"loans"`
}

// Report aggregates active and returned loans whose loan date falls in
// [From, To].
type Report struct {
	From        time.Time     `json:"from"`
	To          time.Time     `json:"to"`
	Days        int           `json:"days"`
	Total       int64         `json:"total"`
	Active      int64         `json:"active"`
	Overdue     int64         `json:"overdue"`
	Returned    int64         `json:"returned"`
	TopItems    []ItemCount   `json:"topItems"`
	ByCareer    []CareerCount `json:"byCareer"`
	ThisMonth   int64         `json:"thisMonth"`
	LastMonth   int64         `json:"lastMonth"`
	GrowthPct   float64       `json:"growthPct"`
	GeneratedAt time.Time     `json:"generatedAt"`
}

// Growth is the month-over-month change in percent, 0 when prev is 0.
func Growth(cur, prev int64) float64 {
	if prev == 0 {
		return 0
	}
	return float64(cur-prev) / float64(prev) * 100
}
