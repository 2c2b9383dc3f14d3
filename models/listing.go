package models

import "time"

// RegattaListing is a lightweight event descriptor returned by the listing API,
// before its results page has been visited.
type RegattaListing struct {
	ID         string
	Name       string
	HostID     string
	HostName   string
	Start      time.Time
	End        time.Time
	ResultsURL string
}

// StartDate returns the UTC start date formatted as YYYY-MM-DD.
func (l RegattaListing) StartDate() string {
	return l.Start.UTC().Format("2006-01-02")
}

// ListingFilter narrows a fetched listing batch. Zero values disable a filter.
// To is a day bound: listings starting any time on that day are kept.
type ListingFilter struct {
	Contains string
	From     time.Time
	To       time.Time
	MaxCount int
}
