package models

import "time"

// NormalizedResult is one sailor's finish extracted from a results page.
type NormalizedResult struct {
	Placement  *int
	SailorName string
	Boat       string
	SailNumber string
	Points     *float64
	Division   string
}

// CanonicalRow is the five-field shaped record every renderer consumes.
type CanonicalRow struct {
	Source  string `json:"source"`
	Regatta string `json:"regatta"`
	Date    string `json:"date"`
	Place   string `json:"place"`
	Result  string `json:"result"`
}

// CanonicalColumns is the fixed column order of a canonical table.
var CanonicalColumns = []string{"Source", "Regatta", "Date", "Place", "Result"}

// ParticipationRow is one regatta line from a scoring site's sailor page.
type ParticipationRow struct {
	Source  string
	Regatta string
	Date    string
	Result  string
	Place   string
	Total   string
}

// ParticipationColumns is the column order of the persisted participation table.
var ParticipationColumns = []string{"Regatta", "Result", "Date", "Source", "Place", "Total"}

// Canonical projects a participation row onto the canonical shape.
func (p ParticipationRow) Canonical() CanonicalRow {
	return CanonicalRow{
		Source:  p.Source,
		Regatta: p.Regatta,
		Date:    p.Date,
		Place:   p.Place,
		Result:  p.Result,
	}
}

// Sailor is keyed by its normalized name.
type Sailor struct {
	ID             int64
	Name           string
	NameNormalized string
	CreatedAt      time.Time
}

// Regatta is keyed by the listing's external id.
type Regatta struct {
	ID         int64
	ExternalID string
	Name       string
	Location   string
	StartDate  time.Time
	EndDate    time.Time
	SourceURL  string
}

// Result is unique per (sailor, regatta, division). Placement is always positive.
type Result struct {
	ID        int64
	SailorID  int64
	RegattaID int64
	Placement int
	BoatType  string
	Role      string
	Points    *float64
	Division  string
}

// ResultRecord is a stored result joined with its regatta.
type ResultRecord struct {
	RegattaName string    `json:"regatta_name"`
	StartDate   time.Time `json:"start_date"`
	Placement   int       `json:"placement"`
	BoatType    string    `json:"boat_type,omitempty"`
	Role        string    `json:"role,omitempty"`
}

// RunStatus is the lifecycle state of a scrape run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// RunStats counts what a run did.
type RunStats struct {
	RegattasScraped int `json:"regattas_scraped"`
	SailorsAdded    int `json:"sailors_added"`
	ResultsAdded    int `json:"results_added"`
}

// Run is the durable record of one pipeline run.
type Run struct {
	ID              string
	Status          RunStatus
	StartedAt       time.Time
	CompletedAt     time.Time
	Stats           RunStats
	ErrorMessage    string
	CancelRequested bool
}

// SailorStats summarises a sailor's stored results.
type SailorStats struct {
	SailorName       string         `json:"sailor_name"`
	TotalRegattas    int            `json:"total_regattas"`
	BestFinish       int            `json:"best_finish"`
	AveragePlacement float64        `json:"average_placement"`
	Top3Count        int            `json:"top_3"`
	Top10Count       int            `json:"top_10"`
	SkipperCount     int            `json:"skipper_count"`
	CrewCount        int            `json:"crew_count"`
	Consistency      *float64       `json:"consistency,omitempty"`
	FirstRegatta     time.Time      `json:"first_regatta"`
	LastRegatta      time.Time      `json:"last_regatta"`
	RecentPodiums    []ResultRecord `json:"recent_podiums"`
}
