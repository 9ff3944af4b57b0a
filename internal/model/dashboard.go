package model

import "time"

// Overview is the admin dashboard payload.
type Overview struct {
	Widgets         OverviewWidgets `json:"widgets"`
	CurrentVisits   PieChart        `json:"currentVisits"`
	WebsiteVisits   LineChart       `json:"websiteVisits"`
	ConversionRates BarChart        `json:"conversionRates"`
}

type OverviewWidgets struct {
	TotalRequests   Widget `json:"totalRequests"`
	ActiveLocations Widget `json:"activeLocations"`
	PendingCases    Widget `json:"pendingCases"`
	AvgResponse     Widget `json:"avgResponse"`
}

// Widget is a headline number with a per-month series.
type Widget struct {
	Percent float64   `json:"percent"`
	Total   float64   `json:"total"`
	Series  []float64 `json:"series"`
}

type PieChart struct {
	Series []LabelValue `json:"series"`
}

type LabelValue struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

type LineChart struct {
	Categories []string      `json:"categories"`
	Series     []NamedSeries `json:"series"`
}

type BarChart struct {
	Categories []string      `json:"categories"`
	Series     []NamedSeries `json:"series"`
}

type NamedSeries struct {
	Name string    `json:"name"`
	Data []float64 `json:"data"`
}

// DashboardFacts is the raw material the overview is folded from. Each
// slice is the result of one independent storage query.
type DashboardFacts struct {
	TotalCases       int64
	ActiveFranchises int64
	PendingCases     int64
	Cases            []CaseFact
	FranchiseCreated []time.Time
	PatientCreated   []time.Time
	FirstPlans       []FirstPlanFact
	PatientStates    []string
	CaseCountries    []CaseCountryFact
	CompletedPlans   []CompletedPlanFact
}

type CaseFact struct {
	CreatedAt time.Time
	Status    CaseStatus
}

// FirstPlanFact pairs a case's creation time with its earliest treatment plan.
type FirstPlanFact struct {
	CaseID        string
	CaseCreatedAt time.Time
	FirstPlanAt   time.Time
}

type CaseCountryFact struct {
	CaseID    string
	Country   string
	CreatedAt time.Time
}

type CompletedPlanFact struct {
	CaseID    string
	CreatedAt time.Time
}
