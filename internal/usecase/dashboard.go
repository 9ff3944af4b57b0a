package usecase

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/clinic-case-service/internal/model"
	"gitlab.com/timkado/api/clinic-case-service/internal/storage"
	"gitlab.com/timkado/api/clinic-case-service/pkg/logger"
	"gitlab.com/timkado/api/clinic-case-service/pkg/utils"
)

// OverviewMonths is the length of the trailing window, current month included.
const OverviewMonths = 9

const (
	topCountries   = 5
	unknownCountry = "Other"
)

// Region labels, in the order the pie chart lists them.
var regionOrder = []string{"North", "South", "East", "West", "Central", "North-East", "Other"}

var stateRegions = map[string]string{
	"delhi": "North", "haryana": "North", "punjab": "North", "himachal pradesh": "North",
	"jammu and kashmir": "North", "uttarakhand": "North", "uttar pradesh": "North", "chandigarh": "North",

	"tamil nadu": "South", "kerala": "South", "karnataka": "South", "andhra pradesh": "South",
	"telangana": "South", "puducherry": "South",

	"west bengal": "East", "odisha": "East", "bihar": "East", "jharkhand": "East",

	"rajasthan": "West", "gujarat": "West", "maharashtra": "West", "goa": "West",

	"madhya pradesh": "Central", "chhattisgarh": "Central",

	"assam": "North-East", "manipur": "North-East", "meghalaya": "North-East", "mizoram": "North-East",
	"nagaland": "North-East", "tripura": "North-East", "arunachal pradesh": "North-East", "sikkim": "North-East",
}

// StateToRegion maps an Indian state name onto its dashboard region.
func StateToRegion(state string) string {
	if region, ok := stateRegions[strings.ToLower(strings.TrimSpace(state))]; ok {
		return region
	}
	return "Other"
}

// DashboardService serves the admin overview.
type DashboardService struct {
	repo storage.DashboardRepo
	now  func() time.Time
}

func NewDashboardService(repo storage.DashboardRepo) *DashboardService {
	return &DashboardService{repo: repo, now: utils.Now}
}

// Overview loads fresh facts and folds them. Nothing is cached.
func (s *DashboardService) Overview(ctx context.Context) (*model.Overview, error) {
	now := s.now()
	months := utils.MonthsBack(now, OverviewMonths)
	yearStart := time.Date(now.Year()-1, time.January, 1, 0, 0, 0, 0, now.Location())

	facts, err := s.repo.LoadDashboardFacts(ctx, months[0], yearStart)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to load dashboard facts", zap.Error(err))
		return nil, err
	}
	return BuildOverview(now, facts), nil
}

// monthBuckets indexes the trailing window by year and month.
type monthBuckets struct {
	index map[[2]int]int
	size  int
}

func newMonthBuckets(now time.Time) monthBuckets {
	months := utils.MonthsBack(now, OverviewMonths)
	b := monthBuckets{index: make(map[[2]int]int, len(months)), size: len(months)}
	for i, m := range months {
		b.index[[2]int{m.Year(), int(m.Month())}] = i
	}
	return b
}

func (b monthBuckets) slot(t time.Time) (int, bool) {
	t = t.In(time.UTC)
	i, ok := b.index[[2]int{t.Year(), int(t.Month())}]
	return i, ok
}

func (b monthBuckets) series() []float64 {
	return make([]float64, b.size)
}

// BuildOverview folds facts into the dashboard payload relative to now.
func BuildOverview(now time.Time, facts *model.DashboardFacts) *model.Overview {
	if facts == nil {
		facts = &model.DashboardFacts{}
	}
	now = now.UTC()
	buckets := newMonthBuckets(now)

	cases, pending := buckets.series(), buckets.series()
	for _, c := range facts.Cases {
		if i, ok := buckets.slot(c.CreatedAt); ok {
			cases[i]++
			if c.Status.IsPending() {
				pending[i]++
			}
		}
	}

	franchises := countByMonth(buckets, facts.FranchiseCreated)
	patients := countByMonth(buckets, facts.PatientCreated)
	avgSeries, avgTotal := averageResponse(buckets, facts.FirstPlans)

	out := &model.Overview{
		Widgets: model.OverviewWidgets{
			TotalRequests:   model.Widget{Total: float64(facts.TotalCases), Series: cases},
			ActiveLocations: model.Widget{Total: float64(facts.ActiveFranchises), Series: franchises},
			PendingCases:    model.Widget{Total: float64(facts.PendingCases), Series: pending},
			AvgResponse:     model.Widget{Total: avgTotal, Series: avgSeries},
		},
		CurrentVisits: model.PieChart{Series: regionCounts(facts.PatientStates)},
		WebsiteVisits: model.LineChart{
			Categories: monthLabels(now),
			Series: []model.NamedSeries{
				{Name: "Cases", Data: cases},
				{Name: "Patients", Data: patients},
			},
		},
		ConversionRates: conversionRates(now.Year(), facts.CaseCountries, facts.CompletedPlans),
	}
	return out
}

func countByMonth(buckets monthBuckets, times []time.Time) []float64 {
	series := buckets.series()
	for _, t := range times {
		if i, ok := buckets.slot(t); ok {
			series[i]++
		}
	}
	return series
}

// averageResponse is the mean hours from case creation to its first plan,
// bucketed by the month of the first plan.
func averageResponse(buckets monthBuckets, plans []model.FirstPlanFact) ([]float64, float64) {
	hours := buckets.series()
	counts := make([]int, buckets.size)
	var totalHours float64
	var total int

	for _, p := range plans {
		i, ok := buckets.slot(p.FirstPlanAt)
		if !ok {
			continue
		}
		h := math.Max(0, p.FirstPlanAt.Sub(p.CaseCreatedAt).Hours())
		hours[i] += h
		counts[i]++
		totalHours += h
		total++
	}

	for i := range hours {
		if counts[i] > 0 {
			hours[i] = round1(hours[i] / float64(counts[i]))
		}
	}
	if total == 0 {
		return hours, 0
	}
	return hours, round1(totalHours / float64(total))
}

func regionCounts(states []string) []model.LabelValue {
	counts := make(map[string]int, len(regionOrder))
	for _, s := range states {
		counts[StateToRegion(s)]++
	}
	out := make([]model.LabelValue, 0, len(regionOrder))
	for _, r := range regionOrder {
		out = append(out, model.LabelValue{Label: r, Value: counts[r]})
	}
	return out
}

func monthLabels(now time.Time) []string {
	months := utils.MonthsBack(now, OverviewMonths)
	labels := make([]string, len(months))
	for i, m := range months {
		labels[i] = m.Format("Jan")
	}
	return labels
}

type yearTally struct {
	completed int
	total     int
}

func (t yearTally) percent() float64 {
	if t.total == 0 {
		return 0
	}
	return math.Round(float64(t.completed) / float64(t.total) * 100)
}

type countryTally struct {
	country  string
	cases    int
	lastYear yearTally
	thisYear yearTally
}

// conversionRates compares, for the five countries with most cases, the
// share of cases whose completed plan landed in the same year as the case.
func conversionRates(year int, cases []model.CaseCountryFact, completed []model.CompletedPlanFact) model.BarChart {
	completedAt := make(map[string]time.Time, len(completed))
	for _, p := range completed {
		completedAt[p.CaseID] = p.CreatedAt
	}

	byCountry := make(map[string]*countryTally)
	var order []*countryTally
	for _, c := range cases {
		country := strings.TrimSpace(c.Country)
		if country == "" {
			country = unknownCountry
		}
		tally, ok := byCountry[country]
		if !ok {
			tally = &countryTally{country: country}
			byCountry[country] = tally
			order = append(order, tally)
		}
		tally.cases++

		created := c.CreatedAt.UTC().Year()
		var entry *yearTally
		switch created {
		case year - 1:
			entry = &tally.lastYear
		case year:
			entry = &tally.thisYear
		default:
			continue
		}
		entry.total++
		if at, ok := completedAt[c.CaseID]; ok && at.UTC().Year() == created {
			entry.completed++
		}
	}

	sort.SliceStable(order, func(i, j int) bool { return order[i].cases > order[j].cases })
	if len(order) > topCountries {
		order = order[:topCountries]
	}

	lastName, thisName := strconv.Itoa(year-1), strconv.Itoa(year)
	if len(order) == 0 {
		return model.BarChart{
			Categories: []string{"N/A"},
			Series: []model.NamedSeries{
				{Name: lastName, Data: []float64{0}},
				{Name: thisName, Data: []float64{0}},
			},
		}
	}

	categories := make([]string, len(order))
	last := make([]float64, len(order))
	this := make([]float64, len(order))
	for i, t := range order {
		categories[i] = t.country
		last[i] = t.lastYear.percent()
		this[i] = t.thisYear.percent()
	}
	return model.BarChart{
		Categories: categories,
		Series: []model.NamedSeries{
			{Name: lastName, Data: last},
			{Name: thisName, Data: this},
		},
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
