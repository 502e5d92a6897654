package memory

import (
	"time"

	"github.com/emiliopalmerini/growthops/internal/domain"
)

// Demo board ids.
const (
	DemoGrowthBoardID  = "board-growth"
	DemoProductBoardID = "board-product"
)

// Seed loads the demo workspace shown in guest mode. Timestamps are relative to now.
func (s *Store) Seed(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range demoBoards(now) {
		s.boards[b.ID] = b
	}
	for _, e := range demoExperiments(now) {
		s.experiments[e.ID] = e
	}
}

// Demo returns fresh copies of the demo boards and experiments.
func Demo(now time.Time) ([]*domain.Board, []*domain.Experiment) {
	return demoBoards(now), demoExperiments(now)
}

// NewSeededStore returns a store holding the demo workspace.
func NewSeededStore(now time.Time) *Store {
	s := NewStore()
	s.Seed(now)
	return s
}

func demoBoards(now time.Time) []*domain.Board {
	growth := domain.DefaultBoardConfig()
	growth.Metrics = []domain.MetricDefinition{
		{ID: "conversion_rate", Name: "Conversion Rate", Format: domain.FormatPercent, Description: "Visitors who sign up"},
		{ID: "arpu", Name: "ARPU", Format: domain.FormatCurrency, Description: "Average revenue per user"},
		{ID: "time_to_value", Name: "Time to Value", Format: domain.FormatTime},
	}

	product := domain.BoardConfig{
		Metrics: []domain.MetricDefinition{
			{ID: "activation", Name: "Activation", Format: domain.FormatPercent},
			{ID: "nps", Name: "NPS", Format: domain.FormatNumber, Suffix: " pts"},
		},
		Dimensions: []domain.DimensionDefinition{
			{ID: "reach", Name: "Reach", Description: "Share of users affected", Min: 1, Max: 5},
			{ID: "strategic", Name: "Strategic Fit", Min: 1, Max: 5},
			{ID: domain.DimensionEase, Name: "Ease", Min: domain.LegacyMin, Max: domain.LegacyMax},
		},
		UseCustomDimensions: true,
	}

	return []*domain.Board{
		{
			ID:          DemoGrowthBoardID,
			Name:        "Growth Team",
			Description: "Acquisition and monetization experiments",
			CreatedAt:   now.Add(-90 * 24 * time.Hour),
			Config:      &growth,
			Version:     1,
		},
		{
			ID:          DemoProductBoardID,
			Name:        "Product Bets",
			Description: "Scored on reach and strategic fit",
			CreatedAt:   now.Add(-60 * 24 * time.Hour),
			Config:      &product,
			Version:     1,
		},
	}
}

func demoExperiments(now time.Time) []*domain.Experiment {
	day := 24 * time.Hour
	f := func(v float64) *float64 { return &v }

	exp := func(id, board, title string, status domain.Status, age time.Duration, ice [3]int) *domain.Experiment {
		e := domain.NewExperiment(id, board, title, "Guest User", now.Add(-age))
		e.Status = status
		e.Impact, e.Confidence, e.Ease = ice[0], ice[1], ice[2]
		return e
	}

	popup := exp("exp-exit-popup", DemoGrowthBoardID, "Exit-intent discount popup", domain.StatusIdea, 2*day, [3]int{6, 5, 9})
	popup.Description = "Offer 10% off when the cursor leaves the pricing page."
	popup.Tags = []string{"pricing", "cro"}

	referral := exp("exp-referral", DemoGrowthBoardID, "Two-sided referral credit", domain.StatusHypothesis, 5*day, [3]int{8, 6, 4})
	referral.Type = "Referral"
	referral.Tags = []string{"viral"}

	onboarding := exp("exp-onboarding", DemoGrowthBoardID, "Onboarding checklist", domain.StatusRunning, 12*day, [3]int{9, 7, 4})
	onboarding.Type = "Retention"
	onboarding.Market = "UK"
	onboarding.MetricValues = []domain.MetricValue{
		{MetricID: "conversion_rate", Baseline: f(2.1), Target: f(3), Actual: f(2.6)},
		{MetricID: "time_to_value", Baseline: f(600), Target: f(300)},
	}
	onboarding.Comments = []domain.Comment{{
		ID: "cmt-onboarding-1", AuthorID: "guest", AuthorName: "Guest User",
		Text: "Early numbers look promising.", Timestamp: now.Add(-3 * day),
	}}

	annual := exp("exp-annual", DemoGrowthBoardID, "Annual plan default", domain.StatusComplete, 20*day, [3]int{7, 8, 8})
	annual.Type = "Monetization"
	annual.Result = domain.ResultWon
	annual.MetricValues = []domain.MetricValue{
		{MetricID: "arpu", Baseline: f(42), Target: f(48), Actual: f(51.5)},
	}

	social := exp("exp-social-proof", DemoGrowthBoardID, "Social proof on signup", domain.StatusLearnings, 45*day, [3]int{5, 4, 8})
	social.Market = "AU"
	social.Result = domain.ResultLost
	social.Archived = true
	social.Locked = true
	social.MetricValues = []domain.MetricValue{
		{MetricID: "conversion_rate", Baseline: f(2.0), Target: f(2.5), Actual: f(1.9)},
	}

	templates := exp("exp-templates", DemoProductBoardID, "Template gallery", domain.StatusRunning, 8*day, [3]int{5, 5, 6})
	templates.Type = "Product"
	templates.DimensionScores = []domain.DimensionScore{
		{DimensionID: "reach", Value: 4},
		{DimensionID: "strategic", Value: 5},
		{DimensionID: domain.DimensionEase, Value: 6},
	}

	darkMode := exp("exp-dark-mode", DemoProductBoardID, "Dark mode", domain.StatusIdea, 1*day, [3]int{3, 8, 7})
	darkMode.Type = "Product"
	darkMode.Market = "SG"
	darkMode.DimensionScores = []domain.DimensionScore{
		{DimensionID: "reach", Value: 3},
		{DimensionID: "strategic", Value: 2},
		{DimensionID: domain.DimensionEase, Value: 7},
	}

	return []*domain.Experiment{popup, referral, onboarding, annual, social, templates, darkMode}
}
