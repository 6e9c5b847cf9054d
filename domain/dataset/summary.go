package dataset

// DateRange is a closed interval formatted as YYYY-MM-DD
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Quality describes row counts, gaps and anomalies
type Quality struct {
	TotalRows     int            `json:"total_rows"`
	DateRange     DateRange      `json:"date_range"`
	MissingValues map[string]int `json:"missing_values"`
	Anomalies     []string       `json:"anomalies"`
}

// Totals aggregates spend and outcomes over the whole window
type Totals struct {
	TotalSpend       float64 `json:"total_spend"`
	TotalRevenue     float64 `json:"total_revenue"`
	TotalImpressions float64 `json:"total_impressions"`
	TotalClicks      float64 `json:"total_clicks"`
	TotalPurchases   float64 `json:"total_purchases"`
	AvgROAS          float64 `json:"avg_roas"`
	AvgCTR           float64 `json:"avg_ctr"`
}

// SegmentStats aggregates one label of a breakdown
type SegmentStats struct {
	Label      string  `json:"label"`
	Spend      float64 `json:"spend"`
	Revenue    float64 `json:"revenue"`
	ROAS       float64 `json:"roas"`
	CTR        float64 `json:"ctr"`
	Purchases  float64 `json:"purchases"`
	Rows       int     `json:"rows"`
	ROASStdDev float64 `json:"roas_std,omitempty"`
}

// Breakdowns groups segment stats by dimension
type Breakdowns struct {
	Overall        Totals         `json:"overall"`
	ByCampaign     []SegmentStats `json:"by_campaign,omitempty"`
	ByCreativeType []SegmentStats `json:"by_creative_type,omitempty"`
	ByAudienceType []SegmentStats `json:"by_audience_type,omitempty"`
}

// Direction is the movement of a metric between the older and recent half
type Direction string

const (
	DirectionIncreasing Direction = "increasing"
	DirectionDecreasing Direction = "decreasing"
	DirectionStable     Direction = "stable"
)

// Trend compares the recent half of the window with the older half
type Trend struct {
	RecentAvg float64   `json:"recent_avg"`
	OlderAvg  float64   `json:"older_avg"`
	ChangePct float64   `json:"change_pct"`
	Direction Direction `json:"trend"`
}

// Observation is a notable pattern flagged during data analysis
type Observation struct {
	Observation     string   `json:"observation"`
	Significance    string   `json:"significance"`
	MetricsAffected []string `json:"metrics_affected"`
}

// Performer is a campaign ranked by one metric
type Performer struct {
	Campaign string  `json:"campaign_name"`
	ROAS     float64 `json:"roas"`
	CTR      float64 `json:"ctr"`
	Spend    float64 `json:"spend"`
	Revenue  float64 `json:"revenue"`
}

// Performers lists best and worst campaigns by ROAS and CTR
type Performers struct {
	ByROAS []Performer `json:"by_roas"`
	ByCTR  []Performer `json:"by_ctr"`
}

// Segment aggregates a creative type and audience type pair
type Segment struct {
	CreativeType string  `json:"creative_type"`
	AudienceType string  `json:"audience_type"`
	ROAS         float64 `json:"roas"`
	CTR          float64 `json:"ctr"`
	Spend        float64 `json:"spend"`
	Rows         int     `json:"rows"`
}

// Summary is the output of data analysis consumed by hypothesis generation
type Summary struct {
	Source           string           `json:"source"`
	Period           string           `json:"period"`
	DataQuality      Quality          `json:"data_quality"`
	Statistics       Breakdowns       `json:"summary_statistics"`
	Trends           map[string]Trend `json:"trends"`
	DaysAnalyzed     int              `json:"days_analyzed"`
	KeyObservations  []Observation    `json:"key_observations"`
	TopPerformers    Performers       `json:"top_performers"`
	BottomPerformers Performers       `json:"bottom_performers"`
	Segments         []Segment        `json:"segments,omitempty"`
}

// CreativePerformance aggregates one creative message
type CreativePerformance struct {
	Message      string  `json:"creative_message"`
	CreativeType string  `json:"creative_type"`
	CTR          float64 `json:"ctr"`
	ROAS         float64 `json:"roas"`
	Spend        float64 `json:"spend"`
	Purchases    float64 `json:"purchases"`
}

// Info describes the dataset for planning
type Info struct {
	Columns   []string  `json:"columns"`
	Rows      int       `json:"rows"`
	DateRange DateRange `json:"date_range"`
	Campaigns int       `json:"campaigns"`
}
