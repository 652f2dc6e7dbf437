package repository

import (
	"time"

	"github.com/okian/portinsight/internal/domain/model"
)

const dayLayout = "2006-01-02"

// summaryRecord is the port_visit_summary row. ProcessingDate is YYYY-MM-DD;
// FirstVisit, LastVisit and the period bounds are unix milliseconds, 0 when unset.
type summaryRecord struct {
	ID                  int64   `gorm:"primaryKey;autoIncrement"`
	ProcessingDate      string  `gorm:"size:10;not null;index;uniqueIndex:uniq_summary_date_port"`
	PortID              string  `gorm:"size:64;not null;uniqueIndex:uniq_summary_date_port"`
	PortName            string  `gorm:"size:255"`
	PortCountry         string  `gorm:"size:8"`
	VisitCount          int     `gorm:"not null"`
	AvgStayHours        float64 `gorm:"not null"`
	TotalTradeHours     float64 `gorm:"not null"`
	DistinctVessels     int     `gorm:"not null"`
	FirstVisit          int64
	LastVisit           int64
	AnalysisPeriodStart int64
	AnalysisPeriodEnd   int64
	CreatedAt           time.Time `gorm:"autoCreateTime"`
}

func (summaryRecord) TableName() string { return "port_visit_summary" }

// insightRecord is the investment_insight row.
type insightRecord struct {
	ID                    int64     `gorm:"primaryKey;autoIncrement"`
	ProcessingDate        string    `gorm:"size:10;not null;index;uniqueIndex:uniq_insight_date_port"`
	PortID                string    `gorm:"size:64;not null;uniqueIndex:uniq_insight_date_port"`
	PortName              string    `gorm:"size:255"`
	PortCountry           string    `gorm:"size:8"`
	TradeVolumeScore      float64   `gorm:"not null"`
	EfficiencyScore       float64   `gorm:"not null"`
	GrowthPotentialScore  float64   `gorm:"not null"`
	OverallScore          float64   `gorm:"not null;index"`
	InvestmentPriority    string    `gorm:"size:10;not null"`
	RecommendedInvestment string    `gorm:"type:text"`
	ExpectedROI           float64   `gorm:"column:expected_roi"`
	CreatedAt             time.Time `gorm:"autoCreateTime"`
}

func (insightRecord) TableName() string { return "investment_insight" }

func dayString(t time.Time) string { return DateKey(t).Format(dayLayout) }

func parseDay(s string) time.Time {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func newSummaryRecord(day string, s *model.PortVisitSummary) summaryRecord {
	return summaryRecord{
		ProcessingDate:      day,
		PortID:              s.PortID,
		PortName:            s.PortName,
		PortCountry:         s.PortCountry,
		VisitCount:          s.VisitCount,
		AvgStayHours:        s.AvgStayHours,
		TotalTradeHours:     s.TotalTradeHours,
		DistinctVessels:     s.DistinctVessels,
		FirstVisit:          toMillis(s.FirstVisit),
		LastVisit:           toMillis(s.LastVisit),
		AnalysisPeriodStart: toMillis(s.AnalysisPeriodStart),
		AnalysisPeriodEnd:   toMillis(s.AnalysisPeriodEnd),
	}
}

func (r *summaryRecord) model() model.PortVisitSummary {
	return model.PortVisitSummary{
		PortID:              r.PortID,
		PortName:            r.PortName,
		PortCountry:         r.PortCountry,
		VisitCount:          r.VisitCount,
		AvgStayHours:        r.AvgStayHours,
		TotalTradeHours:     r.TotalTradeHours,
		DistinctVessels:     r.DistinctVessels,
		FirstVisit:          fromMillis(r.FirstVisit),
		LastVisit:           fromMillis(r.LastVisit),
		AnalysisPeriodStart: fromMillis(r.AnalysisPeriodStart),
		AnalysisPeriodEnd:   fromMillis(r.AnalysisPeriodEnd),
		ProcessingDate:      parseDay(r.ProcessingDate),
	}
}

func newInsightRecord(day string, i *model.InvestmentInsight) insightRecord {
	return insightRecord{
		ProcessingDate:        day,
		PortID:                i.PortID,
		PortName:              i.PortName,
		PortCountry:           i.PortCountry,
		TradeVolumeScore:      i.TradeVolumeScore,
		EfficiencyScore:       i.EfficiencyScore,
		GrowthPotentialScore:  i.GrowthPotentialScore,
		OverallScore:          i.OverallScore,
		InvestmentPriority:    string(i.InvestmentPriority),
		RecommendedInvestment: i.RecommendedInvestment,
		ExpectedROI:           i.ExpectedROI,
	}
}

func (r *insightRecord) model() model.InvestmentInsight {
	return model.InvestmentInsight{
		PortID:                r.PortID,
		PortName:              r.PortName,
		PortCountry:           r.PortCountry,
		TradeVolumeScore:      r.TradeVolumeScore,
		EfficiencyScore:       r.EfficiencyScore,
		GrowthPotentialScore:  r.GrowthPotentialScore,
		OverallScore:          r.OverallScore,
		InvestmentPriority:    model.Priority(r.InvestmentPriority),
		RecommendedInvestment: r.RecommendedInvestment,
		ExpectedROI:           r.ExpectedROI,
		ProcessingDate:        parseDay(r.ProcessingDate),
	}
}
