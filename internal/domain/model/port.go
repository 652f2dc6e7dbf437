package model

import "time"

// PortVisitSummary is the per-port reduction of qualifying port visits
// for one processing date.
type PortVisitSummary struct {
	PortID              string
	PortName            string
	PortCountry         string
	VisitCount          int
	AvgStayHours        float64
	TotalTradeHours     float64
	DistinctVessels     int
	FirstVisit          time.Time
	LastVisit           time.Time
	AnalysisPeriodStart time.Time
	AnalysisPeriodEnd   time.Time
	ProcessingDate      time.Time
}

// Priority is the investment tier derived from the overall score.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// Priorities lists every tier, highest first.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// Valid reports whether p is a known tier.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// InvestmentInsight is the scored, classified view of one port.
type InvestmentInsight struct {
	PortID                string
	PortName              string
	PortCountry           string
	TradeVolumeScore      float64
	EfficiencyScore       float64
	GrowthPotentialScore  float64
	OverallScore          float64
	InvestmentPriority    Priority
	RecommendedInvestment string
	ExpectedROI           float64
	ProcessingDate        time.Time
}
