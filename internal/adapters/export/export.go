// Package export renders stored rows as CSV or JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/okian/portinsight/internal/domain/model"
	"github.com/shopspring/decimal"
)

// Format selects the output encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ErrUnknownFormat is returned by ParseFormat for anything but csv or json.
var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat maps a user supplied name to a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

var insightHeader = []string{
	"port_id", "port_name", "port_country",
	"trade_volume_score", "efficiency_score", "growth_potential_score",
	"overall_score", "investment_priority", "recommended_investment",
	"expected_roi", "processing_date",
}

var summaryHeader = []string{
	"port_id", "port_name", "port_country",
	"visit_count", "avg_stay_hours", "total_trade_hours", "distinct_vessels",
	"first_visit", "last_visit",
	"analysis_period_start", "analysis_period_end", "processing_date",
}

// Insight is the encoded shape of an investment insight.
type Insight struct {
	PortID                string  `json:"port_id"`
	PortName              string  `json:"port_name"`
	PortCountry           string  `json:"port_country"`
	TradeVolumeScore      float64 `json:"trade_volume_score"`
	EfficiencyScore       float64 `json:"efficiency_score"`
	GrowthPotentialScore  float64 `json:"growth_potential_score"`
	OverallScore          float64 `json:"overall_score"`
	InvestmentPriority    string  `json:"investment_priority"`
	RecommendedInvestment string  `json:"recommended_investment"`
	ExpectedROI           float64 `json:"expected_roi"`
	ProcessingDate        string  `json:"processing_date"`
}

// Summary is the encoded shape of a port visit summary.
type Summary struct {
	PortID              string  `json:"port_id"`
	PortName            string  `json:"port_name"`
	PortCountry         string  `json:"port_country"`
	VisitCount          int     `json:"visit_count"`
	AvgStayHours        float64 `json:"avg_stay_hours"`
	TotalTradeHours     float64 `json:"total_trade_hours"`
	DistinctVessels     int     `json:"distinct_vessels"`
	FirstVisit          string  `json:"first_visit"`
	LastVisit           string  `json:"last_visit"`
	AnalysisPeriodStart string  `json:"analysis_period_start"`
	AnalysisPeriodEnd   string  `json:"analysis_period_end"`
	ProcessingDate      string  `json:"processing_date"`
}

func newInsight(in *model.InvestmentInsight) Insight {
	return Insight{
		PortID:                in.PortID,
		PortName:              in.PortName,
		PortCountry:           in.PortCountry,
		TradeVolumeScore:      in.TradeVolumeScore,
		EfficiencyScore:       in.EfficiencyScore,
		GrowthPotentialScore:  in.GrowthPotentialScore,
		OverallScore:          in.OverallScore,
		InvestmentPriority:    string(in.InvestmentPriority),
		RecommendedInvestment: in.RecommendedInvestment,
		ExpectedROI:           in.ExpectedROI,
		ProcessingDate:        day(in.ProcessingDate),
	}
}

func newSummary(s *model.PortVisitSummary) Summary {
	return Summary{
		PortID:              s.PortID,
		PortName:            s.PortName,
		PortCountry:         s.PortCountry,
		VisitCount:          s.VisitCount,
		AvgStayHours:        s.AvgStayHours,
		TotalTradeHours:     s.TotalTradeHours,
		DistinctVessels:     s.DistinctVessels,
		FirstVisit:          stamp(s.FirstVisit),
		LastVisit:           stamp(s.LastVisit),
		AnalysisPeriodStart: stamp(s.AnalysisPeriodStart),
		AnalysisPeriodEnd:   stamp(s.AnalysisPeriodEnd),
		ProcessingDate:      day(s.ProcessingDate),
	}
}

// WriteInsights encodes insights in the given format.
func WriteInsights(w io.Writer, f Format, rows []model.InvestmentInsight) error {
	switch f {
	case FormatCSV:
		records := make([][]string, 0, len(rows)+1)
		records = append(records, insightHeader)
		for i := range rows {
			r := &rows[i]
			records = append(records, []string{
				r.PortID, r.PortName, r.PortCountry,
				fixed(r.TradeVolumeScore), fixed(r.EfficiencyScore), fixed(r.GrowthPotentialScore),
				fixed(r.OverallScore), string(r.InvestmentPriority), r.RecommendedInvestment,
				fixed(r.ExpectedROI), day(r.ProcessingDate),
			})
		}
		return writeCSV(w, records)
	case FormatJSON:
		out := make([]Insight, len(rows))
		for i := range rows {
			out[i] = newInsight(&rows[i])
		}
		return writeJSON(w, out)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// WriteSummaries encodes summaries in the given format.
func WriteSummaries(w io.Writer, f Format, rows []model.PortVisitSummary) error {
	switch f {
	case FormatCSV:
		records := make([][]string, 0, len(rows)+1)
		records = append(records, summaryHeader)
		for i := range rows {
			s := &rows[i]
			records = append(records, []string{
				s.PortID, s.PortName, s.PortCountry,
				strconv.Itoa(s.VisitCount), fixed(s.AvgStayHours), fixed(s.TotalTradeHours), strconv.Itoa(s.DistinctVessels),
				stamp(s.FirstVisit), stamp(s.LastVisit),
				stamp(s.AnalysisPeriodStart), stamp(s.AnalysisPeriodEnd), day(s.ProcessingDate),
			})
		}
		return writeCSV(w, records)
	case FormatJSON:
		out := make([]Summary, len(rows))
		for i := range rows {
			out[i] = newSummary(&rows[i])
		}
		return writeJSON(w, out)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

func writeCSV(w io.Writer, records [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

func fixed(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func day(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.DateOnly)
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
