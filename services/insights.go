package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"airbnb-dashboard/models"
	"airbnb-dashboard/utils"
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

func (s *InsightService) Generate(table *models.Table) *models.InsightReport {
	report := &models.InsightReport{
		Source:                  table.Source,
		RawListings:             table.RawCount,
		DroppedListings:         table.Dropped(),
		TopRated:                []*models.Listing{},
		ListingsByNeighbourhood: make(map[string]int),
	}

	listings := table.Listings()
	if len(listings) == 0 {
		s.logger.Warn("[insights] No listings to summarise")
		return report
	}

	report.TotalListings = len(listings)

	report.MinPrice = listings[0].PriceNum
	report.MaxPrice = listings[0].PriceNum
	report.MostExpensive = listings[0]
	var total float64
	prices := make([]float64, 0, len(listings))
	for _, l := range listings {
		total += l.PriceNum
		prices = append(prices, l.PriceNum)
		if l.PriceNum < report.MinPrice {
			report.MinPrice = l.PriceNum
		}
		if l.PriceNum > report.MaxPrice {
			report.MaxPrice = l.PriceNum
			report.MostExpensive = l
		}
		if l.Neighbourhood != "" {
			report.ListingsByNeighbourhood[l.Neighbourhood]++
		}
	}
	report.AveragePrice = round2(total / float64(len(listings)))
	report.MedianPrice = round2(median(prices))
	report.MinPrice = round2(report.MinPrice)
	report.MaxPrice = round2(report.MaxPrice)

	// Top 5 by rating, ties keep input order
	rated := make([]*models.Listing, len(listings))
	copy(rated, listings)
	sort.SliceStable(rated, func(i, j int) bool {
		return rated[i].Rating > rated[j].Rating
	})
	if len(rated) > 5 {
		rated = rated[:5]
	}
	report.TopRated = rated

	s.logger.Debug("[insights] Summarised %d listings across %d neighbourhoods",
		report.TotalListings, len(report.ListingsByNeighbourhood))
	return report
}

func (s *InsightService) Print(w io.Writer, r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  📊 BOSTON AIRBNB LISTINGS SUMMARY\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Source            : %s\n", r.Source)
	fmt.Fprintf(w, "  Rows read         : \033[1m%d\033[0m\n", r.RawListings)
	fmt.Fprintf(w, "  Listings kept     : \033[1m%d\033[0m\n", r.TotalListings)
	fmt.Fprintf(w, "  Dropped (missing) : \033[1m%d\033[0m\n", r.DroppedListings)
	fmt.Fprintln(w)

	// Price Stats
	fmt.Fprintf(w, "\033[1;33m  Price Statistics (per night)\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.TotalListings > 0 {
		fmt.Fprintf(w, "  Average price : \033[1;32m$%.2f\033[0m\n", r.AveragePrice)
		fmt.Fprintf(w, "  Median price  : \033[1;32m$%.2f\033[0m\n", r.MedianPrice)
		fmt.Fprintf(w, "  Minimum price : \033[1;32m$%.2f\033[0m\n", r.MinPrice)
		fmt.Fprintf(w, "  Maximum price : \033[1;32m$%.2f\033[0m\n", r.MaxPrice)
	} else {
		fmt.Fprintf(w, "  No price data available\n")
	}
	fmt.Fprintln(w)

	// Most Expensive
	if r.MostExpensive != nil {
		fmt.Fprintf(w, "\033[1;33m  Most Expensive Listing\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		fmt.Fprintf(w, "  Neighbourhood : %s\n", orDash(r.MostExpensive.Neighbourhood))
		fmt.Fprintf(w, "  Beds          : %.0f\n", r.MostExpensive.Beds)
		fmt.Fprintf(w, "  Price         : \033[1;31m$%.2f/night\033[0m\n", r.MostExpensive.PriceNum)
		fmt.Fprintln(w)
	}

	// ── TOP 5 HIGHEST RATED ──────────────────────────────────────────────
	fmt.Fprintf(w, "\033[1;33m  Top 5 Highest Rated Listings\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.TopRated) == 0 {
		fmt.Fprintf(w, "  No rated listings found\n")
	} else {
		for i, l := range r.TopRated {
			label := truncate(orDash(l.Neighbourhood), 28)
			fmt.Fprintf(w, "  \033[1m%d.\033[0m %-30s $%-9.2f \033[1;32m%.2f ★\033[0m\n",
				i+1, label, l.PriceNum, l.Rating)
		}
	}
	fmt.Fprintln(w)

	// Listings by Neighbourhood
	fmt.Fprintf(w, "\033[1;33m  Listings by Neighbourhood\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.ListingsByNeighbourhood) == 0 {
		fmt.Fprintf(w, "  No neighbourhood data\n")
	} else {
		for _, nc := range sortedCounts(r.ListingsByNeighbourhood) {
			bar := strings.Repeat("█", scaleBar(nc.count, r.TotalListings, 20))
			fmt.Fprintf(w, "  %-30s %s (%d)\n", truncate(nc.name, 28), bar, nc.count)
		}
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

type nameCount struct {
	name  string
	count int
}

// sortedCounts orders neighbourhoods by count descending, then by name.
func sortedCounts(m map[string]int) []nameCount {
	out := make([]nameCount, 0, len(m))
	for name, cnt := range m {
		out = append(out, nameCount{name, cnt})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].name < out[j].name
	})
	return out
}

// scaleBar maps count onto at most width blocks, never fewer than one.
func scaleBar(count, total, width int) int {
	if total <= 0 {
		return 0
	}
	n := count * width / total
	if n < 1 {
		n = 1
	}
	return n
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
