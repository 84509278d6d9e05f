package service

import (
	"math"
	"sort"

	"github.com/calorbunga/backend/internal/models"
)

// MacroPercentages is the share of each macro in the day's total macro mass
type MacroPercentages struct {
	Protein int `json:"p"`
	Carbs   int `json:"c"`
	Fat     int `json:"f"`
}

// DailyTotals is the derived sum over one day's entries. It is recomputed
// from the current entry snapshot on every change and never persisted.
type DailyTotals struct {
	Calories    int              `json:"cal"`
	Protein     int              `json:"p"`
	Carbs       int              `json:"c"`
	Fat         int              `json:"f"`
	Water       int              `json:"w"`
	TotalMass   int              `json:"totalMass"`
	Percentages MacroPercentages `json:"percentages"`
}

// AggregateDay filters entries to the given day key and reduces them to
// daily totals and macro percentage shares. Pure and total: any entry set
// yields a result, and percentages are 0 whenever the macro mass is 0.
func AggregateDay(entries []*models.FoodLogEntry, day string) DailyTotals {
	var totals DailyTotals
	for _, entry := range entries {
		if entry == nil || entry.Date != day {
			continue
		}
		totals.Calories += entry.Stats.Calories
		totals.Protein += entry.Stats.Protein
		totals.Carbs += entry.Stats.Carbs
		totals.Fat += entry.Stats.Fat
		totals.Water += entry.Stats.Water
	}

	totals.TotalMass = totals.Protein + totals.Carbs + totals.Fat
	if totals.TotalMass > 0 {
		totals.Percentages = MacroPercentages{
			Protein: percentOf(totals.Protein, totals.TotalMass),
			Carbs:   percentOf(totals.Carbs, totals.TotalMass),
			Fat:     percentOf(totals.Fat, totals.TotalMass),
		}
	}
	return totals
}

func percentOf(component, total int) int {
	return int(math.Round(float64(component) / float64(total) * 100))
}

// FilterDay returns the entries belonging to the given day key, most recent
// first. Ordering is a display concern carried alongside aggregation since
// both are recomputed from the same snapshot.
func FilterDay(entries []*models.FoodLogEntry, day string) []*models.FoodLogEntry {
	filtered := make([]*models.FoodLogEntry, 0, len(entries))
	for _, entry := range entries {
		if entry != nil && entry.Date == day {
			filtered = append(filtered, entry)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Timestamp > filtered[j].Timestamp
	})
	return filtered
}
