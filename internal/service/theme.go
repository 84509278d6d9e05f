package service

import "github.com/calorbunga/backend/internal/models"

// Theme is a qualitative classification of a day's macro balance, bundling
// a display color token, a decorative pattern token and advisory text
type Theme struct {
	Key     string `json:"key"`
	Advice  string `json:"advice"`
	Color   string `json:"color"`
	Pattern string `json:"pattern"`
}

// Calories per gram of each macro
const (
	proteinCalsPerGram = 4
	carbCalsPerGram    = 4
	fatCalsPerGram     = 9
)

// Dominance thresholds on the macro calorie shares. All strict: a share
// exactly at the threshold does not trip it.
const (
	proteinShareThreshold = 0.30
	fatShareThreshold     = 0.40
	carbShareThreshold    = 0.60
)

var (
	themeDefault = Theme{
		Key:     "default",
		Advice:  "The vibes are pristine, friend! Log some fuel to keep the day looking bright.",
		Color:   "#e9d5ff",
		Pattern: `url("data:image/svg+xml,%3Csvg width='120' height='120' viewBox='0 0 120 120' xmlns='http://www.w3.org/2000/svg'%3E%3Cg fill='none' stroke='black' stroke-width='1'%3E%3Cpath d='M15 15 L45 20 L25 50 Z' transform='rotate(25 30 30)'/%3E%3Cpath d='M85 85 L115 90 L95 120 Z' transform='rotate(-15 100 100)'/%3E%3Crect x='60' y='15' width='25' height='25' transform='rotate(45 72 27)'/%3E%3Crect x='15' y='85' width='18' height='18' transform='rotate(-30 24 94)'/%3E%3Ccircle cx='95' cy='30' r='12'/%3E%3Ccircle cx='50' cy='85' r='8'/%3E%3C/g%3E%3C/svg%3E")`,
	}

	themeCarbs = Theme{
		Key:     "carbs",
		Advice:  "Total Carborama! You're crushing the energy. Next up, try some tempeh or lentils to balance out that protein vibe.",
		Color:   "#bbf7d0",
		Pattern: `url("data:image/svg+xml,%3Csvg width='100' height='100' viewBox='0 0 100 100' xmlns='http://www.w3.org/2000/svg'%3E%3Cg fill='none' stroke='black' stroke-width='1'%3E%3Cpath d='M10 10 L30 15 L15 35 Z' transform='rotate(15 20 20)'/%3E%3Cpath d='M70 20 L90 10 L85 40 Z' transform='rotate(-10 80 25)'/%3E%3Cpath d='M40 50 L60 45 L55 70 Z' transform='rotate(45 50 55)'/%3E%3Cpath d='M15 80 L40 90 L20 95 Z' transform='rotate(20 27 87)'/%3E%3Cpath d='M80 70 L95 85 L75 95 Z' transform='rotate(-30 85 82)'/%3E%3Cpath d='M45 10 L55 30 L35 25 Z' transform='rotate(180 45 20)'/%3E%3C/g%3E%3C/svg%3E")`,
	}

	themeProtein = Theme{
		Key:     "protein",
		Advice:  "Protein Powerhouse! Totally stellar. Maybe grab some sweet potato or fruit to get those carbs back in the mix.",
		Color:   "#fce7f3",
		Pattern: `url("data:image/svg+xml,%3Csvg width='100' height='100' viewBox='0 0 100 100' xmlns='http://www.w3.org/2000/svg'%3E%3Cg fill='none' stroke='black' stroke-width='1'%3E%3Crect x='10' y='15' width='20' height='20' transform='rotate(12 20 25)'/%3E%3Crect x='65' y='10' width='15' height='15' transform='rotate(-20 72 17)'/%3E%3Crect x='40' y='45' width='25' height='25' transform='rotate(35 52 57)'/%3E%3Crect x='70' y='70' width='18' height='18' transform='rotate(10 79 79)'/%3E%3Crect x='15' y='75' width='12' height='12' transform='rotate(-45 21 81)'/%3E%3Crect x='45' y='5' width='10' height='10' transform='rotate(60 50 10)'/%3E%3C/g%3E%3C/svg%3E")`,
	}

	themeFats = Theme{
		Key:     "fats",
		Advice:  "Omega-Rad! Your fats are looking solid. Try some brown rice or black beans for a complex carb boost.",
		Color:   "#fef9c3",
		Pattern: `url("data:image/svg+xml,%3Csvg width='100' height='100' viewBox='0 0 100 100' xmlns='http://www.w3.org/2000/svg'%3E%3Cg fill='none' stroke='black' stroke-width='1'%3E%3Ccircle cx='20' cy='20' r='10'/%3E%3Ccircle cx='80' cy='15' r='6'/%3E%3Ccircle cx='50' cy='50' r='15'/%3E%3Ccircle cx='15' cy='80' r='8'/%3E%3Ccircle cx='85' cy='85' r='12'/%3E%3Ccircle cx='55' cy='15' r='4'/%3E%3C/g%3E%3C/svg%3E")`,
	}
)

const balancedAdvice = "You're keeping it totally balanced, dude! Keep that plant-power coming."

// ClassifyTheme maps a day's entries and totals to a theme. Deterministic
// and total; checks run in a fixed order and the first match wins
// (protein, then fat, then carb).
func ClassifyTheme(entries []*models.FoodLogEntry, totals DailyTotals) Theme {
	hasFood := false
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		if entry.Stats.Calories > 0 || entry.Stats.Protein > 0 {
			hasFood = true
			break
		}
	}
	if !hasFood {
		return themeDefault
	}

	pCals := float64(totals.Protein * proteinCalsPerGram)
	cCals := float64(totals.Carbs * carbCalsPerGram)
	fCals := float64(totals.Fat * fatCalsPerGram)
	totalCals := pCals + cCals + fCals

	if totalCals > 0 {
		if pCals/totalCals > proteinShareThreshold {
			return themeProtein
		}
		if fCals/totalCals > fatShareThreshold {
			return themeFats
		}
		if cCals/totalCals > carbShareThreshold {
			return themeCarbs
		}
	}

	balanced := themeDefault
	balanced.Advice = balancedAdvice
	return balanced
}
