// Package assistant answers air-quality questions with canned, keyword-matched
// replies. It is illustrative: there is no language model behind it.
package assistant

import (
	"fmt"
	"strings"

	"github.com/i474232898/air-quality-aggregation/internal/airquality"
	"github.com/i474232898/air-quality-aggregation/internal/common"
)

// Reply is the assistant's answer to one message.
type Reply struct {
	Intent   string `json:"intent"`
	Text     string `json:"response"`
	Navigate string `json:"navigate,omitempty"`
}

type intent struct {
	name     string
	navigate string
	match    func(msg string) bool
	answer   func(live *airquality.CityMeasurement) string
}

func fixed(s string) func(*airquality.CityMeasurement) string {
	return func(*airquality.CityMeasurement) string { return s }
}

// intents are tried in order; the first match wins.
var intents = []intent{
	{
		name:     "dashboard",
		navigate: "/dashboard",
		match:    func(m string) bool { return common.HasAnyFold(m, "dashboard") || common.HasWord(m, "home") },
		answer:   fixed("I'll take you to the dashboard right away! You can view your current AQI, health recommendations, and more there."),
	},
	{
		name:     "analytics",
		navigate: "/dashboard?tab=analytics",
		match:    func(m string) bool { return common.HasAnyFold(m, "analytics", "trends", "chart") },
		answer:   fixed("Opening the Analytics section for you! You'll find detailed air quality trends, pollution patterns, and historical data there."),
	},
	{
		name:     "alerts",
		navigate: "/dashboard?tab=alerts",
		match:    func(m string) bool { return common.HasAnyFold(m, "alert", "notification") },
		answer:   fixed("Let me show you your alerts! You can view all air quality warnings and customize your notification preferences there."),
	},
	{
		name:     "settings",
		navigate: "/dashboard?tab=settings",
		match:    func(m string) bool { return common.HasAnyFold(m, "setting", "preference") },
		answer:   fixed("Opening Settings for you! You can adjust themes, sounds, notifications, and your health profile there."),
	},
	{
		name: "outdoor_safety",
		match: func(m string) bool {
			return common.HasAnyFold(m, "safe") && common.HasAnyFold(m, "outside", "outdoor")
		},
		answer: outdoorSafety,
	},
	{
		name:  "pm25",
		match: func(m string) bool { return common.HasAnyFold(m, "pm2.5", "pm 2.5", "pm25", "particulate") },
		answer: fixed("PM2.5 (Fine Particulate Matter) Health Effects:\n\n" +
			"- Size: 2.5 micrometers (30x smaller than hair)\n" +
			"- Can penetrate deep into lungs and bloodstream\n" +
			"- Short-term: Eye/throat irritation, coughing, shortness of breath\n" +
			"- Long-term: Heart disease, lung cancer, reduced lung function\n\n" +
			"WHO 24-hour guideline: 15 µg/m³. Check the Analytics tab for detailed trends!"),
	},
	{
		name:  "asthma",
		match: func(m string) bool { return common.HasAnyFold(m, "asthma") },
		answer: fixed("Tips for Asthma Patients During Poor Air Quality:\n\n" +
			"1. Keep rescue inhaler accessible at all times\n" +
			"2. Stay indoors when AQI > 100\n" +
			"3. Use air purifiers with HEPA filters\n" +
			"4. Keep windows closed during peak pollution\n" +
			"5. Wear N95 mask if going outside is necessary\n" +
			"6. Monitor symptoms closely - seek help if worsening"),
	},
	{
		name:  "masks",
		match: func(m string) bool { return common.HasAnyFold(m, "mask", "n95") },
		answer: fixed("Mask Recommendations:\n\n" +
			"- AQI 0-100: No mask needed\n" +
			"- AQI 101-150: N95 recommended for sensitive groups\n" +
			"- AQI 151-200: N95 recommended for everyone outdoors\n" +
			"- AQI 200+: N95 essential, limit outdoor time\n\n" +
			"Tip: Ensure proper fit - no gaps around nose and chin!"),
	},
	{
		name: "aqi_scale",
		match: func(m string) bool {
			return common.HasAnyFold(m, "aqi") && common.HasAnyFold(m, "what", "mean")
		},
		answer: aqiScale,
	},
	{
		name:  "children",
		match: func(m string) bool { return common.HasAnyFold(m, "children", "kids", "child") },
		answer: fixed("Protecting Children from Air Pollution:\n\n" +
			"- Children breathe faster, inhaling more pollutants per body weight\n" +
			"- Developing lungs are more vulnerable\n" +
			"- Keep indoor play on high AQI days\n" +
			"- Schools should limit outdoor PE when AQI > 100\n" +
			"- Consider air purifiers in children's bedrooms\n" +
			"- Watch for symptoms: coughing, wheezing, fatigue"),
	},
	{
		name:  "indoor_air",
		match: func(m string) bool { return common.HasAnyFold(m, "purifier", "filter", "indoor") },
		answer: fixed("Indoor Air Quality Tips:\n\n" +
			"- Use HEPA air purifiers (removes 99.97% of particles)\n" +
			"- Keep doors/windows closed during high AQI\n" +
			"- Indoor plants help but can't replace purifiers\n" +
			"- Avoid burning candles, incense, or cooking without ventilation\n" +
			"- Regular HVAC filter changes (every 2-3 months)"),
	},
	{
		name: "exercise",
		match: func(m string) bool {
			return common.HasAnyFold(m, "exercise", "workout", "jog") || common.HasWord(m, "run", "running")
		},
		answer: fixed("Exercise & Air Quality Guidelines:\n\n" +
			"- AQI 0-50: Safe for all outdoor activities\n" +
			"- AQI 51-100: Sensitive individuals should limit intense outdoor exercise\n" +
			"- AQI 101-150: Reduce prolonged outdoor exertion\n" +
			"- AQI 150+: Move workouts indoors\n\n" +
			"Best times: Early morning or late evening when pollution is lower."),
	},
	{
		name:  "greeting",
		match: func(m string) bool { return common.HasWord(m, "hello", "hi", "hey") },
		answer: fixed("Hello! I'm your air quality assistant. I can help you with:\n\n" +
			"- Air quality information & health tips\n" +
			"- Navigate to Dashboard, Analytics, Alerts, or Settings\n" +
			"- Understanding AQI and pollution effects\n\n" +
			"What would you like to know?"),
	},
	{
		name:   "thanks",
		match:  func(m string) bool { return common.HasAnyFold(m, "thank") },
		answer: fixed("You're welcome! Stay safe and breathe easy."),
	},
}

const fallback = "I can help you with:\n\n" +
	"- Air quality & health information\n" +
	"- Navigation: Say 'dashboard', 'analytics', 'alerts', or 'settings'\n" +
	"- Health tips for asthma, children, exercise, etc.\n" +
	"- Understanding AQI, PM2.5, and pollution effects\n\n" +
	"Try asking: 'Is it safe to go outside today?' or 'Tips for asthma patients'"

// Answer matches msg against the known intents. live, when non-nil, is the
// current reading for the user's city and is quoted where relevant.
func Answer(msg string, live *airquality.CityMeasurement) Reply {
	msg = strings.TrimSpace(msg)
	for _, in := range intents {
		if in.match(msg) {
			return Reply{Intent: in.name, Text: in.answer(live), Navigate: in.navigate}
		}
	}
	return Reply{Intent: "fallback", Text: fallback}
}

func outdoorSafety(live *airquality.CityMeasurement) string {
	if live == nil {
		return "Outdoor safety depends on the current AQI:\n\n" +
			"- AQI 0-50: Safe for everyone\n" +
			"- AQI 51-100: Fine for most; sensitive people should take it easy\n" +
			"- AQI 101+: Limit prolonged outdoor exertion\n\n" +
			"Tell me your city for a live answer. Early morning (5-7 AM) is usually the cleanest time."
	}
	return fmt.Sprintf("Current AQI in %s is %d (%s).\n\n- General public: %s\n- Sensitive groups: %s\n\n"+
		"Best time to go out: Early morning (5-7 AM) when AQI is typically lower.",
		live.City.Name, live.AQI, live.Status(),
		live.Category.Advice(false), live.Category.Advice(true))
}

func aqiScale(live *airquality.CityMeasurement) string {
	var b strings.Builder
	b.WriteString("AQI (Air Quality Index) Scale:\n\n")
	lower := 0
	for _, c := range airquality.Categories() {
		if c == airquality.CategoryHazardous {
			fmt.Fprintf(&b, "- %d+: %s\n", lower, c)
			break
		}
		fmt.Fprintf(&b, "- %d-%d: %s\n", lower, c.UpperBound(), c)
		lower = c.UpperBound() + 1
	}
	if live != nil {
		fmt.Fprintf(&b, "\nCurrent %s: %d - %s", live.City.Name, live.AQI, live.Status())
	}
	return strings.TrimRight(b.String(), "\n")
}
