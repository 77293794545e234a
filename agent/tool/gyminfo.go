package tool

import (
	"strings"
)

// GymConfig carries the facts that vary per deployment; the rest of the
// knowledge base below is static.
type GymConfig struct {
	Name       string `envconfig:"NAME" split_words:"true" default:"FitLife Gym"`
	Location   string `envconfig:"LOCATION" split_words:"true" default:"123 Fitness Street, Mumbai"`
	TrialPrice int    `envconfig:"TRIAL_PRICE" split_words:"true" default:"99"`
	Facilities string `envconfig:"FACILITIES" split_words:"true" default:"Swimming Pool, Cardio Zone, Weight Training, Yoga Studio"`
}

type gymClass struct {
	Name   string `json:"name"`
	Timing string `json:"timing"`
	Level  string `json:"level"`
}

type gymTrainer struct {
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
	Experience     string `json:"experience"`
}

type membershipPlan struct {
	Name     string `json:"name"`
	Price    int    `json:"price"`
	Features string `json:"features"`
}

var gymClasses = []gymClass{
	{"HIIT Training", "Mon/Wed/Fri 6 AM, 7 PM", "All levels"},
	{"Zumba", "Tue/Thu/Sat 6 PM", "Beginners welcome"},
	{"Yoga", "Daily 7 AM, 6 PM", "All levels"},
	{"CrossFit", "Mon/Wed/Fri 8 AM, 5 PM", "Intermediate+"},
	{"Spinning", "Tue/Thu 7 AM, 8 PM", "All levels"},
	{"Boxing", "Mon/Thu 6 PM", "All levels"},
}

var gymTrainers = []gymTrainer{
	{"Rahul Sharma", "Strength & Bodybuilding", "8 years"},
	{"Priya Patel", "Weight Loss & Nutrition", "6 years"},
	{"Amit Kumar", "CrossFit & Functional Training", "5 years"},
	{"Sneha Reddy", "Yoga & Flexibility", "10 years"},
}

var operatingHours = map[string]string{
	"weekdays": "5 AM - 11 PM",
	"weekends": "6 AM - 10 PM",
	"holidays": "7 AM - 8 PM",
}

var membershipPlans = []membershipPlan{
	{"Monthly", 2500, "All facilities, Group classes"},
	{"Quarterly", 6500, "All facilities, Group classes, 2 PT sessions"},
	{"Annual", 20000, "All facilities, Unlimited classes, 10 PT sessions, Guest passes"},
}

var trialBenefits = []string{
	"Full gym access for 1 day",
	"1 complimentary personal training session (30 mins)",
	"Fitness assessment and body composition analysis",
	"Nutrition consultation",
	"Access to all group classes scheduled that day",
	"Free trial of all facilities including pool and steam room",
}

var successStories = []string{
	"Rohan lost 15kg in 3 months with our weight loss program",
	"Anita completed her first marathon after training with us",
	"Vikram gained 8kg muscle mass in 6 months",
	"Senior member Mrs. Kapoor improved her flexibility and joint health",
}

// lookupGymInfo routes a free-form query to one topic of the knowledge
// base. Unmatched queries get the general overview.
func lookupGymInfo(cfg GymConfig, query string) map[string]any {
	q := strings.ToLower(strings.TrimSpace(query))

	switch {
	case containsAny(q, "facilit", "equipment", "pool", "amenit"):
		return map[string]any{
			"topic":   "facilities",
			"data":    strings.Split(cfg.Facilities, ", "),
			"summary": cfg.Name + " offers: " + cfg.Facilities,
		}
	case containsAny(q, "class", "schedule"):
		return map[string]any{
			"topic": "classes",
			"data":  gymClasses,
		}
	case containsAny(q, "trainer", "coach"):
		return map[string]any{
			"topic": "trainers",
			"data":  gymTrainers,
		}
	case containsAny(q, "hour", "timing", "time", "open"):
		return map[string]any{
			"topic": "operating_hours",
			"data":  operatingHours,
		}
	case containsAny(q, "price", "plan", "membership", "cost"):
		return map[string]any{
			"topic":       "membership_plans",
			"data":        membershipPlans,
			"trial_price": cfg.TrialPrice,
		}
	case containsAny(q, "trial", "benefit"):
		return map[string]any{
			"topic": "trial_benefits",
			"data":  trialBenefits,
			"price": cfg.TrialPrice,
		}
	case containsAny(q, "success", "result", "testimonial"):
		return map[string]any{
			"topic": "success_stories",
			"data":  successStories,
		}
	default:
		return map[string]any{
			"topic":       "overview",
			"gym_name":    cfg.Name,
			"location":    cfg.Location,
			"trial_price": cfg.TrialPrice,
			"facilities":  strings.Split(cfg.Facilities, ", "),
			"available_info": []string{
				"facilities", "classes", "trainers", "hours", "plans", "trial", "success_stories",
			},
		}
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
