package tool

import (
	"testing"
)

func TestLookupGymInfoTopics(t *testing.T) {
	t.Parallel()

	cfg := testGymConfig()

	cases := []struct {
		query string
		topic string
	}{
		{"what facilities do you have", "facilities"},
		{"do you have a pool", "facilities"},
		{"class schedule please", "classes"},
		{"who are your trainers", "trainers"},
		{"when are you open", "operating_hours"},
		{"how much does membership cost", "membership_plans"},
		{"what do I get in the trial", "trial_benefits"},
		{"any success stories", "success_stories"},
		{"tell me about the gym", "overview"},
		{"", "overview"},
	}

	for _, tc := range cases {
		got := lookupGymInfo(cfg, tc.query)
		if got["topic"] != tc.topic {
			t.Fatalf("lookupGymInfo(%q) topic = %v, want %s", tc.query, got["topic"], tc.topic)
		}
	}
}

func TestLookupGymInfoOverviewCarriesDeploymentFacts(t *testing.T) {
	t.Parallel()

	cfg := testGymConfig()
	got := lookupGymInfo(cfg, "hello")

	if got["gym_name"] != cfg.Name {
		t.Fatalf("gym_name = %v", got["gym_name"])
	}
	if got["location"] != cfg.Location {
		t.Fatalf("location = %v", got["location"])
	}
	if got["trial_price"] != cfg.TrialPrice {
		t.Fatalf("trial_price = %v", got["trial_price"])
	}
}

func TestLookupGymInfoPlansIncludeTrialPrice(t *testing.T) {
	t.Parallel()

	got := lookupGymInfo(testGymConfig(), "pricing plans")
	if got["trial_price"] != 99 {
		t.Fatalf("trial_price = %v, want 99", got["trial_price"])
	}
	plans, ok := got["data"].([]membershipPlan)
	if !ok || len(plans) != 3 {
		t.Fatalf("plans = %#v", got["data"])
	}
}
