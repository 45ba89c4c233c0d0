package carpool

import (
	"fmt"
	"sort"
)

// CreditPolicy decides how much a driver pays per driving day.
type CreditPolicy string

const (
	// PolicyRiderWeighted charges a driver one credit per rider that day.
	PolicyRiderWeighted CreditPolicy = "rider-weighted"
	// PolicyFlat charges a driver one credit per driving day.
	PolicyFlat CreditPolicy = "flat"
)

func ParseCreditPolicy(s string) (CreditPolicy, error) {
	switch p := CreditPolicy(s); p {
	case "":
		return PolicyRiderWeighted, nil
	case PolicyRiderWeighted, PolicyFlat:
		return p, nil
	}
	return "", fmt.Errorf("unknown credit policy %q", s)
}

type CreditOptions struct {
	Policy CreditPolicy
	// Inclusive also replays asOf itself.
	Inclusive bool
}

// ComputeCredits replays the history before asOf, day by day in ascending
// order. Riders earn one credit; drivers pay per the policy; Off is neutral.
// Every member in members appears in the result, starting from zero, and
// entries for other keys are ignored. The result does not depend on the
// order of entries.
func ComputeCredits(entries []Entry, asOf Day, members []Member, opts CreditOptions) map[string]int {
	credits := make(map[string]int, len(members))
	for _, m := range members {
		credits[m.Key] = 0
	}

	byDay := make(map[Day][]Entry)
	for _, e := range latestPerMember(entries) {
		if _, ok := credits[e.MemberKey]; !ok {
			continue
		}
		if c := e.Day.Compare(asOf); c > 0 || (c == 0 && !opts.Inclusive) {
			continue
		}
		byDay[e.Day] = append(byDay[e.Day], e)
	}

	days := make([]Day, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	for _, d := range days {
		applyDay(credits, byDay[d], opts.Policy)
	}
	return credits
}

func applyDay(credits map[string]int, entries []Entry, policy CreditPolicy) {
	riders := 0
	for _, e := range entries {
		if e.Role == Rider {
			riders++
		}
	}
	cost := riders
	if policy == PolicyFlat {
		cost = 1
	}
	for _, e := range entries {
		switch e.Role {
		case Driver:
			credits[e.MemberKey] -= cost
		case Rider:
			credits[e.MemberKey]++
		}
	}
}

// RankByCredit orders keys by ascending credit, then by key.
func RankByCredit(credits map[string]int, keys []string) []string {
	out := append([]string(nil), keys...)
	sort.Slice(out, func(i, j int) bool {
		ci, cj := credits[out[i]], credits[out[j]]
		if ci != cj {
			return ci < cj
		}
		return out[i] < out[j]
	})
	return out
}
