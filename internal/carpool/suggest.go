package carpool

// Suggestion is what the today view shows under the roster.
type Suggestion struct {
	NoCarpool       bool   `json:"no_carpool"`
	SuggestedMember string `json:"suggested_member,omitempty"`
	IsExplicit      bool   `json:"is_explicit"`
}

// Suggest applies, in order: no entries or everyone Off means no carpool; a
// single scheduled driver is confirmed; otherwise the lowest-credit active
// member not marked Off is recommended. Active members without an entry
// today count as unassigned, not Off.
func Suggest(today []Entry, credits map[string]int, members []Member) Suggestion {
	active := ActiveMembers(members)
	all := RolesByMember(today)

	roles := make(map[string]Role, len(active))
	for _, m := range active {
		if r, ok := all[m.Key]; ok {
			roles[m.Key] = r
		}
	}
	if len(roles) == 0 {
		return Suggestion{NoCarpool: true}
	}

	var drivers, candidates []string
	for _, m := range active {
		r, ok := roles[m.Key]
		if ok && r == Driver {
			drivers = append(drivers, m.Key)
		}
		if !ok || r != Off {
			candidates = append(candidates, m.Key)
		}
	}
	if len(candidates) == 0 {
		return Suggestion{NoCarpool: true}
	}
	if len(drivers) == 1 {
		return Suggestion{SuggestedMember: drivers[0], IsExplicit: true}
	}
	return Suggestion{SuggestedMember: RankByCredit(credits, candidates)[0]}
}
