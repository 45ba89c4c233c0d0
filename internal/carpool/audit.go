package carpool

import (
	"sort"
	"strings"
)

const auditTimeLayout = "2006-01-02 15:04:05"

// AuditFilter predicates are AND-ed; zero values match everything. Start and
// End are inclusive.
type AuditFilter struct {
	MemberKey string
	Role      Role
	Start     Day
	End       Day
	Query     string
}

func (f AuditFilter) Match(e Entry) bool {
	if f.MemberKey != "" && e.MemberKey != f.MemberKey {
		return false
	}
	if f.Role != "" && e.Role != f.Role {
		return false
	}
	if !f.Start.IsZero() && e.Day.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && e.Day.After(f.End) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		return strings.Contains(strings.ToLower(searchText(e)), q)
	}
	return true
}

func searchText(e Entry) string {
	ts := ""
	if !e.UpdateTS.IsZero() {
		ts = e.UpdateTS.Format(auditTimeLayout)
	}
	return strings.Join([]string{
		e.Day.String(), e.RawDay, e.MemberKey, string(e.Role), e.Role.Name(), e.UpdateUser, ts,
	}, " ")
}

// Audit returns the matching entries, newest write first, then newest day.
// Entries without a timestamp sort last. The input is not modified.
func Audit(entries []Entry, f AuditFilter) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	SortAudit(out)
	return out
}

func SortAudit(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.UpdateTS.Equal(b.UpdateTS) {
			return a.UpdateTS.After(b.UpdateTS)
		}
		if c := a.Day.Compare(b.Day); c != 0 {
			return c > 0
		}
		return a.MemberKey < b.MemberKey
	})
}
