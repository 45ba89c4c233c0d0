// Package carpool holds the scheduling core: members, day entries, the
// credit replay and the driver suggestion. It has no knowledge of HTTP,
// SQL or rendering; persistence is reached through Storage.
package carpool

import (
	"context"
	"fmt"
	"sort"
	"time"
)

type Member struct {
	Key    string `json:"key"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// Entry is one (day, member) role assignment. RawDay keeps the stored text
// when it was not already ISO.
type Entry struct {
	Day        Day       `json:"day"`
	RawDay     string    `json:"raw_day,omitempty"`
	MemberKey  string    `json:"member_key"`
	Role       Role      `json:"role"`
	UpdateUser string    `json:"update_user"`
	UpdateTS   time.Time `json:"update_ts"`
}

// Storage is the persistence the core consumes. Upsert must be atomic across
// all entries of the call.
type Storage interface {
	Members(ctx context.Context) ([]Member, error)
	Get(ctx context.Context, day Day) ([]Entry, error)
	Upsert(ctx context.Context, day Day, entries []Entry) error
	All(ctx context.Context) ([]Entry, error)
}

// ActiveMembers keeps registry order.
func ActiveMembers(members []Member) []Member {
	out := make([]Member, 0, len(members))
	for _, m := range members {
		if m.Active {
			out = append(out, m)
		}
	}
	return out
}

// ValidateRoles turns a submitted member-key → role map into typed roles.
// Every bad field is reported; nothing is returned unless all are valid.
func ValidateRoles(raw map[string]string, members []Member) (map[string]Role, error) {
	known := make(map[string]bool, len(members))
	for _, m := range members {
		known[m.Key] = true
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	roles := make(map[string]Role, len(raw))
	var fields []FieldError
	for _, k := range keys {
		if !known[k] {
			fields = append(fields, FieldError{Field: k, Value: raw[k], Err: ErrUnknownMember})
			continue
		}
		r, err := ParseRole(raw[k])
		if err != nil {
			fields = append(fields, FieldError{Field: k, Value: raw[k], Err: ErrInvalidRole})
			continue
		}
		roles[k] = r
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}
	if len(roles) == 0 {
		return nil, fmt.Errorf("%w: no roles submitted", ErrInvalidRole)
	}
	return roles, nil
}

// EntriesFor builds the entries of a save in member-key order.
func EntriesFor(day Day, roles map[string]Role, updatedBy string, ts time.Time) []Entry {
	keys := make([]string, 0, len(roles))
	for k := range roles {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		out = append(out, Entry{
			Day:        day,
			MemberKey:  k,
			Role:       roles[k],
			UpdateUser: updatedBy,
			UpdateTS:   ts,
		})
	}
	return out
}

// RolesByMember indexes one day's entries.
func RolesByMember(entries []Entry) map[string]Role {
	out := make(map[string]Role, len(entries))
	for _, e := range latestPerMember(entries) {
		out[e.MemberKey] = e.Role
	}
	return out
}

// latestPerMember collapses duplicate (day, member) rows, which only legacy
// data can contain, keeping the most recently written one. Ties fall back to
// the role code so the choice never depends on input order.
func latestPerMember(entries []Entry) []Entry {
	type key struct {
		day    Day
		member string
	}
	pick := make(map[key]Entry, len(entries))
	var order []key
	for _, e := range entries {
		k := key{e.Day, e.MemberKey}
		cur, ok := pick[k]
		if !ok {
			order = append(order, k)
			pick[k] = e
			continue
		}
		if e.UpdateTS.After(cur.UpdateTS) || (e.UpdateTS.Equal(cur.UpdateTS) && e.Role < cur.Role) {
			pick[k] = e
		}
	}
	out := make([]Entry, len(order))
	for i, k := range order {
		out[i] = pick[k]
	}
	return out
}
