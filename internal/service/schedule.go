package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"carpool/internal/carpool"
	"carpool/internal/metrics"
	"carpool/internal/model"
)

// WarnInvalidDay is reported when a requested day could not be read and
// today was shown instead.
const WarnInvalidDay = "invalid_day"

var ErrForbidden = errors.New("forbidden")

// EntryStore is the persistence ScheduleService needs on top of the core
// storage contract.
type EntryStore interface {
	carpool.Storage
	UpsertDay(ctx context.Context, day carpool.Day, roles map[string]carpool.Role, updatedBy string) ([]carpool.Entry, error)
	GetDay(ctx context.Context, day carpool.Day) (map[string]carpool.Entry, error)
}

// DaySyncer receives every saved day. It runs detached from the request.
type DaySyncer interface {
	SyncDay(ctx context.Context, day carpool.Day, entries []carpool.Entry)
}

type ScheduleOptions struct {
	Policy         carpool.CreditPolicy
	AdminOnlyEdits bool
	// Location decides which calendar date "today" is.
	Location *time.Location
}

type ScheduleService struct {
	store   EntryStore
	cache   *CreditCache
	opts    ScheduleOptions
	syncer  DaySyncer
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewScheduleService(store EntryStore, cache *CreditCache, opts ScheduleOptions) *ScheduleService {
	if opts.Policy == "" {
		opts.Policy = carpool.PolicyRiderWeighted
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &ScheduleService{store: store, cache: cache, opts: opts, now: time.Now}
}

func (s *ScheduleService) WithSyncer(d DaySyncer) *ScheduleService {
	s.syncer = d
	return s
}

func (s *ScheduleService) WithMetrics(m *metrics.Metrics) *ScheduleService {
	s.metrics = m
	return s
}

func (s *ScheduleService) WithClock(now func() time.Time) *ScheduleService {
	s.now = now
	return s
}

// CurrentDay returns the date in the configured location.
func (s *ScheduleService) CurrentDay() carpool.Day {
	return carpool.DayOf(s.now().In(s.opts.Location))
}

// resolveDay reads a view's day parameter. Empty means today; anything
// unreadable also means today, with a warning.
func (s *ScheduleService) resolveDay(raw string) (carpool.Day, []string) {
	if raw == "" {
		return s.CurrentDay(), nil
	}
	d, fellBack := carpool.NormalizeDay(raw, s.now().In(s.opts.Location))
	if fellBack {
		slog.Warn("schedule.day_fallback", "raw", raw, "day", d.String())
		return d, []string{WarnInvalidDay}
	}
	return d, nil
}

// Today assembles the day page: roster, that day's roles, credits as of the
// day and the driver suggestion. rawDay defaults to the current date.
func (s *ScheduleService) Today(ctx context.Context, rawDay string, isAdmin bool) (*model.TodayView, error) {
	day, warnings := s.resolveDay(rawDay)

	members, err := s.store.Members(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.Get(ctx, day)
	if err != nil {
		return nil, err
	}
	credits, err := s.creditsAsOf(ctx, day, members, false)
	if err != nil {
		return nil, err
	}

	sug := carpool.Suggest(entries, credits, members)
	s.metrics.Suggested(sug)

	view := &model.TodayView{
		Day:             day,
		Members:         members,
		CreditsByMember: credits,
		RolesByMember:   carpool.RolesByMember(entries),
		Suggestion:      sug,
		CanEdit:         s.CanEdit(isAdmin),
		Warnings:        warnings,
	}
	for _, m := range members {
		if m.Key == sug.SuggestedMember {
			view.SuggestedName = m.Name
		}
	}
	return view, nil
}

func (s *ScheduleService) CanEdit(isAdmin bool) bool {
	return !s.opts.AdminOnlyEdits || isAdmin
}

// SaveDay validates a submission against the registry and writes it as one
// unit. Any bad member or role rejects the whole save.
func (s *ScheduleService) SaveDay(ctx context.Context, rawDay string, raw map[string]string, updatedBy string, isAdmin bool) (resp *model.SaveDayResponse, err error) {
	defer func() { s.metrics.DaySaved(err) }()

	if !s.CanEdit(isAdmin) {
		return nil, fmt.Errorf("%w: edits are limited to admins", ErrForbidden)
	}
	day, err := carpool.ParseDay(rawDay)
	if err != nil {
		return nil, err
	}
	members, err := s.store.Members(ctx)
	if err != nil {
		return nil, err
	}
	roles, err := carpool.ValidateRoles(raw, members)
	if err != nil {
		return nil, err
	}

	entries, err := s.store.UpsertDay(ctx, day, roles, updatedBy)
	if err != nil {
		return nil, err
	}
	s.cache.Purge()
	slog.Info("schedule.saved", "day", day.String(), "by", updatedBy, "members", len(entries))

	if s.syncer != nil {
		go s.syncer.SyncDay(context.WithoutCancel(ctx), day, entries)
	}
	return &model.SaveDayResponse{Day: day, Entries: entries}, nil
}

// Day returns the stored entries of one day keyed by member.
func (s *ScheduleService) Day(ctx context.Context, rawDay string) (*model.DayView, error) {
	day, warnings := s.resolveDay(rawDay)
	entries, err := s.store.GetDay(ctx, day)
	if err != nil {
		return nil, err
	}
	return &model.DayView{Day: day, Entries: entries, Warnings: warnings}, nil
}

// History lists every recorded day in [start, end], newest first. Empty
// bounds are open.
func (s *ScheduleService) History(ctx context.Context, start, end string) ([]model.HistoryRow, error) {
	var f carpool.AuditFilter
	var err error
	if start != "" {
		if f.Start, err = carpool.ParseDay(start); err != nil {
			return nil, err
		}
	}
	if end != "" {
		if f.End, err = carpool.ParseDay(end); err != nil {
			return nil, err
		}
	}

	all, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}
	byDay := groupByDay(all, f)

	rows := make([]model.HistoryRow, 0, len(byDay))
	for d, entries := range byDay {
		rows = append(rows, model.HistoryRow{Day: d, Roles: carpool.RolesByMember(entries)})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Day.After(rows[j].Day) })
	return rows, nil
}

// Stats counts roles per member over the whole history and attaches the
// credit balance as of today.
func (s *ScheduleService) Stats(ctx context.Context) ([]model.MemberStats, error) {
	members, err := s.store.Members(ctx)
	if err != nil {
		return nil, err
	}
	all, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}
	credits, err := s.creditsAsOf(ctx, s.CurrentDay(), members, false)
	if err != nil {
		return nil, err
	}

	stats := make(map[string]*model.MemberStats, len(members))
	out := make([]model.MemberStats, len(members))
	for i, m := range members {
		out[i] = model.MemberStats{Key: m.Key, Name: m.Name, Active: m.Active, Credit: credits[m.Key]}
		stats[m.Key] = &out[i]
	}
	for _, entries := range groupByDay(all, carpool.AuditFilter{}) {
		for key, role := range carpool.RolesByMember(entries) {
			st, ok := stats[key]
			if !ok {
				continue
			}
			switch role {
			case carpool.Driver:
				st.Driver++
			case carpool.Rider:
				st.Rider++
			case carpool.Off:
				st.Off++
			}
		}
	}
	return out, nil
}

// Credits returns the balance of every member before day, or through day
// when inclusive is set.
func (s *ScheduleService) Credits(ctx context.Context, day carpool.Day, inclusive bool) (map[string]int, []carpool.Member, error) {
	members, err := s.store.Members(ctx)
	if err != nil {
		return nil, nil, err
	}
	credits, err := s.creditsAsOf(ctx, day, members, inclusive)
	if err != nil {
		return nil, nil, err
	}
	return credits, members, nil
}

func (s *ScheduleService) creditsAsOf(ctx context.Context, day carpool.Day, members []carpool.Member, inclusive bool) (map[string]int, error) {
	key := creditKey{asOf: day, policy: s.opts.Policy, inclusive: inclusive}
	if v, ok := s.cache.Get(key); ok {
		return v, nil
	}
	gen := s.cache.Generation()
	all, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}
	credits := carpool.ComputeCredits(all, day, members, carpool.CreditOptions{Policy: s.opts.Policy, Inclusive: inclusive})
	s.cache.Add(key, credits, gen)
	return credits, nil
}

func groupByDay(entries []carpool.Entry, f carpool.AuditFilter) map[carpool.Day][]carpool.Entry {
	out := make(map[carpool.Day][]carpool.Entry)
	for _, e := range entries {
		if f.Match(e) {
			out[e.Day] = append(out[e.Day], e)
		}
	}
	return out
}
