package service

import (
	"context"
	"os"
	"sort"
	"time"

	"carpool/internal/carpool"
	"carpool/internal/model"
)

const diagSampleDays = 25

type DiagService struct {
	store  carpool.Storage
	driver string
	path   string
}

// NewDiagService describes the database at path; path is only inspected on
// disk for file-backed drivers.
func NewDiagService(store carpool.Storage, driver, path string) *DiagService {
	return &DiagService{store: store, driver: driver, path: path}
}

func (s *DiagService) Report(ctx context.Context) (*model.DiagReport, error) {
	r := &model.DiagReport{Driver: s.driver, Path: s.path}
	if s.path != "" && s.path != ":memory:" {
		if fi, err := os.Stat(s.path); err == nil {
			r.Exists = true
			r.SizeBytes = fi.Size()
			r.ModifiedAt = fi.ModTime().UTC().Format(time.RFC3339)
		}
	}

	all, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}
	r.Entries = len(all)

	byDay := groupByDay(all, carpool.AuditFilter{})
	days := make([]carpool.Day, 0, len(byDay))
	legacy := make(map[carpool.Day]bool)
	for d, entries := range byDay {
		days = append(days, d)
		for _, e := range entries {
			if e.RawDay != "" {
				legacy[d] = true
			}
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	r.DistinctDays = len(days)
	r.LegacyDays = len(legacy)
	if len(days) == 0 {
		return r, nil
	}
	r.MinDay = days[0].String()
	r.MaxDay = days[len(days)-1].String()

	perYear := make(map[int]int)
	for _, d := range days {
		perYear[d.Year()]++
	}
	for y, n := range perYear {
		r.PerYear = append(r.PerYear, model.YearCount{Year: y, Days: n})
	}
	sort.Slice(r.PerYear, func(i, j int) bool { return r.PerYear[i].Year < r.PerYear[j].Year })

	row := func(d carpool.Day) model.HistoryRow {
		return model.HistoryRow{Day: d, Roles: carpool.RolesByMember(byDay[d])}
	}
	for i := len(days) - 1; i >= 0 && len(r.Newest) < diagSampleDays; i-- {
		r.Newest = append(r.Newest, row(days[i]))
	}
	for i := 0; i < len(days) && len(r.Oldest) < diagSampleDays; i++ {
		r.Oldest = append(r.Oldest, row(days[i]))
	}
	return r, nil
}
