package model

import "carpool/internal/carpool"

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type ChangePasswordRequest struct {
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

type SaveUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	IsAdmin  bool   `json:"is_admin"`
}

type ResetUserRequest struct {
	Password string `json:"password" binding:"required"`
	IsAdmin  bool   `json:"is_admin"`
}

type SetMemberActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// SaveDayRequest maps member key to a role code or name.
type SaveDayRequest struct {
	Roles map[string]string `json:"roles" binding:"required"`
}

// TodayView is everything a client needs to render one day.
type TodayView struct {
	Day             carpool.Day             `json:"day"`
	Members         []carpool.Member        `json:"members"`
	CreditsByMember map[string]int          `json:"credits_by_member"`
	RolesByMember   map[string]carpool.Role `json:"roles_by_member"`
	carpool.Suggestion
	SuggestedName string   `json:"suggested_name,omitempty"`
	CanEdit       bool     `json:"can_edit"`
	Warnings      []string `json:"warnings,omitempty"`
}

type SaveDayResponse struct {
	Day     carpool.Day     `json:"day"`
	Entries []carpool.Entry `json:"entries"`
}

type DayView struct {
	Day      carpool.Day              `json:"day"`
	Entries  map[string]carpool.Entry `json:"entries"`
	Warnings []string                 `json:"warnings,omitempty"`
}

// HistoryRow is one calendar day with the role of each member that has one.
type HistoryRow struct {
	Day   carpool.Day             `json:"day"`
	Roles map[string]carpool.Role `json:"roles"`
}

type MemberStats struct {
	Key    string `json:"key"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
	Driver int    `json:"driver"`
	Rider  int    `json:"rider"`
	Off    int    `json:"off"`
	Credit int    `json:"credit"`
}

type YearCount struct {
	Year int `json:"year"`
	Days int `json:"days"`
}

type DiagReport struct {
	Driver       string       `json:"driver"`
	Path         string       `json:"path,omitempty"`
	Exists       bool         `json:"exists"`
	SizeBytes    int64        `json:"size_bytes"`
	ModifiedAt   string       `json:"modified_at,omitempty"`
	Entries      int          `json:"entries"`
	DistinctDays int          `json:"distinct_days"`
	LegacyDays   int          `json:"legacy_days"`
	MinDay       string       `json:"min_day"`
	MaxDay       string       `json:"max_day"`
	PerYear      []YearCount  `json:"per_year"`
	Newest       []HistoryRow `json:"newest"`
	Oldest       []HistoryRow `json:"oldest"`
}

type ErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}
