package models

import "strings"

// PeriodFilter enumerates the report periods a user can pick from the
// inline keyboard. Callback tokens are decoded into this closed set at
// the boundary; nothing downstream parses raw callback strings.
type PeriodFilter string

const (
	PeriodWeek    PeriodFilter = "7"
	PeriodMonth   PeriodFilter = "30"
	PeriodYear    PeriodFilter = "365"
	PeriodCustom  PeriodFilter = "custom"
	PeriodUnknown PeriodFilter = "unknown"
)

const periodCallbackPrefix = "filter_"

// ParsePeriodFilter decodes an inline-keyboard callback token.
func ParsePeriodFilter(token string) PeriodFilter {
	code, ok := strings.CutPrefix(strings.TrimSpace(token), periodCallbackPrefix)
	if !ok {
		return PeriodUnknown
	}

	switch PeriodFilter(code) {
	case PeriodWeek:
		return PeriodWeek
	case PeriodMonth:
		return PeriodMonth
	case PeriodYear:
		return PeriodYear
	case PeriodCustom:
		return PeriodCustom
	default:
		return PeriodUnknown
	}
}

// CallbackData renders the token carried by the keyboard button.
func (p PeriodFilter) CallbackData() string {
	return periodCallbackPrefix + string(p)
}

// Days returns the fixed window length, or 0 for custom/unknown periods.
func (p PeriodFilter) Days() int {
	switch p {
	case PeriodWeek:
		return 7
	case PeriodMonth:
		return 30
	case PeriodYear:
		return 365
	default:
		return 0
	}
}

// AdminAction enumerates the admin menu callbacks.
type AdminAction string

const (
	AdminStats    AdminAction = "admin_stats"
	AdminUsers    AdminAction = "admin_users"
	AdminExport   AdminAction = "admin_export"
	AdminSettings AdminAction = "admin_settings"
	AdminUnknown  AdminAction = "admin_unknown"
)

// ParseAdminAction decodes an admin menu callback token.
func ParseAdminAction(token string) AdminAction {
	switch AdminAction(strings.TrimSpace(token)) {
	case AdminStats:
		return AdminStats
	case AdminUsers:
		return AdminUsers
	case AdminExport:
		return AdminExport
	case AdminSettings:
		return AdminSettings
	default:
		return AdminUnknown
	}
}

// IsAdminToken reports whether a callback token belongs to the admin menu.
func IsAdminToken(token string) bool {
	return strings.HasPrefix(strings.TrimSpace(token), "admin_")
}
