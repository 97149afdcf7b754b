package domain

// Cadence maps one period to calendar time.
type Cadence string

const (
	CadenceDaily      Cadence = "daily"
	CadenceEvery3Days Cadence = "every_3_days"
	CadenceWeekly     Cadence = "weekly"
	CadenceMonthly    Cadence = "monthly"
)

var cadenceDays = map[Cadence]int{
	CadenceDaily:      1,
	CadenceEvery3Days: 3,
	CadenceWeekly:     7,
	CadenceMonthly:    30,
}

// Valid reports whether c is a known cadence.
func (c Cadence) Valid() bool {
	_, ok := cadenceDays[c]
	return ok
}

// Days returns the number of calendar days in one period. Unknown
// cadences are treated as weekly.
func (c Cadence) Days() int {
	if d, ok := cadenceDays[c]; ok {
		return d
	}
	return 7
}

// Prefix is the short period marker used in reports (D1, P1, S1, M1).
func (c Cadence) Prefix() string {
	switch c {
	case CadenceDaily:
		return "D"
	case CadenceEvery3Days:
		return "P"
	case CadenceMonthly:
		return "M"
	default:
		return "S"
	}
}
