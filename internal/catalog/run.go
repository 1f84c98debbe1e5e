package catalog

import (
	"fmt"
	"strings"
	"time"
)

// runTokenLayout renders a model run timestamp as YYMMDDHH, the token used in
// MICAPS distribution filenames: 2018-04-20T08Z becomes "18042008".
const runTokenLayout = "06010215"

// InitialTime identifies a model run, either as a concrete timestamp or as a
// pre-formatted YYMMDDHH token taken from an upstream system. The zero value
// means "no run given"; callers substitute the latest cycle.
type InitialTime struct {
	t     time.Time
	token string
}

// RunTime builds an InitialTime from a run timestamp.
func RunTime(t time.Time) InitialTime { return InitialTime{t: t} }

// RunToken builds an InitialTime from an already formatted run token. The
// token is kept as-is apart from surrounding whitespace.
func RunToken(token string) InitialTime { return InitialTime{token: strings.TrimSpace(token)} }

// IsZero reports whether the InitialTime carries neither timestamp nor token.
func (it InitialTime) IsZero() bool { return it.token == "" && it.t.IsZero() }

// Token renders the run identity in YYMMDDHH token form.
func (it InitialTime) Token() string {
	if it.token != "" {
		return it.token
	}
	return it.t.Format(runTokenLayout)
}

// Time returns the run timestamp when one is known. Token-built runs carry
// none; their timestamps come from the retrieved data itself.
func (it InitialTime) Time() (time.Time, bool) {
	if it.token != "" || it.t.IsZero() {
		return time.Time{}, false
	}
	return it.t, true
}

// String implements fmt.Stringer for log output.
func (it InitialTime) String() string {
	if it.IsZero() {
		return "latest"
	}
	return it.Token()
}

// ParseInitialTime reads a run identity from its request form: an 8-digit
// YYMMDDHH token or an RFC 3339 timestamp. Empty input yields the zero
// InitialTime without error.
func ParseInitialTime(s string) (InitialTime, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return InitialTime{}, nil
	}
	if isRunToken(s) {
		return RunToken(s), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return InitialTime{}, fmt.Errorf("initial time %q is neither a YYMMDDHH token nor RFC 3339", s)
	}
	return RunTime(t.UTC()), nil
}

func isRunToken(s string) bool {
	if len(s) != 8 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Filename renders the MICAPS distribution filename for a run and a forecast
// hour: run token, dot, three-digit zero-padded hour ("18042008.003").
func Filename(run InitialTime, fhour int) (string, error) {
	if fhour < 0 {
		return "", fmt.Errorf("negative forecast hour %d", fhour)
	}
	if run.IsZero() {
		return "", fmt.Errorf("empty initial time")
	}
	return fmt.Sprintf("%s.%03d", run.Token(), fhour), nil
}

// LatestRun returns the most recent model cycle at or before now, assuming
// runs at fixed UTC intervals: cycleHours 12 means 00Z and 12Z, 6 adds 06Z
// and 18Z. Values outside 1..24 fall back to daily cycles.
func LatestRun(now time.Time, cycleHours int) InitialTime {
	if cycleHours <= 0 || cycleHours > 24 {
		cycleHours = 24
	}
	utc := now.UTC()
	hour := utc.Hour() / cycleHours * cycleHours
	return RunTime(time.Date(utc.Year(), utc.Month(), utc.Day(), hour, 0, 0, 0, time.UTC))
}
