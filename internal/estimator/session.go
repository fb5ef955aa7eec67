package estimator

import "time"

// shanghaiLocation is the exchange-local timezone for the mainland
// session windows.
var shanghaiLocation = mustLoadLocation("Asia/Shanghai")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		// Fallback to a fixed CST zone if tzdata is unavailable (e.g., minimal container)
		return time.FixedZone("CST", 8*60*60)
	}
	return loc
}

// SessionOpen reports whether the estimate should be treated as live at
// the given time. The market is closed on Saturday and Sunday; on
// weekdays the morning session runs 09:00-12:00 (12:00 inclusive) and
// the afternoon session 13:00-16:00 (16:00 exclusive), exchange-local
// time. Outside these windows a computed value is the last-known
// estimate, not a live one.
func SessionOpen(t time.Time) bool {
	local := t.In(shanghaiLocation)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	hour, min, _ := local.Clock()
	minuteOfDay := hour*60 + min
	// 09:00 = 540, 12:00 = 720, 13:00 = 780, 16:00 = 960
	if minuteOfDay >= 540 && minuteOfDay <= 720 {
		return true
	}
	return minuteOfDay >= 780 && minuteOfDay < 960
}
