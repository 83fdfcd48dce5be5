package logic

import "time"

// LifeEventRamadan is the only calendar occasion resolved through the Hijri
// calendar; every other event is a fixed Gregorian day-month.
const LifeEventRamadan = "Ramadan"

// lifeEventDates maps an occasion name to its fixed "DD-MM" date.
var lifeEventDates = map[string]string{
	"International Women's Day":   "08-03",
	"International Flower Day":    "21-03",
	"International Water Day":     "22-03",
	"International Labour Day":    "01-05",
	"International Tea Day":       "21-05",
	"International No-Tobacco Day": "31-05",
	"International Choclate Day":  "07-07",
	"International Men's Day":     "19-11",
	"International Children's Day": "20-11",
}

// LifeEventActive reports whether the named occasion is running on the given
// date. Ramadan matches when the date falls inside that lunar year's Ramadan
// window; fixed events match on their exact day-month. Unknown event names
// never match.
func LifeEventActive(name string, date time.Time) bool {
	if name == LifeEventRamadan {
		start, end := RamadanWindow(date)
		day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
		return !day.Before(start) && !day.After(end)
	}
	fixed, ok := lifeEventDates[name]
	if !ok {
		return false
	}
	return date.Format("02-01") == fixed
}

// RamadanWindow returns the first and last Gregorian days of Ramadan (Hijri
// month 9, days 1-30) in the lunar year containing the given date, using the
// tabular Islamic calendar.
func RamadanWindow(date time.Time) (start, end time.Time) {
	hy, _, _ := toHijri(date)
	start = fromHijri(hy, 9, 1)
	end = fromHijri(hy, 9, 30)
	return start, end
}

// The conversions below implement the arithmetic (tabular) Islamic calendar
// over Julian day numbers. Good to within a day of the observed calendar,
// which is enough for a promotional window.

func gregorianToJDN(y, m, d int) int {
	a := (14 - m) / 12
	yy := y + 4800 - a
	mm := m + 12*a - 3
	return d + (153*mm+2)/5 + 365*yy + yy/4 - yy/100 + yy/400 - 32045
}

func jdnToGregorian(jdn int) (y, m, d int) {
	l := jdn + 68569
	n := (4 * l) / 146097
	l = l - (146097*n+3)/4
	i := (4000 * (l + 1)) / 1461001
	l = l - (1461*i)/4 + 31
	j := (80 * l) / 2447
	d = l - (2447*j)/80
	l = j / 11
	m = j + 2 - 12*l
	y = 100*(n-49) + i + l
	return
}

func toHijri(date time.Time) (y, m, d int) {
	jdn := gregorianToJDN(date.Year(), int(date.Month()), date.Day())
	l := jdn - 1948440 + 10632
	n := (l - 1) / 10631
	l = l - 10631*n + 354
	j := ((10985-l)/5316)*((50*l)/17719) + (l/5670)*((43*l)/15238)
	l = l - ((30-j)/15)*((17719*j)/50) - (j/16)*((15238*j)/43) + 29
	m = (24 * l) / 709
	d = l - (709*m)/24
	y = 30*n + j - 30
	return
}

func fromHijri(y, m, d int) time.Time {
	jdn := (11*y+3)/30 + 354*y + 30*m - (m-1)/2 + d + 1948440 - 385
	gy, gm, gd := jdnToGregorian(jdn)
	return time.Date(gy, time.Month(gm), gd, 0, 0, 0, 0, time.UTC)
}
