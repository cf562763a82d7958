package expr

import (
	"fmt"
	"time"

	"github.com/scigolib/bitproto/internal/xerrors"
)

// outOfRange builds the specific taxonomy error spec.md §6.4 requires
// for a relative-time encoder whose computed value doesn't fit the
// wire field's declared width, instead of a plain error that the
// caller would otherwise have to blanket-classify as a generic
// expression failure.
func outOfRange(format string, args ...interface{}) error {
	return xerrors.New(xerrors.KindValueOutOfRange, xerrors.StageDerive, "", fmt.Errorf(format, args...))
}

// Relative-time conventions per spec.md §6.4: fixed field widths, all
// big-endian, base time given as "yyyy-MM-dd HH:mm:ss[.SSS]". Every
// encode form returns the packed integer that a field of the documented
// byte width stores verbatim (unsigned, except relativeDay's signed day
// offset); decode forms return a formatted string.

const (
	timeLayoutMS = "2006-01-02 15:04:05.000"
	timeLayout   = "2006-01-02 15:04:05"
)

func parseBaseTime(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(timeLayoutMS, s, time.UTC); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(timeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid base time %q: %w", s, err)
	}
	return t, nil
}

func relativeDayEncode(base, target string) (int64, error) {
	bt, err := parseBaseTime(base)
	if err != nil {
		return 0, err
	}
	tt, err := parseBaseTime(target)
	if err != nil {
		return 0, err
	}
	days := int64(tt.Sub(bt).Hours() / 24)
	if days < -32768 || days > 32767 {
		return 0, outOfRange("relativeDay: %d days out of signed 16-bit range", days)
	}
	return days, nil
}

func relativeDayDecode(base string, days int64) (string, error) {
	bt, err := parseBaseTime(base)
	if err != nil {
		return "", err
	}
	return bt.AddDate(0, 0, int(days)).Format(timeLayout), nil
}

func relativeSecondEncode(base, target string) (uint64, error) {
	bt, err := parseBaseTime(base)
	if err != nil {
		return 0, err
	}
	tt, err := parseBaseTime(target)
	if err != nil {
		return 0, err
	}
	secs := int64(tt.Sub(bt).Seconds())
	if secs < 0 || secs > 0xFFFFFFFF {
		return 0, outOfRange("relativeSecond: %d seconds out of unsigned 32-bit range", secs)
	}
	return uint64(secs), nil
}

func relativeSecondDecode(base string, secs uint64) (string, error) {
	bt, err := parseBaseTime(base)
	if err != nil {
		return "", err
	}
	return bt.Add(time.Duration(secs) * time.Second).Format(timeLayout), nil
}

func relativeMillisecondEncode(base, target string) (uint64, error) {
	bt, err := parseBaseTime(base)
	if err != nil {
		return 0, err
	}
	tt, err := parseBaseTime(target)
	if err != nil {
		return 0, err
	}
	ms := tt.Sub(bt).Milliseconds()
	if ms < 0 || ms > 0xFFFFFFFF {
		return 0, outOfRange("relativeMillisecond: %d ms out of unsigned 32-bit range", ms)
	}
	return uint64(ms), nil
}

func relativeMillisecondDecode(base string, ms uint64) (string, error) {
	bt, err := parseBaseTime(base)
	if err != nil {
		return "", err
	}
	return bt.Add(time.Duration(ms) * time.Millisecond).Format(timeLayoutMS), nil
}

func relativeDayAndSecondEncode(base, target string) (uint64, error) {
	bt, err := parseBaseTime(base)
	if err != nil {
		return 0, err
	}
	tt, err := parseBaseTime(target)
	if err != nil {
		return 0, err
	}
	diff := tt.Sub(bt)
	days := int64(diff.Hours() / 24)
	if days < -32768 || days > 32767 {
		return 0, outOfRange("relativeDayAndSecond: %d days out of signed 16-bit range", days)
	}
	dayStart := bt.AddDate(0, 0, int(days))
	intraSecs := uint32(tt.Sub(dayStart).Seconds())
	return (uint64(uint16(days)) << 32) | uint64(intraSecs), nil
}

func relativeDayAndSecondDecode(base string, packed uint64) (string, error) {
	bt, err := parseBaseTime(base)
	if err != nil {
		return "", err
	}
	days := int16(packed >> 32)
	secs := uint32(packed & 0xFFFFFFFF)
	t := bt.AddDate(0, 0, int(days)).Add(time.Duration(secs) * time.Second)
	return t.Format(timeLayout), nil
}

func relativeDayAndMillisecondEncode(base, target string) (uint64, error) {
	bt, err := parseBaseTime(base)
	if err != nil {
		return 0, err
	}
	tt, err := parseBaseTime(target)
	if err != nil {
		return 0, err
	}
	diff := tt.Sub(bt)
	days := int64(diff.Hours() / 24)
	if days < -32768 || days > 32767 {
		return 0, outOfRange("relativeDayAndMillisecond: %d days out of signed 16-bit range", days)
	}
	dayStart := bt.AddDate(0, 0, int(days))
	intraMS := uint32(tt.Sub(dayStart).Milliseconds())
	return (uint64(uint16(days)) << 32) | uint64(intraMS), nil
}

func relativeDayAndMillisecondDecode(base string, packed uint64) (string, error) {
	bt, err := parseBaseTime(base)
	if err != nil {
		return "", err
	}
	days := int16(packed >> 32)
	ms := uint32(packed & 0xFFFFFFFF)
	t := bt.AddDate(0, 0, int(days)).Add(time.Duration(ms) * time.Millisecond)
	return t.Format(timeLayoutMS), nil
}

func mondayStartOfWeek(t time.Time) time.Time {
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return midnight.AddDate(0, 0, -(wd - 1))
}

func relativeWeekAndSecondEncode(base, target string) (uint64, error) {
	bt, err := parseBaseTime(base)
	if err != nil {
		return 0, err
	}
	tt, err := parseBaseTime(target)
	if err != nil {
		return 0, err
	}
	baseWeekStart := mondayStartOfWeek(bt)
	targetWeekStart := mondayStartOfWeek(tt)
	weeks := int64(targetWeekStart.Sub(baseWeekStart).Hours() / (24 * 7))
	if weeks < -32768 || weeks > 32767 {
		return 0, outOfRange("relativeWeekAndSecond: %d weeks out of signed 16-bit range", weeks)
	}
	intraSecs := uint32(tt.Sub(targetWeekStart).Seconds())
	return (uint64(uint16(weeks)) << 32) | uint64(intraSecs), nil
}

func relativeWeekAndSecondDecode(base string, packed uint64) (string, error) {
	bt, err := parseBaseTime(base)
	if err != nil {
		return "", err
	}
	weeks := int16(packed >> 32)
	secs := uint32(packed & 0xFFFFFFFF)
	weekStart := mondayStartOfWeek(bt).AddDate(0, 0, int(weeks)*7)
	t := weekStart.Add(time.Duration(secs) * time.Second)
	return t.Format(timeLayout), nil
}

func relativeSecondAndMillisecondEncode(base, target string) (uint64, error) {
	bt, err := parseBaseTime(base)
	if err != nil {
		return 0, err
	}
	tt, err := parseBaseTime(target)
	if err != nil {
		return 0, err
	}
	diff := tt.Sub(bt)
	totalMS := diff.Milliseconds()
	if totalMS < 0 {
		return 0, outOfRange("relativeSecondAndMillisecond: negative duration")
	}
	secs := uint32(totalMS / 1000)
	ms := uint16(totalMS % 1000)
	return (uint64(secs) << 16) | uint64(ms), nil
}

func relativeSecondAndMillisecondDecode(base string, packed uint64) (string, error) {
	bt, err := parseBaseTime(base)
	if err != nil {
		return "", err
	}
	secs := uint32(packed >> 16)
	ms := uint16(packed & 0xFFFF)
	t := bt.Add(time.Duration(secs)*time.Second + time.Duration(ms)*time.Millisecond)
	return t.Format(timeLayoutMS), nil
}

func relativeTenthMillisecondEncode(base, target string) (uint64, error) {
	bt, err := parseBaseTime(base)
	if err != nil {
		return 0, err
	}
	tt, err := parseBaseTime(target)
	if err != nil {
		return 0, err
	}
	units := tt.Sub(bt).Nanoseconds() / (100 * 1000)
	if units < 0 || units > 0xFFFFFFFF {
		return 0, outOfRange("relativeTenthMillisecond: %d units out of unsigned 32-bit range", units)
	}
	return uint64(units), nil
}

func relativeTenthMillisecondDecode(base string, units uint64) (string, error) {
	bt, err := parseBaseTime(base)
	if err != nil {
		return "", err
	}
	return bt.Add(time.Duration(units) * 100 * time.Microsecond).Format(timeLayoutMS), nil
}
