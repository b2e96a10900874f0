package cache

import (
	"time"
)

// KST は韓国取引所の取引時間のタイムゾーンです。
var KST = time.FixedZone("KST", 9*60*60)

const (
	sessionOpenHour    = 9
	sessionCloseHour   = 15
	sessionCloseMinute = 30
)

// InRegularSession はnowが平日の正規取引時間（KST 09:00〜15:30）内かどうかを返します。
func InRegularSession(now time.Time) bool {
	t := now.In(KST)
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	open := time.Date(t.Year(), t.Month(), t.Day(), sessionOpenHour, 0, 0, 0, KST)
	closeAt := time.Date(t.Year(), t.Month(), t.Day(), sessionCloseHour, sessionCloseMinute, 0, 0, KST)
	return !t.Before(open) && t.Before(closeAt)
}

// TimeUntilNextOpen は次の午前9時（韓国時間）までの期間を返します。
func TimeUntilNextOpen(now time.Time) time.Duration {
	t := now.In(KST)

	next := time.Date(t.Year(), t.Month(), t.Day(), sessionOpenHour, 0, 0, 0, KST)

	// 今日の午前9時が既に過ぎている場合は明日の午前9時を使用
	if !t.Before(next) {
		next = next.Add(24 * time.Hour)
	}

	return next.Sub(t)
}

// QuoteTTL は現在値キャッシュの有効期間を返します。
// 取引時間中はbaseを、時間外は値が変わらないため次の寄り付きまでを返します。
func QuoteTTL(now time.Time, base time.Duration) time.Duration {
	if InRegularSession(now) {
		return base
	}
	return TimeUntilNextOpen(now)
}
