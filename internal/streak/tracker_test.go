package streak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func dayAt(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

func TestAdvance_FirstActivity(t *testing.T) {
	r := Advance(nil, dayAt(2026, 3, 10, 15))
	assert.Equal(t, TransitionStarted, r.Transition)
	assert.Equal(t, 1, r.CurrentStreak)
	assert.Equal(t, 1, r.LongestStreak)
	assert.Equal(t, 1, r.TotalActiveDays)
	assert.Equal(t, dayAt(2026, 3, 10, 0), r.ActivityDate)
}

func TestAdvance_SameDayIsIdempotent(t *testing.T) {
	record := &StreakRecord{
		CurrentStreak:    4,
		LongestStreak:    6,
		TotalActiveDays:  20,
		LastActivityDate: dayAt(2026, 3, 10, 0),
	}

	// 同一UTC日内的晚些时候
	r := Advance(record, dayAt(2026, 3, 10, 23))
	assert.Equal(t, TransitionSameDay, r.Transition)
	assert.Equal(t, 4, r.CurrentStreak)
	assert.Equal(t, 20, r.TotalActiveDays)
}

func TestAdvance_ConsecutiveDayExtends(t *testing.T) {
	record := &StreakRecord{
		CurrentStreak:    4,
		LongestStreak:    4,
		TotalActiveDays:  10,
		LastActivityDate: dayAt(2026, 3, 10, 0),
	}

	r := Advance(record, dayAt(2026, 3, 11, 1))
	assert.Equal(t, TransitionExtended, r.Transition)
	assert.Equal(t, 5, r.CurrentStreak)
	assert.Equal(t, 5, r.LongestStreak, "最长连击应随当前连击刷新")
	assert.Equal(t, 11, r.TotalActiveDays)
}

func TestAdvance_GapResets(t *testing.T) {
	record := &StreakRecord{
		CurrentStreak:    9,
		LongestStreak:    9,
		TotalActiveDays:  30,
		LastActivityDate: dayAt(2026, 3, 10, 0),
	}

	// 空了一整天
	r := Advance(record, dayAt(2026, 3, 12, 8))
	assert.Equal(t, TransitionReset, r.Transition)
	assert.Equal(t, 1, r.CurrentStreak)
	assert.Equal(t, 9, r.LongestStreak, "最长连击不受中断影响")
	assert.Equal(t, 31, r.TotalActiveDays)
}

func TestAdvance_BackdatedRejected(t *testing.T) {
	record := &StreakRecord{
		CurrentStreak:    3,
		LongestStreak:    5,
		TotalActiveDays:  12,
		LastActivityDate: dayAt(2026, 3, 10, 0),
	}

	r := Advance(record, dayAt(2026, 3, 8, 12))
	assert.Equal(t, TransitionRejected, r.Transition)
	assert.Equal(t, 3, r.CurrentStreak)
	assert.Equal(t, 12, r.TotalActiveDays)
}

func TestAdvance_UTCDayBoundary(t *testing.T) {
	record := &StreakRecord{
		CurrentStreak:    1,
		LongestStreak:    1,
		TotalActiveDays:  1,
		LastActivityDate: dayAt(2026, 3, 10, 0),
	}

	// 23:59和次日00:01隔着UTC日界
	r := Advance(record, time.Date(2026, 3, 11, 0, 1, 0, 0, time.UTC))
	assert.Equal(t, TransitionExtended, r.Transition)

	// 非UTC时区的时间戳按其UTC等价时刻判定
	est := time.FixedZone("EST", -5*3600)
	r = Advance(record, time.Date(2026, 3, 10, 20, 0, 0, 0, est)) // UTC 3月11日 01:00
	assert.Equal(t, TransitionExtended, r.Transition)
	assert.Equal(t, 2, r.CurrentStreak)
}

func TestIsStreakAlive(t *testing.T) {
	now := dayAt(2026, 3, 12, 10)

	assert.False(t, IsStreakAlive(nil, now))
	assert.False(t, IsStreakAlive(&StreakRecord{}, now))

	today := &StreakRecord{TotalActiveDays: 1, LastActivityDate: dayAt(2026, 3, 12, 0)}
	assert.True(t, IsStreakAlive(today, now))

	yesterday := &StreakRecord{TotalActiveDays: 1, LastActivityDate: dayAt(2026, 3, 11, 0)}
	assert.True(t, IsStreakAlive(yesterday, now))

	stale := &StreakRecord{TotalActiveDays: 1, LastActivityDate: dayAt(2026, 3, 10, 0)}
	assert.False(t, IsStreakAlive(stale, now))
}
