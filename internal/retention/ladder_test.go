package retention

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var masteredAt = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func daysAfter(n int) time.Time {
	return masteredAt.AddDate(0, 0, n)
}

func TestValidInterval(t *testing.T) {
	assert.True(t, ValidInterval(7))
	assert.True(t, ValidInterval(14))
	assert.True(t, ValidInterval(30))
	assert.False(t, ValidInterval(0))
	assert.False(t, ValidInterval(10))
	assert.False(t, ValidInterval(-7))
}

func TestEligible_BeforeUnlock(t *testing.T) {
	// 精通后第6天不能参加7天档
	assert.False(t, Eligible(masteredAt, 7, false, daysAfter(6)))
}

func TestEligible_AtAndAfterUnlock(t *testing.T) {
	assert.True(t, Eligible(masteredAt, 7, false, daysAfter(7)))
	assert.True(t, Eligible(masteredAt, 7, false, daysAfter(100)))
}

func TestEligible_PassedRungClosed(t *testing.T) {
	// 已通过的档位不再接受尝试
	assert.False(t, Eligible(masteredAt, 7, true, daysAfter(10)))
}

func TestBuildLadder_FreshMastery(t *testing.T) {
	status := BuildLadder(masteredAt, nil, daysAfter(1))
	assert.False(t, status.TrueMaster)
	for i, d := range Intervals {
		assert.Equal(t, d, status.Rungs[i].IntervalDays)
		assert.False(t, status.Rungs[i].Unlocked)
		assert.False(t, status.Rungs[i].Passed)
		assert.Equal(t, 0, status.Rungs[i].Attempts)
	}
}

func TestBuildLadder_PartialProgress(t *testing.T) {
	attempts := []RetentionTestRecord{
		{IntervalDays: 7, Score: 60, Passed: false, TakenAt: daysAfter(7)},
		{IntervalDays: 7, Score: 85, Passed: true, TakenAt: daysAfter(8)},
	}
	status := BuildLadder(masteredAt, attempts, daysAfter(15))

	assert.True(t, status.Rungs[0].Passed)
	assert.Equal(t, 2, status.Rungs[0].Attempts, "失败的尝试也计入历史")
	assert.True(t, status.Rungs[1].Unlocked)
	assert.False(t, status.Rungs[1].Passed)
	assert.False(t, status.Rungs[2].Unlocked)
	assert.False(t, status.TrueMaster)
}

func TestBuildLadder_TrueMaster(t *testing.T) {
	attempts := []RetentionTestRecord{
		{IntervalDays: 7, Score: 90, Passed: true, TakenAt: daysAfter(7)},
		{IntervalDays: 14, Score: 88, Passed: true, TakenAt: daysAfter(14)},
		{IntervalDays: 30, Score: 95, Passed: true, TakenAt: daysAfter(30)},
	}
	status := BuildLadder(masteredAt, attempts, daysAfter(30))
	assert.True(t, status.TrueMaster)
}

func TestBuildLadder_AllPassedButUnder30Days(t *testing.T) {
	// 三档都有通过记录但时间未到30天时不是True Master
	attempts := []RetentionTestRecord{
		{IntervalDays: 7, Score: 90, Passed: true},
		{IntervalDays: 14, Score: 88, Passed: true},
		{IntervalDays: 30, Score: 95, Passed: true},
	}
	status := BuildLadder(masteredAt, attempts, daysAfter(20))
	assert.False(t, status.TrueMaster)
}

func TestBuildLadder_UnlockBoundary(t *testing.T) {
	// 恰好在解锁时刻
	status := BuildLadder(masteredAt, nil, daysAfter(7))
	assert.True(t, status.Rungs[0].Unlocked)
	assert.False(t, status.Rungs[1].Unlocked)
}
