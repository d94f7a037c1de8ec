package streak

import "time"

// Transition 描述一次日界判定的结果种类。
type Transition int

const (
	// TransitionStarted 首次活动，连击从1开始
	TransitionStarted Transition = iota
	// TransitionSameDay 同一UTC日内的重复活动，状态不变
	TransitionSameDay
	// TransitionExtended 恰好是次日，连击+1
	TransitionExtended
	// TransitionReset 间隔超过一天，连击回到1
	TransitionReset
	// TransitionRejected 活动时间早于已记录的最后活动日，拒绝入账
	TransitionRejected
)

// Result 是连击状态机单步推进后的新状态。
type Result struct {
	Transition      Transition
	CurrentStreak   int
	LongestStreak   int
	TotalActiveDays int
	ActivityDate    time.Time
}

// utcDay 把时间戳截断到UTC日历日零点。
func utcDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Advance 是连击状态机的纯转移函数：给定当前记录和一次活动的时间戳，
// 计算新状态。record为nil表示用户还没有连击记录。
// 不修改输入，调用方负责把结果落库。
func Advance(record *StreakRecord, activityAt time.Time) Result {
	day := utcDay(activityAt)

	if record == nil || record.TotalActiveDays == 0 {
		return Result{
			Transition:      TransitionStarted,
			CurrentStreak:   1,
			LongestStreak:   1,
			TotalActiveDays: 1,
			ActivityDate:    day,
		}
	}

	lastDay := utcDay(record.LastActivityDate)

	switch {
	case day.Equal(lastDay):
		return Result{
			Transition:      TransitionSameDay,
			CurrentStreak:   record.CurrentStreak,
			LongestStreak:   record.LongestStreak,
			TotalActiveDays: record.TotalActiveDays,
			ActivityDate:    lastDay,
		}

	case day.Before(lastDay):
		// 乱序到达的历史活动不允许回拨状态
		return Result{
			Transition:      TransitionRejected,
			CurrentStreak:   record.CurrentStreak,
			LongestStreak:   record.LongestStreak,
			TotalActiveDays: record.TotalActiveDays,
			ActivityDate:    lastDay,
		}

	case day.Equal(lastDay.AddDate(0, 0, 1)):
		current := record.CurrentStreak + 1
		longest := record.LongestStreak
		if current > longest {
			longest = current
		}
		return Result{
			Transition:      TransitionExtended,
			CurrentStreak:   current,
			LongestStreak:   longest,
			TotalActiveDays: record.TotalActiveDays + 1,
			ActivityDate:    day,
		}

	default:
		// 中断：间隔至少空了一整天
		longest := record.LongestStreak
		if longest < 1 {
			longest = 1
		}
		return Result{
			Transition:      TransitionReset,
			CurrentStreak:   1,
			LongestStreak:   longest,
			TotalActiveDays: record.TotalActiveDays + 1,
			ActivityDate:    day,
		}
	}
}
