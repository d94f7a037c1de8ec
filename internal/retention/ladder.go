package retention

import "time"

// PassScore 是保持测验的及格线
const PassScore = 80

// Intervals 是测验阶梯的三档间隔（天），按升序排列。
var Intervals = [3]int{7, 14, 30}

// ValidInterval 判断间隔是否是阶梯中的合法档位。
func ValidInterval(days int) bool {
	for _, d := range Intervals {
		if d == days {
			return true
		}
	}
	return false
}

// RungStatus 是阶梯单档的状态。
type RungStatus struct {
	IntervalDays int
	// UnlocksAt 是该档位解锁的时刻：精通时间 + 间隔天数
	UnlocksAt time.Time
	// Unlocked 表示当前时刻已过解锁点
	Unlocked bool
	// Passed 表示已有任意一次通过的尝试
	Passed bool
	// Attempts 是历史尝试次数
	Attempts int
}

// LadderStatus 是一个房间的完整阶梯状态。
type LadderStatus struct {
	MasteredAt time.Time
	Rungs      [3]RungStatus
	// TrueMaster 在精通满30天且三档全部通过时为真
	TrueMaster bool
}

// unlockAt 计算某档位的解锁时刻。
func unlockAt(masteredAt time.Time, intervalDays int) time.Time {
	return masteredAt.AddDate(0, 0, intervalDays)
}

// Eligible 判断在now时刻能否参加某档位的测验：
// 档位已解锁且尚未通过。已通过的档位不再接受尝试。
func Eligible(masteredAt time.Time, intervalDays int, passed bool, now time.Time) bool {
	if passed {
		return false
	}
	return !now.Before(unlockAt(masteredAt, intervalDays))
}

// BuildLadder 根据精通时间和历史尝试构造阶梯状态。
// attempts 是该(用户,房间)的全部历史记录。
func BuildLadder(masteredAt time.Time, attempts []RetentionTestRecord, now time.Time) LadderStatus {
	status := LadderStatus{MasteredAt: masteredAt}

	passedCount := 0
	for i, d := range Intervals {
		rung := RungStatus{
			IntervalDays: d,
			UnlocksAt:    unlockAt(masteredAt, d),
		}
		rung.Unlocked = !now.Before(rung.UnlocksAt)
		for _, a := range attempts {
			if a.IntervalDays != d {
				continue
			}
			rung.Attempts++
			if a.Passed {
				rung.Passed = true
			}
		}
		if rung.Passed {
			passedCount++
		}
		status.Rungs[i] = rung
	}

	// True Master：满30天且三档全通过
	thirtyDays := unlockAt(masteredAt, Intervals[len(Intervals)-1])
	status.TrueMaster = passedCount == len(Intervals) && !now.Before(thirtyDays)
	return status
}
