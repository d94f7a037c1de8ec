package profile

// --- XP规则常量 ---

const (
	// XPDrillBase 是完成一次操练的固定基础XP
	XPDrillBase = 25
	// XPDrillScoreBonusCap 是操练得分加成的上限：bonus = floor(score/100 * cap)
	XPDrillScoreBonusCap = 25
	// XPExercise 是完成一次房间练习的固定XP，独立于操练
	XPExercise = 15
	// XPPerfectBonus 是满分奖励，与其余各项叠加
	XPPerfectBonus = 20
	// XPTimeBonus 是限时奖励
	XPTimeBonus = 10
)

// ActivityEffort 是XP计算器的输入：一次学习活动中可加分的各个维度。
// DrillScore 只有在操练完成时才参与计算。
type ActivityEffort struct {
	DrillCompleted    bool
	ExerciseCompleted bool
	PerfectScore      bool
	TimeBonus         bool
	// DrillScore 是0-100的操练得分；nil表示本次活动没有计分
	DrillScore *int
}

// CalculateXP 根据活动描述计算XP增量。
// 纯函数：同样的输入永远得到同样的输出，结果永远非负，各项独立叠加。
func CalculateXP(e ActivityEffort) int {
	xp := 0

	if e.DrillCompleted {
		xp += XPDrillBase
		if e.DrillScore != nil {
			score := *e.DrillScore
			if score < 0 {
				score = 0
			}
			if score > 100 {
				score = 100
			}
			xp += score * XPDrillScoreBonusCap / 100
		}
	}

	if e.ExerciseCompleted {
		xp += XPExercise
	}

	if e.PerfectScore {
		xp += XPPerfectBonus
	}

	if e.TimeBonus {
		xp += XPTimeBonus
	}

	return xp
}
