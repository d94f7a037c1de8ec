package floor

// AssessmentPassScore 是楼层评估的及格线
const AssessmentPassScore = 80

// GateDecision 是顺序闸门对单个楼层的判定结果。
type GateDecision struct {
	// Eligible 表示所有前置楼层均已精通
	Eligible bool
	// NextRequiredFloor 是第一个未精通的前置楼层；Eligible为true时为0
	NextRequiredFloor int
}

// EvaluateGate 判定用户能否在目标楼层上获得精通授予。
// mastered[n] 为楼层n是否已精通。楼层必须严格按序解锁：
// 楼层N的前置是1..N-1全部精通，任何一层缺失都会关闭闸门。
func EvaluateGate(mastered map[int]bool, targetFloor int) GateDecision {
	for f := 1; f < targetFloor; f++ {
		if !mastered[f] {
			return GateDecision{Eligible: false, NextRequiredFloor: f}
		}
	}
	return GateDecision{Eligible: true}
}

// 精通条件的缺失项标识，拒绝授予时随响应返回，告知前端还差什么。
const (
	RequirementCurriculum   = "curriculum"
	RequirementAssessment   = "assessment"
	RequirementTeachingDemo = "teachingDemo"
)

// MissingRequirements 列出楼层自身尚未满足的精通条件：
// 课程未全部完成、评估未通过，关键闸门层还可能缺试讲。
// 顺序闸门由 EvaluateGate 单独判定。
func MissingRequirements(state *FloorMasteryState, criticalGateFloor int) []string {
	if state == nil {
		return []string{RequirementCurriculum, RequirementAssessment}
	}
	var missing []string
	if state.CurriculumPercent < 100 {
		missing = append(missing, RequirementCurriculum)
	}
	if !state.AssessmentPassed {
		missing = append(missing, RequirementAssessment)
	}
	if state.FloorNumber == criticalGateFloor && !state.TeachingDemoPassed {
		missing = append(missing, RequirementTeachingDemo)
	}
	return missing
}

// MasteryRequirementsMet 判定楼层自身的精通条件是否齐备。
// 它和 EvaluateGate 都满足才可授予。
func MasteryRequirementsMet(state *FloorMasteryState, criticalGateFloor int) bool {
	return state != nil && len(MissingRequirements(state, criticalGateFloor)) == 0
}
