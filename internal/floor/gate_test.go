package floor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateGate_FloorOneAlwaysOpen(t *testing.T) {
	d := EvaluateGate(map[int]bool{}, 1)
	assert.True(t, d.Eligible)
	assert.Equal(t, 0, d.NextRequiredFloor)
}

func TestEvaluateGate_BlockedByUnmasteredPredecessor(t *testing.T) {
	// 楼层1未精通时楼层2关闭
	d := EvaluateGate(map[int]bool{}, 2)
	assert.False(t, d.Eligible)
	assert.Equal(t, 1, d.NextRequiredFloor)
}

func TestEvaluateGate_ReportsFirstGap(t *testing.T) {
	// 1和3精通但2缺失：楼层4的闸门卡在2
	mastered := map[int]bool{1: true, 3: true}
	d := EvaluateGate(mastered, 4)
	assert.False(t, d.Eligible)
	assert.Equal(t, 2, d.NextRequiredFloor)
}

func TestEvaluateGate_AllPredecessorsMastered(t *testing.T) {
	mastered := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true, 6: true, 7: true}
	d := EvaluateGate(mastered, 8)
	assert.True(t, d.Eligible)
}

func TestMissingRequirements(t *testing.T) {
	const gate = 7

	// 普通层：课程和评估都缺
	missing := MissingRequirements(&FloorMasteryState{FloorNumber: 2}, gate)
	assert.Equal(t, []string{RequirementCurriculum, RequirementAssessment}, missing)

	// 课程已满时只剩评估
	missing = MissingRequirements(&FloorMasteryState{
		FloorNumber:       2,
		CurriculumPercent: 100,
	}, gate)
	assert.Equal(t, []string{RequirementAssessment}, missing)

	// 关键闸门层的试讲缺口单独列出
	missing = MissingRequirements(&FloorMasteryState{
		FloorNumber:       gate,
		CurriculumPercent: 100,
		AssessmentPassed:  true,
	}, gate)
	assert.Equal(t, []string{RequirementTeachingDemo}, missing)

	// 条件齐备时为空
	missing = MissingRequirements(&FloorMasteryState{
		FloorNumber:        gate,
		CurriculumPercent:  100,
		AssessmentPassed:   true,
		TeachingDemoPassed: true,
	}, gate)
	assert.Empty(t, missing)
}

func TestMasteryRequirementsMet(t *testing.T) {
	const gate = 7

	assert.False(t, MasteryRequirementsMet(nil, gate))

	// 课程未满
	assert.False(t, MasteryRequirementsMet(&FloorMasteryState{
		FloorNumber:       2,
		CurriculumPercent: 99.9,
		AssessmentPassed:  true,
	}, gate))

	// 评估未过
	assert.False(t, MasteryRequirementsMet(&FloorMasteryState{
		FloorNumber:       2,
		CurriculumPercent: 100,
	}, gate))

	// 普通层：课程+评估即可
	assert.True(t, MasteryRequirementsMet(&FloorMasteryState{
		FloorNumber:       2,
		CurriculumPercent: 100,
		AssessmentPassed:  true,
	}, gate))

	// 关键闸门层额外要求试讲
	assert.False(t, MasteryRequirementsMet(&FloorMasteryState{
		FloorNumber:       gate,
		CurriculumPercent: 100,
		AssessmentPassed:  true,
	}, gate))
	assert.True(t, MasteryRequirementsMet(&FloorMasteryState{
		FloorNumber:        gate,
		CurriculumPercent:  100,
		AssessmentPassed:   true,
		TeachingDemoPassed: true,
	}, gate))
}
