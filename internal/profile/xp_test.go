package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestCalculateXP_DrillWithScore(t *testing.T) {
	// 满分训练：基础25 + 分数加成25
	xp := CalculateXP(ActivityEffort{
		DrillCompleted: true,
		DrillScore:     intPtr(100),
	})
	assert.Equal(t, 50, xp)

	// 80分训练：基础25 + floor(80/100*25)=20
	xp = CalculateXP(ActivityEffort{
		DrillCompleted: true,
		DrillScore:     intPtr(80),
	})
	assert.Equal(t, 45, xp)

	// 无分数训练只有基础分
	xp = CalculateXP(ActivityEffort{DrillCompleted: true})
	assert.Equal(t, 25, xp)
}

func TestCalculateXP_ScoreClamping(t *testing.T) {
	over := CalculateXP(ActivityEffort{DrillCompleted: true, DrillScore: intPtr(150)})
	exact := CalculateXP(ActivityEffort{DrillCompleted: true, DrillScore: intPtr(100)})
	assert.Equal(t, exact, over)

	under := CalculateXP(ActivityEffort{DrillCompleted: true, DrillScore: intPtr(-20)})
	zero := CalculateXP(ActivityEffort{DrillCompleted: true, DrillScore: intPtr(0)})
	assert.Equal(t, zero, under)
	assert.Equal(t, 25, under)
}

func TestCalculateXP_ScoreIgnoredWithoutDrill(t *testing.T) {
	// 分数只在完成训练时才计加成
	xp := CalculateXP(ActivityEffort{
		ExerciseCompleted: true,
		DrillScore:        intPtr(100),
	})
	assert.Equal(t, 15, xp)
}

func TestCalculateXP_AllComponents(t *testing.T) {
	xp := CalculateXP(ActivityEffort{
		DrillCompleted:    true,
		DrillScore:        intPtr(100),
		ExerciseCompleted: true,
		PerfectScore:      true,
		TimeBonus:         true,
	})
	assert.Equal(t, 25+25+15+20+10, xp)
}

func TestCalculateXP_EmptyEffort(t *testing.T) {
	assert.Equal(t, 0, CalculateXP(ActivityEffort{}))
}

func TestCalculateXP_Monotonic(t *testing.T) {
	// 分数加成随分数单调不减
	prev := -1
	for score := 0; score <= 100; score++ {
		xp := CalculateXP(ActivityEffort{DrillCompleted: true, DrillScore: intPtr(score)})
		assert.GreaterOrEqual(t, xp, prev, "score=%d", score)
		prev = xp
	}
}
