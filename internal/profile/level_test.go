package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveLevel_Boundaries(t *testing.T) {
	cases := []struct {
		xp    int
		level int
	}{
		{0, 1},
		{249, 1},
		{250, 2}, // 边界值归属更高等级
		{599, 2},
		{600, 3},
		{1199, 3},
		{1200, 4},
		{1999, 4},
		{2000, 5},
		{999999, 5},
	}
	for _, c := range cases {
		assert.Equal(t, c.level, ResolveLevel(c.xp), "xp=%d", c.xp)
	}
}

func TestResolveLevel_NegativeClampsToFloor(t *testing.T) {
	assert.Equal(t, MinLevel, ResolveLevel(-100))
}

func TestLevelTitles(t *testing.T) {
	assert.Equal(t, "Novice", LevelTitle(1))
	assert.Equal(t, "Apprentice", LevelTitle(2))
	assert.Equal(t, "Scholar", LevelTitle(3))
	assert.Equal(t, "Keeper", LevelTitle(4))
	assert.Equal(t, "Master", LevelTitle(5))
}

func TestLevelProgress(t *testing.T) {
	// 等级起点为0%
	assert.InDelta(t, 0.0, LevelProgress(0), 0.001)
	assert.InDelta(t, 0.0, LevelProgress(250), 0.001)

	// 250到600的中点
	assert.InDelta(t, 50.0, LevelProgress(425), 0.001)

	// 满级恒为100%
	assert.InDelta(t, 100.0, LevelProgress(2000), 0.001)
	assert.InDelta(t, 100.0, LevelProgress(5000), 0.001)
}

func TestMasteryThreshold(t *testing.T) {
	assert.Equal(t, 2000, MasteryThreshold())
	assert.Equal(t, MaxLevel, ResolveLevel(MasteryThreshold()))
}

func TestResolveGlobalTitle(t *testing.T) {
	cases := []struct {
		mastered int
		title    string
	}{
		{0, "Seeker"},
		{2, "Seeker"},
		{3, "Doorkeeper"},
		{7, "Doorkeeper"},
		{8, "Lampstand"},
		{14, "Lampstand"},
		{15, "Scribe"},
		{24, "Scribe"},
		{25, "Teacher of the House"},
		{39, "Teacher of the House"},
		{40, "Master of the Palace"},
		{100, "Master of the Palace"},
	}
	for _, c := range cases {
		assert.Equal(t, c.title, ResolveGlobalTitle(c.mastered), "mastered=%d", c.mastered)
	}
}

func TestResolveGlobalTitle_NeverEmpty(t *testing.T) {
	// 最低档门槛为0，任何计数都能命中一个称号
	for n := -5; n <= 50; n++ {
		assert.NotEmpty(t, ResolveGlobalTitle(n), "mastered=%d", n)
	}
}
