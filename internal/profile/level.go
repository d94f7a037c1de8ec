package profile

// --- 等级与称号规则表 ---

const (
	// MinLevel 和 MaxLevel 界定了房间等级的取值范围
	MinLevel = 1
	MaxLevel = 5
)

// levelThresholds[i] 是达到等级 i+1 所需的累计XP。
// 边界取闭区间：XP恰好等于门槛值时即达到该等级。
var levelThresholds = [MaxLevel]int{0, 250, 600, 1200, 2000}

// levelTitles[i] 是等级 i+1 的显示称号。
var levelTitles = [MaxLevel]string{"Novice", "Apprentice", "Scholar", "Keeper", "Master"}

// thresholdEntry 是升序阈值表的一行。
type thresholdEntry struct {
	Threshold int
	Title     string
}

// globalTitles 是全局称号轨道：按累计精通的房间数解析。
// 最低门槛必须为0，保证任何计数都能解析出称号。
var globalTitles = []thresholdEntry{
	{0, "Seeker"},
	{3, "Doorkeeper"},
	{8, "Lampstand"},
	{15, "Scribe"},
	{25, "Teacher of the House"},
	{40, "Master of the Palace"},
}

// resolveByThreshold 是所有阈值表共用的解析算法：
// 从高到低扫描升序表，返回第一个门槛 <= value 的行的下标。
// 表的首行门槛为0时永远有匹配。
func resolveByThreshold(table []thresholdEntry, value int) int {
	if value < 0 {
		value = 0 // 负数输入是调用方的契约违规，钳制到0而不是失败
	}
	for i := len(table) - 1; i >= 0; i-- {
		if table[i].Threshold <= value {
			return i
		}
	}
	return 0
}

// ResolveLevel 根据累计XP计算房间等级 [1,5]。
// 等级是“累计XP达到其门槛的最高等级”，门槛相等时取高等级。
func ResolveLevel(xp int) int {
	if xp < 0 {
		xp = 0 // 钳制，见resolveByThreshold
	}
	level := MinLevel
	for i := 0; i < MaxLevel; i++ {
		if xp >= levelThresholds[i] {
			level = i + 1
		}
	}
	return level
}

// LevelTitle 返回指定等级的显示称号。
func LevelTitle(level int) string {
	if level < MinLevel {
		level = MinLevel
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return levelTitles[level-1]
}

// MasteryThreshold 返回房间满级(精通)所需的累计XP。
func MasteryThreshold() int {
	return levelThresholds[MaxLevel-1]
}

// LevelProgress 计算当前等级内朝下一等级的进度百分比 [0,100]。
// 满级时定义为100，与剩余XP无关。
func LevelProgress(xp int) float64 {
	if xp < 0 {
		xp = 0
	}
	level := ResolveLevel(xp)
	if level >= MaxLevel {
		return 100
	}

	base := levelThresholds[level-1]
	next := levelThresholds[level]
	progress := float64(xp-base) / float64(next-base) * 100
	if progress > 100 {
		progress = 100
	}
	return progress
}

// ResolveGlobalTitle 根据累计精通的房间数解析全局称号。
func ResolveGlobalTitle(roomsMastered int) string {
	return globalTitles[resolveByThreshold(globalTitles, roomsMastered)].Title
}
