package metadata

// --- SQLite键 ---
// 这些键用于metadata表的key列。
const (
	// LastSnapshotActivityIDKey 存储最近一次成功快照所包含的
	// 最后一条活动记录的ID。
	LastSnapshotActivityIDKey = "last_snapshot_activity_id"

	// SnapshotTotalActivitiesKey 存储截至最近一次成功快照时，
	// 已处理的活动事件总数。
	SnapshotTotalActivitiesKey = "snapshot_total_activities"
)

// --- Redis键 ---
const (
	// RedisLastProcessedActivityIDKey 是一个Redis String，
	// 存储ActivityProcessor已成功应用到Redis视图的最后一条活动记录的ID。
	// 这是实时的检查点。
	RedisLastProcessedActivityIDKey = "meta:last_processed_activity_id"

	// RedisTotalActivitiesKey 是一个Redis String计数器，
	// 存储实时的已处理活动事件总数。
	RedisTotalActivitiesKey = "meta:total_activities"
)
