package user

// 定义与用户相关的Redis键名
const (
	// KnownUsersKey 是一个Set，用于快速判断一个UUID是否是已激活的合法用户。
	// Key: known_users
	// Member: User UUID (e.g., "018f4e2a-....")
	KnownUsersKey = "known_users"
)
