package room

// 定义与房间相关的Redis键名
const (
	// InfoKey 是一个Redis Hash，存储所有房间的静态信息
	InfoKey = "room_info"
	// StatsKey 是一个Redis Hash，存储所有房间的动态统计数据
	StatsKey = "room_stats"
)

// RoomInfo 定义了在Redis room_info Hash中存储的房间静态数据
type RoomInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Floor       int    `json:"floor"`
}

// RoomStats 定义了在Redis room_stats Hash中存储的房间动态数据
type RoomStats struct {
	Completions int `json:"completions"`
}
