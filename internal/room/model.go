package room

import "gorm.io/gorm"

// Room 定义了数据库中宫殿房间的数据结构。
// 房间是课程体系里最小的可精通单元，隶属于1..8层中的某一层。
type Room struct {
	// gorm.Model 包含 ID, CreatedAt, UpdatedAt, DeletedAt
	gorm.Model

	// RoomID 是房间的唯一字符串ID, 例如 "F1_STORY"
	// 我们将使用它作为业务逻辑中的主键
	RoomID string `gorm:"uniqueIndex;not null" json:"id"`

	// Name 是房间的显示名称, 例如 "Story Room"
	Name string `json:"name"`

	// Description 是房间的学习内容简介
	Description string `json:"description"`

	// Floor 是房间所属的宫殿层数 (1..8)
	Floor int `gorm:"index" json:"floor"`

	// --- 以下是用于推荐抽样的动态字段 ---

	// Completions 是该房间被完成练习的全局总次数
	Completions int `json:"completions"`
}
