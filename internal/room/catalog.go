package room

// palaceCatalog 是宫殿课程的静态目录：8层，每层若干房间。
// 首次启动时它会被写入数据库；之后数据库是目录的权威来源。
var palaceCatalog = []Room{
	// 第1层 —— 叙事基础
	{RoomID: "F1_STORY", Name: "Story Room", Description: "以叙事顺序通读圣经故事主线", Floor: 1},
	{RoomID: "F1_IMAGINATION", Name: "Imagination Room", Description: "用图像化记忆法固定每章的核心画面", Floor: 1},
	{RoomID: "F1_FURNITURE", Name: "Furniture Room", Description: "圣所器具与其象征意义", Floor: 1},
	{RoomID: "F1_CHAPTER", Name: "Chapter Gallery", Description: "按章配图的速览画廊", Floor: 1},

	// 第2层 —— 结构与脉络
	{RoomID: "F2_TIMELINE", Name: "Timeline Hall", Description: "从创世到启示的时间线梳理", Floor: 2},
	{RoomID: "F2_COVENANT", Name: "Covenant Room", Description: "七大圣约的结构与关联", Floor: 2},
	{RoomID: "F2_GEOGRAPHY", Name: "Geography Room", Description: "圣经地理与路线记忆", Floor: 2},
	{RoomID: "F2_GENEALOGY", Name: "Genealogy Room", Description: "家谱与支派脉络", Floor: 2},

	// 第3层 —— 律法与诗歌
	{RoomID: "F3_TORAH", Name: "Torah Room", Description: "摩西五经的主题精读", Floor: 3},
	{RoomID: "F3_PSALMS", Name: "Psalms Room", Description: "诗篇的分类与背诵", Floor: 3},
	{RoomID: "F3_WISDOM", Name: "Wisdom Room", Description: "智慧书的文体与钥句", Floor: 3},
	{RoomID: "F3_FEASTS", Name: "Feasts Room", Description: "节期历法与预表", Floor: 3},

	// 第4层 —— 先知书
	{RoomID: "F4_MAJOR", Name: "Major Prophets Room", Description: "大先知书的时代背景与信息", Floor: 4},
	{RoomID: "F4_MINOR", Name: "Minor Prophets Room", Description: "十二小先知逐卷掌握", Floor: 4},
	{RoomID: "F4_DANIEL", Name: "Daniel Room", Description: "但以理书的异象结构", Floor: 4},
	{RoomID: "F4_EXILE", Name: "Exile Room", Description: "被掳与归回的历史线", Floor: 4},

	// 第5层 —— 福音书
	{RoomID: "F5_HARMONY", Name: "Harmony Room", Description: "四福音合参与事件排序", Floor: 5},
	{RoomID: "F5_PARABLES", Name: "Parables Room", Description: "比喻的分组与释义", Floor: 5},
	{RoomID: "F5_MIRACLES", Name: "Miracles Room", Description: "神迹叙事的主题线索", Floor: 5},
	{RoomID: "F5_PASSION", Name: "Passion Week Room", Description: "受难周逐日梳理", Floor: 5},

	// 第6层 —— 教会与书信
	{RoomID: "F6_ACTS", Name: "Acts Room", Description: "使徒行传的宣教路线", Floor: 6},
	{RoomID: "F6_PAULINE", Name: "Pauline Room", Description: "保罗书信的写作场景与论证", Floor: 6},
	{RoomID: "F6_GENERAL", Name: "General Epistles Room", Description: "普通书信的主题与受众", Floor: 6},
	{RoomID: "F6_DOCTRINE", Name: "Doctrine Room", Description: "核心教义的经文链", Floor: 6},

	// 第7层 —— 预言与启示
	{RoomID: "F7_REVELATION", Name: "Revelation Room", Description: "启示录的结构与象征", Floor: 7},
	{RoomID: "F7_SANCTUARY", Name: "Sanctuary Room", Description: "圣所模型贯穿全书的主线", Floor: 7},
	{RoomID: "F7_PROPHECY", Name: "Prophecy Chart Room", Description: "预言图表的对照记忆", Floor: 7},
	{RoomID: "F7_TYPOLOGY", Name: "Typology Room", Description: "预表学的配对练习", Floor: 7},

	// 第8层 —— 整合与教导
	{RoomID: "F8_SYNTHESIS", Name: "Synthesis Room", Description: "全书大纲的整合复述", Floor: 8},
	{RoomID: "F8_TEACHING", Name: "Teaching Room", Description: "向他人讲解宫殿体系的教学练习", Floor: 8},
	{RoomID: "F8_MEMORY", Name: "Memory Palace Room", Description: "整座宫殿的记忆巡游", Floor: 8},
	{RoomID: "F8_CAPSTONE", Name: "Capstone Room", Description: "综合测验与答辩准备", Floor: 8},
}
