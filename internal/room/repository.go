package room

import (
	"fmt"
	"sync"

	"github.com/phototheology/palace-backend/internal/platform/database"
	"github.com/phototheology/palace-backend/pkg/tree"
)

// --- In-memory Repository ---

// repository 是room模块的中央数据仓库。
// 静态目录在启动时加载进内存，之后只读；
// 权重树是唯一的可变部分，用于“冷门房间优先”的推荐抽样。
type repository struct {
	// 内存中的静态数据，启动后只读
	idToIndex    map[string]int
	indexToInfo  []RoomInfo
	indexToID    []string
	floorToCount map[int]int

	// 用于推荐抽样的动态权重树
	weightsTree *tree.SegmentTree
	rwLock      sync.RWMutex
}

// globalRepository 是仓库的私有单例实例
var globalRepository *repository

// InitializeRepository 从数据库加载静态房间目录，初始化内存仓库。
// 这个函数应该在应用启动时且仅调用一次。
func InitializeRepository() error {
	var roomsFromDB []Room
	if err := database.DB.Order("id asc").Find(&roomsFromDB).Error; err != nil {
		return fmt.Errorf("无法从数据库加载房间目录: %w", err)
	}

	size := len(roomsFromDB)
	if size == 0 {
		return fmt.Errorf("房间目录为空，无法初始化仓库")
	}

	globalRepository = &repository{
		idToIndex:    make(map[string]int, size),
		indexToInfo:  make([]RoomInfo, size),
		indexToID:    make([]string, size),
		floorToCount: make(map[int]int),
	}

	for i, r := range roomsFromDB {
		globalRepository.idToIndex[r.RoomID] = i
		globalRepository.indexToID[i] = r.RoomID
		globalRepository.indexToInfo[i] = RoomInfo{
			Name:        r.Name,
			Description: r.Description,
			Floor:       r.Floor,
		}
		globalRepository.floorToCount[r.Floor]++
	}

	segTree, err := tree.NewSegmentTree(size)
	if err != nil {
		return fmt.Errorf("无法创建线段树: %w", err)
	}
	// 树的初始权重将在WarmupCache阶段根据动态数据进行重建
	globalRepository.weightsTree = segTree

	fmt.Printf("房间仓库 (Repository) 初始化成功，加载了 %d 个房间。\n", size)
	return nil
}

// --- Public Methods for Concurrency Control ---

// RLockRepository 获取用于读取权重树的读锁。
func RLockRepository() {
	globalRepository.rwLock.RLock()
}

// RUnlockRepository 释放读锁。
func RUnlockRepository() {
	globalRepository.rwLock.RUnlock()
}

// LockRepository 获取用于写入权重树的写锁。
func LockRepository() {
	globalRepository.rwLock.Lock()
}

// UnlockRepository 释放写锁。
func UnlockRepository() {
	globalRepository.rwLock.Unlock()
}

// --- Public Methods for Data Access ---
// 这些方法是线程安全的，因为它们访问的是启动后只读的数据。

func GetRoomCount() int {
	if globalRepository == nil {
		return 0
	}
	return len(globalRepository.indexToInfo)
}

// GetFloorRoomCount 返回指定层的房间总数，floor模块用它折算课程完成度。
func GetFloorRoomCount(floor int) int {
	if globalRepository == nil {
		return 0
	}
	return globalRepository.floorToCount[floor]
}

// GetRoomIDsByFloor 返回指定层的全部RoomID。
func GetRoomIDsByFloor(floor int) []string {
	if globalRepository == nil {
		return nil
	}
	ids := make([]string, 0, globalRepository.floorToCount[floor])
	for i, info := range globalRepository.indexToInfo {
		if info.Floor == floor {
			ids = append(ids, globalRepository.indexToID[i])
		}
	}
	return ids
}

func GetRoomInfoByIndex(index int) (RoomInfo, bool) {
	if globalRepository == nil || index < 0 || index >= len(globalRepository.indexToInfo) {
		return RoomInfo{}, false
	}
	return globalRepository.indexToInfo[index], true
}

func GetRoomIDByIndex(index int) (string, bool) {
	if globalRepository == nil || index < 0 || index >= len(globalRepository.indexToID) {
		return "", false
	}
	return globalRepository.indexToID[index], true
}

func GetRoomIndexByID(id string) (int, bool) {
	if globalRepository == nil {
		return -1, false
	}
	index, ok := globalRepository.idToIndex[id]
	return index, ok
}

// GetRoomInfoByID 按RoomID返回静态信息。
func GetRoomInfoByID(id string) (RoomInfo, bool) {
	index, ok := GetRoomIndexByID(id)
	if !ok {
		return RoomInfo{}, false
	}
	return GetRoomInfoByIndex(index)
}

// --- Unsafe Methods for Internal Use ---
// 这些方法必须在手动获取锁之后才能被安全调用。

func GetTotalWeightUnsafe() float64 {
	return globalRepository.weightsTree.TotalSum()
}

func GetWeightUnsafe(index int) (float64, error) {
	return globalRepository.weightsTree.Query(index)
}

func UpdateWeightUnsafe(index int, weight float64) error {
	return globalRepository.weightsTree.Update(index, weight)
}

func FindByWeightUnsafe(weight float64) (int, error) {
	return globalRepository.weightsTree.Find(weight)
}

func RebuildWeightsUnsafe(weights []float64) error {
	return globalRepository.weightsTree.Rebuild(weights)
}
