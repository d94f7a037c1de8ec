package health

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/phototheology/palace-backend/internal/platform/database"
	"github.com/phototheology/palace-backend/internal/platform/startup"
)

const (
	checkInterval = 5 * time.Second
	pingTimeout   = 2 * time.Second
)

var runIDPattern = regexp.MustCompile(`run_id:([a-f0-9]+)`)

// getRedisRunID 从INFO server段中提取本次Redis进程的run_id。
// run_id在进程重启后必然变化，是判断缓存是否失效的依据。
func getRedisRunID() (string, error) {
	ctx, cancel := context.WithTimeout(database.Ctx, pingTimeout)
	defer cancel()
	info, err := database.RDB.Info(ctx, "server").Result()
	if err != nil {
		return "", err
	}
	matches := runIDPattern.FindStringSubmatch(info)
	if len(matches) < 2 {
		return "", fmt.Errorf("INFO server中缺少run_id字段")
	}
	return matches[1], nil
}

// InitializeRunID 在启动时记录当前Redis进程的run_id，作为后续比对的基准。
func InitializeRunID() {
	runID, err := getRedisRunID()
	if err != nil {
		panic(fmt.Sprintf("启动时读取Redis run_id失败: %v", err))
	}
	database.SetInitialRunID(runID)
	fmt.Printf("Redis run_id基准已记录: %s\n", runID)
}

// triggerAtomicRebuild 重建热缓存，并验证重建期间Redis没有再次重启。
// 重建前后run_id不一致说明中途又发生了重启，本次重建作废。
func triggerAtomicRebuild(idBeforeRebuild string) bool {
	fmt.Println("检测到Redis重启，开始重建热缓存...")
	if err := startup.RebuildCache(); err != nil {
		fmt.Printf("热缓存重建失败: %v\n", err)
		return false
	}

	idAfterRebuild, err := getRedisRunID()
	if err != nil {
		fmt.Println("重建完成后Redis不可达，本次重建作废。")
		return false
	}
	if idBeforeRebuild != idAfterRebuild {
		fmt.Printf("重建期间Redis又重启了一次 (run_id %s -> %s)，本次重建作废。\n", idBeforeRebuild, idAfterRebuild)
		return false
	}

	fmt.Println("热缓存重建完成，run_id校验通过。")
	return true
}

// PerformCheck 做一轮健康检查，必要时触发缓存修复。
func PerformCheck() {
	currentRunID, err := getRedisRunID()
	if err != nil {
		database.UpdateStatus(false, "")
		return
	}

	if currentRunID != database.GetLastKnownRunID() {
		if triggerAtomicRebuild(currentRunID) {
			database.UpdateStatus(true, currentRunID)
		} else {
			database.UpdateStatus(false, "")
		}
		return
	}
	database.UpdateStatus(true, currentRunID)
}

// StartRedisHealthCheck 周期性地执行健康检查，应作为后台Goroutine运行。
// 用Timer而不是Ticker：一轮检查(含可能的重建)结束后才开始计下一轮的间隔。
func StartRedisHealthCheck() {
	fmt.Println("Redis健康巡检已启动。")
	timer := time.NewTimer(checkInterval)
	defer timer.Stop()

	for {
		<-timer.C
		PerformCheck()
		timer.Reset(checkInterval)
	}
}
