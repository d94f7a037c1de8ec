package startup

import (
	"context"
	"fmt"

	"github.com/phototheology/palace-backend/internal/activity"
	"github.com/phototheology/palace-backend/internal/floor"
	"github.com/phototheology/palace-backend/internal/platform/backup"
	"github.com/phototheology/palace-backend/internal/platform/metadata"
	"github.com/phototheology/palace-backend/internal/profile"
	"github.com/phototheology/palace-backend/internal/retention"
	"github.com/phototheology/palace-backend/internal/room"
	"github.com/phototheology/palace-backend/internal/streak"
	"github.com/phototheology/palace-backend/internal/user"
)

// InitializeApplication 是应用首次启动时执行的总入口
func InitializeApplication() error {
	fmt.Println("开始应用首次初始化...")

	if err := metadata.PrimeCachedDB(); err != nil {
		return err
	}
	if err := user.PrimeCachedDB(); err != nil {
		return err
	}
	if err := room.PrimeCachedDB(); err != nil {
		return err
	}
	if err := profile.PrimeCachedDB(); err != nil {
		return err
	}
	if err := streak.PrimeDB(); err != nil {
		return err
	}
	if err := floor.PrimeDB(); err != nil {
		return err
	}
	if err := retention.PrimeDB(); err != nil {
		return err
	}
	if err := activity.PrimeDB(); err != nil {
		return err
	}
	if err := activity.InitializeReplayDefense(); err != nil {
		return err
	}

	fmt.Println("应用初始化完成！")
	return nil
}

// RebuildCache 是一个专门用于在运行时热重建Redis缓存的函数
func RebuildCache() error {
	fmt.Println("开始缓存热重建...")

	if err := metadata.WarmupCache(); err != nil {
		return err
	}

	err := func() error {
		room.LockRepository()
		defer room.UnlockRepository()
		if err := room.WarmupCache(); err != nil {
			return err
		}

		if err := user.WarmupCache(); err != nil {
			return err
		}
		if err := profile.WarmupCache(); err != nil {
			return err
		}

		if err := activity.RebuildAndApplyActivities(); err != nil {
			return err
		}
		return nil
	}()

	if err != nil {
		return err
	}

	if err := activity.RecoverReplayDefense(); err != nil {
		return err
	}

	// 触发一次新的快照
	fmt.Println("缓存热重建完成，正在触发一次新的数据快照...")
	if err := backup.CreateConsistentSnapshotInDB(context.Background()); err != nil {
		fmt.Printf("警告: 缓存热重建后的快照创建失败: %v\n", err)
	} else {
		fmt.Println("快照创建成功！")
	}

	return nil
}
