package room

// --- 算法常量 ---
const (
	// weightSmoothing 是冷门优先权重的平滑项，避免零完成房间的权重无穷大
	weightSmoothing = 5.0
)

// CalculateWeightForCompletions 根据房间的全局完成次数计算其“冷门优先”选择权重。
// 完成次数越少的房间，被推荐到的概率越高。
func CalculateWeightForCompletions(completions float64) float64 {
	return 1.0 / (completions + weightSmoothing)
}
