// Package vote 计票、淘汰判定与投票关系统计
package vote

import "sort"

// Round 一轮投票，投票人 -> 被投票人
type Round map[string]string

// Tally 统计每个被投票人的票数
func Tally(round Round) map[string]int {
	counts := make(map[string]int, len(round))
	for _, target := range round {
		counts[target]++
	}
	return counts
}

// Leader 返回票数严格最多的玩家
// 扫描过程中一旦出现与当前最高票持平的候选人，领先者即被清空，
// 因此任何并列最高票（包括三方并列）都返回 false
func Leader(counts map[string]int) (string, bool) {
	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	currentMax := 0
	leader, found := "", false
	for _, id := range ids {
		switch n := counts[id]; {
		case n > currentMax:
			currentMax = n
			leader, found = id, true
		case n == currentMax:
			leader, found = "", false
		}
	}
	return leader, found
}
