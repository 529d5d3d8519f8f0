package vote

import "sort"

// Link 投票关系：Source 共投给 Target Weight 次
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Weight int    `json:"value"`
}

// Links 汇总所有轮次的投票关系，按 Source、Target 排序
// 从未投过票的玩家不会出现在 Source 中
func Links(history []Round) []Link {
	perVoter := aggregate(history)

	links := make([]Link, 0)
	for _, source := range sortedKeys(perVoter) {
		targets := perVoter[source]
		for _, target := range sortedKeys(targets) {
			links = append(links, Link{Source: source, Target: target, Weight: targets[target]})
		}
	}
	return links
}

// Matrix 构建投票矩阵，行列均为投过票的玩家（按 ID 排序），
// matrix[i][j] 为 ids[i] 投给 ids[j] 的次数
func Matrix(history []Round) (ids []string, matrix [][]int) {
	perVoter := aggregate(history)
	ids = sortedKeys(perVoter)

	matrix = make([][]int, len(ids))
	for i, source := range ids {
		row := make([]int, len(ids))
		for j, target := range ids {
			row[j] = perVoter[source][target]
		}
		matrix[i] = row
	}
	return ids, matrix
}

func aggregate(history []Round) map[string]map[string]int {
	perVoter := make(map[string]map[string]int)
	for _, round := range history {
		for voter, target := range round {
			if perVoter[voter] == nil {
				perVoter[voter] = make(map[string]int)
			}
			perVoter[voter][target]++
		}
	}
	return perVoter
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
