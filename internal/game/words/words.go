package words

import "github.com/palemoky/undercover/internal/game/random"

// Pair 一局游戏使用的词对
type Pair struct {
	Common     string `json:"common"`
	Undercover string `json:"undercover"`
}

// Source 词对来源
type Source interface {
	Pick(src random.Source) Pair
}

// Table 固定词表，每项为两个语义相近的词
type Table [][2]string

// DefaultTable 内置词表
var DefaultTable = Table{
	{"myrslok", "myra"},
	{"katt", "hund"},
	{"kommunist", "kapitalist"},
	{"fidel castro", "donald trump"},
	{"kalle anka", "musse pigg"},
	{"carpe diem", "yolo"},
	{"kaffe", "cola-zero"},
	{"kroatien", "serbien"},
	{"sverige", "danmark"},
	{"glögg", "julmust"},
	{"guld", "silver"},
	{"snus", "cigg"},
	{"tyskland", "österrike"},
	{"armbågar", "knän"},
	{"aardvark", "ant"},
	{"communist", "capitalist"},
}

// Pick 随机选一个词对，并随机决定哪个词给卧底
func (t Table) Pick(src random.Source) Pair {
	pair := t[src.IntN(len(t))]
	return Orient(src, pair[0], pair[1])
}

// Orient 随机分配平民词和卧底词
func Orient(src random.Source, a, b string) Pair {
	if src.IntN(2) == 0 {
		return Pair{Common: a, Undercover: b}
	}
	return Pair{Common: b, Undercover: a}
}
