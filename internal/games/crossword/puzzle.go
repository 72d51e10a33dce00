package crossword

// Puzzle 一张填字谜面：网格布局、提示与服务端持有的答案
// 谜面数据不可变，多个房间共享同一份
type Puzzle struct {
	ID       string
	Rows     int
	Cols     int
	Blocked  [][]bool   // true 表示黑格，不可填写
	Solution [][]string // 黑格处为空串，答案只在服务端
	Clues    []Clue
}

// Clue 一条提示
type Clue struct {
	Number int    `json:"number"`
	Across bool   `json:"across"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	Text   string `json:"text"`
}

// Bank 谜面库，启动时装配一次，之后只读
type Bank struct {
	puzzles []*Puzzle
}

// NewBank 创建谜面库
func NewBank(puzzles ...*Puzzle) *Bank {
	return &Bank{puzzles: puzzles}
}

// Pick 按索引取一张谜面
func (b *Bank) Pick(i int) *Puzzle {
	return b.puzzles[i%len(b.puzzles)]
}

// Size 谜面数量
func (b *Bank) Size() int { return len(b.puzzles) }

// DefaultBank 内置谜面库
func DefaultBank() *Bank {
	return NewBank(
		// GO / ON 交叉的 3x3 小谜面
		//   G O .
		//   . N .
		//   # # #
		&Puzzle{
			ID:   "starter-1",
			Rows: 3,
			Cols: 3,
			Blocked: [][]bool{
				{false, false, true},
				{true, false, true},
				{true, true, true},
			},
			Solution: [][]string{
				{"G", "O", ""},
				{"", "N", ""},
				{"", "", ""},
			},
			Clues: []Clue{
				{Number: 1, Across: true, Row: 0, Col: 0, Text: "一门编程语言"},
				{Number: 2, Across: false, Row: 0, Col: 1, Text: "开着的状态"},
			},
		},
		&Puzzle{
			ID:   "starter-2",
			Rows: 4,
			Cols: 4,
			Blocked: [][]bool{
				{false, false, false, false},
				{false, true, true, false},
				{false, true, true, false},
				{false, false, false, false},
			},
			Solution: [][]string{
				{"C", "O", "D", "E"},
				{"A", "", "", "T"},
				{"R", "", "", "N"},
				{"D", "A", "T", "A"},
			},
			Clues: []Clue{
				{Number: 1, Across: true, Row: 0, Col: 0, Text: "程序员每天写的东西"},
				{Number: 1, Across: false, Row: 0, Col: 0, Text: "一张卡片"},
				{Number: 2, Across: false, Row: 0, Col: 3, Text: "西西里的火山"},
				{Number: 3, Across: true, Row: 3, Col: 0, Text: "信息的原材料"},
			},
		},
	)
}
