package tetris

import "github.com/progate-hackathon-strawberry-flavor/TETRIX-backend/internal/models/tetris"

// LinesPerLevel はレベルアップに必要なライン数です。
const LinesPerLevel = 10

// Progress はスコア・消去ライン数・レベルの進行状況です。
type Progress struct {
	Score        int `json:"score"`
	LinesCleared int `json:"lines_cleared"`
	Level        int `json:"level"`
}

// ClearResult は1回のライン消去の結果です。
type ClearResult struct {
	Rows    []int // 消去された行（上から順）
	Points  int   // 加算されたスコア
	LevelUp bool  // レベルが上がったかどうか
}

// LineClearEngine は揃った行の消去とスコア・レベルの更新を行います。
type LineClearEngine struct {
	rules Rules
}

// NewLineClearEngine はルールから LineClearEngine を作成します。
func NewLineClearEngine(rules Rules) LineClearEngine {
	return LineClearEngine{rules: rules}
}

// Points は n 行を同時に消したときの得点を返します。
func (e LineClearEngine) Points(n, level int) int {
	if n < 0 || n >= len(e.rules.ClearPoints) {
		return 0
	}
	return e.rules.ClearPoints[n] * (level + 1)
}

// Apply はピース固定後に呼ばれ、揃った行を消してスコアとレベルを更新します。
// 複数の閾値を一度に越えてもレベルは1つだけ上がります。
//
// Parameters:
//   board    : 対象のボード
//   progress : 更新する進行状況
// Returns:
//   ClearResult: 消去結果（消えた行がなければ Rows は空）
func (e LineClearEngine) Apply(board *tetris.Board, progress *Progress) ClearResult {
	rows := board.FullRows()
	if len(rows) == 0 {
		return ClearResult{}
	}
	board.ClearRows(rows)

	result := ClearResult{Rows: rows}
	result.Points = e.Points(len(rows), progress.Level)
	progress.LinesCleared += len(rows)
	progress.Score += result.Points

	if progress.LinesCleared/LinesPerLevel > progress.Level && progress.Level < e.rules.MaxLevel {
		progress.Level++
		result.LevelUp = true
	}
	return result
}
