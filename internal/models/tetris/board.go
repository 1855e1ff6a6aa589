package tetris

import (
	"errors"
	"fmt"
)

const (
	BoardWidth      = 10 // テトリスボードの幅
	BoardHeight     = 20 // テトリスボードの高さ（表示部分）
	BoardHiddenRows = 4  // ピースが生成される見えない領域（表示部分の上）
)

// BlockType はボード上のブロックの種類を表します。
// 各テトリミノの種類がそのまま色タグとして扱われます。
type BlockType int

const (
	BlockEmpty BlockType = iota // 0: 空のマス
	BlockT                      // 1: T-テトリミノ由来のブロック (PieceType 0 + 1)
	BlockJ                      // 2: J-テトリミノ由来のブロック (PieceType 1 + 1)
	BlockZ                      // 3: Z-テトリミノ由来のブロック (PieceType 2 + 1)
	BlockS                      // 4: S-テトリミノ由来のブロック (PieceType 3 + 1)
	BlockL                      // 5: L-テトリミノ由来のブロック (PieceType 4 + 1)
	BlockO                      // 6: O-テトリミノ由来のブロック (PieceType 5 + 1)
	BlockI                      // 7: I-テトリミノ由来のブロック (PieceType 6 + 1)
)

var (
	// ErrCellOccupied は既に埋まっているマスにブロックを固定しようとした場合のエラーです。
	ErrCellOccupied = errors.New("cell already occupied")
	// ErrOutOfBounds はボードの範囲外を参照した場合のエラーです。
	ErrOutOfBounds = errors.New("cell out of bounds")
)

// Point はボード上の座標（またはピース内の相対座標）です。
// Xは列（左から右）、Yは行（上から下）を表します。
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Board は固定されたブロックを保持するゲームボードです。
// 表示部分の行は 0..Height-1（上から下）、見えない領域は -HiddenRows..-1 です。
// それより上の行は常に空として扱われ、保存もされません。
type Board struct {
	width  int
	height int
	hidden int
	cells  [][]BlockType // cells[y+hidden][x]
}

// NewBoard は指定されたサイズの空のボードを初期化して返します。
//
// Parameters:
//   width      : 列数
//   height     : 表示部分の行数
//   hiddenRows : 表示部分の上に確保する見えない行数
// Returns:
//   *Board: 空のボード
func NewBoard(width, height, hiddenRows int) *Board {
	cells := make([][]BlockType, height+hiddenRows)
	for i := range cells {
		cells[i] = make([]BlockType, width)
	}
	return &Board{
		width:  width,
		height: height,
		hidden: hiddenRows,
		cells:  cells,
	}
}

// NewStandardBoard は 10x20 (+4) の標準サイズのボードを返します。
func NewStandardBoard() *Board {
	return NewBoard(BoardWidth, BoardHeight, BoardHiddenRows)
}

func (b *Board) Width() int      { return b.width }
func (b *Board) Height() int     { return b.height }
func (b *Board) HiddenRows() int { return b.hidden }

// stored は (x, y) が保存領域（見えない行を含む）の中にあるかを判定します。
func (b *Board) stored(x, y int) bool {
	return x >= 0 && x < b.width && y >= -b.hidden && y < b.height
}

// IsOccupied は指定されたマスが衝突対象かどうかを返します。
// 左右の壁の外側と床より下は常に埋まっているものとして扱い、
// 見えない領域より上は空として扱います。
func (b *Board) IsOccupied(x, y int) bool {
	if x < 0 || x >= b.width || y >= b.height {
		return true
	}
	if y < -b.hidden {
		return false
	}
	return b.cells[y+b.hidden][x] != BlockEmpty
}

// At は指定されたマスのブロックを返します。
// 範囲外の参照は呼び出し側のバグなので panic します。
func (b *Board) At(x, y int) BlockType {
	if !b.stored(x, y) {
		panic(fmt.Errorf("board read at (%d, %d): %w", x, y, ErrOutOfBounds))
	}
	return b.cells[y+b.hidden][x]
}

// Lock はピースのマスをボードに固定します。
// いずれかのマスが既に埋まっている、または壁・床の外側にある場合は
// ボードを一切変更せずにエラーを返します。
// 見えない領域より上のマスは保存されません（その場合は呼び出し側でゲームオーバーになります）。
//
// Parameters:
//   cells : 固定する絶対座標
//   block : 書き込むブロックの種類（色タグ）
// Returns:
//   error: ErrCellOccupied または ErrOutOfBounds をラップしたエラー
func (b *Board) Lock(cells []Point, block BlockType) error {
	for _, c := range cells {
		if c.X < 0 || c.X >= b.width || c.Y >= b.height {
			return fmt.Errorf("lock at (%d, %d): %w", c.X, c.Y, ErrOutOfBounds)
		}
		if b.IsOccupied(c.X, c.Y) {
			return fmt.Errorf("lock at (%d, %d): %w", c.X, c.Y, ErrCellOccupied)
		}
	}
	for _, c := range cells {
		if c.Y < -b.hidden {
			continue
		}
		b.cells[c.Y+b.hidden][c.X] = block
	}
	return nil
}

// RowIsFull は表示部分の指定行が全列埋まっているかを返します。
func (b *Board) RowIsFull(row int) bool {
	if row < 0 || row >= b.height {
		return false
	}
	for _, cell := range b.cells[row+b.hidden] {
		if cell == BlockEmpty {
			return false
		}
	}
	return true
}

// FullRows は揃っている行の番号を上から順に返します。
func (b *Board) FullRows() []int {
	var rows []int
	for y := 0; y < b.height; y++ {
		if b.RowIsFull(y) {
			rows = append(rows, y)
		}
	}
	return rows
}

// ClearRows は指定された行を消去し、残った各行を
// 「その行より下で消去された行の数」だけ下にずらします。
// 離れた複数行が同時に消える場合も行ごとに移動量を計算します。
//
// Parameters:
//   rows : 消去する行番号（表示部分、順不同）
func (b *Board) ClearRows(rows []int) {
	if len(rows) == 0 {
		return
	}
	cleared := make(map[int]bool, len(rows))
	for _, r := range rows {
		cleared[r] = true
	}

	total := len(b.cells)
	newCells := make([][]BlockType, total)
	for y := b.height - 1; y >= -b.hidden; y-- {
		if cleared[y] {
			continue
		}
		shift := 0
		for r := range cleared {
			if r > y {
				shift++
			}
		}
		newCells[y+shift+b.hidden] = b.cells[y+b.hidden]
	}
	// 上に空いた行は空行で埋める
	for i := range newCells {
		if newCells[i] == nil {
			newCells[i] = make([]BlockType, b.width)
		}
	}
	b.cells = newCells
}

// Rows は表示部分のコピーを返します。Rows()[y][x] でアクセスします。
func (b *Board) Rows() [][]BlockType {
	rows := make([][]BlockType, b.height)
	for y := range rows {
		rows[y] = append([]BlockType(nil), b.cells[y+b.hidden]...)
	}
	return rows
}

// Clone はボードのディープコピーを返します。
func (b *Board) Clone() *Board {
	newB := &Board{
		width:  b.width,
		height: b.height,
		hidden: b.hidden,
		cells:  make([][]BlockType, len(b.cells)),
	}
	for i, row := range b.cells {
		newB.cells[i] = append([]BlockType(nil), row...)
	}
	return newB
}
