package tetris

// PieceType はテトリミノの種類を表します。
type PieceType int

const (
	TypeT PieceType = iota // 0: T-ミノ
	TypeJ                  // 1: J-ミノ
	TypeZ                  // 2: Z-ミノ
	TypeS                  // 3: S-ミノ
	TypeL                  // 4: L-ミノ
	TypeO                  // 5: O-ミノ
	TypeI                  // 6: I-ミノ

	// PieceCount はテトリミノの種類数です。
	PieceCount = 7
	// NoPiece は「直前のピースがない」ことを表します（最初の抽選用）。
	NoPiece PieceType = -1
)

// Direction は左右移動の方向です。
type Direction int

const (
	DirNone  Direction = 0
	DirLeft  Direction = -1
	DirRight Direction = 1
)

// pieceShapes は各PieceTypeのスポーン状態（回転0）における
// ブロックの基準点（回転中心）からの相対座標を定義します。
// Y軸は下向きです。他の回転状態は回転行列で求めます。
var pieceShapes = [PieceCount][4]Point{
	TypeT: {{-1, 0}, {0, 0}, {1, 0}, {0, -1}},
	TypeJ: {{-1, -1}, {-1, 0}, {0, 0}, {1, 0}},
	TypeZ: {{-1, -1}, {0, -1}, {0, 0}, {1, 0}},
	TypeS: {{-1, 0}, {0, 0}, {0, -1}, {1, -1}},
	TypeL: {{1, -1}, {-1, 0}, {0, 0}, {1, 0}},
	TypeO: {{0, 0}, {1, 0}, {0, -1}, {1, -1}},
	TypeI: {{-1, 0}, {0, 0}, {1, 0}, {2, 0}},
}

// Piece は操作中のテトリミノの状態（種類、回転状態、ボード上の基準点座標、固定タイマー）を表します。
// 絶対座標は {Type, Rotation, X, Y} だけから常に再計算できます。
type Piece struct {
	Type      PieceType `json:"type"`       // テトリミノの種類
	Rotation  int       `json:"rotation"`   // 回転状態 (0: スポーン, 1: 右, 2: 180度, 3: 左)
	X         int       `json:"x"`          // 基準点のX座標
	Y         int       `json:"y"`          // 基準点のY座標
	LockTimer int       `json:"lock_timer"` // 固定までの残りフレーム数
}

// NewPiece はスポーン状態の新しいピースを返します。
func NewPiece(t PieceType, x, y, lockTimer int) *Piece {
	return &Piece{Type: t, X: x, Y: y, LockTimer: lockTimer}
}

// Block は PieceType に対応するブロックの種類（色タグ）を返します。
func (t PieceType) Block() BlockType {
	return BlockType(t + 1)
}

func (t PieceType) String() string {
	switch t {
	case TypeT:
		return "T"
	case TypeJ:
		return "J"
	case TypeZ:
		return "Z"
	case TypeS:
		return "S"
	case TypeL:
		return "L"
	case TypeO:
		return "O"
	case TypeI:
		return "I"
	default:
		return "?"
	}
}

// StringToPieceType は文字列のテトリミノタイプ（"T", "I"など）をPieceTypeに変換します。
func StringToPieceType(s string) (PieceType, bool) {
	for t := TypeT; t <= TypeI; t++ {
		if t.String() == s {
			return t, true
		}
	}
	return NoPiece, false
}

// rotatePoint は相対座標を時計回り（cw=true）または反時計回りに90度回転させます。
func rotatePoint(p Point, cw bool) Point {
	if cw {
		return Point{X: -p.Y, Y: p.X}
	}
	return Point{X: p.Y, Y: -p.X}
}

// GetBlocksAtRotation は指定された回転状態でのブロックの相対座標を返します。
func (p *Piece) GetBlocksAtRotation(rotation int) [4]Point {
	blocks := pieceShapes[p.Type]
	for i := 0; i < ((rotation%4)+4)%4; i++ {
		for j := range blocks {
			blocks[j] = rotatePoint(blocks[j], true)
		}
	}
	return blocks
}

// Blocks は現在の回転状態でのブロックの相対座標を返します。
func (p *Piece) Blocks() [4]Point {
	return p.GetBlocksAtRotation(p.Rotation)
}

// Cells はボード上の絶対座標を返します。
func (p *Piece) Cells() []Point {
	blocks := p.Blocks()
	cells := make([]Point, len(blocks))
	for i, b := range blocks {
		cells[i] = Point{X: p.X + b.X, Y: p.Y + b.Y}
	}
	return cells
}

// HasCollision はピースを (dx, dy) だけ動かした位置で壁・床・固定済みブロックと
// 衝突するかどうかを判定します。
func (p *Piece) HasCollision(b *Board, dx, dy int) bool {
	for _, c := range p.Cells() {
		if b.IsOccupied(c.X+dx, c.Y+dy) {
			return true
		}
	}
	return false
}

// Colliding は現在位置で衝突しているかどうかを返します。
func (p *Piece) Colliding(b *Board) bool {
	return p.HasCollision(b, 0, 0)
}

// Landed は1マス下に動かすと衝突する（＝着地している）かどうかを返します。
func (p *Piece) Landed(b *Board) bool {
	return p.HasCollision(b, 0, 1)
}

// Shift はピースを左右に1マス動かします。
// 衝突する場合は位置を変えずに false を返します。
func (p *Piece) Shift(dir Direction, b *Board) bool {
	if dir == DirNone || p.HasCollision(b, int(dir), 0) {
		return false
	}
	p.X += int(dir)
	return true
}

// Fall はピースを1マス落下させます。着地している場合は何もせず false を返します。
func (p *Piece) Fall(b *Board) bool {
	if p.Landed(b) {
		return false
	}
	p.Y++
	return true
}

// Clone は現在のPieceのコピーを返します。
// 操作前の状態を保持しつつ、操作後の状態を仮に試すために使います。
func (p *Piece) Clone() *Piece {
	newP := *p
	return &newP
}
