package tetris

// RotationDirection は回転方向です。
type RotationDirection int

const (
	RotateCW  RotationDirection = 1  // 時計回り
	RotateCCW RotationDirection = -1 // 反時計回り
)

// KickClass はキックテーブルを共有するテトリミノのグループです。
type KickClass int

const (
	KickClassTJZSL KickClass = iota // T, J, Z, S, L
	KickClassI                      // I
	KickClassO                      // O
)

// offsetTables は Super Rotation System (SRS) のオフセットデータです（Y軸は下向き）。
// [KickClass][回転状態][テスト番号]
// 回転 old -> new のキック候補は offsets[old][i] - offsets[new][i] で求めます。
var offsetTables = [3][4][]Point{
	KickClassTJZSL: {
		{{0, 0}, {0, 0}, {0, 0}, {0, 0}, {0, 0}},
		{{0, 0}, {1, 0}, {1, 1}, {0, -2}, {1, -2}},
		{{0, 0}, {0, 0}, {0, 0}, {0, 0}, {0, 0}},
		{{0, 0}, {-1, 0}, {-1, 1}, {0, -2}, {-1, -2}},
	},
	KickClassI: {
		{{0, 0}, {-1, 0}, {2, 0}, {-1, 0}, {2, 0}},
		{{-1, 0}, {0, 0}, {0, 0}, {0, -1}, {0, 2}},
		{{-1, -1}, {1, -1}, {-2, -1}, {1, 0}, {-2, 0}},
		{{0, -1}, {0, -1}, {0, -1}, {0, 1}, {0, -2}},
	},
	// Oミノは回転しても位置が変わらないよう、補正が1つだけ
	KickClassO: {
		{{0, 0}},
		{{0, 1}},
		{{-1, 1}},
		{{-1, 0}},
	},
}

// KickClassOf は PieceType が属するキッククラスを返します。
func KickClassOf(t PieceType) KickClass {
	switch t {
	case TypeI:
		return KickClassI
	case TypeO:
		return KickClassO
	default:
		return KickClassTJZSL
	}
}

// KickCandidates は回転 from -> to で試すキック候補を順番に返します。
func KickCandidates(class KickClass, from, to int) []Point {
	oldOffsets := offsetTables[class][from]
	newOffsets := offsetTables[class][to]
	kicks := make([]Point, len(oldOffsets))
	for i := range oldOffsets {
		kicks[i] = Point{
			X: oldOffsets[i].X - newOffsets[i].X,
			Y: oldOffsets[i].Y - newOffsets[i].Y,
		}
	}
	return kicks
}

// Rotate はピースを回転させた結果を返します。
// 回転後の形状に対してキック候補を順番に試し、最初に衝突しなかった位置を採用します。
// どの候補も衝突する場合は元のピースをそのまま返し、false を返します。
//
// Parameters:
//   p   : 回転させるピース（変更されません）
//   dir : 回転方向
//   b   : 衝突判定に使うボード
// Returns:
//   *Piece: 回転後のピース（失敗時は p のコピー）
//   bool  : 回転が成功したかどうか
func Rotate(p *Piece, dir RotationDirection, b *Board) (*Piece, bool) {
	from := p.Rotation
	to := ((from+int(dir))%4 + 4) % 4

	for _, kick := range KickCandidates(KickClassOf(p.Type), from, to) {
		candidate := p.Clone()
		candidate.Rotation = to
		candidate.X += kick.X
		candidate.Y += kick.Y
		if !candidate.Colliding(b) {
			return candidate, true
		}
	}
	return p.Clone(), false
}

// Rotate はピースをその場で回転させます。失敗した場合は一切変更しません。
func (p *Piece) Rotate(dir RotationDirection, b *Board) bool {
	rotated, ok := Rotate(p, dir, b)
	if ok {
		*p = *rotated
	}
	return ok
}
