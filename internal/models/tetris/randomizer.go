package tetris

import "math/rand"

// Randomizer は次のテトリミノを選ぶ抽選器です。
// 8面のサイコロを振り、「8面目」または直前と同じ種類が出た場合だけ
// 7面のサイコロで振り直します（同じピースの連続が起きにくくなります）。
type Randomizer struct {
	rng *rand.Rand
}

// NewRandomizer は乱数生成器を注入して抽選器を作成します。
// 同じシードの rand.Rand を渡せば同じ順番でピースが出るため、テストで再現できます。
func NewRandomizer(rng *rand.Rand) *Randomizer {
	return &Randomizer{rng: rng}
}

// Next は直前のピース prev を元に次のピースの種類を返します。
// 最初の抽選では prev に NoPiece を渡します。
func (r *Randomizer) Next(prev PieceType) PieceType {
	n := PieceType(r.rng.Intn(PieceCount + 1))
	if n == PieceCount || n == prev {
		n = PieceType(r.rng.Intn(PieceCount))
	}
	return n
}
