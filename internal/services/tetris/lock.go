package tetris

import "github.com/progate-hackathon-strawberry-flavor/TETRIX-backend/internal/models/tetris"

// LockController はピースの固定タイマー（Piece.LockTimer）を管理します。
//
//   LockTimer > 0               : 操作可能
//   LockTimer <= 0              : 固定済み（点滅中、入力を受け付けない）
//   LockTimer <= -LockFlashFrames: ボードに書き込む
type LockController struct {
	rules Rules
}

// NewLockController はルールから LockController を作成します。
func NewLockController(rules Rules) LockController {
	return LockController{rules: rules}
}

// Delay はレベルに対応する固定猶予（フレーム）を返します。
func (l LockController) Delay(level int) int {
	return l.rules.LockDelay(level)
}

// Reset は固定タイマーを猶予いっぱいに戻します。
// 落下・移動・回転が成功するたびに呼ばれます（リセット回数に上限はありません）。
func (l LockController) Reset(p *tetris.Piece, level int) {
	p.LockTimer = l.Delay(level)
}

// Countdown は着地中（または固定済み）のピースのタイマーを1フレーム進めます。
// ソフトドロップ中はタイマーを先に SoftDropLockClamp まで縮めます。
//
// Parameters:
//   p        : 対象のピース
//   landed   : ピースが着地しているか
//   softDrop : ソフトドロップキーが押されているか
func (l LockController) Countdown(p *tetris.Piece, landed, softDrop bool) {
	if !landed && !l.Locked(p) {
		return
	}
	if softDrop && p.LockTimer > l.rules.SoftDropLockClamp {
		p.LockTimer = l.rules.SoftDropLockClamp
	}
	p.LockTimer--
}

// Locked はピースが固定済み（入力を受け付けない）かどうかを返します。
func (l LockController) Locked(p *tetris.Piece) bool {
	return p.LockTimer <= 0
}

// Flashing は固定済みでボードへの書き込みを待っている（点滅中）かどうかを返します。
func (l LockController) Flashing(p *tetris.Piece) bool {
	return l.Locked(p) && !l.ShouldCommit(p)
}

// ShouldCommit はピースをボードに書き込むタイミングかどうかを返します。
func (l LockController) ShouldCommit(p *tetris.Piece) bool {
	return p.LockTimer <= -l.rules.LockFlashFrames
}
