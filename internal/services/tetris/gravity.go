package tetris

// GravityController はレベルに応じた自動落下のタイミングを決めます。
// 落下はフレームカウンタが落下間隔で割り切れるフレームで発生します。
type GravityController struct {
	rules Rules
}

// NewGravityController はルールから GravityController を作成します。
func NewGravityController(rules Rules) GravityController {
	return GravityController{rules: rules}
}

// Interval は現在の落下間隔（フレーム）を返します。
// ソフトドロップ中は通常2フレーム、通常の落下間隔が閾値以下のレベルでは1フレームになります。
func (g GravityController) Interval(level int, softDrop bool) int {
	natural := g.rules.FallInterval(level)
	if !softDrop {
		return natural
	}
	if natural <= g.rules.FastSoftDropThreshold {
		return g.rules.FastSoftDropInterval
	}
	return g.rules.SoftDropInterval
}

// Due は frame で落下が発生するかどうかを返します。
func (g GravityController) Due(frame, level int, softDrop bool) bool {
	return frame%g.Interval(level, softDrop) == 0
}

// SpawnFreeze はスポーン直後の待機時間です。
// 残りフレームがある間は自動落下とオートリピートが止まります。
type SpawnFreeze struct {
	remaining int
}

// Start は待機を frames フレームで開始します。
func (f *SpawnFreeze) Start(frames int) { f.remaining = frames }

// Cancel は操作入力によって待機を打ち切ります。
func (f *SpawnFreeze) Cancel() { f.remaining = 0 }

// Active は待機中かどうかを返します。
func (f *SpawnFreeze) Active() bool { return f.remaining > 0 }

// Remaining は残りフレーム数を返します。
func (f *SpawnFreeze) Remaining() int { return f.remaining }

// Tick は待機を1フレーム進めます。
func (f *SpawnFreeze) Tick() {
	if f.remaining > 0 {
		f.remaining--
	}
}
