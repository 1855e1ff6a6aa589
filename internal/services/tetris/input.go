package tetris

import "github.com/progate-hackathon-strawberry-flavor/TETRIX-backend/internal/models/tetris"

// Action はプレイヤーの操作です。
type Action string

const (
	ActionMoveLeft    Action = "move_left"
	ActionMoveRight   Action = "move_right"
	ActionRotateRight Action = "rotate_right"
	ActionRotateLeft  Action = "rotate_left"
	ActionSoftDrop    Action = "soft_drop"
	ActionPause       Action = "pause"
	ActionConfirm     Action = "confirm"
	ActionQuit        Action = "quit"
)

// ParseAction は文字列を Action に変換します。未知の操作は false を返します。
func ParseAction(s string) (Action, bool) {
	switch a := Action(s); a {
	case ActionMoveLeft, ActionMoveRight, ActionRotateRight, ActionRotateLeft,
		ActionSoftDrop, ActionPause, ActionConfirm, ActionQuit:
		return a, true
	}
	return "", false
}

// InputType はキーイベントの種類です。
type InputType string

const (
	KeyDown InputType = "key_down"
	KeyUp   InputType = "key_up"
)

// InputEvent はレンダラーから届くキーイベントです。
type InputEvent struct {
	Type   InputType `json:"type"`
	Action Action    `json:"action"`
}

// HeldKeys は現在押されている操作の集合です。
type HeldKeys map[Action]bool

// Apply はキーイベントを集合に反映します。
func (h HeldKeys) Apply(ev InputEvent) {
	switch ev.Type {
	case KeyDown:
		h[ev.Action] = true
	case KeyUp:
		delete(h, ev.Action)
	}
}

// Pressed は操作が押されているかどうかを返します。nil の集合でも使えます。
func (h HeldKeys) Pressed(a Action) bool {
	return h[a]
}

// Direction は押されている左右キーから移動方向を返します。
// 左右が同時に押されている場合は DirNone になります。
func (h HeldKeys) Direction() tetris.Direction {
	left, right := h.Pressed(ActionMoveLeft), h.Pressed(ActionMoveRight)
	switch {
	case left && !right:
		return tetris.DirLeft
	case right && !left:
		return tetris.DirRight
	default:
		return tetris.DirNone
	}
}

// Clone は集合のコピーを返します。
func (h HeldKeys) Clone() HeldKeys {
	c := make(HeldKeys, len(h))
	for a, v := range h {
		if v {
			c[a] = true
		}
	}
	return c
}

// TickInput は1フレーム分の入力です。
type TickInput struct {
	Events []InputEvent // このフレームに届いたキーイベント（届いた順）
	Held   HeldKeys     // イベント反映後に押されている操作
}

// AutoShift は横移動の DAS/ARR（押しっぱなしでのオートリピート）を管理します。
type AutoShift struct {
	das     int
	arr     int
	counter int
	dir     tetris.Direction
}

// NewAutoShift は DAS と ARR（フレーム）から AutoShift を作成します。
func NewAutoShift(das, arr int) AutoShift {
	return AutoShift{das: das, arr: arr}
}

// Counter は現在のカウンタ値を返します。
func (a *AutoShift) Counter() int { return a.counter }

// Reset はカウンタを0に戻します（単発の横移動入力時）。
func (a *AutoShift) Reset() { a.counter = 0 }

// Update は1フレーム分カウンタを進め、このフレームで横移動すべき方向を返します。
// 方向が変わる（離す・反対を押す）とカウンタは0に戻ります。
// suppressed の間（スポーン待機中・固定済み）はカウンタを進めません。
//
// Parameters:
//   dir        : 押されている方向
//   suppressed : オートリピートを止めるか
// Returns:
//   tetris.Direction: 移動すべき方向（移動しない場合は DirNone）
func (a *AutoShift) Update(dir tetris.Direction, suppressed bool) tetris.Direction {
	if dir != a.dir {
		a.dir = dir
		a.counter = 0
	}
	if dir == tetris.DirNone || suppressed {
		return tetris.DirNone
	}
	a.counter++
	if a.counter >= a.das {
		a.counter = a.das - a.arr
		return dir
	}
	return tetris.DirNone
}
