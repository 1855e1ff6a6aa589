package tetris

import (
	"errors"
	"fmt"

	"github.com/progate-hackathon-strawberry-flavor/TETRIX-backend/internal/models/tetris"
)

// ErrInvalidRules はルール設定が構造的に不正な場合のエラーです。
var ErrInvalidRules = errors.New("invalid rules")

// Rules はゲームのルール設定です。
// セッション作成時に値として渡され、ゲーム中は変更されません。
// YAMLのルールファイルからも読み込めます（internal/config を参照）。
type Rules struct {
	Cols       int `yaml:"cols" json:"cols"`               // ボードの列数
	Rows       int `yaml:"rows" json:"rows"`               // ボードの表示行数
	HiddenRows int `yaml:"hidden_rows" json:"hidden_rows"` // 表示部分の上の見えない行数
	StartLevel int `yaml:"start_level" json:"start_level"` // 開始レベル
	MaxLevel   int `yaml:"max_level" json:"max_level"`     // 最大レベル

	DAS         int `yaml:"das" json:"das"`                   // 横移動のオートリピートが始まるまでのフレーム数
	ARR         int `yaml:"arr" json:"arr"`                   // オートリピートの間隔（フレーム）
	SpawnFreeze int `yaml:"spawn_freeze" json:"spawn_freeze"` // スポーン直後に落下とオートリピートを止めるフレーム数

	SoftDropInterval      int `yaml:"soft_drop_interval" json:"soft_drop_interval"`             // ソフトドロップ時の落下間隔
	FastSoftDropInterval  int `yaml:"fast_soft_drop_interval" json:"fast_soft_drop_interval"`   // 高速レベルでのソフトドロップ落下間隔
	FastSoftDropThreshold int `yaml:"fast_soft_drop_threshold" json:"fast_soft_drop_threshold"` // 通常の落下間隔がこれ以下なら高速版を使う
	SoftDropLockClamp     int `yaml:"soft_drop_lock_clamp" json:"soft_drop_lock_clamp"`         // ソフトドロップ中の固定タイマー上限
	LockFlashFrames       int `yaml:"lock_flash_frames" json:"lock_flash_frames"`               // 固定後に点滅するフレーム数

	SpawnX int `yaml:"spawn_x" json:"spawn_x"` // スポーン位置（基準点）のX座標
	SpawnY int `yaml:"spawn_y" json:"spawn_y"` // スポーン位置（基準点）のY座標

	FallIntervals []int `yaml:"fall_intervals" json:"fall_intervals"` // レベルごとの落下間隔（フレーム）
	LockDelays    []int `yaml:"lock_delays" json:"lock_delays"`       // レベルごとの固定猶予（フレーム）
	ClearPoints   []int `yaml:"clear_points" json:"clear_points"`     // 同時消去数ごとの基本点 (0..4行)
}

// DefaultRules は標準のルール（10x20, レベル0..30）を返します。
func DefaultRules() Rules {
	return Rules{
		Cols:       tetris.BoardWidth,
		Rows:       tetris.BoardHeight,
		HiddenRows: tetris.BoardHiddenRows,
		StartLevel: 0,
		MaxLevel:   30,

		DAS:         16,
		ARR:         6,
		SpawnFreeze: 31,

		SoftDropInterval:      2,
		FastSoftDropInterval:  1,
		FastSoftDropThreshold: 3,
		SoftDropLockClamp:     2,
		LockFlashFrames:       4,

		SpawnX: 4,
		SpawnY: 0,

		FallIntervals: []int{
			48, 43, 38, 33, 28, 23, 18, 13, 8, 6,
			5, 5, 5, 4, 4, 4, 3, 3, 3, 2,
			2, 2, 2, 2, 2, 2, 2, 2, 2, 1,
			1,
		},
		LockDelays: []int{
			31, 31, 30, 30, 29, 29, 28, 28, 27, 27,
			26, 26, 25, 25, 24, 23, 23, 22, 22, 21,
			21, 20, 20, 19, 19, 18, 18, 17, 17, 16,
			15,
		},
		ClearPoints: []int{0, 40, 100, 300, 1200},
	}
}

// Normalize はルールを検証し、開始レベルを範囲内に丸めたコピーを返します。
// テーブルはコピーされるため、呼び出し側が元のスライスを変更しても影響しません。
//
// Returns:
//   Rules: 検証済みのルール
//   error: 構造的に不正な場合は ErrInvalidRules をラップしたエラー
func (r Rules) Normalize() (Rules, error) {
	switch {
	case r.Cols <= 0 || r.Rows <= 0 || r.HiddenRows < 0:
		return r, fmt.Errorf("%w: board size %dx%d (+%d)", ErrInvalidRules, r.Cols, r.Rows, r.HiddenRows)
	case r.MaxLevel < 0:
		return r, fmt.Errorf("%w: max level %d", ErrInvalidRules, r.MaxLevel)
	case r.DAS <= 0 || r.ARR <= 0 || r.ARR > r.DAS:
		return r, fmt.Errorf("%w: das %d / arr %d", ErrInvalidRules, r.DAS, r.ARR)
	case r.SpawnFreeze < 0 || r.LockFlashFrames < 0 || r.SoftDropLockClamp < 0:
		return r, fmt.Errorf("%w: negative frame count", ErrInvalidRules)
	case r.SoftDropInterval <= 0 || r.FastSoftDropInterval <= 0:
		return r, fmt.Errorf("%w: soft drop interval must be positive", ErrInvalidRules)
	case len(r.FallIntervals) == 0 || len(r.LockDelays) == 0:
		return r, fmt.Errorf("%w: empty level table", ErrInvalidRules)
	case len(r.ClearPoints) != 5:
		return r, fmt.Errorf("%w: clear points must have 5 entries, got %d", ErrInvalidRules, len(r.ClearPoints))
	case r.SpawnX < 0 || r.SpawnX >= r.Cols:
		return r, fmt.Errorf("%w: spawn x %d", ErrInvalidRules, r.SpawnX)
	}
	for _, v := range r.FallIntervals {
		if v <= 0 {
			return r, fmt.Errorf("%w: fall interval %d", ErrInvalidRules, v)
		}
	}
	for _, v := range r.LockDelays {
		if v <= 0 {
			return r, fmt.Errorf("%w: lock delay %d", ErrInvalidRules, v)
		}
	}

	if r.StartLevel < 0 {
		r.StartLevel = 0
	}
	if r.StartLevel > r.MaxLevel {
		r.StartLevel = r.MaxLevel
	}
	r.FallIntervals = append([]int(nil), r.FallIntervals...)
	r.LockDelays = append([]int(nil), r.LockDelays...)
	r.ClearPoints = append([]int(nil), r.ClearPoints...)
	return r, nil
}

// levelIndex はテーブルの範囲に収まるようにレベルを丸めます。
func levelIndex(table []int, level int) int {
	if level < 0 {
		return 0
	}
	if level >= len(table) {
		return len(table) - 1
	}
	return level
}

// FallInterval はレベルに対応する通常の落下間隔（フレーム）を返します。
func (r Rules) FallInterval(level int) int {
	return r.FallIntervals[levelIndex(r.FallIntervals, level)]
}

// LockDelay はレベルに対応する固定猶予（フレーム）を返します。
func (r Rules) LockDelay(level int) int {
	return r.LockDelays[levelIndex(r.LockDelays, level)]
}
