package tetris

import (
	"errors"
	"testing"

	"github.com/progate-hackathon-strawberry-flavor/TETRIX-backend/internal/models/tetris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRules_Normalize(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		r, err := DefaultRules().Normalize()
		require.NoError(t, err)
		assert.Len(t, r.FallIntervals, 31)
		assert.Len(t, r.LockDelays, 31)
	})

	t.Run("start level is clamped", func(t *testing.T) {
		rules := DefaultRules()
		rules.StartLevel = 99
		r, err := rules.Normalize()
		require.NoError(t, err)
		assert.Equal(t, 30, r.StartLevel)

		rules.StartLevel = -3
		r, err = rules.Normalize()
		require.NoError(t, err)
		assert.Equal(t, 0, r.StartLevel)
	})

	t.Run("tables are copied", func(t *testing.T) {
		rules := DefaultRules()
		r, err := rules.Normalize()
		require.NoError(t, err)
		rules.FallIntervals[0] = 1
		assert.Equal(t, 48, r.FallIntervals[0])
	})

	invalid := map[string]func(*Rules){
		"zero columns":       func(r *Rules) { r.Cols = 0 },
		"arr above das":      func(r *Rules) { r.ARR = r.DAS + 1 },
		"empty fall table":   func(r *Rules) { r.FallIntervals = nil },
		"short clear points": func(r *Rules) { r.ClearPoints = []int{0, 40} },
		"zero lock delay":    func(r *Rules) { r.LockDelays = []int{0} },
		"spawn outside":      func(r *Rules) { r.SpawnX = r.Cols },
	}
	for name, mutate := range invalid {
		t.Run(name, func(t *testing.T) {
			rules := DefaultRules()
			mutate(&rules)
			_, err := rules.Normalize()
			assert.True(t, errors.Is(err, ErrInvalidRules), "expected ErrInvalidRules, got %v", err)
		})
	}
}

func TestRules_LevelTablesClampHighLevels(t *testing.T) {
	r := DefaultRules()
	assert.Equal(t, 48, r.FallInterval(0))
	assert.Equal(t, 1, r.FallInterval(29))
	assert.Equal(t, 1, r.FallInterval(100))
	assert.Equal(t, 31, r.LockDelay(0))
	assert.Equal(t, 15, r.LockDelay(30))
	assert.Equal(t, 15, r.LockDelay(100))
}

func TestGravityController_Interval(t *testing.T) {
	g := NewGravityController(DefaultRules())

	assert.Equal(t, 48, g.Interval(0, false))
	assert.Equal(t, 2, g.Interval(0, true))
	// 通常の落下間隔が3以下なら1フレームごとに落ちる
	assert.Equal(t, 3, g.Interval(16, false))
	assert.Equal(t, 1, g.Interval(16, true))
	assert.Equal(t, 2, g.Interval(15, true))

	assert.True(t, g.Due(0, 0, false))
	assert.False(t, g.Due(47, 0, false))
	assert.True(t, g.Due(96, 0, false))
	assert.True(t, g.Due(4, 0, true))
	assert.False(t, g.Due(5, 0, true))
}

func TestSpawnFreeze(t *testing.T) {
	var f SpawnFreeze
	assert.False(t, f.Active())

	f.Start(2)
	assert.True(t, f.Active())
	f.Tick()
	assert.Equal(t, 1, f.Remaining())
	f.Tick()
	assert.False(t, f.Active())
	f.Tick()
	assert.Equal(t, 0, f.Remaining())

	f.Start(31)
	f.Cancel()
	assert.False(t, f.Active())
}

func TestLockController(t *testing.T) {
	l := NewLockController(DefaultRules())
	p := tetris.NewPiece(tetris.TypeT, 4, 10, 31)

	// 空中では減らない
	l.Countdown(p, false, false)
	assert.Equal(t, 31, p.LockTimer)

	l.Countdown(p, true, false)
	assert.Equal(t, 30, p.LockTimer)

	// ソフトドロップ中は2に縮めてから減らす
	l.Countdown(p, true, true)
	assert.Equal(t, 1, p.LockTimer)
	l.Countdown(p, true, true)
	assert.Equal(t, 0, p.LockTimer)
	assert.True(t, l.Locked(p))
	assert.True(t, l.Flashing(p))

	// 固定済みなら着地していなくても減り続ける
	l.Countdown(p, false, false)
	l.Countdown(p, false, false)
	l.Countdown(p, false, false)
	assert.False(t, l.ShouldCommit(p))
	l.Countdown(p, false, false)
	assert.Equal(t, -4, p.LockTimer)
	assert.True(t, l.ShouldCommit(p))
	assert.False(t, l.Flashing(p))

	l.Reset(p, 30)
	assert.Equal(t, 15, p.LockTimer)
	assert.False(t, l.Locked(p))
}

func TestLineClearEngine_Apply(t *testing.T) {
	fill := func(b *tetris.Board, rows ...int) {
		for _, y := range rows {
			var cells []tetris.Point
			for x := 0; x < b.Width(); x++ {
				cells = append(cells, tetris.Point{X: x, Y: y})
			}
			require.NoError(t, b.Lock(cells, tetris.BlockI))
		}
	}

	tests := []struct {
		name        string
		rows        []int
		start       Progress
		want        Progress
		wantLevelUp bool
	}{
		{"nothing", nil, Progress{}, Progress{}, false},
		{"single", []int{19}, Progress{}, Progress{Score: 40, LinesCleared: 1}, false},
		{"tetris at level 2", []int{16, 17, 18, 19}, Progress{Level: 2}, Progress{Score: 3600, LinesCleared: 4, Level: 2}, false},
		{"reaching ten lines", []int{19}, Progress{LinesCleared: 9}, Progress{Score: 40, LinesCleared: 10, Level: 1}, true},
		{"several thresholds at once", []int{16, 17, 18, 19}, Progress{LinesCleared: 28}, Progress{Score: 1200, LinesCleared: 32, Level: 1}, true},
		{"max level", []int{19}, Progress{LinesCleared: 399, Level: 30}, Progress{Score: 40 * 31, LinesCleared: 400, Level: 30}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tetris.NewStandardBoard()
			fill(b, tt.rows...)
			e := NewLineClearEngine(DefaultRules())
			progress := tt.start

			result := e.Apply(b, &progress)

			assert.Equal(t, tt.want, progress)
			assert.Equal(t, tt.wantLevelUp, result.LevelUp)
			assert.Equal(t, len(tt.rows), len(result.Rows))
			assert.Empty(t, b.FullRows())
		})
	}
}

func TestHeldKeys(t *testing.T) {
	h := HeldKeys{}
	assert.Equal(t, tetris.DirNone, h.Direction())

	h.Apply(InputEvent{Type: KeyDown, Action: ActionMoveLeft})
	assert.Equal(t, tetris.DirLeft, h.Direction())

	// 左右同時押しは移動しない
	h.Apply(InputEvent{Type: KeyDown, Action: ActionMoveRight})
	assert.Equal(t, tetris.DirNone, h.Direction())

	h.Apply(InputEvent{Type: KeyUp, Action: ActionMoveLeft})
	assert.Equal(t, tetris.DirRight, h.Direction())

	c := h.Clone()
	h.Apply(InputEvent{Type: KeyUp, Action: ActionMoveRight})
	assert.True(t, c.Pressed(ActionMoveRight))
	assert.False(t, h.Pressed(ActionMoveRight))

	var nilKeys HeldKeys
	assert.False(t, nilKeys.Pressed(ActionSoftDrop))
}

func TestParseAction(t *testing.T) {
	a, ok := ParseAction("rotate_left")
	assert.True(t, ok)
	assert.Equal(t, ActionRotateLeft, a)

	_, ok = ParseAction("hard_drop")
	assert.False(t, ok)
}

// TestAutoShift は DAS=16, ARR=6 で16フレーム目に最初の移動、その後6フレームごとに移動することをテストします。
func TestAutoShift(t *testing.T) {
	a := NewAutoShift(16, 6)

	var shifts []int
	for frame := 1; frame <= 28; frame++ {
		if a.Update(tetris.DirLeft, false) != tetris.DirNone {
			shifts = append(shifts, frame)
		}
	}
	assert.Equal(t, []int{16, 22, 28}, shifts)

	// 方向が変わるとカウンタは0から
	a.Update(tetris.DirRight, false)
	assert.Equal(t, 1, a.Counter())

	// 抑制中は進まない
	a.Update(tetris.DirRight, true)
	assert.Equal(t, 1, a.Counter())

	a.Reset()
	assert.Equal(t, 0, a.Counter())

	a.Update(tetris.DirNone, false)
	assert.Equal(t, 0, a.Counter())
}
