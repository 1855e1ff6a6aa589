package tetris

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/progate-hackathon-strawberry-flavor/TETRIX-backend/internal/models/tetris"
)

// TestShift_StopsAtWall はピースの左移動と壁との衝突をテストします。
func TestShift_StopsAtWall(t *testing.T) {
	s := newTestSession(t, tetris.TypeT, DefaultRules())
	initialX := s.CurrentPiece.X

	s.shift(tetris.DirLeft, true)
	if s.CurrentPiece.X != initialX-1 {
		t.Errorf("Expected X to be %d, but got %d", initialX-1, s.CurrentPiece.X)
	}

	// 左端まで移動させる
	for i := 0; i < s.Board.Width(); i++ {
		s.shift(tetris.DirLeft, true)
	}
	minX := s.Board.Width()
	for _, c := range s.CurrentPiece.Cells() {
		if c.X < minX {
			minX = c.X
		}
	}
	if minX != 0 {
		t.Errorf("Expected leftmost cell at column 0, but got %d", minX)
	}

	x := s.CurrentPiece.X
	s.shift(tetris.DirLeft, true)
	if s.CurrentPiece.X != x {
		t.Errorf("Expected X to remain %d, but got %d", x, s.CurrentPiece.X)
	}
}

// TestShift_CancelsSpawnFreeze はキー操作でスポーン待機が解除されることをテストします。
func TestShift_CancelsSpawnFreeze(t *testing.T) {
	s := newTestSession(t, tetris.TypeJ, DefaultRules())
	if !s.freeze.Active() {
		t.Fatal("Expected spawn freeze to be active after spawn")
	}

	s.shift(tetris.DirRight, true)
	if s.freeze.Active() {
		t.Error("Expected spawn freeze to be cancelled by a key press")
	}
}

// TestShift_AutoRepeatKeepsFreeze はオートリピートによる移動ではスポーン待機を解除しないことをテストします。
func TestShift_AutoRepeatKeepsFreeze(t *testing.T) {
	s := newTestSession(t, tetris.TypeJ, DefaultRules())

	s.shift(tetris.DirRight, false)
	if !s.freeze.Active() {
		t.Error("Expected spawn freeze to stay active")
	}
}

// TestHeldSoftDrop_KeepsSpawnFreeze は押しっぱなしのソフトドロップではスポーン待機が解除されないことをテストします。
// 解除するのは新しいキー押下だけです。
func TestHeldSoftDrop_KeepsSpawnFreeze(t *testing.T) {
	s := newTestSession(t, tetris.TypeT, DefaultRules())
	held := HeldKeys{ActionSoftDrop: true}

	s.Tick(TickInput{Held: held})
	if !s.freeze.Active() {
		t.Error("Expected spawn freeze to stay active while soft drop is only held")
	}
	if s.CurrentPiece.Y != s.rules.SpawnY {
		t.Errorf("Expected piece to stay at row %d, but got %d", s.rules.SpawnY, s.CurrentPiece.Y)
	}

	s.Tick(TickInput{Events: []InputEvent{{Type: KeyDown, Action: ActionSoftDrop}}, Held: held})
	if s.freeze.Active() {
		t.Error("Expected a soft drop key press to cancel the spawn freeze")
	}
}

// TestRotate_OPieceKeepsCells はOミノが回転しても同じマスを占めることをテストします。
func TestRotate_OPieceKeepsCells(t *testing.T) {
	s := newTestSession(t, tetris.TypeO, DefaultRules())
	before := s.CurrentPiece.Cells()

	s.rotate(tetris.RotateCW)
	// 回転でセルの並び順は変わるので集合として比較する
	byPosition := cmpopts.SortSlices(func(a, b tetris.Point) bool {
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	if diff := cmp.Diff(before, s.CurrentPiece.Cells(), byPosition); diff != "" {
		t.Errorf("O piece cells changed after rotation (-before +after):\n%s", diff)
	}
}

// TestRotate_ChangesRotation は回転状態が時計回り・反時計回りに変化することをテストします。
func TestRotate_ChangesRotation(t *testing.T) {
	s := newTestSession(t, tetris.TypeT, DefaultRules())
	s.CurrentPiece.Y = 5

	s.rotate(tetris.RotateCW)
	if s.CurrentPiece.Rotation != 1 {
		t.Errorf("Expected rotation 1 after CW, but got %d", s.CurrentPiece.Rotation)
	}
	s.rotate(tetris.RotateCCW)
	s.rotate(tetris.RotateCCW)
	if s.CurrentPiece.Rotation != 3 {
		t.Errorf("Expected rotation 3 after two CCW, but got %d", s.CurrentPiece.Rotation)
	}
}

// TestCommit_LocksAndSpawnsNext は着地したピースがボードに書き込まれ、次のピースが出現することをテストします。
func TestCommit_LocksAndSpawnsNext(t *testing.T) {
	s := newTestSession(t, tetris.TypeT, DefaultRules())
	s.flush()

	for s.CurrentPiece.Fall(s.Board) {
	}
	cells := s.CurrentPiece.Cells()

	s.commit()

	for _, c := range cells {
		if got := s.Board.At(c.X, c.Y); got != tetris.BlockT {
			t.Errorf("Expected block T at (%d, %d), but got %d", c.X, c.Y, got)
		}
	}
	if s.IsGameOver {
		t.Fatal("Expected the game to continue")
	}
	if s.CurrentPiece == nil || s.CurrentPiece.Y != s.rules.SpawnY {
		t.Fatalf("Expected a new piece at the spawn row, got %+v", s.CurrentPiece)
	}

	want := []EventType{EventPieceLocked, EventPieceSpawned}
	if diff := cmp.Diff(want, eventTypes(s.flush())); diff != "" {
		t.Errorf("unexpected events (-want +got):\n%s", diff)
	}
}

// TestCommit_AboveVisibleAreaIsGameOver は見えない行にブロックが残る固定でゲームオーバーになることをテストします。
func TestCommit_AboveVisibleAreaIsGameOver(t *testing.T) {
	s := newTestSession(t, tetris.TypeT, DefaultRules())
	s.flush()

	// Tミノの回転0は基準点の1行上にブロックがある
	s.commit()

	if !s.IsGameOver {
		t.Error("Expected game over after locking above the visible area")
	}
	if s.CurrentPiece != nil {
		t.Error("Expected no current piece after game over")
	}
	want := []EventType{EventPieceLocked, EventGameOver}
	if diff := cmp.Diff(want, eventTypes(s.flush())); diff != "" {
		t.Errorf("unexpected events (-want +got):\n%s", diff)
	}
}
