package tetris

import (
	"fmt"

	"github.com/progate-hackathon-strawberry-flavor/TETRIX-backend/internal/models/tetris"
)

// Tick はゲームを1フレーム進め、このフレームで発生したイベントを返します。
// 処理順は次の通りです。
//
//   1. キー押下イベント（一時停止の切り替え、移動・回転・ソフトドロップ）
//   2. 一時停止中ならここで終了
//   3. オートリピート（DAS/ARR）
//   4. 固定タイマーのカウントダウン
//   5. 自動落下
//   6. ボードへの書き込み、ライン消去、次のピースのスポーン
//   7. スポーン待機のカウントダウン、またはフレームカウンタを進める
//
// Parameters:
//   in : このフレームの入力（キーイベントと押されているキー）
// Returns:
//   []Event: このフレームで発生したイベント
func (s *GameSession) Tick(in TickInput) []Event {
	if s.IsGameOver {
		return s.flush()
	}

	s.applyKeyDowns(in.Events)
	if s.IsPaused || s.IsGameOver {
		return s.flush()
	}

	softDrop := in.Held.Pressed(ActionSoftDrop)
	s.applyAutoShift(in.Held.Direction())
	s.lock.Countdown(s.CurrentPiece, s.CurrentPiece.Landed(s.Board), softDrop)
	s.applyGravity(softDrop)

	if s.lock.ShouldCommit(s.CurrentPiece) {
		s.commit()
		if s.IsGameOver {
			return s.flush()
		}
	}

	if s.freeze.Active() {
		s.freeze.Tick()
	} else {
		s.Frame++
	}
	return s.flush()
}

// flush は溜まっているイベントを返して空にします。
func (s *GameSession) flush() []Event {
	events := s.pending
	s.pending = nil
	return events
}

// applyKeyDowns はこのフレームのキー押下を順番に処理します。
// キーを離すイベントは HeldKeys に反映済みなのでここでは無視します。
func (s *GameSession) applyKeyDowns(events []InputEvent) {
	for _, ev := range events {
		if ev.Type != KeyDown {
			continue
		}
		switch ev.Action {
		case ActionPause:
			s.IsPaused = !s.IsPaused
			continue
		case ActionConfirm, ActionQuit:
			// セッションの外側（SessionManager）が扱う
			continue
		}

		p := s.CurrentPiece
		if s.IsPaused || p == nil || s.lock.Locked(p) {
			continue
		}

		switch ev.Action {
		case ActionMoveLeft:
			s.shift(tetris.DirLeft, true)
		case ActionMoveRight:
			s.shift(tetris.DirRight, true)
		case ActionRotateRight:
			s.rotate(tetris.RotateCW)
		case ActionRotateLeft:
			s.rotate(tetris.RotateCCW)
		case ActionSoftDrop:
			s.freeze.Cancel()
		}
	}
}

// shift はピースを横に1マス動かします。
// discrete が true の場合（キー押下による単発移動）はオートリピートのカウンタを0に戻します。
func (s *GameSession) shift(dir tetris.Direction, discrete bool) {
	if discrete {
		s.freeze.Cancel()
		s.autoShift.Reset()
	}
	if s.CurrentPiece.Shift(dir, s.Board) {
		s.lock.Reset(s.CurrentPiece, s.Level)
	}
}

// rotate はピースを回転させ、成功したら固定タイマーを戻します。
func (s *GameSession) rotate(dir tetris.RotationDirection) {
	s.freeze.Cancel()
	if s.CurrentPiece.Rotate(dir, s.Board) {
		s.lock.Reset(s.CurrentPiece, s.Level)
	}
}

// applyAutoShift は押しっぱなしの左右キーによる横移動を処理します。
func (s *GameSession) applyAutoShift(held tetris.Direction) {
	suppressed := s.freeze.Active() || s.lock.Locked(s.CurrentPiece)
	if dir := s.autoShift.Update(held, suppressed); dir != tetris.DirNone {
		s.shift(dir, false)
	}
}

// applyGravity は落下タイミングであればピースを1マス落とします。
// ソフトドロップによる落下は1マスごとに1点加算されます。
func (s *GameSession) applyGravity(softDrop bool) {
	if s.freeze.Active() || s.lock.Locked(s.CurrentPiece) {
		return
	}
	if !s.gravity.Due(s.Frame, s.Level, softDrop) {
		return
	}
	if s.CurrentPiece.Fall(s.Board) {
		s.lock.Reset(s.CurrentPiece, s.Level)
		if softDrop {
			s.Score++
		}
	}
}

// commit はピースをボードに書き込み、ライン消去と次のピースのスポーンを行います。
// 見えない行より上（y < 0）に書き込んだ場合はゲームオーバーになります。
func (s *GameSession) commit() {
	p := s.CurrentPiece
	cells := p.Cells()
	if err := s.Board.Lock(cells, p.Type.Block()); err != nil {
		// 衝突しない位置にしかピースは存在しないので、ここに来るのはバグ
		panic(fmt.Errorf("session %s: commit %s: %w", s.ID, p.Type, err))
	}
	s.emit(Event{Type: EventPieceLocked, Piece: p.Type.String()})

	for _, c := range cells {
		if c.Y < 0 {
			s.CurrentPiece = nil
			s.IsGameOver = true
			s.emit(Event{Type: EventGameOver})
			return
		}
	}

	result := s.lineClear.Apply(s.Board, &s.Progress)
	if len(result.Rows) > 0 {
		s.emit(Event{Type: EventRowsCleared, Rows: result.Rows, Points: result.Points})
	}
	if result.LevelUp {
		s.emit(Event{Type: EventLevelUp, Level: s.Level})
	}

	s.spawnNext()
}
