package tetris

import (
	"fmt"
	"math/rand"

	"github.com/progate-hackathon-strawberry-flavor/TETRIX-backend/internal/models/tetris"
)

// GameSession は1人のプレイヤーのゲーム状態です。
// 1フレームごとに Tick を呼び出して進めます。並行呼び出しには対応していないため、
// 呼び出し側（SessionManager）が排他制御を行います。
type GameSession struct {
	ID string

	Progress                         // スコア・消去ライン数・レベル
	Board        *tetris.Board       // 固定済みブロックのボード
	CurrentPiece *tetris.Piece       // 操作中のテトリミノ（ロックアウト後は nil）
	NextPiece    tetris.PieceType    // 次に出現するテトリミノの種類
	Frame        int                 // 落下判定用のフレームカウンタ（スポーン待機中は進まない）
	IsPaused     bool                // 一時停止中かどうか
	IsGameOver   bool                // ゲームオーバー状態かどうか

	rules      Rules
	randomizer *tetris.Randomizer
	gravity    GravityController
	lock       LockController
	lineClear  LineClearEngine
	autoShift  AutoShift
	freeze     SpawnFreeze
	pending    []Event // 次の Tick で返すイベント
}

// NewGameSession は新しいゲームセッションを初期化して返します。
// 最初のピースのスポーンイベントは最初の Tick で返されます。
//
// Parameters:
//   id    : セッションID
//   rules : ルール設定（Normalize で検証されます）
//   rng   : ピース抽選用の乱数生成器
// Returns:
//   *GameSession: 初期化されたゲームセッション
//   error       : ルールが不正な場合のエラー
func NewGameSession(id string, rules Rules, rng *rand.Rand) (*GameSession, error) {
	rules, err := rules.Normalize()
	if err != nil {
		return nil, fmt.Errorf("ゲームセッションの作成に失敗しました: %w", err)
	}
	if rng == nil {
		return nil, fmt.Errorf("ゲームセッションの作成に失敗しました: %w: nil rng", ErrInvalidRules)
	}

	s := &GameSession{
		ID:         id,
		Progress:   Progress{Level: rules.StartLevel},
		Board:      tetris.NewBoard(rules.Cols, rules.Rows, rules.HiddenRows),
		rules:      rules,
		randomizer: tetris.NewRandomizer(rng),
		gravity:    NewGravityController(rules),
		lock:       NewLockController(rules),
		lineClear:  NewLineClearEngine(rules),
		autoShift:  NewAutoShift(rules.DAS, rules.ARR),
	}

	first := s.randomizer.Next(tetris.NoPiece)
	s.NextPiece = s.randomizer.Next(first)
	s.spawn(first)

	return s, nil
}

// Rules はセッションのルール設定を返します。
func (s *GameSession) Rules() Rules {
	return s.rules
}

// emit は次に返すイベントを追加します。
func (s *GameSession) emit(ev Event) {
	s.pending = append(s.pending, ev)
}

// spawn は指定された種類のピースをスポーン位置に出現させます。
// スポーン位置で衝突した場合はゲームオーバーになります。
func (s *GameSession) spawn(t tetris.PieceType) {
	s.CurrentPiece = tetris.NewPiece(t, s.rules.SpawnX, s.rules.SpawnY, s.lock.Delay(s.Level))
	s.freeze.Start(s.rules.SpawnFreeze)
	s.emit(Event{Type: EventPieceSpawned, Piece: t.String()})

	if s.CurrentPiece.Colliding(s.Board) {
		s.IsGameOver = true
		s.emit(Event{Type: EventGameOver})
	}
}

// spawnNext は次のピースを出現させ、その次のピースを抽選します。
func (s *GameSession) spawnNext() {
	t := s.NextPiece
	s.NextPiece = s.randomizer.Next(t)
	s.spawn(t)
}

// PieceSnapshot は操作中のピースの表示用情報です。
type PieceSnapshot struct {
	Type      string         `json:"type"`
	Rotation  int            `json:"rotation"`
	X         int            `json:"x"`
	Y         int            `json:"y"`
	Cells     []tetris.Point `json:"cells"`
	LockTimer int            `json:"lock_timer"`
	Flashing  bool           `json:"flashing"` // 固定済みで点滅中
}

// Snapshot はレンダラーに渡すゲーム状態のコピーです。
// 元のセッションとメモリを共有しません。
type Snapshot struct {
	SessionID    string               `json:"session_id"`
	Board        [][]tetris.BlockType `json:"board"` // board[y][x]、表示部分のみ
	CurrentPiece *PieceSnapshot       `json:"current_piece"`
	NextPiece    string               `json:"next_piece"`
	Score        int                  `json:"score"`
	LinesCleared int                  `json:"lines_cleared"`
	Level        int                  `json:"level"`
	Frame        int                  `json:"frame"`
	IsPaused     bool                 `json:"is_paused"`
	IsGameOver   bool                 `json:"is_game_over"`
}

// Snapshot は現在のゲーム状態のディープコピーを返します。
func (s *GameSession) Snapshot() Snapshot {
	snap := Snapshot{
		SessionID:    s.ID,
		Board:        s.Board.Rows(),
		NextPiece:    s.NextPiece.String(),
		Score:        s.Score,
		LinesCleared: s.LinesCleared,
		Level:        s.Level,
		Frame:        s.Frame,
		IsPaused:     s.IsPaused,
		IsGameOver:   s.IsGameOver,
	}
	if p := s.CurrentPiece; p != nil {
		snap.CurrentPiece = &PieceSnapshot{
			Type:      p.Type.String(),
			Rotation:  p.Rotation,
			X:         p.X,
			Y:         p.Y,
			Cells:     p.Cells(),
			LockTimer: p.LockTimer,
			Flashing:  s.lock.Flashing(p),
		}
	}
	return snap
}
