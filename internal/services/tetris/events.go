package tetris

// EventType はゲームセッションが1フレームで発生させるイベントの種類です。
type EventType string

const (
	EventPieceSpawned EventType = "piece_spawned"
	EventPieceLocked  EventType = "piece_locked"
	EventRowsCleared  EventType = "rows_cleared"
	EventLevelUp      EventType = "level_up"
	EventGameOver     EventType = "game_over"
)

// Event はレンダラーに通知されるゲーム内の出来事です。
type Event struct {
	Type   EventType `json:"type"`
	Piece  string    `json:"piece,omitempty"`  // piece_spawned / piece_locked: ピースの種類
	Rows   []int     `json:"rows,omitempty"`   // rows_cleared: 消えた行
	Points int       `json:"points,omitempty"` // rows_cleared: 加算されたスコア
	Level  int       `json:"level,omitempty"`  // level_up: 新しいレベル
}
