package tetris

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket" // WebSocketライブラリのインポート

	"github.com/progate-hackathon-strawberry-flavor/TETRIX-backend/internal/database"
)

const (
	// DefaultTickRate は1秒あたりのフレーム数です。
	DefaultTickRate = 60

	clientSendBuffer = 256               // クライアントごとの送信バッファ
	readWait         = 300 * time.Second // 読み込みタイムアウト
	writeWait        = 10 * time.Second  // 書き込みタイムアウト
	pingPeriod       = 60 * time.Second  // ピング送信間隔
	maxMessageSize   = 1024              // 受信メッセージの最大サイズ
)

var (
	// ErrSessionNotFound は指定されたセッションが存在しない場合のエラーです。
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidInput は解釈できない入力イベントを受け取った場合のエラーです。
	ErrInvalidInput = errors.New("invalid input event")
)

// Client はWebSocket接続を持つ単一のクライアント（レンダラー）を表します。
type Client struct {
	SessionID string          // このクライアントが表示しているセッションのID
	Conn      *websocket.Conn // クライアントとの実際のWebSocketコネクション
	Send      chan []byte     // クライアントへメッセージを送信するためのバッファ付きチャネル
	closed    bool            // チャネルが閉じられたかどうかのフラグ
	mu        sync.Mutex      // closedフラグ保護用
}

// SafeSend は安全にチャネルにメッセージを送信します（closedチェック付き）
func (c *Client) SafeSend(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false // 既に閉じられている
	}

	select {
	case c.Send <- message:
		return true // 送信成功
	default:
		return false // チャネルがフル
	}
}

// SafeClose は安全にチャネルを閉じます
func (c *Client) SafeClose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.Send)
		c.closed = true
	}
}

// Frame はフレームごとにクライアントへ送るメッセージです。
type Frame struct {
	Snapshot Snapshot `json:"snapshot"`
	Events   []Event  `json:"events"`
}

// sessionEntry は SessionManager が保持するセッションごとの情報です。
type sessionEntry struct {
	mu         sync.Mutex
	session    *GameSession
	playerID   string
	startLevel int
	held       HeldKeys     // 現在押されているキー
	queue      []InputEvent // 次のフレームで処理するキーイベント
	snapshot   Snapshot     // 直前のフレーム終了時点の状態
	saved      bool         // 結果を保存済みかどうか
}

// SessionManager はゲームセッションとWebSocketクライアント接続の全体を管理します。
// これはアプリケーション内でシングルトンとして動作することが想定されます。
// Run がフレームループを回し、Tick を呼ぶのは SessionManager だけです。
type SessionManager struct {
	sessions   map[string]*sessionEntry // sessionID -> セッション
	clients    map[*Client]bool         // 接続中の全WebSocketクライアント
	quit       chan struct{}            // シャットダウン用チャネル
	quitOnce   sync.Once
	mu         sync.RWMutex             // sessions と clients マップへのアクセスを保護するためのRWMutex
	rules      Rules                    // 新しいセッションに使うルール
	tickRate   int                      // 1秒あたりのフレーム数
	resultRepo database.ResultRepository
	newRand    func() *rand.Rand // ピース抽選用の乱数生成器を作る関数
}

// NewSessionManager は新しい SessionManager インスタンスを作成します。
// フレームループは Run をゴルーチンで呼び出して開始します。
//
// Parameters:
//   rules      : 新しいセッションに使うルール
//   tickRate   : 1秒あたりのフレーム数（0以下なら60）
//   resultRepo : ゲーム結果の保存先
// Returns:
//   *SessionManager: 初期化されたセッションマネージャーのポインタ
func NewSessionManager(rules Rules, tickRate int, resultRepo database.ResultRepository) *SessionManager {
	if tickRate <= 0 {
		tickRate = DefaultTickRate
	}
	return &SessionManager{
		sessions:   make(map[string]*sessionEntry),
		clients:    make(map[*Client]bool),
		quit:       make(chan struct{}),
		rules:      rules,
		tickRate:   tickRate,
		resultRepo: resultRepo,
		newRand: func() *rand.Rand {
			// 乱数生成器のシードを現在時刻で初期化
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

// Run は SessionManager のメインループです。
// tickRate の間隔で全セッションを1フレーム進めます。Shutdown で終了します。
func (sm *SessionManager) Run() {
	ticker := time.NewTicker(time.Second / time.Duration(sm.tickRate))
	defer ticker.Stop()

	log.Printf("[SessionManager] Frame loop started at %d Hz", sm.tickRate)
	for {
		select {
		case <-ticker.C:
			sm.Step()
		case <-sm.quit:
			// シャットダウンシグナルを受信したらメインループを終了
			log.Printf("[SessionManager] シャットダウンシグナルを受信、メインループを終了します")
			return
		}
	}
}

// CreateSession は新しいゲームセッションを作成します。
//
// Parameters:
//   playerID   : プレイヤーのID
//   startLevel : 開始レベル（nil なら設定のレベル。ルールの範囲に丸められます）
// Returns:
//   string: 作成されたセッションのID
//   error : エラーが発生した場合
func (sm *SessionManager) CreateSession(playerID string, startLevel *int) (string, error) {
	sessionID := uuid.New().String() // 新しいセッションIDを生成

	level := sm.rules.StartLevel
	if startLevel != nil {
		level = *startLevel
	}
	entry := &sessionEntry{
		playerID:   playerID,
		startLevel: level,
		held:       HeldKeys{},
	}
	if err := sm.startGame(sessionID, entry); err != nil {
		log.Printf("[SessionManager] Failed to create session for player %s: %v", playerID, err)
		return "", err
	}

	sm.mu.Lock()
	sm.sessions[sessionID] = entry
	sm.mu.Unlock()

	log.Printf("[SessionManager] Session %s created for player %s (start level %d)", sessionID, playerID, entry.session.Level)
	return sessionID, nil
}

// startGame はエントリに新しい GameSession を作成します。呼び出し側が entry.mu を保持するか、
// エントリがまだ共有されていない必要があります。
func (sm *SessionManager) startGame(sessionID string, entry *sessionEntry) error {
	rules := sm.rules
	rules.StartLevel = entry.startLevel
	session, err := NewGameSession(sessionID, rules, sm.newRand())
	if err != nil {
		return fmt.Errorf("failed to start game: %w", err)
	}
	entry.session = session
	entry.held = HeldKeys{}
	entry.queue = nil
	entry.saved = false
	entry.snapshot = session.Snapshot()
	return nil
}

// SubmitInput はプレイヤーのキーイベントを次のフレーム用のキューに追加します。
//
// Parameters:
//   sessionID : 対象のセッションID
//   ev        : キーイベント
// Returns:
//   error: セッションがない場合は ErrSessionNotFound、不正なイベントは ErrInvalidInput
func (sm *SessionManager) SubmitInput(sessionID string, ev InputEvent) error {
	if ev.Type != KeyDown && ev.Type != KeyUp {
		return fmt.Errorf("%w: type %q", ErrInvalidInput, ev.Type)
	}
	if _, ok := ParseAction(string(ev.Action)); !ok {
		return fmt.Errorf("%w: action %q", ErrInvalidInput, ev.Action)
	}

	entry, ok := sm.entry(sessionID)
	if !ok {
		return ErrSessionNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.held.Apply(ev)
	entry.queue = append(entry.queue, ev)
	return nil
}

func (sm *SessionManager) entry(sessionID string) (*sessionEntry, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	entry, ok := sm.sessions[sessionID]
	return entry, ok
}

// GetSnapshot は直前のフレーム終了時点のゲーム状態を返します。
func (sm *SessionManager) GetSnapshot(sessionID string) (Snapshot, bool) {
	entry, ok := sm.entry(sessionID)
	if !ok {
		return Snapshot{}, false
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.snapshot, true
}

// Step は全セッションを1フレーム進め、接続中のクライアントへ結果を送信します。
func (sm *SessionManager) Step() {
	sm.mu.RLock()
	ids := make([]string, 0, len(sm.sessions))
	entries := make([]*sessionEntry, 0, len(sm.sessions))
	for id, entry := range sm.sessions {
		ids = append(ids, id)
		entries = append(entries, entry)
	}
	sm.mu.RUnlock()

	for i, entry := range entries {
		frame, ended := sm.stepSession(ids[i], entry)
		if ended {
			sm.EndSession(ids[i])
			continue
		}
		if frame != nil {
			sm.broadcast(ids[i], frame)
		}
	}
}

// stepSession は1つのセッションを1フレーム進めます。
// quit が押された場合やゲームロジックが panic した場合は ended を返します。
func (sm *SessionManager) stepSession(sessionID string, entry *sessionEntry) (frame *Frame, ended bool) {
	entry.mu.Lock()
	defer entry.mu.Unlock()

	defer func() {
		// パニック回復処理
		if r := recover(); r != nil {
			log.Printf("[SessionManager] Panic in session %s: %v", sessionID, r)
			frame, ended = nil, true
		}
	}()

	events := entry.queue
	entry.queue = nil

	for _, ev := range events {
		if ev.Type != KeyDown {
			continue
		}
		switch ev.Action {
		case ActionQuit:
			log.Printf("[SessionManager] Player %s quit session %s", entry.playerID, sessionID)
			return nil, true
		case ActionConfirm:
			if entry.session.IsGameOver {
				log.Printf("[SessionManager] Restarting session %s for player %s", sessionID, entry.playerID)
				if err := sm.startGame(sessionID, entry); err != nil {
					log.Printf("[SessionManager] Failed to restart session %s: %v", sessionID, err)
					return nil, true
				}
				// 再スタートしたフレームのキー入力は新しいゲームには渡さない
				events = nil
			}
		}
	}

	tickEvents := entry.session.Tick(TickInput{Events: events, Held: entry.held.Clone()})
	entry.snapshot = entry.session.Snapshot()

	if entry.session.IsGameOver && !entry.saved {
		entry.saved = true
		sm.saveResult(sessionID, entry)
	}

	return &Frame{Snapshot: entry.snapshot, Events: tickEvents}, false
}

// saveResult はゲームオーバーになったセッションの結果を保存します。
func (sm *SessionManager) saveResult(sessionID string, entry *sessionEntry) {
	s := entry.session
	log.Printf("[SessionManager] Player %s Game Over! Session: %s, Final Score: %d, Lines Cleared: %d, Level: %d",
		entry.playerID, sessionID, s.Score, s.LinesCleared, s.Level)
	if sm.resultRepo == nil {
		return
	}
	if _, err := sm.resultRepo.CreateResult(nil, entry.playerID, s.Score, s.LinesCleared, s.Level); err != nil {
		log.Printf("[SessionManager] Failed to save result for session %s: %v", sessionID, err)
		return
	}
	log.Printf("[SessionManager] Result saved for player %s", entry.playerID)
}

// broadcast はセッションを表示している全クライアントにフレームを送信します。
func (sm *SessionManager) broadcast(sessionID string, frame *Frame) {
	sm.mu.RLock()
	var targets []*Client
	for client := range sm.clients {
		if client.SessionID == sessionID {
			targets = append(targets, client)
		}
	}
	sm.mu.RUnlock()
	if len(targets) == 0 {
		return
	}

	message, err := json.Marshal(frame)
	if err != nil {
		log.Printf("[SessionManager] Error marshaling frame for session %s: %v", sessionID, err)
		return
	}
	for _, client := range targets {
		if !client.SafeSend(message) {
			log.Printf("[SessionManager] Failed to send to client of session %s (channel closed or full)", sessionID)
		}
	}
}

// EndSession はゲームセッションを終了させ、クライアントを切断してセッションを削除します。
//
// Parameters:
//   sessionID : 終了するセッションのID
// Returns:
//   error: セッションが存在しない場合は ErrSessionNotFound
func (sm *SessionManager) EndSession(sessionID string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, ok := sm.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(sm.sessions, sessionID)

	for client := range sm.clients {
		if client.SessionID == sessionID {
			client.SafeClose()
			delete(sm.clients, client)
		}
	}
	log.Printf("[SessionManager] Session %s ended", sessionID)
	return nil
}

// SessionCount は現在のセッション数を返します。
func (sm *SessionManager) SessionCount() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// RegisterClient はWebSocket接続をセッションに登録し、読み書きのゴルーチンを開始します。
//
// Parameters:
//   sessionID : 表示するセッションのID
//   conn      : アップグレード済みのWebSocket接続
// Returns:
//   error: セッションが存在しない場合は ErrSessionNotFound
func (sm *SessionManager) RegisterClient(sessionID string, conn *websocket.Conn) error {
	sm.mu.Lock()
	if _, ok := sm.sessions[sessionID]; !ok {
		sm.mu.Unlock()
		return ErrSessionNotFound
	}
	client := &Client{
		SessionID: sessionID,
		Conn:      conn,
		Send:      make(chan []byte, clientSendBuffer),
	}
	sm.clients[client] = true
	sm.mu.Unlock()

	// 接続直後に現在の状態を送る
	if snap, ok := sm.GetSnapshot(sessionID); ok {
		if message, err := json.Marshal(Frame{Snapshot: snap, Events: []Event{}}); err == nil {
			client.SafeSend(message)
		}
	}

	go sm.readPump(client)
	go client.writePump()

	log.Printf("[SessionManager] Client registered for session %s", sessionID)
	return nil
}

// unregisterClient はクライアントの登録を解除します。セッション自体は終了しません。
func (sm *SessionManager) unregisterClient(client *Client) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if _, ok := sm.clients[client]; ok {
		client.SafeClose()
		delete(sm.clients, client)
		log.Printf("[SessionManager] Client unregistered from session %s", client.SessionID)
	}
}

// readPump はクライアントからのWebSocketメッセージ（InputEvent のJSON）を読み込み、入力キューに追加します。
func (sm *SessionManager) readPump(client *Client) {
	defer func() {
		// パニック回復処理
		if r := recover(); r != nil {
			log.Printf("[SessionManager] Panic in readPump for session %s: %v", client.SessionID, r)
		}
		sm.unregisterClient(client)
		client.Conn.Close()
	}()

	client.Conn.SetReadLimit(maxMessageSize)
	client.Conn.SetReadDeadline(time.Now().Add(readWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(readWait)) // Pong受信時にタイムアウトリセット
		return nil
	})

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Printf("[SessionManager] WebSocket unexpected close error for session %s: %v", client.SessionID, err)
			}
			return
		}

		var ev InputEvent
		if err := json.Unmarshal(message, &ev); err != nil {
			log.Printf("[SessionManager] Failed to unmarshal input message for session %s: %v", client.SessionID, err)
			continue // パース失敗時はこのメッセージをスキップ
		}
		if err := sm.SubmitInput(client.SessionID, ev); err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				return
			}
			log.Printf("[SessionManager] Rejected input for session %s: %v", client.SessionID, err)
		}
	}
}

// writePump は Client の Send チャネルからのメッセージをWebSocketコネクションに書き込みます。
// クライアントごとにこのゴルーチンが動作します。
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		// パニック回復処理
		if r := recover(); r != nil {
			log.Printf("[Client] Panic in writePump for session %s: %v", c.SessionID, r)
		}
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// マネージャーがチャネルを閉じた場合 (セッション終了時など)
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[Client] Error writing message for session %s: %v", c.SessionID, err)
				return
			}

		case <-ticker.C:
			// ピングメッセージを定期的に送信してコネクションの生存確認
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Shutdown はSessionManagerを安全にシャットダウンします
func (sm *SessionManager) Shutdown() {
	log.Printf("[SessionManager] シャットダウン開始...")

	// quitチャネルを閉じてRunメソッドのメインループを終了（2回目以降は何もしない）
	sm.quitOnce.Do(func() { close(sm.quit) })

	sm.mu.Lock()
	for client := range sm.clients {
		client.SafeClose()
	}
	sm.clients = make(map[*Client]bool)
	sm.sessions = make(map[string]*sessionEntry)
	sm.mu.Unlock()

	log.Printf("[SessionManager] シャットダウン完了")
}
