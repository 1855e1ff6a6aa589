package database

import (
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/TETRIX-backend/internal/models"
)

// memoryResultRepository はプロセス内に結果を保持する ResultRepository の実装です。
// DATABASE_URL が設定されていない場合とテストで使います。
type memoryResultRepository struct {
	mu      sync.RWMutex
	results []models.Result
	nextID  int64
	now     func() time.Time
}

// NewMemoryResultRepository はメモリ上の ResultRepository を作成します。
func NewMemoryResultRepository() ResultRepository {
	return &memoryResultRepository{nextID: 1, now: time.Now}
}

// CreateResult は結果を追加します。tx は無視されます。
func (r *memoryResultRepository) CreateResult(_ *sql.Tx, userID string, score, linesCleared, level int) (*models.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := models.Result{
		ID:           r.nextID,
		UserID:       userID,
		Score:        score,
		LinesCleared: linesCleared,
		Level:        level,
		CreatedAt:    r.now(),
	}
	r.nextID++
	r.results = append(r.results, result)
	return &result, nil
}

// ranked はスコア降順（同点は古い順、さらにID順）に並べたコピーを返します。
func (r *memoryResultRepository) ranked() []models.Result {
	sorted := append([]models.Result(nil), r.results...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return sorted
}

func (r *memoryResultRepository) GetTopResults(limit int) ([]models.ResultResponse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := []models.ResultResponse{}
	for i, res := range r.ranked() {
		if limit > 0 && i >= limit {
			break
		}
		results = append(results, *toResponse(&res, i+1))
	}
	return results, nil
}

func (r *memoryResultRepository) GetUserBestScore(userID string) (*models.Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, res := range r.ranked() {
		if res.UserID == userID {
			best := res
			return &best, nil
		}
	}
	return nil, nil
}

func (r *memoryResultRepository) GetUserRanking(userID string) (*models.ResultResponse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i, res := range r.ranked() {
		if res.UserID == userID {
			return toResponse(&res, i+1), nil
		}
	}
	return nil, nil
}
