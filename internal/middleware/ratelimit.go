package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/chatman/internal/model"
)

// レート制限対象の操作名。バジェットのキーとして使用する。
const (
	OpCreateRoom = "create_room"
	OpProfile    = "profile"
	OpDefault    = "default"
)

// Budget は1操作あたりの呼び出しバジェットを表す。
type Budget struct {
	Rate  rate.Limit // 補充レート（req/sec）
	Burst int        // バーストサイズ
}

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	Budgets         map[string]Budget // 操作名ごとのバジェット
	DefaultBudget   Budget            // 未設定の操作に適用するバジェット
	CleanupInterval time.Duration     // 期限切れエントリのクリーンアップ間隔
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
// 要件: ルーム作成 20 req/min/user、プロフィール更新 500 req/min/user、
// その他のレート制限対象操作 60 req/min/user
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Budgets: map[string]Budget{
			OpCreateRoom: {Rate: rate.Limit(20.0 / 60.0), Burst: 20},
			OpProfile:    {Rate: rate.Limit(500.0 / 60.0), Burst: 500},
		},
		DefaultBudget:   Budget{Rate: rate.Limit(60.0 / 60.0), Burst: 60},
		CleanupInterval: 5 * time.Minute,
	}
}

// callerLimiter は(操作, 呼び出しユーザー)ごとのリミッターとアクセス時刻を保持する。
type callerLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter は(操作, 呼び出しユーザー)ごとのレート制限を管理する。
// カウンタはプロセス全体で共有され、並行リクエストから安全に更新できる。
type RateLimiter struct {
	config RateLimiterConfig

	mu       sync.RWMutex
	limiters map[string]*callerLimiter // キーは "操作\x00ユーザーID"

	stopCh chan struct{}
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:   config,
		limiters: make(map[string]*callerLimiter),
		stopCh:   make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// Middleware は指定操作のレート制限ミドルウェアを返す。
// 制限超過のリクエストは永続化処理に到達する前に429で拒否される。
// リクエストコンテキストに認証済みユーザーが含まれている必要がある
// （SessionMiddlewareの後に配置）。
func (rl *RateLimiter) Middleware(op string) func(next http.Handler) http.Handler {
	budget := rl.budgetFor(op)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := UserIDFromContext(r.Context())
			if err != nil {
				writeUnauthorizedResponse(w)
				return
			}

			limiter := rl.getOrCreateLimiter(op, userID, budget)

			if !limiter.Allow() {
				writeRateLimitResponse(w, budget.Rate)
				slog.Warn("rate limit exceeded",
					slog.String("user_id", userID),
					slog.String("operation", op),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// budgetFor は操作名に対応するバジェットを返す。未設定の操作はデフォルト。
func (rl *RateLimiter) budgetFor(op string) Budget {
	if b, ok := rl.config.Budgets[op]; ok {
		return b
	}
	return rl.config.DefaultBudget
}

// LimiterCount は現在管理されているリミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) LimiterCount() int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return len(rl.limiters)
}

// getOrCreateLimiter は(操作, ユーザー)のリミッターを取得または作成する。
func (rl *RateLimiter) getOrCreateLimiter(op, userID string, budget Budget) *rate.Limiter {
	key := op + "\x00" + userID

	rl.mu.RLock()
	cl, exists := rl.limiters[key]
	rl.mu.RUnlock()

	if exists {
		rl.mu.Lock()
		cl.lastAccess = time.Now()
		rl.mu.Unlock()
		return cl.limiter
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// ダブルチェック
	if cl, exists := rl.limiters[key]; exists {
		cl.lastAccess = time.Now()
		return cl.limiter
	}

	limiter := rate.NewLimiter(budget.Rate, budget.Burst)
	rl.limiters[key] = &callerLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}

	return limiter
}

// cleanupLoop はバックグラウンドで期限切れエントリを定期的にクリーンアップする。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup は最終アクセス時刻がCleanupIntervalの2倍を超えたエントリを削除する。
func (rl *RateLimiter) cleanup() {
	ttl := rl.config.CleanupInterval * 2

	now := time.Now()

	rl.mu.Lock()
	for key, cl := range rl.limiters {
		if now.Sub(cl.lastAccess) > ttl {
			delete(rl.limiters, key)
		}
	}
	rl.mu.Unlock()
}

// writeRateLimitResponse は429 Too Many Requestsレスポンスを書き込む。
// Retry-Afterヘッダーにはトークンが補充されるまでの推定秒数を設定する。
func writeRateLimitResponse(w http.ResponseWriter, r rate.Limit) {
	// Retry-Afterの算出: 1トークンが補充されるまでの秒数
	retryAfterSec := int(math.Ceil(1.0 / float64(r)))
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	WriteErrorResponse(w, http.StatusTooManyRequests, &model.APIError{
		Code:     "RATE_LIMIT_EXCEEDED",
		Message:  "リクエストが多すぎます。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}
