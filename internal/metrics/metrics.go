// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus      *prometheus.CounterVec
	requestDuration prometheus.Histogram
	roomsCreated    prometheus.Counter
	roomsDeleted    prometheus.Counter
	membersRemoved  prometheus.Counter
	logins          prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chatman_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chatman_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		roomsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chatman_rooms_created_total",
			Help: "作成されたルームの合計数",
		}),
		roomsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chatman_rooms_deleted_total",
			Help: "削除されたルームの合計数",
		}),
		membersRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chatman_members_removed_total",
			Help: "ルームから削除されたメンバーの合計数",
		}),
		logins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chatman_logins_total",
			Help: "発行されたセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestDuration,
		c.roomsCreated,
		c.roomsDeleted,
		c.membersRemoved,
		c.logins,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestDuration はリクエストの処理時間を記録する。
func (c *Collector) RecordRequestDuration(duration time.Duration) {
	c.requestDuration.Observe(duration.Seconds())
}

// RecordRoomCreated はルーム作成を記録する。
func (c *Collector) RecordRoomCreated() {
	c.roomsCreated.Inc()
}

// RecordRoomDeleted はルーム削除を記録する。
func (c *Collector) RecordRoomDeleted() {
	c.roomsDeleted.Inc()
}

// RecordMemberRemoved はメンバー削除を記録する。
func (c *Collector) RecordMemberRemoved() {
	c.membersRemoved.Inc()
}

// RecordLogin はセッション発行を記録する。
func (c *Collector) RecordLogin() {
	c.logins.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
