package transfer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 转账生命周期指标
type Metrics struct {
	// StepsTotal 各步骤执行次数，按步骤与结果（ok / 错误码）区分
	StepsTotal *prometheus.CounterVec
	// ConfirmationsTotal 确认结果，按终态区分
	ConfirmationsTotal *prometheus.CounterVec
	// ConfirmationLatency 从开始轮询到终态的耗时
	ConfirmationLatency prometheus.Histogram
	// StatusPolls 状态查询次数
	StatusPolls prometheus.Counter
	// LamportsSubmitted 成功广播的转账金额累计
	LamportsSubmitted prometheus.Counter
}

// NewMetrics 使用默认注册表创建指标
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(nil)
}

// NewMetricsWithRegistry 使用指定注册表创建指标
func NewMetricsWithRegistry(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		StepsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solwallet_transfer_steps_total",
				Help: "The total number of transfer lifecycle steps by step and outcome",
			},
			[]string{"step", "outcome"},
		),
		ConfirmationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solwallet_transfer_confirmations_total",
				Help: "The total number of confirmation waits by terminal status",
			},
			[]string{"state", "reason"},
		),
		ConfirmationLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "solwallet_transfer_confirmation_seconds",
			Help:    "Time from the first status poll to a terminal status",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
		}),
		StatusPolls: factory.NewCounter(prometheus.CounterOpts{
			Name: "solwallet_transfer_status_polls_total",
			Help: "The total number of signature status queries",
		}),
		LamportsSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "solwallet_transfer_lamports_submitted_total",
			Help: "The total amount of lamports in accepted broadcasts",
		}),
	}
}

func (m *Metrics) step(step string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = errorOutcome(err)
	}
	m.StepsTotal.WithLabelValues(step, outcome).Inc()
}
