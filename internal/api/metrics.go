package api

import (
	"strconv"

	"github.com/buurtplein/buurtchat/internal/chat"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics holds the collectors exposed on /metrics. Each router gets its own
// registry so several servers can live in one process.
type metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
}

func newMetrics(svc *chat.Service, sessions *sessionRegistry) *metrics {
	inbox := svc.Inbox()
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "buurtchat_http_requests_total",
				Help: "API requests by method, route and status code.",
			},
			[]string{"method", "route", "status"},
		),
	}
	m.registry.MustRegister(
		m.requests,
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "buurtchat_conversations",
				Help: "Conversations in the inbox.",
			},
			func() float64 { return float64(inbox.Len()) },
		),
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "buurtchat_unread_messages",
				Help: "Unread counterpart messages across all conversations.",
			},
			func() float64 { return float64(chat.TotalUnread(inbox.Conversations())) },
		),
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "buurtchat_pending_replies",
				Help: "Scheduled replies that have not fired yet.",
			},
			func() float64 { return float64(svc.Replies().Pending()) },
		),
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "buurtchat_sessions",
				Help: "Open view sessions.",
			},
			func() float64 { return float64(sessions.len()) },
		),
	)
	return m
}

// middleware counts every request once it has been handled.
func (m *metrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

func (m *metrics) handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
