package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ilikeorangutans/holly/pkg/version"
)

var (
	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "holly_commands_total",
		Help: "Commands processed, by response type.",
	}, []string{"type"})

	PendingReminders = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "holly_pending_reminders",
		Help: "Reminders waiting to fire.",
	})
)

// MakeObservable attaches the prometheus handler, a services/ping endpoint,
// and a status endpoint to the router.
func MakeObservable(r *gin.Engine, startTime time.Time) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/services/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	r.GET("/status", func(c *gin.Context) {
		c.String(http.StatusOK, fmt.Sprintf("running since %s, sha %s, build time %s", humanize.Time(startTime), version.SHA, version.BuildTime))
	})
}
