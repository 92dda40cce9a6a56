package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	ginprom "github.com/zsais/go-gin-prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"lnmixer.com/internal/mixer/handler"
	"lnmixer.com/internal/mixer/ws"
	"lnmixer.com/pkg/middleware"
	"lnmixer.com/pkg/ratelimit"
)

// Handlers 路由依赖集合，main 里组装好传进来
type Handlers struct {
	Mix    *handler.Mix
	Tx     *handler.Transaction
	Health *handler.Health
	WS     *ws.Server
}

func NewRouter(ctx context.Context, addr string, h Handlers) *http.Server {
	// 限流：100 rps / key，突发 200
	store := ratelimit.NewStore(100, 200, 10*time.Minute)
	store.StartJanitor(ctx, time.Minute)

	r := gin.New()
	p := ginprom.NewPrometheus("mixer")
	p.Use(r)
	r.Use(
		otelgin.Middleware("mixer-service"),
		middleware.ReqId(),
		cors.Default(),
		middleware.Recover(),
		middleware.RateLimit(store),
	)

	// /metrics 由 ginprom 注册
	r.GET("/health", h.Health.Check)
	r.GET("/ws", gin.WrapF(h.WS.ServeWS))

	api := r.Group("/api")
	{
		mix := api.Group("/mix")
		{
			mix.POST("/deposit", h.Mix.Deposit)
			mix.GET("/status/:transactionId", h.Mix.Status)
			mix.GET("/history", h.Mix.History)
			mix.POST("/cancel/:transactionId", h.Mix.Cancel)
		}
		tx := api.Group("/transactions")
		{
			tx.GET("/stats", h.Tx.Stats)
			tx.GET("/:transactionId", h.Tx.Get)
			tx.GET("/:transactionId/steps", h.Tx.Steps)
			tx.POST("/:transactionId/retry", h.Tx.Retry)
			tx.DELETE("/:transactionId", h.Tx.Delete)
		}
	}

	return &http.Server{
		Addr:           addr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
}
