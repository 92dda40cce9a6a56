package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	mixerConfig "lnmixer.com/internal/mixer/config"
	"lnmixer.com/internal/mixer/handler"
	mhttp "lnmixer.com/internal/mixer/http"
	"lnmixer.com/internal/mixer/infra/atomiq"
	"lnmixer.com/internal/mixer/infra/cashu"
	"lnmixer.com/internal/mixer/infra/lightning"
	"lnmixer.com/internal/mixer/infra/persistence"
	"lnmixer.com/internal/mixer/service"
	"lnmixer.com/internal/mixer/ws"
	vipConfig "lnmixer.com/pkg/config"
	"lnmixer.com/pkg/logger"
	"lnmixer.com/pkg/orm"
	"lnmixer.com/pkg/ratelimit"
	"lnmixer.com/pkg/xredis"
)

func main() {
	// 支持 Ctrl+C / kubernetes 停止信号的 context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cfg mixerConfig.MixerConfig
	if _, err := vipConfig.LoadAndWatch("mixer", &cfg); err != nil {
		log.Fatalf("load mixer config error: %v", err)
	}

	if cfg.Log.File != "" {
		logger.InitWithFile(cfg.Name, cfg.Log.Level, cfg.Log.File)
	} else {
		logger.Init(cfg.Name, cfg.Log.Level)
	}
	defer logger.Sync()

	// 存储
	db := orm.NewMySQL(&orm.Config{
		DSN:         cfg.Mysql.DSN,
		MaxIdle:     cfg.Mysql.MaxIdle,
		MaxOpen:     cfg.Mysql.MaxOpen,
		MaxLifetime: cfg.Mysql.MaxLifetime,
	})
	if err := persistence.InitSchema(db); err != nil {
		log.Fatalf("init schema error: %v", err)
	}
	repo := persistence.New(db)

	// redis 可选，只给请求去重用
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = xredis.NewRedis(&xredis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
	}
	idem := xredis.NewIdempotency(rdb, 0)

	// 推送
	hub := ws.NewHub()
	wsSrv := ws.NewServer(ctx, hub)

	// 外部集成（模拟件），发票调用套一层熔断
	breakers := ratelimit.NewBreakerManager(ratelimit.Rule{}, nil)
	ln := lightning.WithBreaker(lightning.New(cfg.Integ.LightningNode), breakers)
	mint := cashu.New(cfg.Integ.CashuMint)
	swap := atomiq.New(cfg.Integ.AtomiqAPI)

	// 核心服务
	sched := service.NewScheduler(repo, hub, nil)
	svc := service.NewMixService(repo, hub, sched, ln)

	srv := mhttp.NewRouter(ctx, cfg.HTTP.Addr, mhttp.Handlers{
		Mix:    handler.NewMix(svc, idem),
		Tx:     handler.NewTransaction(svc),
		Health: handler.NewHealth(hub, ln, mint, swap),
		WS:     wsSrv,
	})

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("mixer ListenAndServe error: %v", err)
		}
	}()
	log.Printf("mixer-service listening on %s", cfg.HTTP.Addr)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("mixer shutdown error: %v", err)
	}
	log.Println("mixer exit")
}
