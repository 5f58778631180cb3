package service

import (
	"context"

	"github.com/pkg/errors"
	"github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/kv"
	"github.com/zeromicro/go-zero/core/stores/redis"
	"github.com/zeromicro/go-zero/core/threading"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ProjectsTask/EasySwapAgent/api/router"
	"github.com/ProjectsTask/EasySwapAgent/dao"
	"github.com/ProjectsTask/EasySwapAgent/logger/xzap"
	"github.com/ProjectsTask/EasySwapAgent/model"
	"github.com/ProjectsTask/EasySwapAgent/service/bidcondition"
	"github.com/ProjectsTask/EasySwapAgent/service/bidmanager"
	"github.com/ProjectsTask/EasySwapAgent/service/collectioncrawler"
	"github.com/ProjectsTask/EasySwapAgent/service/config"
	"github.com/ProjectsTask/EasySwapAgent/service/gateway"
	"github.com/ProjectsTask/EasySwapAgent/service/marketplace"
	"github.com/ProjectsTask/EasySwapAgent/service/marketupdate"
	"github.com/ProjectsTask/EasySwapAgent/service/pricedata"
	"github.com/ProjectsTask/EasySwapAgent/service/reconcile"
	"github.com/ProjectsTask/EasySwapAgent/service/session"
	"github.com/ProjectsTask/EasySwapAgent/service/svc"
)

// Service wires the agent together: the throttled gateway in front of
// the marketplace, the wallet session, bid management and its periodic
// sweeps, the market update scheduler, and the optional dashboard API.
type Service struct {
	ctx     context.Context
	config  *config.Config
	db      *gorm.DB
	kvStore kv.Store

	gateway   *gateway.Gateway
	session   *session.Manager
	bids      *bidmanager.Manager
	sweeper   *bidcondition.Sweeper
	scheduler *marketupdate.Scheduler
	crawler   *collectioncrawler.Crawler
	svcCtx    *svc.ServerCtx

	onFatal chan error
}

// New builds the full dependency graph from config.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	var kvStore kv.Store
	if cfg.Kv != nil && len(cfg.Kv.Redis) > 0 {
		var kvConf kv.KvConf
		for _, con := range cfg.Kv.Redis {
			kvConf = append(kvConf, cache.NodeConf{
				RedisConf: redis.RedisConf{
					Host: con.Host,
					Type: con.Type,
					Pass: con.Pass,
				},
				Weight: 2,
			})
		}
		kvStore = kv.NewStore(kvConf)
	}

	db := model.NewDB(cfg.DB)
	d := dao.New(ctx, db, kvStore)

	engine, err := gateway.NewHTTPEngine(cfg.Proxy)
	if err != nil {
		return nil, errors.Wrap(err, "failed on create automation engine")
	}
	gw := gateway.New(cfg.Gateway, engine)
	client := marketplace.NewClient(gw, cfg.Marketplace)

	signer, err := session.NewSigner(cfg.Wallet.PrivateKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed on create wallet signer")
	}
	sess := session.NewManager(client, signer)

	bids := bidmanager.New(client, sess, d)
	recon := reconcile.New(client, sess, d)
	sweeper := bidcondition.New(cfg.Sweep, bids, recon, d)
	scheduler := marketupdate.NewScheduler(cfg.Scheduler, client, d, engine)
	crawler := collectioncrawler.New(cfg.Crawler, client, d)
	prices := pricedata.New(d)

	return &Service{
		ctx:       ctx,
		config:    cfg,
		db:        db,
		kvStore:   kvStore,
		gateway:   gw,
		session:   sess,
		bids:      bids,
		sweeper:   sweeper,
		scheduler: scheduler,
		crawler:   crawler,
		svcCtx:    svc.NewServerCtx(cfg, d, bids, prices),
		onFatal:   make(chan error, 1),
	}, nil
}

// Start launches the background loops and, when enabled, the dashboard
// API server. Non-blocking; everything stops when the service context is
// canceled.
func (s *Service) Start() error {
	s.gateway.Start(s.ctx)
	s.crawler.Start(s.ctx)
	s.sweeper.Start(s.ctx)

	threading.GoSafe(func() {
		if err := s.scheduler.Run(s.ctx); err != nil {
			s.onFatal <- err
		}
	})

	if s.config.Api.Enable {
		r := router.NewRouter(s.svcCtx)
		threading.GoSafe(func() {
			xzap.WithContext(s.ctx).Info("agent api run",
				zap.String("port", s.config.Api.Port))
			if err := r.Run(s.config.Api.Port); err != nil {
				xzap.WithContext(s.ctx).Error("api server stopped", zap.Error(err))
			}
		})
	}
	return nil
}

// Done delivers the error that took the market update loop down for good.
// The channel stays silent on a clean context shutdown.
func (s *Service) Done() <-chan error {
	return s.onFatal
}
