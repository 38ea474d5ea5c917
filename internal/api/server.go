package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"cafesched/internal/config"
	"cafesched/internal/logx"
	"cafesched/internal/model"
	"cafesched/internal/schedule"
	"cafesched/internal/store"
	"cafesched/internal/webhooks"
)

type Server struct {
	Store  store.Store
	Pub    *webhooks.Publisher
	Broker EventBroker
	Log    zerolog.Logger
	Config config.Config

	opts    []schedule.Option
	style   schedule.ServeStyle
	closers []io.Closer
}

// NewServer wires the store and broker from cfg. With no database URL the
// in-memory store is used; with no Redis URL, the in-process broker.
func NewServer(ctx context.Context, cfg config.Config, log zerolog.Logger) (*Server, error) {
	var st store.Store
	var closers []io.Closer
	if strings.TrimSpace(cfg.Database.URL) == "" {
		st = store.NewMemory()
		log.Info().Msg("using in-memory store")
	} else {
		pg, err := store.NewPostgres(cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		if cfg.Database.Migrate {
			if err := pg.Migrate(ctx); err != nil {
				_ = pg.Close()
				return nil, err
			}
		}
		st = pg
		closers = append(closers, pg)
		log.Info().Bool("migrate", cfg.Database.Migrate).Msg("using postgres store")
	}

	var broker EventBroker = NewBroker()
	if cfg.Redis.URL != "" {
		rb, err := NewRedisBroker(cfg.Redis.URL, logx.Component(log, "broker"))
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, falling back to in-process broker")
		} else {
			broker = rb
			closers = append(closers, rb)
		}
	}
	s, err := New(cfg, st, broker, log)
	if err != nil {
		return nil, err
	}
	s.closers = closers
	return s, nil
}

// New builds a Server over an existing store and broker.
func New(cfg config.Config, st store.Store, broker EventBroker, log zerolog.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	style, _ := schedule.ParseServeStyle(cfg.ServeStyle)
	return &Server{
		Store:  st,
		Pub:    webhooks.NewPublisher(st, logx.Component(log, "webhooks")),
		Broker: broker,
		Log:    log,
		Config: cfg,
		opts:   cfg.SchedulerOptions(),
		style:  style,
	}, nil
}

// NewWebhookWorker creates a background worker for webhook deliveries.
func (s *Server) NewWebhookWorker() *webhooks.Worker {
	return webhooks.NewWorker(s.Store, s.Config.Webhooks.MaxAttempts, logx.Component(s.Log, "webhook-worker"))
}

func (s *Server) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// requestStyle resolves the serve style for a request: ?serve= wins over config.
func (s *Server) requestStyle(r *http.Request) (schedule.ServeStyle, error) {
	v := r.URL.Query().Get("serve")
	if v == "" {
		return s.style, nil
	}
	return schedule.ParseServeStyle(v)
}

// buildSchedule replays the tenant's orders through a fresh Scheduler.
func (s *Server) buildSchedule(ctx context.Context, tenant string, style schedule.ServeStyle) (model.ScheduleView, error) {
	orders, err := store.Orders(ctx, s.Store, tenant)
	if err != nil {
		return model.ScheduleView{}, fmt.Errorf("load orders: %w", err)
	}
	opts := append(append([]schedule.Option{}, s.opts...), schedule.WithServeStyle(style))
	tasks := schedule.FromOrders(orders, opts...).Schedule()
	recordSchedule(style, tasks)
	return model.ScheduleView{TenantID: tenant, Orders: len(orders), Count: len(tasks), Tasks: tasks}, nil
}
