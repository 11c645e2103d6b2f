// Package app wires the reminders engine: storage, device scheduling,
// rendering, remote reconciliation, and the health endpoint.
package app

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/murmurapp/murmur/internal/services/reminders/domain"
	"github.com/murmurapp/murmur/internal/services/reminders/insights"
	"github.com/murmurapp/murmur/internal/services/reminders/remote"
	"github.com/murmurapp/murmur/internal/services/reminders/render"
	"github.com/murmurapp/murmur/internal/services/reminders/scheduler"
	"github.com/murmurapp/murmur/internal/services/reminders/storage/sqlite"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// RuntimeConfig controls reminders engine startup and dependencies.
type RuntimeConfig struct {
	Port            int
	DBPath          string
	UserID          string
	Locale          string
	RemoteBaseURL   string
	RemoteAuthToken string
	InsightsBaseURL string
	// SchedulingDisabled selects the sentinel scheduler, for hosts without
	// a local notification capability.
	SchedulingDisabled bool
	DriftCheckInterval time.Duration
}

const (
	defaultPort               = 8090
	defaultDBPath             = "data/reminders.db"
	defaultDriftCheckInterval = 10 * time.Minute
)

// Runtime is the assembled reminders engine. The hosting shell forwards
// platform notification responses through Router and reads state through
// Service; Run drives the background loops.
type Runtime struct {
	cfg        RuntimeConfig
	store      *sqlite.Store
	scheduler  scheduler.Scheduler
	service    *domain.Service
	router     *domain.Router
	remote     *remote.Client
	reconciler *remote.Reconciler
	poller     *insights.Poller
}

// New assembles the engine without starting any loops.
func New(cfg RuntimeConfig) (*Runtime, error) {
	if cfg.Port <= 0 {
		cfg.Port = defaultPort
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = defaultDBPath
	}
	if cfg.DriftCheckInterval <= 0 {
		cfg.DriftCheckInterval = defaultDriftCheckInterval
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create reminders storage dir: %w", err)
		}
	}
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open reminders sqlite store: %w", err)
	}

	rt := &Runtime{cfg: cfg, store: store}

	if cfg.SchedulingDisabled {
		rt.scheduler = scheduler.NewNoopScheduler()
	} else {
		rt.scheduler = scheduler.NewTimerScheduler(rt.handleDelivery, nil)
	}

	storeAdapter := newDomainStoreAdapter(store, store)
	deviceAdapter := newDeviceSchedulerAdapter(rt.scheduler)
	rt.service = domain.NewService(storeAdapter, deviceAdapter, render.New(cfg.Locale), nil, nil)

	var actions domain.ActionUpdater
	if strings.TrimSpace(cfg.RemoteBaseURL) != "" {
		rt.remote = remote.NewClient(cfg.RemoteBaseURL, cfg.RemoteAuthToken, nil)
		rt.reconciler = remote.NewReconciler(store, store, rt.remote, nil)
		actions = rt.remote
	}
	rt.router = domain.NewRouter(rt.service, actions)

	insightsBase := strings.TrimSpace(cfg.InsightsBaseURL)
	if insightsBase == "" {
		insightsBase = strings.TrimSpace(cfg.RemoteBaseURL)
	}
	if insightsBase != "" && strings.TrimSpace(cfg.UserID) != "" {
		feed := insights.NewHTTPFeed(insightsBase, cfg.RemoteAuthToken, nil)
		rt.poller = insights.NewPoller(feed, rt.service, nil)
	}

	return rt, nil
}

// Service exposes the lifecycle use-cases to the hosting shell.
func (rt *Runtime) Service() *domain.Service {
	return rt.service
}

// Router exposes notification-response routing to the hosting shell.
func (rt *Runtime) Router() *domain.Router {
	return rt.router
}

// Close releases the store and any armed in-process triggers.
func (rt *Runtime) Close() error {
	if rt == nil {
		return nil
	}
	if closer, ok := rt.scheduler.(interface{ Close() }); ok {
		closer.Close()
	}
	if rt.store != nil {
		return rt.store.Close()
	}
	return nil
}

// Run starts the engine loops and blocks until the context ends.
func (rt *Runtime) Run(ctx context.Context) error {
	if rt == nil || rt.service == nil {
		return fmt.Errorf("runtime is not assembled")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if !rt.scheduler.RequestPermission(ctx) {
		// In-app records still accumulate; only device alerts are lost.
		log.Printf("reminders: notification permission unavailable, continuing without device alerts")
	}
	if err := rt.scheduler.RegisterCategories(ctx, []scheduler.Category{scheduler.ReminderCategory()}); err != nil {
		return fmt.Errorf("register notification categories: %w", err)
	}

	armed, err := rt.service.Rehydrate(ctx)
	if err != nil {
		return fmt.Errorf("rehydrate schedules: %w", err)
	}
	log.Printf("reminders: rehydrated %d schedules", armed)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", rt.cfg.Port))
	if err != nil {
		return fmt.Errorf("listen on reminders port %d: %w", rt.cfg.Port, err)
	}
	defer listener.Close()

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("reminders.runtime", grpc_health_v1.HealthCheckResponse_SERVING)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- grpcServer.Serve(listener)
	}()
	defer func() {
		healthServer.Shutdown()
		grpcServer.GracefulStop()
		<-serveErr
	}()

	if rt.poller != nil {
		go func() {
			if err := rt.poller.Run(ctx, rt.cfg.UserID); err != nil && ctx.Err() == nil {
				log.Printf("reminders: insight poller stopped: %v", err)
			}
		}()
	}
	if rt.reconciler != nil && rt.cfg.UserID != "" {
		go rt.watchUnreadDrift(ctx)
	}

	log.Printf("reminders server listening at %v", listener.Addr())
	if rt.reconciler != nil {
		return rt.reconciler.Run(ctx)
	}
	<-ctx.Done()
	return ctx.Err()
}

// handleDelivery runs on the scheduler's goroutine when a trigger fires.
func (rt *Runtime) handleDelivery(delivery scheduler.Delivery) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := rt.service.MarkDelivered(ctx, delivery.Content.UserID, delivery.Content.NotificationID); err != nil {
		log.Printf("reminders: mark delivered %s: %v", delivery.Content.NotificationID, err)
	}
}

// watchUnreadDrift compares the local and remote unread counts and logs
// disagreements. Local remains authoritative; this only surfaces drift.
func (rt *Runtime) watchUnreadDrift(ctx context.Context) {
	ticker := time.NewTicker(rt.cfg.DriftCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		local, err := rt.service.UnreadCount(ctx, rt.cfg.UserID)
		if err != nil {
			log.Printf("reminders: local unread count: %v", err)
			continue
		}
		remoteCount, err := rt.remote.CountUnread(ctx, rt.cfg.UserID)
		if err != nil {
			log.Printf("reminders: remote unread count: %v", err)
			continue
		}
		if local != remoteCount {
			log.Printf("reminders: unread drift for %s: local=%d remote=%d", rt.cfg.UserID, local, remoteCount)
		}
	}
}

// Run assembles the engine from cfg and drives it until the context ends.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	rt, err := New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rt.Close(); closeErr != nil {
			log.Printf("close reminders runtime: %v", closeErr)
		}
	}()
	return rt.Run(ctx)
}
