package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"huddle/internal/config"
	"huddle/internal/core/domain"
	"huddle/internal/core/services"
	"huddle/internal/platform/logger"
	"huddle/internal/platform/metrics"
	"huddle/internal/platform/telemetry"
	"huddle/internal/plugins/api"
	"huddle/internal/plugins/authhttp"
	"huddle/internal/plugins/memstore"
	"huddle/internal/plugins/ws"
	"huddle/pkg/httpclient"
	"huddle/pkg/logging"
	"huddle/pkg/middleware"
)

func main() {
	// Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Config
	cfg := config.Load()

	// Logger
	log := logger.NewLogger(*cfg)
	log.Info("starting client core")

	otelShutdown, err := telemetry.InitTelemetry(ctx, *cfg)
	if err != nil {
		log.Error("failed to initialize telemetry", logging.Err(err))
		return
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			log.Error("telemetry shutdown failed", logging.Err(err))
		}
	}()

	metrics.Register()

	// Identity from the bearer credential
	tokenSvc := services.NewTokenService(log)
	identity, err := tokenSvc.Inspect(cfg.API.Token, time.Now())
	if err != nil {
		log.Error("access token rejected", logging.Err(err))
		return
	}

	// Adapters
	apiClient := api.NewClient(log, httpclient.New(cfg.Service.Name, cfg.API.Timeout), cfg.API.BaseURL, cfg.API.Token)
	authorizer := authhttp.NewAuthorizer(log, httpclient.New(cfg.Service.Name, cfg.Push.AuthTimeout), cfg.Push.AuthURL, cfg.API.Token)
	transport := ws.NewTransport(log, cfg.Push.URL)
	store := memstore.New()

	// Core services
	manager := services.NewChannelManager(log, transport, authorizer, services.ChannelManagerOptions{
		AuthTimeout:  cfg.Push.AuthTimeout,
		Reconnect:    cfg.Push.Reconnect,
		ReconnectMin: cfg.Push.ReconnectMin,
		ReconnectMax: cfg.Push.ReconnectMax,
	})
	controller := services.NewMutationController(log, store, func(recordID string, err error) {
		log.Warn("action failed, reverted", logging.Record(recordID), logging.Err(err))
	})

	manager.OnStateChange(func(s domain.ConnectionState) {
		log.Info("realtime state changed", logging.State(s.String()))
	})
	manager.Subscribe(domain.EventNewMessage, func(env domain.EventEnvelope) {
		var ev domain.MessageEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			log.Warn("malformed message event", logging.Err(err))
			return
		}
		store.Publish(fmt.Sprintf("message:%d", ev.Message.ID), ev.Message)
		log.Info("message received", logging.Channel(domain.ChannelFor(identity)),
			logging.ClientMsg(ev.Message.ClientMsgID))
	})
	manager.Subscribe(domain.EventNewThread, func(env domain.EventEnvelope) {
		var ev domain.ThreadEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			log.Warn("malformed thread event", logging.Err(err))
			return
		}
		store.Publish(fmt.Sprintf("thread:%d", ev.Thread.ID), ev.Thread)
		log.Info("thread received")
	})

	// Realtime degrades silently to "not live"; the REST surface still works.
	if ok, err := manager.Connect(ctx, identity); !ok {
		log.Warn("starting without realtime", logging.Identity(int64(identity)), logging.Err(err))
	}

	if threads, err := apiClient.RecentThreads(ctx); err != nil {
		log.Warn("initial thread fetch failed", logging.Err(err))
	} else {
		for _, t := range threads {
			store.Publish(fmt.Sprintf("thread:%d", t.ID), t)
		}
		log.Info("threads loaded", "count", len(threads))
	}

	// Debug/ops surface
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"realtime": manager.State().String()})
	})
	mux.HandleFunc("POST /debug/posts/{id}/react", func(w http.ResponseWriter, r *http.Request) {
		reqLog := middleware.FromContext(r.Context())
		postID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid post id", http.StatusBadRequest)
			return
		}
		recordID := fmt.Sprintf("reaction:%d", postID)
		current := domain.ReactionState{}
		if v, ok := store.Get(recordID); ok {
			current = v.(domain.ReactionState)
		}
		go func() {
			err := controller.Apply(context.Background(), recordID, current,
				func(cur any) any {
					s := cur.(domain.ReactionState)
					if s.HasReacted {
						return domain.ReactionState{HasReacted: false, Count: s.Count - 1}
					}
					return domain.ReactionState{HasReacted: true, Count: s.Count + 1}
				},
				func(ctx context.Context) error {
					return apiClient.ToggleReaction(ctx, postID)
				})
			if err != nil {
				reqLog.Warn("reaction toggle failed", logging.Record(recordID), logging.Err(err))
			}
		}()
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("POST /debug/threads/{id}/messages", func(w http.ResponseWriter, r *http.Request) {
		reqLog := middleware.FromContext(r.Context())
		threadID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid thread id", http.StatusBadRequest)
			return
		}
		var req struct {
			Body string `json:"body"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		clientMsgID := uuid.NewString()
		recordID := "draft:" + clientMsgID
		draft := domain.MessageDraft{
			ClientMsgID: clientMsgID,
			ThreadID:    threadID,
			Body:        req.Body,
			CreatedAt:   time.Now(),
		}
		go func() {
			err := controller.Apply(context.Background(), recordID, draft,
				func(cur any) any {
					d := cur.(domain.MessageDraft)
					d.Pending = true
					return d
				},
				func(ctx context.Context) error {
					_, err := apiClient.SendMessage(ctx, threadID, clientMsgID, req.Body)
					return err
				})
			if err != nil {
				reqLog.Warn("message send failed", logging.ClientMsg(clientMsgID), logging.Err(err))
			}
		}()
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]string{"client_msg_id": clientMsgID})
	})

	srv := &http.Server{
		Addr:         cfg.Service.Addr,
		Handler:      middleware.RequestLogger(log)(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	go func() {
		log.Info("debug server listening", "addr", cfg.Service.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("debug server error", logging.Err(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	manager.Disconnect()
	store.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
