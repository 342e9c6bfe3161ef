package health

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"macro_trader/internal/models"
	"macro_trader/internal/modules/config"
	"macro_trader/internal/modules/health/service"
	"macro_trader/internal/runner"
)

type Config struct {
	Addr string // например ":8081"
}

func NewConfig(cfg config.ServiceConfig) Config {
	if cfg.HealthAddr == "" {
		return Config{Addr: ":8081"}
	}
	return Config{Addr: cfg.HealthAddr}
}

// Trading: то, что /healthz показывает о торговле.
type Trading interface {
	Lock() *runner.TradeLock
	State() *runner.State
}

func NewMux(state *service.State, trading Trading) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		// liveness: процесс жив
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !state.Ready() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"ready":       state.Ready(),
			"browserUp":   state.BrowserUp(),
			"wsConnected": state.WSConnected(),
			"uptimeSec":   int64(state.Uptime().Seconds()),
			"lastTickUnix": func() int64 {
				t := state.LastTick()
				if t.IsZero() {
					return 0
				}
				return t.Unix()
			}(),
		}
		if trading != nil {
			resp["lock"] = trading.Lock().Snapshot()
			resp["position"] = positionOrNil(trading.State().Position())
		}
		w.Header().Set("Content-Type", "application/json")
		_ = sonic.ConfigStd.NewEncoder(w).Encode(resp)
	})

	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func positionOrNil(p models.Position) any {
	if !p.IsActive {
		return nil
	}
	return p
}

func RunHTTP(lc fx.Lifecycle, cfg Config, mux *http.ServeMux, state *service.State, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", cfg.Addr)
			if err != nil {
				return err
			}
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("[HEALTH] serve", zap.Error(err))
				}
			}()
			// модуль стартует последним: к этому моменту всё остальное поднято
			state.SetReady(true)
			log.Info("[HEALTH] listening", zap.String("addr", cfg.Addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			state.SetReady(false)
			return srv.Shutdown(ctx)
		},
	})
}

func Module() fx.Option {
	return fx.Module("health",
		fx.Provide(
			service.NewState,
			NewConfig,
			func(o *runner.Orchestrator) Trading { return o },
			NewMux,
		),
		fx.Invoke(RunHTTP),
	)
}
