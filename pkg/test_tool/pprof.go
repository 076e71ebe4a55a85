package testtool

import (
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof on the default mux

	"tab_chat_sync/pkg/config"
	"tab_chat_sync/pkg/logger"

	"go.uber.org/zap"
)

// PprofAddr loopback only, the endpoints expose process internals
const PprofAddr = "127.0.0.1:6060"

// StartPprof serve pprof outside production
func StartPprof() {
	if config.IsProduction() {
		logger.Log.Info("production environment, pprof disabled")
		return
	}

	go func() {
		logger.Log.Info("starting pprof server", zap.String("addr", PprofAddr))
		if err := http.ListenAndServe(PprofAddr, nil); err != nil {
			logger.Log.Warn("pprof server stopped", zap.Error(err))
		}
	}()
}

// Useful endpoints:
//   go tool pprof http://127.0.0.1:6060/debug/pprof/goroutine
//   go tool pprof http://127.0.0.1:6060/debug/pprof/heap
//   go tool pprof http://127.0.0.1:6060/debug/pprof/profile?seconds=30
