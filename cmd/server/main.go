// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"linebot-registration/internal/admin"
	"linebot-registration/internal/config"
	"linebot-registration/internal/lineapi"
	"linebot-registration/internal/mailer"
	"linebot-registration/internal/metrics"
	"linebot-registration/internal/registration"
	"linebot-registration/internal/server"
	"linebot-registration/internal/sheet"
	"linebot-registration/internal/webhook"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Sugar()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalw("invalid configuration", "error", err)
	}

	ctx := context.Background()

	acc, err := sheet.NewGoogleAccessor(ctx, []byte(cfg.SheetCredentialsJSON), cfg.SheetID, cfg.WorksheetName)
	if err != nil {
		log.Fatalw("sheets client init failed", "error", err)
	}
	msgr, err := lineapi.New(cfg.LineChannelSecret, cfg.LineChannelToken)
	if err != nil {
		log.Fatalw("line client init failed", "error", err)
	}
	notifier := mailer.NewSMTP(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.EmailSender,
		To:       cfg.EmailReceivers,
	})

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	svc := registration.New(acc, msgr, notifier, m, log, cfg.DisplayNameFallback)
	wh := webhook.New(cfg.LineChannelSecret, svc, msgr, m, log)
	ah := admin.New(notifier, msgr, cfg.LineAdminUserID, log)
	hh := server.NewHealth(startupChecks(ctx, log, acc, msgr), acc, msgr)

	gin.SetMode(gin.ReleaseMode)
	router := server.NewRouter(wh, ah, hh, reg)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	go func() {
		log.Infow("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("graceful shutdown failed", "error", err)
	}
	log.Infow("server stopped")
}

// startupChecks probes each dependency once. The service still starts when a
// dependency is down; the verdict is reported on /health and in the logs.
func startupChecks(ctx context.Context, log *zap.SugaredLogger, acc sheet.Accessor, msgr lineapi.Messenger) string {
	checkCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	healthy := 0
	if err := acc.Ping(checkCtx); err != nil {
		log.Errorw("google sheets startup check failed", "error", err)
	} else {
		log.Infow("google sheets connection verified")
		healthy++
	}
	if err := msgr.BotInfo(checkCtx); err != nil {
		log.Errorw("line api startup check failed", "error", err)
	} else {
		log.Infow("line api client verified")
		healthy++
	}

	switch healthy {
	case 2:
		log.Infow("all startup checks passed")
		return server.StatusHealthy
	case 0:
		log.Errorw("all startup checks failed")
		return server.StatusUnhealthy
	default:
		log.Warnw("running in degraded mode")
		return server.StatusDegraded
	}
}
