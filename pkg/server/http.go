package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Depado/ginprom"
	"github.com/gabrielmiguelok/agente-whatsapp-sub001/app/api/routes"
	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/config"
	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/domains/auth"
	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/domains/ignored"
	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/domains/session"
	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/middleware"
	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps carries the explicitly constructed services the routes need. The
// session manager is owned by the caller, not by the HTTP layer, so tests can
// run multiple registries side by side.
type Deps struct {
	Auth     auth.Service
	Sessions session.Service
	Ignored  ignored.Service
}

// LaunchHttpServer runs the API until ctx is cancelled, then drains in-flight
// requests.
func LaunchHttpServer(ctx context.Context, appc config.App, deps Deps) {
	log.Info().Msg("starting HTTP server")
	gin.SetMode(gin.ReleaseMode)
	utils.RegisterValidations()

	app := gin.New()
	app.Use(gin.LoggerWithFormatter(func(log gin.LogFormatterParams) string {
		return fmt.Sprintf("[%s] - %s \"%s %s %s %d %s\"\n",
			log.TimeStamp.Format("2006-01-02 15:04:05"),
			log.ClientIP,
			log.Method,
			log.Path,
			log.Request.Proto,
			log.StatusCode,
			log.Latency,
		)
	}))
	app.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	app.Use(gin.Recovery())
	app.Use(otelgin.Middleware(appc.Name))
	app.Use(middleware.ClaimIp())
	app.Use(cors.New(cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-Requested-With", "Origin", "Accept"},
		AllowOrigins:     []string{"*"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	p := ginprom.New(
		ginprom.Engine(app),
		ginprom.Subsystem("gin"),
		ginprom.Path("/metrics"),
		ginprom.Ignore("/swagger/*any"),
	)
	app.Use(p.Instrument())

	api := app.Group("/api/v1")

	routes.AuthRoutes(api.Group("/auth"), deps.Auth)
	routes.SessionRoutes(api.Group("/sessions"), deps.Sessions)
	routes.TriggerRoutes(api.Group("/triggers"), deps.Sessions)
	routes.IgnoredRoutes(api.Group("/ignored"), deps.Ignored)

	srv := &http.Server{
		Addr:    net.JoinHostPort(appc.Host, appc.Port),
		Handler: app,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server is running")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("HTTP shutdown did not finish cleanly")
	}
	log.Info().Msg("HTTP server stopped")
}
