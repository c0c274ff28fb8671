// Package server assembles the kratos transport servers.
package server

import (
	"context"

	"VisionGuard/internal/conf"
	"VisionGuard/internal/server/middleware"
	"VisionGuard/internal/service"
	pkglog "VisionGuard/pkg/log"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/google/wire"
)

// ProviderSet is server providers.
var ProviderSet = wire.NewSet(NewHTTPServer)

// NewHTTPServer new an HTTP server exposing the degradation status surface.
func NewHTTPServer(c *conf.Server, statusService *service.StatusService, logger log.Logger) *http.Server {
	logHelper := pkglog.NewLogHelper(logger)

	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			middleware.Logging(logHelper), // request log: method, path, duration
		),
	}
	if c.Http.Network != "" {
		opts = append(opts, http.Network(c.Http.Network))
	}
	if c.Http.Addr != "" {
		opts = append(opts, http.Address(c.Http.Addr))
	}
	if c.Http.Timeout != nil {
		opts = append(opts, http.Timeout(c.Http.Timeout.AsDuration()))
	}
	srv := http.NewServer(opts...)

	registerStatusRoutes(srv, statusService)

	return srv
}

// registerStatusRoutes wires the degradation endpoints onto the kratos
// router. Routes are registered by hand; there is no generated API layer.
func registerStatusRoutes(srv *http.Server, svc *service.StatusService) {
	r := srv.Route("/v1/degradation")

	r.GET("/status", func(ctx http.Context) error {
		http.SetOperation(ctx, "/v1.DegradationService/GetStatus")
		h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
			return svc.GetStatus(c)
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})

	r.POST("/report", func(ctx http.Context) error {
		http.SetOperation(ctx, "/v1.DegradationService/ReportOutcome")
		var req service.ReportOutcomeRequest
		if err := ctx.Bind(&req); err != nil {
			return err
		}
		h := ctx.Middleware(func(c context.Context, in interface{}) (interface{}, error) {
			return svc.ReportOutcome(c, in.(*service.ReportOutcomeRequest))
		})
		out, err := h(ctx, &req)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})

	r.GET("/capabilities/{name}", func(ctx http.Context) error {
		http.SetOperation(ctx, "/v1.DegradationService/CheckCapability")
		name := ctx.Vars().Get("name")
		h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
			return svc.CheckCapability(c, name)
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})

	r.POST("/fallback", func(ctx http.Context) error {
		http.SetOperation(ctx, "/v1.DegradationService/GetFallback")
		var req service.FallbackRequest
		if err := ctx.Bind(&req); err != nil {
			return err
		}
		h := ctx.Middleware(func(c context.Context, in interface{}) (interface{}, error) {
			return svc.GetFallback(c, in.(*service.FallbackRequest))
		})
		out, err := h(ctx, &req)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	})

	r.PUT("/risk-scores", func(ctx http.Context) error {
		http.SetOperation(ctx, "/v1.DegradationService/CacheRiskScore")
		var req service.CacheScoreRequest
		if err := ctx.Bind(&req); err != nil {
			return err
		}
		h := ctx.Middleware(func(c context.Context, in interface{}) (interface{}, error) {
			return nil, svc.CacheRiskScore(c, in.(*service.CacheScoreRequest))
		})
		if _, err := h(ctx, &req); err != nil {
			return err
		}
		return ctx.Result(204, nil)
	})
}
