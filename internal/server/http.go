package server

import (
	"net/http"
	"strings"

	"github.com/fekuna/omnipos-challan-service/internal/httpapi"
	"github.com/fekuna/omnipos-challan-service/internal/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Registrar mounts a domain's routes under the authenticated API group.
type Registrar interface {
	Register(rg *gin.RouterGroup)
}

type HTTPConfig struct {
	Addr           string
	Development    bool
	AllowedOrigins []string
}

// NewRouter builds the gin engine: /healthz is open, everything under /api/v1 requires a caller identity.
func NewRouter(cfg HTTPConfig, log logger.ZapLogger, registrars ...Registrar) *gin.Engine {
	if !cfg.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpapi.CorrelationID())
	r.Use(httpapi.RequestLogger(log))
	r.Use(cors.New(corsConfig(cfg)))

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	api := r.Group("/api/v1", httpapi.Identity())
	for _, reg := range registrars {
		reg.Register(api)
	}
	return r
}

func corsConfig(cfg HTTPConfig) cors.Config {
	c := cors.DefaultConfig()
	origins := make([]string, 0, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	c.AddAllowHeaders(httpapi.HeaderUserID, httpapi.HeaderUserRole, httpapi.HeaderCorrelationID)
	c.AddExposeHeaders(httpapi.HeaderCorrelationID)
	return c
}

func NewHTTPServer(cfg HTTPConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}
}
