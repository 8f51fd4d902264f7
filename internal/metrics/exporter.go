package metrics

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter expose /metrics et /healthz pour un collecteur donné.
func NewRouter(c *Counters) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/metrics", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, c.Snapshot())
	})
	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

// StartServer démarre un serveur HTTP exposant les métriques par défaut.
func StartServer(addr string) *http.Server {
	server := &http.Server{
		Addr:    addr,
		Handler: NewRouter(Default),
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("serveur métriques arrêté: %v", err)
		}
	}()

	return server
}

// Shutdown arrête proprement un serveur de métriques.
func Shutdown(ctx context.Context, server *http.Server) {
	if server == nil {
		return
	}
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("arrêt serveur métriques impossible: %v", err)
	}
}
