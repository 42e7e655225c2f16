package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// SetupRoutes configura le route HTTP non-API: interfaccia web e metriche
func SetupRoutes(router *gin.Engine, webDir string, log logrus.FieldLogger) {
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if webDir == "" {
		return
	}
	if info, err := os.Stat(webDir); err != nil || !info.IsDir() {
		log.WithField("dir", webDir).Warn("Cartella web non trovata, interfaccia disabilitata")
		return
	}

	index := filepath.Join(webDir, "index.html")
	router.GET("/", func(c *gin.Context) {
		if _, err := os.Stat(index); err != nil {
			c.String(http.StatusNotFound, "index.html non trovato")
			return
		}
		c.File(index)
	})
	router.Static("/static", webDir)
}
