// Package router provides AstraMed service routing.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	// 注册 OpenAPI 文档
	_ "github.com/kart-io/astramed/api/swagger/astramed"
	"github.com/kart-io/astramed/internal/astramed/handler"
)

// Register registers the AstraMed routes on engine. gatherer 为空时不暴露 /metrics。
func Register(engine *gin.Engine, answer *handler.AnswerHandler, health *handler.HealthHandler, gatherer prometheus.Gatherer) {
	logger.Info("Registering AstraMed routes...")

	engine.GET("/", handler.Root)
	engine.GET("/healthz", health.Healthz)
	engine.GET("/version", handler.Version)

	// 问答与反馈
	engine.POST("/answer", answer.Answer)
	engine.POST("/feedback", answer.Feedback)

	if gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	logger.Info("HTTP routes registered")
}

// RegisterSwagger serves the OpenAPI document and UI under /swagger/.
func RegisterSwagger(engine *gin.Engine) {
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	logger.Info("Swagger routes registered")
}
