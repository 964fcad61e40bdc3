package rest

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine with the full route table.
func NewRouter(api *API) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	group := router.Group("/api")
	group.GET("/health", api.Health)

	group.POST("/generateNews", api.GenerateNews)
	group.POST("/scrapeArticles", api.ScrapeArticles)
	group.POST("/importRSS", api.ImportRSS)
	group.POST("/generateViralArticles", api.GenerateViral)
	group.POST("/generateFromPrompt", api.GenerateFromPrompt)
	group.GET("/cronGenerateNews", api.CronGenerateNews)

	group.GET("/articles", api.ListArticles)
	group.GET("/articles/:id", api.GetArticle)
	group.DELETE("/articles/:id", api.DeleteArticle)

	return router
}
