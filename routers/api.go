package routers

import (
	"embed"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"pricesync/config"
	"pricesync/controllers"
	"pricesync/jumpseller"
	"pricesync/logger"
	"pricesync/middlewares"
	"pricesync/notify"
	"pricesync/reconcile"
	"pricesync/spreadsheet"
	"pricesync/store"
)

//go:embed static/index.html
var static embed.FS

func Route(cfg config.Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), logger.RequestLogger(), CORS())
	if cfg.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = cfg.MaxUploadBytes
	}

	api := controllers.NewAPI()
	api.UploadDir = cfg.UploadDir
	api.MaxUploadBytes = cfg.MaxUploadBytes
	api.Notifier = notify.New(cfg.Email)

	if client, err := jumpseller.NewClient(cfg.Jumpseller); err != nil {
		zap.L().Warn("jumpseller disabled, upload and confirm will answer 503", zap.Error(err))
	} else {
		aliases := spreadsheet.DefaultAliases().Override(cfg.SKUColumns, cfg.PriceColumns, cfg.DateColumns)
		applier := jumpseller.NewApplier(client, cfg.Jumpseller.DateFieldID, cfg.VerifyWrites)
		api.Reconciler = reconcile.New(jumpseller.NewMatcher(client), applier, aliases, cfg.RowConcurrency)
	}

	if cfg.RedisAddr != "" {
		api.Store = store.New(redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   0,
		}), cfg.BatchTTL)
	}

	router.GET("/", index)
	router.GET("/health", api.Health)

	auth := middlewares.Auth(cfg.AuthSigningKey)
	router.POST("/upload", auth, api.Upload)
	router.POST("/confirm", auth, api.Confirm)
	router.POST("/actualizar", auth, api.Confirm)
	router.GET("/confirm/:id", auth, api.GetBatch)

	return router
}

// CORS Cross Origin Resource Sharing
func CORS() gin.HandlerFunc {
	conf := cors.DefaultConfig()
	conf.AllowAllOrigins = true
	conf.AllowHeaders = append(conf.AllowHeaders, "Authorization", "X-Request-ID")
	conf.ExposeHeaders = []string{"Content-Disposition", "X-Request-ID"}
	return cors.New(conf)
}

func index(c *gin.Context) {
	page, err := static.ReadFile("static/index.html")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}
