package main

import (
	"context"
	"net/http"
	"os"

	"github.com/Luismorlan/socialmux/events"
	"github.com/Luismorlan/socialmux/feed"
	"github.com/Luismorlan/socialmux/server"
	"github.com/Luismorlan/socialmux/server/middlewares"
	"github.com/Luismorlan/socialmux/social"
	. "github.com/Luismorlan/socialmux/utils"
	"github.com/Luismorlan/socialmux/utils/dotenv"
	. "github.com/Luismorlan/socialmux/utils/flag"
	. "github.com/Luismorlan/socialmux/utils/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"
)

func init() {
	// Middlewares
	if !ByPassAuth {
		middlewares.Setup()
	}

	Log.Info("api server initialized")
}

func cleanup() {
	CloseProfiler()
	CloseTracer()
	Log.Info("api server shutdown")
}

func main() {
	defer cleanup()

	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}

	db, err := GetDBConnection()
	if err != nil {
		panic(err)
	}
	DatabaseSetupAndMigration(db)

	engine := social.NewEngine(db)
	statsdClient := GetStatsdClient("socialmux.")

	feedConfig := feed.DefaultConfig()
	if path := os.Getenv("FEED_CONFIG_PATH"); path != "" {
		feedConfig = feed.ParseConfig(path)
	}
	composer := feed.NewComposer(db, engine, GetRedisClient(), statsdClient, feedConfig)

	// Outbox relayer and monitoring reporter run alongside the API for as long
	// as the process lives.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus := events.NewBus()
	go events.NewRelayer(db, bus).Run(ctx)
	go func() {
		if err := events.NewReporter(statsdClient, bus).Run(ctx); err != nil {
			Log.Error("reporter exited: ", err)
		}
	}()

	// Default With the Logger and Recovery middleware already attached
	router := gin.Default()

	router.Use(cors.Default())
	router.Use(gintrace.Middleware(ServiceName))
	if !ByPassAuth {
		router.Use(middlewares.JWT())
	}

	server.NewHandlers(engine, composer).RegisterRoutes(router)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	Log.Info("api server starts up")
	router.Run(":8080")
}
