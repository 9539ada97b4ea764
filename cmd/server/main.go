package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"cloud.google.com/go/pubsub"
	goredis "github.com/go-redis/redis/v8"
	"github.com/mhui/eventbuddy/internal/actors/httpapi"
	mongoactor "github.com/mhui/eventbuddy/internal/actors/mongo"
	postgresactor "github.com/mhui/eventbuddy/internal/actors/postgres"
	produceractor "github.com/mhui/eventbuddy/internal/actors/pubsub/producer"
	redisactor "github.com/mhui/eventbuddy/internal/actors/redis"
	"github.com/mhui/eventbuddy/internal/config"
	"github.com/mhui/eventbuddy/internal/core/ports"
	"github.com/mhui/eventbuddy/internal/core/usecase"

	"github.com/go-pg/pg/v10"
	log "github.com/sirupsen/logrus"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func init() {
	// Log as JSON instead of the default ASCII formatter.
	log.SetFormatter(&log.JSONFormatter{})
	log.SetOutput(os.Stdout)
}

// stores bundles the three persistence ports however they are backed.
type stores struct {
	events   ports.EventStore
	watcher  ports.EventWatcher
	messages ports.MessageStore
	threads  ports.MessageWatcher
	users    ports.UserStore
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	st, cleanup, err := connectStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	opts := []usecase.EventServiceOptArgs{}

	if cfg.RedisURL != "" {
		redisClient := goredis.NewClient(&goredis.Options{Addr: cfg.RedisURL})
		defer redisClient.Close()
		cache, err := redisactor.NewSnapshotCache(
			redisactor.SnapshotCacheArgs{Client: redisClient},
			redisactor.WithTTL(cfg.SnapshotTTL),
		)
		if err != nil {
			return err
		}
		opts = append(opts,
			usecase.WithSnapshotCache(cache),
			usecase.WithFallback(usecase.LastKnownGood{Cache: cache}),
		)
	}

	pubsubClient, err := pubsub.NewClient(ctx, cfg.PubSubProjectID)
	if err != nil {
		return err
	}
	defer pubsubClient.Close()
	producer, err := produceractor.NewProducer(pubsubClient.Topic(cfg.PubSubTopicID))
	if err != nil {
		return err
	}
	opts = append(opts, usecase.WithPublisher(producer))

	events := usecase.NewEventService(usecase.EventServiceArgs{
		Store:   st.events,
		Watcher: st.watcher,
	}, opts...)
	chat := usecase.NewChatService(usecase.ChatServiceArgs{
		Store:   st.messages,
		Watcher: st.threads,
	})

	server, err := httpapi.NewServer(httpapi.ServerArgs{
		Events: events,
		Chat:   chat,
		Users:  st.users,
	})
	if err != nil {
		return err
	}

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
		<-ch
		cancel()
	}()

	log.WithField("addr", cfg.HTTPAddr).WithField("backend", cfg.Backend).Info("server up, listening to SIGTERM, SIGINT, SIGQUIT for stopping")
	return server.Run(ctx, cfg.HTTPAddr)
}

func connectStores(ctx context.Context, cfg *config.Config) (*stores, func(), error) {
	if cfg.Backend == "postgres" {
		pgOpts, err := pg.ParseURL(cfg.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		db := pg.Connect(pgOpts)
		if err := db.Ping(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		adapter, err := postgresactor.NewPostgresDB(postgresactor.PostgresDBArgs{DB: db})
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return &stores{
			events:   adapter,
			watcher:  adapter,
			messages: adapter,
			threads:  adapter,
			users:    adapter,
		}, func() { db.Close() }, nil
	}

	clientOptions := options.Client().ApplyURI(cfg.MongoDBURL)
	db, err := mongodriver.Connect(ctx, clientOptions)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Ping(ctx, nil); err != nil {
		db.Disconnect(ctx)
		return nil, nil, err
	}
	database := db.Database(cfg.MongoDBDatabase)
	adapter, err := mongoactor.NewMongoDB(mongoactor.MongoDBArgs{
		EventCollection:   database.Collection("events"),
		MessageCollection: database.Collection("messages"),
		UserCollection:    database.Collection("users"),
	})
	if err != nil {
		db.Disconnect(ctx)
		return nil, nil, err
	}
	return &stores{
		events:   adapter,
		watcher:  adapter,
		messages: adapter,
		threads:  adapter,
		users:    adapter,
	}, func() { db.Disconnect(context.Background()) }, nil
}

func main() {
	if err := run(); err != nil {
		log.WithError(err).Fatal("server terminated")
	}
}
