package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"cloud.google.com/go/pubsub"
	expoactor "github.com/mhui/eventbuddy/internal/actors/expo"
	mongoactor "github.com/mhui/eventbuddy/internal/actors/mongo"
	postgresactor "github.com/mhui/eventbuddy/internal/actors/postgres"
	subscriberactor "github.com/mhui/eventbuddy/internal/actors/pubsub/subscriber"
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

	users, cleanup, err := connectUserStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	sender, err := expoactor.NewPushSender(expoactor.PushSenderArgs{URL: cfg.ExpoPushURL})
	if err != nil {
		return err
	}
	notifier := usecase.NewNotifier(usecase.NotifierArgs{Users: users, Sender: sender})

	client, err := pubsub.NewClient(ctx, cfg.PubSubProjectID)
	if err != nil {
		return err
	}
	defer client.Close()

	subscriber := subscriberactor.NewSubscriber(subscriberactor.SubscriberArgs{
		Subscription:  client.Subscription(cfg.PubSubSubscriptionID),
		NoticeHandler: notifier,
	})

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
		<-ch
		cancel()
	}()

	log.WithField("subscription", cfg.PubSubSubscriptionID).Info("worker up, listening to SIGTERM, SIGINT, SIGQUIT for stopping")
	return subscriber.Consume(ctx)
}

func connectUserStore(ctx context.Context, cfg *config.Config) (ports.UserStore, func(), error) {
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
		return adapter, func() { db.Close() }, nil
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
	return adapter, func() { db.Disconnect(context.Background()) }, nil
}

func main() {
	if err := run(); err != nil {
		log.WithError(err).Fatal("worker terminated")
	}
}
