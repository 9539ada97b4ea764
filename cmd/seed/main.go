package main

import (
	"context"
	"os"

	mongoactor "github.com/mhui/eventbuddy/internal/actors/mongo"
	postgresactor "github.com/mhui/eventbuddy/internal/actors/postgres"
	"github.com/mhui/eventbuddy/internal/config"
	"github.com/mhui/eventbuddy/internal/core/model"
	"github.com/mhui/eventbuddy/internal/core/ports"

	"github.com/go-pg/pg/v10"
	log "github.com/sirupsen/logrus"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func init() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetOutput(os.Stdout)
}

// demoEvents mirror the demo fixtures shipped with the mobile client.
var demoEvents = []model.Event{
	{Title: "Morning Basketball", Icon: "🏀", Date: "2025-12-01", StartTime: "09:00", EndTime: "11:00", Location: "Central Park", MaxParticipants: 10, Participants: []string{"1", "2"}, CreatorID: "1"},
	{Title: "Full Event - Yoga Class", Icon: "🧘", Date: "2025-12-01", StartTime: "10:00", EndTime: "11:00", Location: "Yoga Studio", MaxParticipants: 5, Participants: []string{"2", "3", "4", "5", "6"}, CreatorID: "2"},
	{Title: "Lunch Yoga", Icon: "🧘", Date: "2025-12-01", StartTime: "12:30", EndTime: "13:30", Location: "Wellness Center", MaxParticipants: 15, Participants: []string{"1", "3"}, CreatorID: "21"},
	{Title: "Evening Tennis", Icon: "🎾", Date: "2025-12-01", StartTime: "18:00", EndTime: "20:00", Location: "City Courts", MaxParticipants: 4, Participants: []string{"1"}, CreatorID: "22"},
	{Title: "Morning Run", Icon: "🏃", Date: "2025-12-02", StartTime: "07:00", EndTime: "08:00", Location: "Park Trail", MaxParticipants: 20, Participants: []string{"1", "4"}, CreatorID: "23"},
	{Title: "Evening Soccer Match", Icon: "⚽", Date: "2025-12-02", StartTime: "18:00", EndTime: "20:00", Location: "Sports Complex", MaxParticipants: 22, Participants: []string{"1"}, CreatorID: "2"},
	{Title: "Tennis Practice", Icon: "🎾", Date: "2025-12-03", StartTime: "14:00", EndTime: "16:00", Location: "City Tennis Courts", MaxParticipants: 4, Participants: []string{"1", "3"}, CreatorID: "3"},
	{Title: "Boxing Training", Icon: "🥊", Date: "2025-12-03", StartTime: "19:00", EndTime: "20:30", Location: "Fight Club", MaxParticipants: 8, Participants: []string{"1", "5"}, CreatorID: "24"},
}

var demoUser = model.User{
	ID:    "1",
	Name:  "Demo User",
	Email: "demo@eventbuddy.com",
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var events ports.EventStore
	var users ports.UserStore
	var cleanup func()

	if cfg.Backend == "postgres" {
		pgOpts, err := pg.ParseURL(cfg.PostgresURL)
		if err != nil {
			return err
		}
		db := pg.Connect(pgOpts)
		adapter, err := postgresactor.NewPostgresDB(postgresactor.PostgresDBArgs{DB: db})
		if err != nil {
			db.Close()
			return err
		}
		events, users, cleanup = adapter, adapter, func() { db.Close() }
	} else {
		db, err := mongodriver.Connect(ctx, options.Client().ApplyURI(cfg.MongoDBURL))
		if err != nil {
			return err
		}
		database := db.Database(cfg.MongoDBDatabase)
		adapter, err := mongoactor.NewMongoDB(mongoactor.MongoDBArgs{
			EventCollection:   database.Collection("events"),
			MessageCollection: database.Collection("messages"),
			UserCollection:    database.Collection("users"),
		})
		if err != nil {
			db.Disconnect(ctx)
			return err
		}
		events, users, cleanup = adapter, adapter, func() { db.Disconnect(context.Background()) }
	}
	defer cleanup()

	if err := users.SaveUser(ctx, &demoUser); err != nil {
		return err
	}
	for i := range demoEvents {
		event := demoEvents[i]
		if err := events.SaveEvent(ctx, &event); err != nil {
			return err
		}
		log.WithField("id", event.ID).WithField("title", event.Title).Info("seeded event")
	}
	log.WithField("events", len(demoEvents)).Info("seed complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.WithError(err).Fatal("seed failed")
	}
}
