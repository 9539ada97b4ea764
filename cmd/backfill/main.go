package main

import (
	"context"
	"flag"
	"os"

	"github.com/mhui/eventbuddy/internal/config"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func init() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetOutput(os.Stdout)
}

var dryRun = flag.Bool("dry-run", false, "count affected documents without writing")

// Legacy event documents predate the isActive flag. Readers already treat an
// absent flag as active; this backfill makes the flag explicit so ad-hoc
// queries on isActive see every document.
func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoDBURL))
	if err != nil {
		return err
	}
	defer db.Disconnect(ctx)

	events := db.Database(cfg.MongoDBDatabase).Collection("events")
	filter := bson.D{{Key: "isActive", Value: bson.D{{Key: "$exists", Value: false}}}}

	if *dryRun {
		count, err := events.CountDocuments(ctx, filter)
		if err != nil {
			return err
		}
		log.WithField("count", count).Info("documents missing isActive")
		return nil
	}

	res, err := events.UpdateMany(ctx, filter,
		bson.D{{Key: "$set", Value: bson.D{{Key: "isActive", Value: true}}}})
	if err != nil {
		return err
	}
	log.WithField("modified", res.ModifiedCount).Info("backfilled isActive")
	return nil
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		log.WithError(err).Fatal("backfill failed")
	}
}
