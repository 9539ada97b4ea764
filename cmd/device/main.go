// Command device manages the cached viewer identity of one device: sign in,
// inspect, record a push token, sign out. It is the CLI counterpart of the
// mobile onboarding flow.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	fileactor "github.com/mhui/eventbuddy/internal/actors/file"
	mongoactor "github.com/mhui/eventbuddy/internal/actors/mongo"
	postgresactor "github.com/mhui/eventbuddy/internal/actors/postgres"
	"github.com/mhui/eventbuddy/internal/config"
	"github.com/mhui/eventbuddy/internal/core/ports"
	"github.com/mhui/eventbuddy/internal/core/session"

	"github.com/go-pg/pg/v10"
	log "github.com/sirupsen/logrus"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func init() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetOutput(os.Stdout)
}

const usage = "usage: device <sign-in|whoami|push-token|sign-out> [flags]"

func run() error {
	if len(os.Args) < 2 {
		return errors.New(usage)
	}
	command := os.Args[1]

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	identity, err := fileactor.NewIdentityStore(fileactor.IdentityStoreArgs{Path: cfg.IdentityPath})
	if err != nil {
		return err
	}

	users, cleanup, err := connectUserStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	sess := session.NewSession(session.SessionArgs{Identity: identity, Users: users})

	switch command {
	case "sign-in":
		flags := flag.NewFlagSet("sign-in", flag.ExitOnError)
		id := flags.String("id", "", "viewer id")
		name := flags.String("name", "", "display name")
		email := flags.String("email", "", "email address")
		flags.Parse(os.Args[2:])
		if *id == "" || *name == "" || *email == "" {
			return errors.New("sign-in requires -id, -name and -email")
		}
		if err := sess.SignIn(ctx, *id, *name, *email); err != nil {
			return err
		}
		log.WithField("user_id", *id).Info("signed in")
		return nil

	case "whoami":
		current, err := sess.Restore(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%s <%s> (%s)\n", current.Name, current.Email, current.ID)
		if sess.IsAdmin() {
			fmt.Println("role: admin")
		}
		return nil

	case "push-token":
		flags := flag.NewFlagSet("push-token", flag.ExitOnError)
		token := flags.String("token", "", "expo push token")
		flags.Parse(os.Args[2:])
		if *token == "" {
			return errors.New("push-token requires -token")
		}
		if _, err := sess.Restore(ctx); err != nil {
			return err
		}
		sess.SetPushToken(ctx, *token)
		return nil

	case "sign-out":
		return sess.SignOut()

	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}
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
		log.WithError(err).Fatal("device command failed")
	}
}
