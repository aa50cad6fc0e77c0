// Package storage opens the user and session stores selected by config.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"portal/internal/config"
	"portal/internal/mongo"
	"portal/internal/mysql"
	"portal/pkg/session"
	"portal/pkg/user"
)

type Stores struct {
	Users    *user.MySQLRepo
	Sessions session.Repository

	db     *sql.DB
	client *mongodriver.Client
}

// Open connects MySQL for accounts and, depending on SESSION_STORE, MySQL or
// MongoDB for sessions.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Stores, error) {
	db, err := mysql.LoadDB(ctx, cfg.MySQLDSN)
	if err != nil {
		return nil, err
	}
	s := &Stores{Users: user.NewMySQLRepo(db), db: db}

	switch cfg.SessionStore {
	case config.StoreMongo:
		client, mdb, err := mongo.LoadDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			db.Close()
			return nil, err
		}
		repo := session.NewMongoSessionRepo(mdb)
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			db.Close()
			return nil, fmt.Errorf("session indexes: %w", err)
		}
		s.Sessions, s.client = repo, client
	default:
		s.Sessions = session.NewMySQLSessionRepo(db)
	}

	logger.Info("stores opened", "sessions", cfg.SessionStore)
	return s, nil
}

func (s *Stores) Close(ctx context.Context) error {
	var err error
	if s.client != nil {
		err = s.client.Disconnect(ctx)
	}
	if cerr := s.db.Close(); err == nil {
		err = cerr
	}
	return err
}
