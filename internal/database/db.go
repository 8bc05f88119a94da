package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Open はMongoDBへの接続を開く。
// mongoURIはMongoDBの接続URIを指定する（例: "mongodb://localhost:27017"）。
// mongo.Connectは接続を保証しないため、実際の接続確認にはPingを使用すること。
func Open(ctx context.Context, mongoURI string) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(mongoURI).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	return client, nil
}

// HealthPinger はmongo.Clientをヘルスチェック用インターフェースに適合させる。
type HealthPinger struct {
	client *mongo.Client
}

// NewHealthPinger はHealthPingerを生成する。
func NewHealthPinger(client *mongo.Client) *HealthPinger {
	return &HealthPinger{client: client}
}

// Ping はプライマリノードへの疎通を確認する。
func (p *HealthPinger) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return p.client.Ping(ctx, readpref.Primary())
}
