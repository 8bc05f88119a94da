package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/hitoshi/chatman/internal/model"
)

// MongoMessageRepo はMongoDBを使用したメッセージリポジトリ。
// このサービスにとってメッセージは読み取り専用。
type MongoMessageRepo struct {
	messages *mongo.Collection
}

// NewMongoMessageRepo はMongoMessageRepoを生成する。
func NewMongoMessageRepo(db *mongo.Database) *MongoMessageRepo {
	return &MongoMessageRepo{messages: db.Collection("messages")}
}

// FindByIDs は指定ID集合のメッセージをまとめて取得する。
func (r *MongoMessageRepo) FindByIDs(ctx context.Context, ids []string) ([]*model.Message, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	cursor, err := r.messages.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("メッセージの取得に失敗しました: %w", err)
	}
	defer cursor.Close(ctx)

	var msgs []*model.Message
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, fmt.Errorf("メッセージの読み取りに失敗しました: %w", err)
	}
	return msgs, nil
}
