package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hitoshi/chatman/internal/model"
)

// MongoRoomRepo はMongoDBを使用したルームリポジトリ。
type MongoRoomRepo struct {
	rooms *mongo.Collection
}

// NewMongoRoomRepo はMongoRoomRepoを生成する。
func NewMongoRoomRepo(db *mongo.Database) *MongoRoomRepo {
	return &MongoRoomRepo{rooms: db.Collection("rooms")}
}

// FindAll は全ルームを返す。
func (r *MongoRoomRepo) FindAll(ctx context.Context) ([]*model.Room, error) {
	return r.find(ctx, bson.M{})
}

// FindByMember は指定ユーザーがメンバーであるルームを返す。
func (r *MongoRoomRepo) FindByMember(ctx context.Context, userID string) ([]*model.Room, error) {
	return r.find(ctx, bson.M{"members": userID})
}

func (r *MongoRoomRepo) find(ctx context.Context, filter bson.M) ([]*model.Room, error) {
	cursor, err := r.rooms.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("ルーム一覧の取得に失敗しました: %w", err)
	}
	defer cursor.Close(ctx)

	var rooms []*model.Room
	if err := cursor.All(ctx, &rooms); err != nil {
		return nil, fmt.Errorf("ルーム一覧の読み取りに失敗しました: %w", err)
	}
	return rooms, nil
}

// FindByIDAndMember はIDとメンバー条件を単一クエリで満たすルームを返す。
// 条件を満たさない場合はnilを返す。
func (r *MongoRoomRepo) FindByIDAndMember(ctx context.Context, roomID, userID string) (*model.Room, error) {
	var room model.Room
	err := r.rooms.FindOne(ctx, bson.M{"_id": roomID, "members": userID}).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ルームの取得に失敗しました: %w", err)
	}
	return &room, nil
}

// Create はルームを作成する。
func (r *MongoRoomRepo) Create(ctx context.Context, room *model.Room) error {
	if _, err := r.rooms.InsertOne(ctx, room); err != nil {
		return fmt.Errorf("ルームの作成に失敗しました: %w", err)
	}
	return nil
}

// DeleteByIDAndOwner はIDとオーナー条件を満たすルームをアトミックに削除し、
// 削除したルームを返す。条件を満たさない場合はnilを返す。
func (r *MongoRoomRepo) DeleteByIDAndOwner(ctx context.Context, roomID, ownerID string) (*model.Room, error) {
	var room model.Room
	err := r.rooms.FindOneAndDelete(ctx, bson.M{"_id": roomID, "owner": ownerID}).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ルームの削除に失敗しました: %w", err)
	}
	return &room, nil
}

// PullMember はIDとオーナー条件を満たすルームからメンバーを取り除き、
// 更新後のルームを返す。条件を満たさない場合はnilを返す。
func (r *MongoRoomRepo) PullMember(ctx context.Context, roomID, ownerID, memberID string) (*model.Room, error) {
	var room model.Room
	err := r.rooms.FindOneAndUpdate(ctx,
		bson.M{"_id": roomID, "owner": ownerID},
		bson.M{
			"$pull": bson.M{"members": memberID},
			"$set":  bson.M{"updated_at": time.Now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("メンバーの削除に失敗しました: %w", err)
	}
	return &room, nil
}
