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

// MongoUserRepo はMongoDBを使用したユーザーリポジトリ。
type MongoUserRepo struct {
	users *mongo.Collection
}

// NewMongoUserRepo はMongoUserRepoを生成する。
func NewMongoUserRepo(db *mongo.Database) *MongoUserRepo {
	return &MongoUserRepo{users: db.Collection("users")}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *MongoUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	return &user, nil
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *MongoUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	return &user, nil
}

// FindByIDs は指定ID集合のユーザーをまとめて取得する。
func (r *MongoUserRepo) FindByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	cursor, err := r.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("ユーザーの一括取得に失敗しました: %w", err)
	}
	defer cursor.Close(ctx)

	var users []*model.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("ユーザーの読み取りに失敗しました: %w", err)
	}
	return users, nil
}

// ListExcept は指定ユーザー以外の全ユーザーを返す。
func (r *MongoUserRepo) ListExcept(ctx context.Context, userID string) ([]*model.User, error) {
	cursor, err := r.users.Find(ctx, bson.M{"_id": bson.M{"$ne": userID}})
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	defer cursor.Close(ctx)

	var users []*model.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("ユーザー一覧の読み取りに失敗しました: %w", err)
	}
	return users, nil
}

// Create はユーザーを作成する。
func (r *MongoUserRepo) Create(ctx context.Context, user *model.User) error {
	if _, err := r.users.InsertOne(ctx, user); err != nil {
		return fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}
	return nil
}

// AddRoom はユーザーのroomsにルームIDを重複なく追加する。
func (r *MongoUserRepo) AddRoom(ctx context.Context, userID, roomID string) error {
	_, err := r.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$addToSet": bson.M{"rooms": roomID},
			"$set":      bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("ルーム参照の追加に失敗しました: %w", err)
	}
	return nil
}

// RemoveRoom はユーザーのroomsからルームIDを取り除き、更新後のユーザーを返す。
// ユーザーが見つからない場合はnilを返す。
func (r *MongoUserRepo) RemoveRoom(ctx context.Context, userID, roomID string) (*model.User, error) {
	var user model.User
	err := r.users.FindOneAndUpdate(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$pull": bson.M{"rooms": roomID},
			"$set":  bson.M{"updated_at": time.Now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ルーム参照の削除に失敗しました: %w", err)
	}
	return &user, nil
}

// RemoveRoomFromUsers は指定ユーザー群のroomsからルームIDを一括で取り除く。
func (r *MongoUserRepo) RemoveRoomFromUsers(ctx context.Context, userIDs []string, roomID string) error {
	if len(userIDs) == 0 {
		return nil
	}

	_, err := r.users.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": userIDs}},
		bson.M{
			"$pull": bson.M{"rooms": roomID},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("ルーム参照の一括削除に失敗しました: %w", err)
	}
	return nil
}

// UpdateColor はユーザーのカラーを上書きし、更新後のユーザーを返す。
func (r *MongoUserRepo) UpdateColor(ctx context.Context, userID, color string) (*model.User, error) {
	var user model.User
	err := r.users.FindOneAndUpdate(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"color": color, "updated_at": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("カラーの更新に失敗しました: %w", err)
	}
	return &user, nil
}

// UpdateLinks はユーザーのリンクマップ全体を置き換え、更新後のユーザーを返す。
func (r *MongoUserRepo) UpdateLinks(ctx context.Context, userID string, links map[string]string) (*model.User, error) {
	var user model.User
	err := r.users.FindOneAndUpdate(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"links": links, "updated_at": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("リンクの更新に失敗しました: %w", err)
	}
	return &user, nil
}
