package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/hitoshi/chatman/internal/model"
)

// setupTestDB はテスト用データベースへ接続し、テストごとに独立した
// データベースを返す。接続できない環境ではテストをスキップする。
func setupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	url := os.Getenv("TEST_MONGODB_URL")
	if url == "" {
		url = "mongodb://localhost:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(url))
	if err != nil {
		t.Skipf("テスト用データベースに接続できません（スキップ）: %v", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		t.Skipf("テスト用データベースに接続できません（スキップ）: %v", err)
	}

	// テスト間の干渉を避けるため、テストごとに専用データベースを使用
	dbName := fmt.Sprintf("chatman_test_%s", uuid.NewString()[:8])
	db := client.Database(dbName)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		db.Drop(ctx)
		client.Disconnect(ctx)
	})

	return db
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func insertUser(t *testing.T, ctx context.Context, repo *MongoUserRepo, user *model.User) {
	t.Helper()
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("failed to insert user: %v", err)
	}
}

// --- MongoUserRepo ---

func TestMongoUserRepo_FindByID_NotFound_ReturnsNil(t *testing.T) {
	db := setupTestDB(t)
	ctx := testContext(t)
	repo := NewMongoUserRepo(db)

	user, err := repo.FindByID(ctx, "missing")
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if user != nil {
		t.Errorf("user = %+v, want nil", user)
	}
}

func TestMongoUserRepo_CreateAndFind(t *testing.T) {
	db := setupTestDB(t)
	ctx := testContext(t)
	repo := NewMongoUserRepo(db)

	insertUser(t, ctx, repo, &model.User{
		ID:       "u-1",
		Username: "alice",
		Name:     "Alice",
		Email:    "alice@example.com",
		Color:    "#7289da",
		Links:    map[string]string{},
		Rooms:    []string{},
	})

	byID, err := repo.FindByID(ctx, "u-1")
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if byID == nil || byID.Username != "alice" {
		t.Errorf("FindByID = %+v, want alice", byID)
	}

	byEmail, err := repo.FindByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("FindByEmail returned error: %v", err)
	}
	if byEmail == nil || byEmail.ID != "u-1" {
		t.Errorf("FindByEmail = %+v, want u-1", byEmail)
	}
}

func TestMongoUserRepo_ListExcept_ExcludesGivenUser(t *testing.T) {
	db := setupTestDB(t)
	ctx := testContext(t)
	repo := NewMongoUserRepo(db)

	insertUser(t, ctx, repo, &model.User{ID: "u-1", Username: "alice"})
	insertUser(t, ctx, repo, &model.User{ID: "u-2", Username: "bob"})
	insertUser(t, ctx, repo, &model.User{ID: "u-3", Username: "carol"})

	users, err := repo.ListExcept(ctx, "u-1")
	if err != nil {
		t.Fatalf("ListExcept returned error: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("len(users) = %d, want 2", len(users))
	}
	for _, u := range users {
		if u.ID == "u-1" {
			t.Error("ListExcept must not include the excluded user")
		}
	}
}

func TestMongoUserRepo_AddRoom_IsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := testContext(t)
	repo := NewMongoUserRepo(db)

	insertUser(t, ctx, repo, &model.User{ID: "u-1", Rooms: []string{}})

	if err := repo.AddRoom(ctx, "u-1", "r-1"); err != nil {
		t.Fatalf("AddRoom returned error: %v", err)
	}
	// 同じルームIDを重複して追加しても増えない
	if err := repo.AddRoom(ctx, "u-1", "r-1"); err != nil {
		t.Fatalf("second AddRoom returned error: %v", err)
	}

	user, err := repo.FindByID(ctx, "u-1")
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if len(user.Rooms) != 1 || user.Rooms[0] != "r-1" {
		t.Errorf("rooms = %v, want [r-1]", user.Rooms)
	}
}

func TestMongoUserRepo_RemoveRoom_ReturnsUpdatedUser(t *testing.T) {
	db := setupTestDB(t)
	ctx := testContext(t)
	repo := NewMongoUserRepo(db)

	insertUser(t, ctx, repo, &model.User{ID: "u-1", Rooms: []string{"r-1", "r-2"}})

	user, err := repo.RemoveRoom(ctx, "u-1", "r-1")
	if err != nil {
		t.Fatalf("RemoveRoom returned error: %v", err)
	}
	if user == nil {
		t.Fatal("RemoveRoom returned nil user")
	}
	if len(user.Rooms) != 1 || user.Rooms[0] != "r-2" {
		t.Errorf("rooms = %v, want [r-2]", user.Rooms)
	}
}

func TestMongoUserRepo_RemoveRoom_MissingUser_ReturnsNil(t *testing.T) {
	db := setupTestDB(t)
	ctx := testContext(t)
	repo := NewMongoUserRepo(db)

	user, err := repo.RemoveRoom(ctx, "missing", "r-1")
	if err != nil {
		t.Fatalf("RemoveRoom returned error: %v", err)
	}
	if user != nil {
		t.Errorf("user = %+v, want nil", user)
	}
}

func TestMongoUserRepo_RemoveRoomFromUsers_ScopedToGivenUsers(t *testing.T) {
	db := setupTestDB(t)
	ctx := testContext(t)
	repo := NewMongoUserRepo(db)

	insertUser(t, ctx, repo, &model.User{ID: "u-1", Rooms: []string{"r-1"}})
	insertUser(t, ctx, repo, &model.User{ID: "u-2", Rooms: []string{"r-1"}})
	// 対象外ユーザーの同名参照は残す
	insertUser(t, ctx, repo, &model.User{ID: "u-3", Rooms: []string{"r-1"}})

	if err := repo.RemoveRoomFromUsers(ctx, []string{"u-1", "u-2"}, "r-1"); err != nil {
		t.Fatalf("RemoveRoomFromUsers returned error: %v", err)
	}

	for _, id := range []string{"u-1", "u-2"} {
		user, err := repo.FindByID(ctx, id)
		if err != nil {
			t.Fatalf("FindByID returned error: %v", err)
		}
		if len(user.Rooms) != 0 {
			t.Errorf("%s rooms = %v, want empty", id, user.Rooms)
		}
	}

	outside, err := repo.FindByID(ctx, "u-3")
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if len(outside.Rooms) != 1 {
		t.Errorf("u-3 rooms = %v, want [r-1]", outside.Rooms)
	}
}

func TestMongoUserRepo_UpdateColor(t *testing.T) {
	db := setupTestDB(t)
	ctx := testContext(t)
	repo := NewMongoUserRepo(db)

	insertUser(t, ctx, repo, &model.User{ID: "u-1", Color: "#7289da"})

	user, err := repo.UpdateColor(ctx, "u-1", "#ff0000")
	if err != nil {
		t.Fatalf("UpdateColor returned error: %v", err)
	}
	if user == nil || user.Color != "#ff0000" {
		t.Errorf("user = %+v, want color #ff0000", user)
	}
}

func TestMongoUserRepo_UpdateLinks_ReplacesWholeMap(t *testing.T) {
	db := setupTestDB(t)
	ctx := testContext(t)
	repo := NewMongoUserRepo(db)

	insertUser(t, ctx, repo, &model.User{
		ID:    "u-1",
		Links: map[string]string{"github": "https://github.com/alice"},
	})

	links := map[string]string{"twitter": "https://twitter.com/alice"}
	user, err := repo.UpdateLinks(ctx, "u-1", links)
	if err != nil {
		t.Fatalf("UpdateLinks returned error: %v", err)
	}
	if user == nil {
		t.Fatal("UpdateLinks returned nil user")
	}
	// マージはサービス層の責務。リポジトリは全置換する
	if _, ok := user.Links["github"]; ok {
		t.Error("UpdateLinks should replace the entire map")
	}
	if user.Links["twitter"] != "https://twitter.com/alice" {
		t.Errorf("links = %v", user.Links)
	}
}

// --- MongoRoomRepo ---

func insertRoom(t *testing.T, ctx context.Context, repo *MongoRoomRepo, room *model.Room) {
	t.Helper()
	if err := repo.Create(ctx, room); err != nil {
		t.Fatalf("failed to insert room: %v", err)
	}
}

func TestMongoRoomRepo_FindByMember(t *testing.T) {
	db := setupTestDB(t)
	ctx := testContext(t)
	repo := NewMongoRoomRepo(db)

	insertRoom(t, ctx, repo, &model.Room{ID: "r-1", Name: "general", Owner: "u-1", Members: []string{"u-1", "u-2"}})
	insertRoom(t, ctx, repo, &model.Room{ID: "r-2", Name: "private", Owner: "u-3", Members: []string{"u-3"}})

	rooms, err := repo.FindByMember(ctx, "u-2")
	if err != nil {
		t.Fatalf("FindByMember returned error: %v", err)
	}
	if len(rooms) != 1 || rooms[0].ID != "r-1" {
		t.Errorf("rooms = %+v, want [r-1]", rooms)
	}
}

func TestMongoRoomRepo_FindByIDAndMember_NonMember_ReturnsNil(t *testing.T) {
	db := setupTestDB(t)
	ctx := testContext(t)
	repo := NewMongoRoomRepo(db)

	insertRoom(t, ctx, repo, &model.Room{ID: "r-1", Owner: "u-1", Members: []string{"u-1"}})

	// 非メンバーには存在自体を返さない
	room, err := repo.FindByIDAndMember(ctx, "r-1", "u-2")
	if err != nil {
		t.Fatalf("FindByIDAndMember returned error: %v", err)
	}
	if room != nil {
		t.Errorf("room = %+v, want nil", room)
	}

	room, err = repo.FindByIDAndMember(ctx, "r-1", "u-1")
	if err != nil {
		t.Fatalf("FindByIDAndMember returned error: %v", err)
	}
	if room == nil {
		t.Error("member should be able to find the room")
	}
}

func TestMongoRoomRepo_DeleteByIDAndOwner_NonOwner_NoOp(t *testing.T) {
	db := setupTestDB(t)
	ctx := testContext(t)
	repo := NewMongoRoomRepo(db)

	insertRoom(t, ctx, repo, &model.Room{ID: "r-1", Owner: "u-1", Members: []string{"u-1", "u-2"}})

	// オーナーでないメンバーによる削除は非変更・非エラー
	room, err := repo.DeleteByIDAndOwner(ctx, "r-1", "u-2")
	if err != nil {
		t.Fatalf("DeleteByIDAndOwner returned error: %v", err)
	}
	if room != nil {
		t.Errorf("room = %+v, want nil", room)
	}

	remaining, err := repo.FindByIDAndMember(ctx, "r-1", "u-1")
	if err != nil {
		t.Fatalf("FindByIDAndMember returned error: %v", err)
	}
	if remaining == nil {
		t.Error("room should still exist after non-owner delete attempt")
	}
}

func TestMongoRoomRepo_DeleteByIDAndOwner_Owner_ReturnsDeletedRoom(t *testing.T) {
	db := setupTestDB(t)
	ctx := testContext(t)
	repo := NewMongoRoomRepo(db)

	insertRoom(t, ctx, repo, &model.Room{ID: "r-1", Name: "general", Owner: "u-1", Members: []string{"u-1", "u-2"}})

	room, err := repo.DeleteByIDAndOwner(ctx, "r-1", "u-1")
	if err != nil {
		t.Fatalf("DeleteByIDAndOwner returned error: %v", err)
	}
	if room == nil {
		t.Fatal("expected the deleted room to be returned")
	}
	// カスケード処理のため削除時点のメンバー一覧を保持していること
	if len(room.Members) != 2 {
		t.Errorf("members = %v, want 2 entries", room.Members)
	}

	remaining, err := repo.FindByIDAndMember(ctx, "r-1", "u-1")
	if err != nil {
		t.Fatalf("FindByIDAndMember returned error: %v", err)
	}
	if remaining != nil {
		t.Error("room should be gone after owner delete")
	}
}

func TestMongoRoomRepo_PullMember_OwnerRemovesMember(t *testing.T) {
	db := setupTestDB(t)
	ctx := testContext(t)
	repo := NewMongoRoomRepo(db)

	insertRoom(t, ctx, repo, &model.Room{ID: "r-1", Owner: "u-1", Members: []string{"u-1", "u-2"}})

	room, err := repo.PullMember(ctx, "r-1", "u-1", "u-2")
	if err != nil {
		t.Fatalf("PullMember returned error: %v", err)
	}
	if room == nil {
		t.Fatal("PullMember returned nil room")
	}
	if len(room.Members) != 1 || room.Members[0] != "u-1" {
		t.Errorf("members = %v, want [u-1]", room.Members)
	}
}

func TestMongoRoomRepo_PullMember_NonOwner_ReturnsNil(t *testing.T) {
	db := setupTestDB(t)
	ctx := testContext(t)
	repo := NewMongoRoomRepo(db)

	insertRoom(t, ctx, repo, &model.Room{ID: "r-1", Owner: "u-1", Members: []string{"u-1", "u-2"}})

	room, err := repo.PullMember(ctx, "r-1", "u-2", "u-1")
	if err != nil {
		t.Fatalf("PullMember returned error: %v", err)
	}
	if room != nil {
		t.Errorf("room = %+v, want nil", room)
	}
}

// --- MongoMessageRepo ---

func TestMongoMessageRepo_FindByIDs_SkipsMissing(t *testing.T) {
	db := setupTestDB(t)
	ctx := testContext(t)
	repo := NewMongoMessageRepo(db)

	messages := []interface{}{
		&model.Message{ID: "m-1", Content: "hello", Author: "u-1", CreatedAt: time.Now()},
		&model.Message{ID: "m-2", Content: "world", Author: "u-2", CreatedAt: time.Now()},
	}
	if _, err := db.Collection("messages").InsertMany(ctx, messages); err != nil {
		t.Fatalf("failed to insert messages: %v", err)
	}

	found, err := repo.FindByIDs(ctx, []string{"m-1", "m-2", "m-missing"})
	if err != nil {
		t.Fatalf("FindByIDs returned error: %v", err)
	}
	if len(found) != 2 {
		t.Errorf("len(found) = %d, want 2", len(found))
	}
}

func TestMongoMessageRepo_FindByIDs_EmptyInput(t *testing.T) {
	db := setupTestDB(t)
	ctx := testContext(t)
	repo := NewMongoMessageRepo(db)

	found, err := repo.FindByIDs(ctx, nil)
	if err != nil {
		t.Fatalf("FindByIDs returned error: %v", err)
	}
	if len(found) != 0 {
		t.Errorf("len(found) = %d, want 0", len(found))
	}
}

// --- MongoSessionRepo ---

func TestMongoSessionRepo_FindByID_ExpiredSession_ReturnsNil(t *testing.T) {
	db := setupTestDB(t)
	ctx := testContext(t)
	repo := NewMongoSessionRepo(db)

	if err := repo.Create(ctx, &model.Session{
		ID:        "sess-expired",
		UserID:    "u-1",
		ExpiresAt: time.Now().Add(-time.Minute),
		CreatedAt: time.Now().Add(-time.Hour),
	}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	session, err := repo.FindByID(ctx, "sess-expired")
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if session != nil {
		t.Errorf("session = %+v, want nil for expired session", session)
	}
}

func TestMongoSessionRepo_CreateFindDelete(t *testing.T) {
	db := setupTestDB(t)
	ctx := testContext(t)
	repo := NewMongoSessionRepo(db)

	if err := repo.Create(ctx, &model.Session{
		ID:        "sess-1",
		UserID:    "u-1",
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	session, err := repo.FindByID(ctx, "sess-1")
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if session == nil || session.UserID != "u-1" {
		t.Errorf("session = %+v, want user u-1", session)
	}

	if err := repo.DeleteByID(ctx, "sess-1"); err != nil {
		t.Fatalf("DeleteByID returned error: %v", err)
	}

	session, err = repo.FindByID(ctx, "sess-1")
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if session != nil {
		t.Error("session should be gone after delete")
	}
}

func TestMongoSessionRepo_DeleteByUserID_RemovesAllUserSessions(t *testing.T) {
	db := setupTestDB(t)
	ctx := testContext(t)
	repo := NewMongoSessionRepo(db)

	for _, id := range []string{"sess-1", "sess-2"} {
		if err := repo.Create(ctx, &model.Session{
			ID:        id,
			UserID:    "u-1",
			ExpiresAt: time.Now().Add(time.Hour),
			CreatedAt: time.Now(),
		}); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
	}

	if err := repo.DeleteByUserID(ctx, "u-1"); err != nil {
		t.Fatalf("DeleteByUserID returned error: %v", err)
	}

	for _, id := range []string{"sess-1", "sess-2"} {
		session, err := repo.FindByID(ctx, id)
		if err != nil {
			t.Fatalf("FindByID returned error: %v", err)
		}
		if session != nil {
			t.Errorf("session %s should be gone", id)
		}
	}
}
