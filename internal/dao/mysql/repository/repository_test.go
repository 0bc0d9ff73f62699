package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"stelle_world_server/internal/model"
	"stelle_world_server/pkg/enum/chat/chat_status_enum"
	"stelle_world_server/pkg/errorx"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.Conversation{}, &model.Message{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestConversationNotFoundWrapped(t *testing.T) {
	repos := NewRepositories(openTestDB(t))

	_, err := repos.Conversation.FindById(404)
	if err == nil {
		t.Fatal("expected error for missing conversation")
	}
	if !errorx.IsNotFound(err) {
		t.Fatalf("error should carry CodeNotFound, got %v", err)
	}
	if errorx.GetCode(err) != errorx.CodeNotFound {
		t.Fatalf("code = %d", errorx.GetCode(err))
	}
}

func TestFindOpenBySessionKey(t *testing.T) {
	repos := NewRepositories(openTestDB(t))

	open := &model.Conversation{SessionKey: "sk-1", Status: chat_status_enum.Open}
	closed := &model.Conversation{SessionKey: "sk-2", Status: chat_status_enum.Closed}
	for _, c := range []*model.Conversation{open, closed} {
		if err := repos.Conversation.Create(c); err != nil {
			t.Fatal(err)
		}
	}

	found, err := repos.Conversation.FindOpenBySessionKey("sk-1")
	if err != nil {
		t.Fatal(err)
	}
	if found.ID != open.ID {
		t.Fatalf("found id %d, want %d", found.ID, open.ID)
	}

	// 已关闭的会话不算命中
	if _, err := repos.Conversation.FindOpenBySessionKey("sk-2"); !errorx.IsNotFound(err) {
		t.Fatalf("closed conversation should not match, got %v", err)
	}
}

func TestTouchLastMessagePullsPendingBackToOpen(t *testing.T) {
	repos := NewRepositories(openTestDB(t))

	pending := &model.Conversation{SessionKey: "sk-p", Status: chat_status_enum.Pending}
	closed := &model.Conversation{SessionKey: "sk-c", Status: chat_status_enum.Closed}
	for _, c := range []*model.Conversation{pending, closed} {
		if err := repos.Conversation.Create(c); err != nil {
			t.Fatal(err)
		}
	}

	now := time.Now()
	if err := repos.Conversation.TouchLastMessage(pending.ID, now); err != nil {
		t.Fatal(err)
	}
	if err := repos.Conversation.TouchLastMessage(closed.ID, now); err != nil {
		t.Fatal(err)
	}

	fresh, _ := repos.Conversation.FindById(pending.ID)
	if fresh.Status != chat_status_enum.Open {
		t.Fatalf("pending conversation status = %s, want open", fresh.Status)
	}
	if !fresh.LastMessageAt.Valid {
		t.Fatal("last_message_at not set")
	}

	// closed 状态不被拉回
	fresh, _ = repos.Conversation.FindById(closed.ID)
	if fresh.Status != chat_status_enum.Closed {
		t.Fatalf("closed conversation status = %s, want closed", fresh.Status)
	}
}

func TestFindPage(t *testing.T) {
	repos := NewRepositories(openTestDB(t))

	for i := 0; i < 5; i++ {
		status := chat_status_enum.Open
		if i%2 == 1 {
			status = chat_status_enum.Closed
		}
		c := &model.Conversation{SessionKey: fmt.Sprintf("sk-%d", i), Status: status}
		if err := repos.Conversation.Create(c); err != nil {
			t.Fatal(err)
		}
		if err := repos.Conversation.TouchLastMessage(c.ID, time.Now().Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatal(err)
		}
	}

	all, total, err := repos.Conversation.FindPage("", 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if total != 5 || len(all) != 5 {
		t.Fatalf("total = %d, len = %d, want 5/5", total, len(all))
	}
	// 按最近活动倒序
	if !all[0].LastMessageAt.Time.After(all[4].LastMessageAt.Time) {
		t.Fatal("page should be ordered by last activity desc")
	}

	open, total, err := repos.Conversation.FindPage(chat_status_enum.Open, 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 {
		t.Fatalf("open total = %d, want 3", total)
	}
	if len(open) != 2 {
		t.Fatalf("open page len = %d, want 2", len(open))
	}
}

func TestMarkReadBothSides(t *testing.T) {
	repos := NewRepositories(openTestDB(t))

	conversation := &model.Conversation{SessionKey: "sk", Status: chat_status_enum.Open}
	if err := repos.Conversation.Create(conversation); err != nil {
		t.Fatal(err)
	}
	// 两条访客消息、一条客服消息
	for _, m := range []*model.Message{
		{ConversationId: conversation.ID, Content: "v1", MessageType: "text"},
		{ConversationId: conversation.ID, Content: "v2", MessageType: "text"},
		{ConversationId: conversation.ID, Content: "a1", MessageType: "text", IsFromAdmin: true, AdminName: "客服"},
	} {
		if err := repos.Message.Create(m); err != nil {
			t.Fatal(err)
		}
	}

	count, err := repos.Message.MarkVisitorMessagesRead(conversation.ID)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("visitor messages marked = %d, want 2", count)
	}

	count, err = repos.Message.MarkAdminMessagesRead(conversation.ID)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("admin messages marked = %d, want 1", count)
	}

	// 再标记一遍应当是 0
	count, _ = repos.Message.MarkVisitorMessagesRead(conversation.ID)
	if count != 0 {
		t.Fatalf("second pass marked %d, want 0", count)
	}

	messages, _ := repos.Message.FindByConversationId(conversation.ID)
	for _, m := range messages {
		if !m.IsRead || !m.ReadAt.Valid {
			t.Fatalf("message %d not marked read", m.ID)
		}
	}
}

func TestCountUnreadVisitorByConversationIds(t *testing.T) {
	repos := NewRepositories(openTestDB(t))

	a := &model.Conversation{SessionKey: "sk-a", Status: chat_status_enum.Open}
	b := &model.Conversation{SessionKey: "sk-b", Status: chat_status_enum.Open}
	for _, c := range []*model.Conversation{a, b} {
		if err := repos.Conversation.Create(c); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 2; i++ {
		if err := repos.Message.Create(&model.Message{ConversationId: a.ID, Content: "m", MessageType: "text"}); err != nil {
			t.Fatal(err)
		}
	}
	// b 只有客服消息，不计入未读
	if err := repos.Message.Create(&model.Message{ConversationId: b.ID, Content: "m", MessageType: "text", IsFromAdmin: true}); err != nil {
		t.Fatal(err)
	}

	counts, err := repos.Message.CountUnreadVisitorByConversationIds([]uint{a.ID, b.ID})
	if err != nil {
		t.Fatal(err)
	}
	if counts[a.ID] != 2 {
		t.Fatalf("conversation a unread = %d, want 2", counts[a.ID])
	}
	if counts[b.ID] != 0 {
		t.Fatalf("conversation b unread = %d, want 0", counts[b.ID])
	}

	// 空 id 列表直接返回空表
	counts, err = repos.Message.CountUnreadVisitorByConversationIds(nil)
	if err != nil || len(counts) != 0 {
		t.Fatalf("empty ids: counts=%v err=%v", counts, err)
	}
}

func TestCountByConversationIds(t *testing.T) {
	repos := NewRepositories(openTestDB(t))

	a := &model.Conversation{SessionKey: "sk-a", Status: chat_status_enum.Open}
	b := &model.Conversation{SessionKey: "sk-b", Status: chat_status_enum.Open}
	for _, c := range []*model.Conversation{a, b} {
		if err := repos.Conversation.Create(c); err != nil {
			t.Fatal(err)
		}
	}
	// a 访客和客服各一条，总数都计入
	if err := repos.Message.Create(&model.Message{ConversationId: a.ID, Content: "m", MessageType: "text"}); err != nil {
		t.Fatal(err)
	}
	if err := repos.Message.Create(&model.Message{ConversationId: a.ID, Content: "m", MessageType: "text", IsFromAdmin: true}); err != nil {
		t.Fatal(err)
	}

	counts, err := repos.Message.CountByConversationIds([]uint{a.ID, b.ID})
	if err != nil {
		t.Fatal(err)
	}
	if counts[a.ID] != 2 {
		t.Fatalf("conversation a count = %d, want 2", counts[a.ID])
	}
	if counts[b.ID] != 0 {
		t.Fatalf("conversation b count = %d, want 0", counts[b.ID])
	}

	counts, err = repos.Message.CountByConversationIds(nil)
	if err != nil || len(counts) != 0 {
		t.Fatalf("empty ids: counts=%v err=%v", counts, err)
	}
}

func TestDeleteConversationCascades(t *testing.T) {
	repos := NewRepositories(openTestDB(t))

	conversation := &model.Conversation{SessionKey: "sk", Status: chat_status_enum.Open}
	if err := repos.Conversation.Create(conversation); err != nil {
		t.Fatal(err)
	}
	if err := repos.Message.Create(&model.Message{ConversationId: conversation.ID, Content: "m", MessageType: "text"}); err != nil {
		t.Fatal(err)
	}

	if err := repos.Conversation.Delete(conversation.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := repos.Conversation.FindById(conversation.ID); !errorx.IsNotFound(err) {
		t.Fatalf("conversation should be gone, got %v", err)
	}
}

func TestStatsCounters(t *testing.T) {
	repos := NewRepositories(openTestDB(t))

	ratings := []int{5, 3}
	for i := 0; i < 3; i++ {
		c := &model.Conversation{SessionKey: fmt.Sprintf("sk-%d", i), Status: chat_status_enum.Open}
		if i < 2 {
			c.Status = chat_status_enum.Closed
			c.Rating = &ratings[i]
		}
		if err := repos.Conversation.Create(c); err != nil {
			t.Fatal(err)
		}
	}

	total, err := repos.Conversation.CountAll()
	if err != nil || total != 3 {
		t.Fatalf("total = %d err=%v", total, err)
	}
	open, err := repos.Conversation.CountByStatus(chat_status_enum.Open)
	if err != nil || open != 1 {
		t.Fatalf("open = %d err=%v", open, err)
	}
	today, err := repos.Conversation.CountCreatedSince(time.Now().Add(-time.Minute))
	if err != nil || today != 3 {
		t.Fatalf("today = %d err=%v", today, err)
	}
	avg, err := repos.Conversation.AverageRating()
	if err != nil {
		t.Fatal(err)
	}
	if avg != 4 {
		t.Fatalf("avg rating = %v, want 4", avg)
	}
}

func TestAverageRatingEmpty(t *testing.T) {
	repos := NewRepositories(openTestDB(t))
	avg, err := repos.Conversation.AverageRating()
	if err != nil {
		t.Fatal(err)
	}
	if avg != 0 {
		t.Fatalf("avg = %v, want 0", avg)
	}
}
