package chat

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"stelle_world_server/internal/dao/mysql/repository"
	"stelle_world_server/internal/infrastructure/notify"
	"stelle_world_server/internal/model"
	"stelle_world_server/pkg/enum/chat/chat_status_enum"
)

// captureNotifier 记录收到的事件，供断言
type captureNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *captureNotifier) Notify(event notify.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *captureNotifier) chatEvents() []notify.NewChatMessageEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notify.NewChatMessageEvent
	for _, e := range n.events {
		if ce, ok := e.(notify.NewChatMessageEvent); ok {
			out = append(out, ce)
		}
	}
	return out
}

type chatTestEnv struct {
	server   *httptest.Server
	service  *ChatService
	repos    *repository.Repositories
	notifier *captureNotifier
}

func newChatTestEnv(t *testing.T) *chatTestEnv {
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

	repos := repository.NewRepositories(db)
	notifier := &captureNotifier{}
	svc := NewChatService(repos.Conversation, repos.Message, notifier)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws/chat/:id", func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.AbortWithStatus(400)
			return
		}
		svc.AcceptVisitor(c.Writer, c.Request, uint(id))
	})
	r.GET("/ws/admin/chat", func(c *gin.Context) {
		svc.AcceptAdmin(c.Writer, c.Request)
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return &chatTestEnv{server: server, service: svc, repos: repos, notifier: notifier}
}

func (env *chatTestEnv) wsURL(path string) string {
	return "ws" + strings.TrimPrefix(env.server.URL, "http") + path
}

func (env *chatTestEnv) dial(t *testing.T, path string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(env.wsURL(path), nil)
	if err != nil {
		t.Fatalf("dial %s: %v", path, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func (env *chatTestEnv) createConversation(t *testing.T, status string) *model.Conversation {
	t.Helper()
	conversation := &model.Conversation{
		VisitorName:  "测试访客",
		VisitorEmail: "visitor@example.com",
		SessionKey:   "sk-" + strings.ReplaceAll(t.Name(), "/", "-"),
		Status:       status,
	}
	if err := env.repos.Conversation.Create(conversation); err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	return conversation
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	var frame map[string]any
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("unmarshal frame %q: %v", data, err)
	}
	return frame
}

// waitFor 轮询直到条件成立或超时
func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %s", what)
}

func TestVisitorMessageFlow(t *testing.T) {
	env := newChatTestEnv(t)
	conversation := env.createConversation(t, chat_status_enum.Open)

	admin := env.dial(t, "/ws/admin/chat")
	waitFor(t, func() bool { return env.service.Registry.AdminConnCount() == 1 }, "admin registration")

	visitor := env.dial(t, fmt.Sprintf("/ws/chat/%d", conversation.ID))
	if err := visitor.WriteJSON(map[string]string{"content": "Hello, 需要帮助"}); err != nil {
		t.Fatal(err)
	}

	// 访客自己收到会话内广播
	frame := readFrame(t, visitor)
	if frame["type"] != "message" {
		t.Fatalf("visitor frame type = %v", frame["type"])
	}
	payload := frame["message"].(map[string]any)
	if payload["content"] != "Hello, 需要帮助" {
		t.Fatalf("content = %v", payload["content"])
	}
	if payload["sender_name"] != "测试访客" {
		t.Fatalf("sender_name = %v", payload["sender_name"])
	}

	// 管理员池收到告警帧
	alert := readFrame(t, admin)
	if alert["type"] != "new_message" {
		t.Fatalf("admin frame type = %v", alert["type"])
	}
	if alert["message_preview"] != "Hello, 需要帮助" {
		t.Fatalf("message_preview = %v", alert["message_preview"])
	}
	if uint(alert["conversation_id"].(float64)) != conversation.ID {
		t.Fatalf("conversation_id = %v", alert["conversation_id"])
	}

	// 消息已落库，会话活动时间已刷新
	messages, err := env.repos.Message.FindByConversationId(conversation.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(messages) != 1 || messages[0].Content != "Hello, 需要帮助" {
		t.Fatalf("persisted messages = %+v", messages)
	}
	fresh, err := env.repos.Conversation.FindById(conversation.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !fresh.LastMessageAt.Valid {
		t.Fatal("last_message_at not set")
	}

	// 离线通知事件已触发
	waitFor(t, func() bool { return len(env.notifier.chatEvents()) == 1 }, "notify event")
	event := env.notifier.chatEvents()[0]
	if event.ParticipantEmail != "visitor@example.com" {
		t.Fatalf("event = %+v", event)
	}
}

func TestVisitorHandshakeUnknownConversation(t *testing.T) {
	env := newChatTestEnv(t)

	conn, _, err := websocket.DefaultDialer.Dial(env.wsURL("/ws/chat/9999"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, _, err = conn.ReadMessage()
	closeErr, ok := err.(*websocket.CloseError)
	if !ok {
		t.Fatalf("expected close error, got %v", err)
	}
	if closeErr.Code != CloseCodeConversationNotFound {
		t.Fatalf("close code = %d, want %d", closeErr.Code, CloseCodeConversationNotFound)
	}
}

func TestVisitorMalformedAndEmptyFrames(t *testing.T) {
	env := newChatTestEnv(t)
	conversation := env.createConversation(t, chat_status_enum.Open)
	visitor := env.dial(t, fmt.Sprintf("/ws/chat/%d", conversation.ID))

	// 非法 JSON：回错误帧，连接保持
	if err := visitor.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	frame := readFrame(t, visitor)
	if frame["type"] != "error" {
		t.Fatalf("frame type = %v, want error", frame["type"])
	}

	// 空白内容：静默跳过，不落库不回帧
	if err := visitor.WriteJSON(map[string]string{"content": "   "}); err != nil {
		t.Fatal(err)
	}
	// 紧接着发正常消息，应当收到它的广播而不是别的
	if err := visitor.WriteJSON(map[string]string{"content": "还在吗"}); err != nil {
		t.Fatal(err)
	}
	frame = readFrame(t, visitor)
	if frame["type"] != "message" {
		t.Fatalf("frame type = %v", frame["type"])
	}
	if frame["message"].(map[string]any)["content"] != "还在吗" {
		t.Fatalf("content = %v", frame["message"].(map[string]any)["content"])
	}

	messages, _ := env.repos.Message.FindByConversationId(conversation.ID)
	if len(messages) != 1 {
		t.Fatalf("persisted %d messages, want 1", len(messages))
	}
}

func TestVisitorSendIntoClosedConversation(t *testing.T) {
	env := newChatTestEnv(t)
	conversation := env.createConversation(t, chat_status_enum.Closed)
	visitor := env.dial(t, fmt.Sprintf("/ws/chat/%d", conversation.ID))

	if err := visitor.WriteJSON(map[string]string{"content": "人呢"}); err != nil {
		t.Fatal(err)
	}
	frame := readFrame(t, visitor)
	if frame["type"] != "error" {
		t.Fatalf("frame type = %v, want error", frame["type"])
	}

	messages, _ := env.repos.Message.FindByConversationId(conversation.ID)
	if len(messages) != 0 {
		t.Fatalf("closed conversation persisted %d messages", len(messages))
	}
	if len(env.notifier.chatEvents()) != 0 {
		t.Fatal("closed conversation must not trigger notifications")
	}
}

func TestAdminReply(t *testing.T) {
	env := newChatTestEnv(t)
	conversation := env.createConversation(t, chat_status_enum.Open)

	visitor := env.dial(t, fmt.Sprintf("/ws/chat/%d", conversation.ID))
	waitFor(t, func() bool { return env.service.Registry.ConversationConnCount(conversation.ID) == 1 }, "visitor registration")

	admin := env.dial(t, "/ws/admin/chat")
	reply := map[string]any{
		"action":          ActionReply,
		"conversation_id": conversation.ID,
		"content":         "您好，请问有什么可以帮您？",
		"admin_name":      "客服小李",
	}
	if err := admin.WriteJSON(reply); err != nil {
		t.Fatal(err)
	}

	// 访客收到客服回复
	frame := readFrame(t, visitor)
	payload := frame["message"].(map[string]any)
	if payload["is_from_admin"] != true {
		t.Fatalf("is_from_admin = %v", payload["is_from_admin"])
	}
	if payload["sender_name"] != "客服小李" {
		t.Fatalf("sender_name = %v", payload["sender_name"])
	}

	// 管理员收到 reply_sent 确认
	ack := readFrame(t, admin)
	if ack["type"] != "reply_sent" {
		t.Fatalf("ack type = %v", ack["type"])
	}
	if uint(ack["conversation_id"].(float64)) != conversation.ID {
		t.Fatalf("ack conversation_id = %v", ack["conversation_id"])
	}
	if ack["message_id"].(float64) == 0 {
		t.Fatal("ack missing message_id")
	}

	// 首次回复落客服归属
	updated, err := env.repos.Conversation.FindById(conversation.ID)
	if err != nil {
		t.Fatal(err)
	}
	if updated.AdminAssigned != "客服小李" {
		t.Fatalf("admin_assigned = %q, want %q", updated.AdminAssigned, "客服小李")
	}

	// 客服回复不触发离线通知
	if len(env.notifier.chatEvents()) != 0 {
		t.Fatal("admin reply must not trigger notifications")
	}
}

func TestAdminReplyKeepsFirstAssignee(t *testing.T) {
	env := newChatTestEnv(t)
	conversation := env.createConversation(t, chat_status_enum.Open)

	admin := env.dial(t, "/ws/admin/chat")
	for _, name := range []string{"客服小李", "客服小张"} {
		if err := admin.WriteJSON(map[string]any{
			"action":          ActionReply,
			"conversation_id": conversation.ID,
			"content":         "您好",
			"admin_name":      name,
		}); err != nil {
			t.Fatal(err)
		}
		ack := readFrame(t, admin)
		if ack["type"] != "reply_sent" {
			t.Fatalf("ack type = %v", ack["type"])
		}
	}

	updated, err := env.repos.Conversation.FindById(conversation.ID)
	if err != nil {
		t.Fatal(err)
	}
	if updated.AdminAssigned != "客服小李" {
		t.Fatalf("admin_assigned = %q, want first responder kept", updated.AdminAssigned)
	}
}

func TestAdminReplyClosedConversation(t *testing.T) {
	env := newChatTestEnv(t)
	conversation := env.createConversation(t, chat_status_enum.Closed)
	admin := env.dial(t, "/ws/admin/chat")

	if err := admin.WriteJSON(map[string]any{
		"action":          ActionReply,
		"conversation_id": conversation.ID,
		"content":         "在吗",
	}); err != nil {
		t.Fatal(err)
	}
	frame := readFrame(t, admin)
	if frame["type"] != "error" {
		t.Fatalf("frame type = %v, want error", frame["type"])
	}
}

func TestAdminGetConversations(t *testing.T) {
	env := newChatTestEnv(t)
	older := env.createConversation(t, chat_status_enum.Open)
	newer := &model.Conversation{
		VisitorName: "第二位",
		SessionKey:  "sk-second",
		Status:      chat_status_enum.Open,
	}
	if err := env.repos.Conversation.Create(newer); err != nil {
		t.Fatal(err)
	}
	// 老会话先有活动，新会话后有活动
	if err := env.repos.Conversation.TouchLastMessage(older.ID, time.Now().Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := env.repos.Conversation.TouchLastMessage(newer.ID, time.Now()); err != nil {
		t.Fatal(err)
	}
	// 新会话里有一条未读访客消息
	if err := env.repos.Message.Create(&model.Message{
		ConversationId: newer.ID,
		Content:        "有人吗",
		MessageType:    "text",
	}); err != nil {
		t.Fatal(err)
	}

	admin := env.dial(t, "/ws/admin/chat")
	if err := admin.WriteJSON(map[string]any{"action": ActionGetConversations}); err != nil {
		t.Fatal(err)
	}

	frame := readFrame(t, admin)
	if frame["type"] != "conversations_list" {
		t.Fatalf("frame type = %v", frame["type"])
	}
	list := frame["conversations"].([]any)
	if len(list) != 2 {
		t.Fatalf("list length = %d, want 2", len(list))
	}
	first := list[0].(map[string]any)
	if uint(first["id"].(float64)) != newer.ID {
		t.Fatalf("most recent conversation should come first, got id %v", first["id"])
	}
	if first["unread_count"].(float64) != 1 {
		t.Fatalf("unread_count = %v, want 1", first["unread_count"])
	}
	if first["message_count"].(float64) != 1 {
		t.Fatalf("message_count = %v, want 1", first["message_count"])
	}
	if first["created_at"] == "" {
		t.Fatal("summary missing created_at")
	}

	second := list[1].(map[string]any)
	if second["participant_email"] != "visitor@example.com" {
		t.Fatalf("participant_email = %v", second["participant_email"])
	}
	if second["message_count"].(float64) != 0 {
		t.Fatalf("message_count = %v, want 0", second["message_count"])
	}
	if second["admin_assigned"] != "" {
		t.Fatalf("admin_assigned = %v, want empty before first reply", second["admin_assigned"])
	}
}

func TestAdminMarkRead(t *testing.T) {
	env := newChatTestEnv(t)
	conversation := env.createConversation(t, chat_status_enum.Open)
	for i := 0; i < 3; i++ {
		if err := env.repos.Message.Create(&model.Message{
			ConversationId: conversation.ID,
			Content:        fmt.Sprintf("消息%d", i),
			MessageType:    "text",
		}); err != nil {
			t.Fatal(err)
		}
	}

	admin := env.dial(t, "/ws/admin/chat")
	markRead := map[string]any{"action": ActionMarkRead, "conversation_id": conversation.ID}

	if err := admin.WriteJSON(markRead); err != nil {
		t.Fatal(err)
	}
	ack := readFrame(t, admin)
	if ack["type"] != "marked_read" {
		t.Fatalf("ack type = %v", ack["type"])
	}
	if ack["count"].(float64) != 3 {
		t.Fatalf("count = %v, want 3", ack["count"])
	}

	// 再次标记应当是 0 条
	if err := admin.WriteJSON(markRead); err != nil {
		t.Fatal(err)
	}
	ack = readFrame(t, admin)
	if ack["count"].(float64) != 0 {
		t.Fatalf("second count = %v, want 0", ack["count"])
	}
}

func TestAdminUnknownAction(t *testing.T) {
	env := newChatTestEnv(t)
	admin := env.dial(t, "/ws/admin/chat")

	if err := admin.WriteJSON(map[string]any{"action": "dance"}); err != nil {
		t.Fatal(err)
	}
	frame := readFrame(t, admin)
	if frame["type"] != "error" {
		t.Fatalf("frame type = %v, want error", frame["type"])
	}
	if !strings.Contains(frame["message"].(string), "dance") {
		t.Fatalf("error message should name the action, got %v", frame["message"])
	}

	// 未知动作不断连，后续合法动作正常
	if err := admin.WriteJSON(map[string]any{"action": ActionGetConversations}); err != nil {
		t.Fatal(err)
	}
	frame = readFrame(t, admin)
	if frame["type"] != "conversations_list" {
		t.Fatalf("frame type = %v", frame["type"])
	}
}

func TestVisitorDisconnectUnregisters(t *testing.T) {
	env := newChatTestEnv(t)
	conversation := env.createConversation(t, chat_status_enum.Open)

	visitor := env.dial(t, fmt.Sprintf("/ws/chat/%d", conversation.ID))
	waitFor(t, func() bool { return env.service.Registry.ConversationConnCount(conversation.ID) == 1 }, "registration")

	visitor.Close()
	waitFor(t, func() bool { return env.service.Registry.ConversationConnCount(conversation.ID) == 0 }, "unregistration")
}
