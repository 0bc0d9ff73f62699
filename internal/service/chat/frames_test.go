package chat

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"stelle_world_server/internal/model"
)

func TestPreview(t *testing.T) {
	if got := Preview("short"); got != "short" {
		t.Fatalf("Preview(short) = %q", got)
	}

	long := strings.Repeat("a", 150)
	got := Preview(long)
	if got != strings.Repeat("a", 100)+"..." {
		t.Fatalf("long preview = %q", got)
	}

	// 恰好等于上限时不截断
	exact := strings.Repeat("b", 100)
	if got := Preview(exact); got != exact {
		t.Fatalf("exact-length preview = %q", got)
	}

	// 多字节字符按字符数截断，不能截出半个字
	chinese := strings.Repeat("中", 120)
	got = Preview(chinese)
	if got != strings.Repeat("中", 100)+"..." {
		t.Fatalf("rune preview = %q", got)
	}
}

func TestMarshalMessageFrame(t *testing.T) {
	conversation := &model.Conversation{
		Model:       gorm.Model{ID: 42},
		VisitorName: "小王",
	}
	message := &model.Message{
		Model:          gorm.Model{ID: 7, CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
		ConversationId: 42,
		Content:        "你好",
		MessageType:    "text",
	}

	data, err := MarshalMessageFrame(message, conversation)
	if err != nil {
		t.Fatal(err)
	}

	var frame map[string]any
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatal(err)
	}
	if frame["type"] != "message" {
		t.Fatalf("type = %v", frame["type"])
	}
	payload := frame["message"].(map[string]any)
	if payload["id"].(float64) != 7 {
		t.Fatalf("id = %v", payload["id"])
	}
	if payload["sender_name"] != "小王" {
		t.Fatalf("sender_name = %v", payload["sender_name"])
	}
	if payload["is_from_admin"] != false {
		t.Fatalf("is_from_admin = %v", payload["is_from_admin"])
	}
	if payload["conversation_id"].(float64) != 42 {
		t.Fatalf("conversation_id = %v", payload["conversation_id"])
	}
	if payload["created_at"] != "2025-06-01T12:00:00Z" {
		t.Fatalf("created_at = %v", payload["created_at"])
	}
}

func TestMarshalNewMessageFrame(t *testing.T) {
	conversation := &model.Conversation{
		Model:        gorm.Model{ID: 5},
		VisitorName:  "访客A",
		VisitorEmail: "a@example.com",
	}
	message := &model.Message{
		Model:   gorm.Model{ID: 1, CreatedAt: time.Now()},
		Content: strings.Repeat("x", 130),
	}

	data, err := MarshalNewMessageFrame(message, conversation)
	if err != nil {
		t.Fatal(err)
	}

	var frame map[string]any
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatal(err)
	}
	if frame["type"] != "new_message" {
		t.Fatalf("type = %v", frame["type"])
	}
	if frame["participant_name"] != "访客A" {
		t.Fatalf("participant_name = %v", frame["participant_name"])
	}
	if frame["participant_email"] != "a@example.com" {
		t.Fatalf("participant_email = %v", frame["participant_email"])
	}
	preview := frame["message_preview"].(string)
	if preview != strings.Repeat("x", 100)+"..." {
		t.Fatalf("message_preview = %q", preview)
	}
	// 全量内容不应出现在告警帧里
	if strings.Contains(string(data), strings.Repeat("x", 101)) {
		t.Fatal("alert frame must not carry the full content")
	}
}

func TestMarshalErrorFrame(t *testing.T) {
	data := MarshalErrorFrame("出错了")
	var frame errorFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatal(err)
	}
	if frame.Type != "error" || frame.Message != "出错了" {
		t.Fatalf("frame = %+v", frame)
	}
}
