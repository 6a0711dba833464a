package models

import (
	"reflect"
	"strings"
	"testing"
)

// gormTag extracts the gorm tag from a struct field.
func gormTag(t *testing.T, typ reflect.Type, fieldName string) string {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	return f.Tag.Get("gorm")
}

// assertGormTag checks that a struct field's gorm tag contains the expected value.
func assertGormTag(t *testing.T, typ reflect.Type, fieldName, expected string) {
	t.Helper()
	tag := gormTag(t, typ, fieldName)
	if !strings.Contains(tag, expected) {
		t.Errorf("%s.%s gorm tag = %q, want to contain %q", typ.Name(), fieldName, tag, expected)
	}
}

// assertFieldType checks that a struct field has the expected Go type.
func assertFieldType(t *testing.T, typ reflect.Type, fieldName, expectedType string) {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	got := f.Type.String()
	if got != expectedType {
		t.Errorf("%s.%s type = %q, want %q", typ.Name(), fieldName, got, expectedType)
	}
}

func TestConversation_Fields(t *testing.T) {
	typ := reflect.TypeOf(Conversation{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "ID", "size:36")
	assertGormTag(t, typ, "ParticipantID", "index")
	assertGormTag(t, typ, "ParticipantName", "not null")
	assertGormTag(t, typ, "ParticipantKind", "default:personal")
	assertGormTag(t, typ, "Online", "default:true")

	// UnreadCount is derived, never stored.
	if tag := gormTag(t, typ, "UnreadCount"); tag != "-" {
		t.Errorf("Conversation.UnreadCount gorm tag = %q, want %q", tag, "-")
	}

	assertFieldType(t, typ, "ID", "string")
	assertFieldType(t, typ, "LastMessageID", "*string")
	assertFieldType(t, typ, "UnreadCount", "int")
	assertFieldType(t, typ, "CreatedAt", "time.Time")
}

func TestMessage_Fields(t *testing.T) {
	typ := reflect.TypeOf(Message{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "ID", "size:36")
	assertGormTag(t, typ, "ConversationID", "not null")
	assertGormTag(t, typ, "ConversationID", "idx_conversation_sequence")
	assertGormTag(t, typ, "Sequence", "uniqueIndex:idx_conversation_sequence")
	assertGormTag(t, typ, "SenderID", "not null")
	assertGormTag(t, typ, "Content", "type:text")
	assertGormTag(t, typ, "Read", "default:false")
	assertGormTag(t, typ, "Read", "index")

	assertFieldType(t, typ, "Sequence", "int")
	assertFieldType(t, typ, "Read", "bool")
	assertFieldType(t, typ, "CreatedAt", "time.Time")
}

func TestParticipantKinds(t *testing.T) {
	if KindPersonal != "personal" {
		t.Errorf("KindPersonal = %q, want %q", KindPersonal, "personal")
	}
	if KindBusiness != "business" {
		t.Errorf("KindBusiness = %q, want %q", KindBusiness, "business")
	}
}
