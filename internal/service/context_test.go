package service

import (
	"testing"

	"persona-chat-server/internal/model"
)

func TestBuildContext_FullAssembly(t *testing.T) {
	history := []model.Message{
		{Role: model.MessageRoleUser, Content: "hi"},
		{Role: model.MessageRoleAssistant, Content: "hello"},
	}
	result := BuildContext("Be terse.", history, "bye")

	if len(result) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(result))
	}
	if result[0].Role != "system" || result[0].Content != "Be terse." {
		t.Errorf("unexpected system message: %+v", result[0])
	}
	if result[1].Role != "user" || result[1].Content != "hi" {
		t.Errorf("unexpected history[0]: %+v", result[1])
	}
	if result[2].Role != "assistant" || result[2].Content != "hello" {
		t.Errorf("unexpected history[1]: %+v", result[2])
	}
	if result[3].Role != "user" || result[3].Content != "bye" {
		t.Errorf("unexpected trailing user message: %+v", result[3])
	}
}

func TestBuildContext_EmptyDirectiveAndHistory(t *testing.T) {
	result := BuildContext("", nil, "hi")

	if len(result) != 1 {
		t.Fatalf("expected 1 message, got %d", len(result))
	}
	if result[0].Role != "user" || result[0].Content != "hi" {
		t.Errorf("unexpected message: %+v", result[0])
	}
}

func TestBuildContext_EmptyDirectiveEmitsNoSystemEntry(t *testing.T) {
	history := []model.Message{
		{Role: model.MessageRoleUser, Content: "hi"},
	}
	result := BuildContext("", history, "again")

	for _, m := range result {
		if m.Role == "system" {
			t.Errorf("empty directive must not produce a system entry: %+v", m)
		}
	}
}

func TestBuildContext_NewMessageAlwaysLast(t *testing.T) {
	history := []model.Message{
		{Role: model.MessageRoleUser, Content: "a"},
		{Role: model.MessageRoleAssistant, Content: "b"},
		{Role: model.MessageRoleUser, Content: "c"},
	}
	result := BuildContext("persona", history, "tail")

	last := result[len(result)-1]
	if last.Role != "user" || last.Content != "tail" {
		t.Errorf("expected trailing {user tail}, got %+v", last)
	}
}
