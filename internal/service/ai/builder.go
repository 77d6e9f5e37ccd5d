package ai

import (
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/seohyun-lab/maum-counsel/backend/internal/config"
	chatmodel "github.com/seohyun-lab/maum-counsel/backend/internal/model/chat"
)

// requestBuilder assembles the provider request from the persona prompt, the
// windowed history, and the new utterance. Two strategies exist because the
// two front-end builds diverged here; the style is picked by configuration.
type requestBuilder interface {
	Build(system string, history []chatmodel.Turn, utterance string) []*schema.Message
}

func newRequestBuilder(style string) (requestBuilder, error) {
	switch style {
	case config.PromptStyleMessages:
		return messagesBuilder{}, nil
	case config.PromptStyleFlat:
		return flatBuilder{}, nil
	default:
		return nil, fmt.Errorf("unknown prompt style %q", style)
	}
}

// messagesBuilder keeps the conversation structured: a system message for
// the persona, role-tagged history, and the utterance as the final user
// message.
type messagesBuilder struct{}

func (messagesBuilder) Build(system string, history []chatmodel.Turn, utterance string) []*schema.Message {
	messages := make([]*schema.Message, 0, len(history)+2)
	messages = append(messages, schema.SystemMessage(system))
	for _, turn := range history {
		switch turn.Role {
		case chatmodel.RoleUser:
			messages = append(messages, schema.UserMessage(turn.Text))
		case chatmodel.RoleModel:
			messages = append(messages, schema.AssistantMessage(turn.Text, nil))
		}
	}
	return append(messages, schema.UserMessage(utterance))
}

// flatBuilder concatenates persona, rendered history, and utterance into a
// single user message.
type flatBuilder struct{}

func (flatBuilder) Build(system string, history []chatmodel.Turn, utterance string) []*schema.Message {
	var b strings.Builder
	b.WriteString(system)
	b.WriteString("\n\n")
	for _, turn := range history {
		b.WriteString(roleLabel(turn.Role))
		b.WriteString(": ")
		b.WriteString(turn.Text)
		b.WriteString("\n")
	}
	b.WriteString(roleLabel(chatmodel.RoleUser))
	b.WriteString(": ")
	b.WriteString(utterance)
	return []*schema.Message{schema.UserMessage(b.String())}
}

func roleLabel(role chatmodel.Role) string {
	if role == chatmodel.RoleModel {
		return "상담사"
	}
	return "사용자"
}
