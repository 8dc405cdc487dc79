package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageValidate(t *testing.T) {
	attachment := &AttachmentRef{URL: "https://cdn/x.png", FileName: "x.png", FileSize: 10, ContentType: "image/png"}

	cases := []struct {
		name    string
		msg     Message
		wantErr bool
	}{
		{"text ok", Message{Type: MessageTypeText, Content: "Hi"}, false},
		{"text empty", Message{Type: MessageTypeText, Content: "  "}, true},
		{"text with payload", Message{Type: MessageTypeText, Content: "Hi", Attachment: attachment}, true},
		{"image ok", Message{Type: MessageTypeImage, Attachment: attachment}, false},
		{"file without attachment", Message{Type: MessageTypeFile}, true},
		{"measurement ok", Message{Type: MessageTypeMeasurement, Measurement: &Measurement{Unit: "cm", Values: map[string]float64{"chest": 98}}}, false},
		{"measurement empty", Message{Type: MessageTypeMeasurement, Measurement: &Measurement{Unit: "cm"}}, true},
		{"system ok", Message{Type: MessageTypeSystem, System: &SystemEvent{Event: "order_update"}}, false},
		{"unknown type", Message{Type: "video", Content: "x"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.msg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConversationCloneIsDeep(t *testing.T) {
	conv := &Conversation{
		ID:             "c1",
		ParticipantIDs: []string{"t1", "u1"},
		UnreadCount:    map[string]int{"t1": 1},
		Participants:   map[string]Participant{"u1": {ID: "u1", Name: "Ana"}},
		LastMessage:    &Message{ID: "m1", Content: "Hi"},
	}

	cp := conv.Clone()
	cp.UnreadCount["t1"] = 5
	cp.LastMessage.Content = "changed"
	cp.ParticipantIDs[0] = "zz"

	assert.Equal(t, 1, conv.UnreadCount["t1"])
	assert.Equal(t, "Hi", conv.LastMessage.Content)
	assert.Equal(t, "t1", conv.ParticipantIDs[0])
}

func TestCounterpartAndPairKey(t *testing.T) {
	conv := &Conversation{ParticipantIDs: SortedPair("u1", "t1")}

	assert.Equal(t, "u1", conv.Counterpart("t1"))
	assert.Equal(t, "t1", conv.Counterpart("u1"))
	assert.Equal(t, "", conv.Counterpart("x"))
	assert.Equal(t, PairKey("u1", "t1", "order_1"), PairKey("t1", "u1", "order_1"))
	assert.NotEqual(t, PairKey("u1", "t1", "order_1"), PairKey("u1", "t1", ""))
}
