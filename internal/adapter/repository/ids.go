package repository

import "github.com/google/uuid"

var conversationNamespace = uuid.MustParse("6f1c1b8e-2d0a-4b7e-9d38-5a0f3c1e7b21")

// ConversationID derives a stable id from a pair key so repeated deep links for the
// same participants and order resolve to the same document.
func ConversationID(pairKey string) string {
	return uuid.NewSHA1(conversationNamespace, []byte(pairKey)).String()
}

func newMessageID() string {
	return uuid.New().String()
}
