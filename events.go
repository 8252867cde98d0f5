package flowchat

// Wire event names, as the server speaks them.
const (
	// Inbound.
	evChatHistory         = "chatHistory"
	evMessageSent         = "messageSent"
	evReceiveMessage      = "receiveMessage"
	evReceiveGroupMessage = "receiveGroupMessage"
	evMessageRead         = "messageRead"
	evUserTyping          = "userTyping"
	evUserStoppedTyping   = "userStoppedTyping"
	evUserStatus          = "userStatus"
	evGroupList           = "groupList"
	evError               = "error"

	// Outbound.
	evSendUserMessage  = "sendUserMessage"
	evSendGroupMessage = "sendGroupMessage"
	evTyping           = "typing"
	evStopTyping       = "stopTyping"
	evMarkAsRead       = "markAsRead"
	evCreateGroup      = "createGroup"
	evJoinGroup        = "joinGroup"
)

type sendUserMessagePayload struct {
	Receiver string `json:"receiver"`
	Message  string `json:"message"`
}

type sendGroupMessagePayload struct {
	GroupID string `json:"groupId"`
	Message string `json:"message"`
}

type typingPayload struct {
	ReceiverID string `json:"receiverId"`
}

type markAsReadPayload struct {
	MessageID string `json:"messageId"`
	IsGroup   bool   `json:"isGroup,omitempty"`
}

type createGroupPayload struct {
	Name string `json:"name"`
}

type joinGroupPayload struct {
	GroupID string `json:"groupId"`
}

// typingEvent is the payload of userTyping.
type typingEvent struct {
	Username string `json:"username"`
}

// messageReadEvent is the payload of messageRead. Direct confirmations
// carry the read flag; group confirmations carry the updated reader set.
type messageReadEvent struct {
	MessageID string   `json:"messageId"`
	Read      bool     `json:"read"`
	ReadBy    []string `json:"readBy"`
}

// serverError is the payload of error.
type serverError struct {
	Message string `json:"message"`
}
