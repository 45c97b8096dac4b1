package channel

// Message type tags exchanged with the remote client application over the
// push channel. All payloads are JSON objects carrying a "type" field.
const (
	TypeToolRequest         = "tool_request"
	TypeToolResult          = "tool_result"
	TypeSessionInit         = "session_init"
	TypeEmotionDetected     = "emotion_detected"
	TypeConversationMessage = "conversation_message"
	TypeUpdateEmotionEvent  = "update_emotion_event"
)

// Envelope is used to sniff the type tag before full decoding.
type Envelope struct {
	Type string `json:"type"`
}

// ToolRequest asks the client application to execute a tool method and
// report back with a matching ToolResult.
type ToolRequest struct {
	Type      string                 `json:"type"`
	Tool      string                 `json:"tool"`
	RequestID string                 `json:"request_id"`
	Params    map[string]interface{} `json:"params"`
}

// ToolResult is the client's reply to a ToolRequest, correlated by RequestID.
type ToolResult struct {
	Type      string                 `json:"type"`
	Tool      string                 `json:"tool"`
	RequestID string                 `json:"request_id"`
	Success   bool                   `json:"success"`
	Result    map[string]interface{} `json:"result,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// SessionInit arrives once per session and seeds navigation state and the
// client time baseline.
type SessionInit struct {
	Type                  string                 `json:"type"`
	Navigation            map[string]interface{} `json:"navigation,omitempty"`
	CurrentTime           string                 `json:"current_time"`
	TimezoneOffsetMinutes int                    `json:"timezone_offset_minutes"`
}

// EmotionEvent is an ad-hoc sensor notification from the client asking the
// assistant to check in with the user.
type EmotionEvent struct {
	Type           string `json:"type"`
	EmotionType    string `json:"emotion_type"`
	Severity       string `json:"severity"`
	CheckInMessage string `json:"check_in_message"`
	Timestamp      string `json:"timestamp"`
}

// ConversationMessage mirrors a conversation turn to the client UI.
type ConversationMessage struct {
	Type    string `json:"type"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UpdateEmotionEvent pushes the check-in question/answer pair back to the
// client so it can attach them to the stored emotion event.
type UpdateEmotionEvent struct {
	Type          string `json:"type"`
	Timestamp     string `json:"timestamp"`
	AgentQuestion string `json:"agent_question"`
	UserResponse  string `json:"user_response"`
}

// NewToolRequest builds an outbound tool request envelope.
func NewToolRequest(tool, requestID string, params map[string]interface{}) ToolRequest {
	return ToolRequest{
		Type:      TypeToolRequest,
		Tool:      tool,
		RequestID: requestID,
		Params:    params,
	}
}

// NewConversationMessage builds an outbound conversation mirror message.
func NewConversationMessage(role, content string) ConversationMessage {
	return ConversationMessage{
		Type:    TypeConversationMessage,
		Role:    role,
		Content: content,
	}
}
