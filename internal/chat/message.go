// Package chat owns the canonical message sequence of a dual-channel
// conversation and the per-pane timelines derived from it.
package chat

// Role identifies who wrote a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Channel identifies which answer stream an assistant message belongs to.
// User messages carry ChannelNone.
type Channel string

const (
	ChannelNone     Channel = ""
	ChannelVector   Channel = "vector"
	ChannelReranked Channel = "reranked"
)

// Message is one entry in the canonical sequence. Messages are immutable
// once appended.
type Message struct {
	ID      string
	Role    Role
	Channel Channel
	Content string
}
