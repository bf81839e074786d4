package chat

// Pane is a display column. Left shows the vector channel, right the
// reranked channel.
type Pane int

const (
	PaneLeft Pane = iota
	PaneRight
)

// Channel returns the answer stream shown in the pane.
func (p Pane) Channel() Channel {
	if p == PaneRight {
		return ChannelReranked
	}
	return ChannelVector
}

func (p Pane) String() string {
	if p == PaneRight {
		return "right"
	}
	return "left"
}

// Select returns the subsequence shown in a pane: every user message plus
// the assistant messages tagged with the pane's channel, in original order.
// Routing reads the Channel tag, never the index, so failed turns (a user
// message with no answers) cannot shift later answers into the wrong pane.
func Select(messages []Message, pane Pane) []Message {
	want := pane.Channel()
	out := make([]Message, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleUser:
			out = append(out, m)
		case RoleAssistant:
			if m.Channel == want {
				out = append(out, m)
			}
		}
	}
	return out
}
