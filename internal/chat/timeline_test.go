package chat

import "testing"

func user(id string) Message {
	return Message{ID: id, Role: RoleUser, Content: id}
}

func answer(id string, ch Channel) Message {
	return Message{ID: id, Role: RoleAssistant, Channel: ch, Content: id}
}

func ids(msgs []Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSelect(t *testing.T) {
	twoTurns := []Message{
		user("u1"), answer("v1", ChannelVector), answer("r1", ChannelReranked),
		user("u2"), answer("v2", ChannelVector), answer("r2", ChannelReranked),
	}

	tests := []struct {
		name  string
		input []Message
		pane  Pane
		want  []string
	}{
		{"two turns left", twoTurns, PaneLeft, []string{"u1", "v1", "u2", "v2"}},
		{"two turns right", twoTurns, PaneRight, []string{"u1", "r1", "u2", "r2"}},
		{"empty", nil, PaneLeft, []string{}},
		{"single user", []Message{user("u1")}, PaneRight, []string{"u1"}},
		{"user and vector", []Message{user("u1"), answer("v1", ChannelVector)}, PaneRight, []string{"u1"}},
		{"user and vector left", []Message{user("u1"), answer("v1", ChannelVector)}, PaneLeft, []string{"u1", "v1"}},
		{
			"failed turn in the middle",
			[]Message{
				user("u1"), answer("v1", ChannelVector), answer("r1", ChannelReranked),
				user("u2"),
				user("u3"), answer("v3", ChannelVector), answer("r3", ChannelReranked),
			},
			PaneRight,
			[]string{"u1", "r1", "u2", "u3", "r3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Select(tt.input, tt.pane))
			if !equal(got, tt.want) {
				t.Errorf("Select = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelectIsPure(t *testing.T) {
	input := []Message{user("u1"), answer("v1", ChannelVector), answer("r1", ChannelReranked)}
	Select(input, PaneLeft)
	if len(input) != 3 || input[2].ID != "r1" {
		t.Error("Select modified its input")
	}
}

func TestPaneChannel(t *testing.T) {
	if PaneLeft.Channel() != ChannelVector {
		t.Error("left pane should show the vector channel")
	}
	if PaneRight.Channel() != ChannelReranked {
		t.Error("right pane should show the reranked channel")
	}
	if PaneLeft.String() != "left" || PaneRight.String() != "right" {
		t.Error("unexpected pane names")
	}
}
