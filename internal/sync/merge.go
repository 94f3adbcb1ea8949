package sync

import "github.com/matheus3301/wachats/internal/wa"

// MergeConversations upserts a freshly polled batch into the held list.
// The fresh batch comes first in the order returned by the backend, followed
// by every held conversation not present in it, in their previous relative
// order. Neither input is modified.
func MergeConversations(local, fresh []wa.Conversation) []wa.Conversation {
	ids := make(map[string]struct{}, len(fresh))
	out := make([]wa.Conversation, 0, len(fresh)+len(local))
	for _, c := range fresh {
		if _, dup := ids[c.ID]; dup {
			continue
		}
		ids[c.ID] = struct{}{}
		out = append(out, c)
	}
	for _, c := range local {
		if _, ok := ids[c.ID]; ok {
			continue
		}
		out = append(out, c)
	}
	return out
}

// AppendOlderConversations appends a page fetched with before_at to the tail,
// skipping conversations already held.
func AppendOlderConversations(local, older []wa.Conversation) []wa.Conversation {
	ids := make(map[string]struct{}, len(local))
	out := make([]wa.Conversation, 0, len(local)+len(older))
	for _, c := range local {
		ids[c.ID] = struct{}{}
		out = append(out, c)
	}
	for _, c := range older {
		if _, ok := ids[c.ID]; ok {
			continue
		}
		ids[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out
}

// ReverseMessages returns a reversed copy of msgs. The backend answers
// newest-first while threads are held oldest-first.
func ReverseMessages(msgs []wa.ChatMessage) []wa.ChatMessage {
	out := make([]wa.ChatMessage, len(msgs))
	for i, m := range msgs {
		out[len(msgs)-1-i] = m
	}
	return out
}

// AppendMessages reverses a newest-first increment and appends it to the
// held oldest-first thread, skipping ids already held.
func AppendMessages(local, freshNewestFirst []wa.ChatMessage) []wa.ChatMessage {
	ids := messageIDs(local)
	out := make([]wa.ChatMessage, len(local), len(local)+len(freshNewestFirst))
	copy(out, local)
	for _, m := range ReverseMessages(freshNewestFirst) {
		if _, ok := ids[m.ID]; ok {
			continue
		}
		ids[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}

// PrependOlderMessages places a newest-first page fetched with before_id in
// front of the held thread, skipping ids already held.
func PrependOlderMessages(local, olderNewestFirst []wa.ChatMessage) []wa.ChatMessage {
	ids := messageIDs(local)
	out := make([]wa.ChatMessage, 0, len(local)+len(olderNewestFirst))
	for _, m := range ReverseMessages(olderNewestFirst) {
		if _, ok := ids[m.ID]; ok {
			continue
		}
		ids[m.ID] = struct{}{}
		out = append(out, m)
	}
	return append(out, local...)
}

func messageIDs(msgs []wa.ChatMessage) map[string]struct{} {
	ids := make(map[string]struct{}, len(msgs))
	for _, m := range msgs {
		ids[m.ID] = struct{}{}
	}
	return ids
}
