package models

import "GuardianLink/pkg/llm"

const (
	// CurrentUserID 当前设备用户
	CurrentUserID = "user1"
	// PersonaID 自动回复的参与者
	PersonaID = llm.PersonaID
	// PublicChatID 公共广播频道
	PublicChatID = "chat1"
)

// QuickMessages 快捷短语
var QuickMessages = []string{
	"Class will start at 9 AM",
	"Assignment submitted",
	"Please check the uploaded file",
	"Meeting at library",
	"Exam date updated",
}

func user(id, name, avatarSeed string, status Status) User {
	return User{ID: id, Name: name, Avatar: AvatarURL(avatarSeed), Status: status}
}

// DefaultUsers 内置用户，第一个为当前用户
func DefaultUsers() []User {
	return []User{
		user(CurrentUserID, "You", CurrentUserID, StatusSafe),
		user("user2", "Alex", "user2", StatusSafe),
		user("user3", "Maria", "user3", StatusHelp),
		user("user4", "John", "user4", StatusOnline),
		user("user5", "Sarah", "user5", StatusDanger),
		user("user6", "Campus Security", "security", StatusOnline),
		user("user7", "Ben", "user7", StatusSafe),
		user("user8", "Chloe", "user8", StatusSafe),
		user("user9", "David", "user9", StatusOnline),
	}
}

func messages(raw ...[3]string) []Message {
	out := make([]Message, len(raw))
	for i, r := range raw {
		out[i] = Message{ID: r[0], SenderID: r[1], Text: r[2], Seq: int64(i + 1)}
	}
	return out
}

func stamp(msgs []Message, ts ...string) []Message {
	for i := range msgs {
		msgs[i].Timestamp = ts[i]
	}
	return msgs
}

// DefaultChats 内置聊天数据
func DefaultChats() []Chat {
	return []Chat{
		{
			ID:           PublicChatID,
			Type:         ChatPublic,
			Name:         "Public Broadcast",
			Participants: []string{"user1", "user2", "user3", "user4", "user5", "user6", "user7", "user8", "user9"},
			Messages: stamp(messages(
				[3]string{"m1-1", "user6", "[ADMIN] This is a public announcement: The north gate will be closed for maintenance at 5 PM."},
				[3]string{"m1-2", "user2", "Thanks for the heads up!"},
				[3]string{"m1-3", "user4", "Does anyone have a spare charger?"},
				[3]string{"m1-4", "user7", "I have one! I am near the library."},
				[3]string{"m1-5", "user8", "Be careful everyone, I saw a suspicious person near the west entrance."},
				[3]string{"m1-6", "user6", "[ADMIN] We have dispatched a security officer to the west entrance. Please report any suspicious activity."},
			), "10:30 AM", "10:31 AM", "11:15 AM", "11:17 AM", "11:20 AM", "11:22 AM"),
			LastMessage:     "Security dispatched to west entrance.",
			LastMessageTime: "11:22 AM",
			UnreadCount:     4,
		},
		{
			ID:           "chat2",
			Type:         ChatGroup,
			Name:         "Study Group",
			Participants: []string{"user1", "user3", "user4"},
			Messages: stamp(messages(
				[3]string{"m2-1", "user3", "Hey everyone, are we still meeting at the library?"},
				[3]string{"m2-2", "user1", "Yes, I'll be there around 2 PM."},
			), "Yesterday", "Yesterday"),
			LastMessage:     "Yes, I'll be there around 2 PM.",
			LastMessageTime: "Yesterday",
		},
		{
			ID:           "chat3",
			Type:         ChatPrivate,
			Participants: []string{"user1", "user2"},
			Messages: stamp(messages(
				[3]string{"m3-1", "user2", "Hi! Can you send me the notes from today's class?"},
			), "1:20 PM"),
			LastMessage:     "Hi! Can you send me the notes from today's class?",
			LastMessageTime: "1:20 PM",
			UnreadCount:     3,
		},
		{
			ID:           "chat4",
			Type:         ChatPrivate,
			Participants: []string{"user1", "user5"},
			Messages: stamp(messages(
				[3]string{"m4-1", "user5", "Are you okay? I saw your status."},
				[3]string{"m4-2", "user1", "Not really, something feels off."},
				[3]string{"m4-3", "user5", "Help me!"},
			), "9:05 AM", "9:06 AM", "9:07 AM"),
			LastMessage:     "Help me!",
			LastMessageTime: "9:07 AM",
			UnreadCount:     1,
		},
	}
}

// DefaultContacts 内置可信联系人
func DefaultContacts() []Contact {
	return []Contact{
		{ID: "contact1", Name: "Mom", Avatar: AvatarURL("mom"), Phone: "111-222-3333"},
		{ID: "contact2", Name: "Best Friend", Avatar: AvatarURL("friend"), Phone: "444-555-6666"},
		{ID: "contact3", Name: "Roommate", Avatar: AvatarURL("roommate"), Phone: "777-888-9999"},
	}
}
