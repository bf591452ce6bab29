package models

// 本地持久化键名
const (
	KeyContacts   = "guardianlink-trusted-contacts"
	KeyGroupChats = "guardianlink-group-chats"
	KeyAllChats   = "guardianlink-all-chats"
	KeyAnonymous  = "isAnonymous"
	KeyUserStatus = "guardianlink-user-status"
)
