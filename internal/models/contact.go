package models

// MaxContacts 最多可信联系人数量
const MaxContacts = 5

// Contact 可信联系人
type Contact struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
	Phone  string `json:"phone"`
}
