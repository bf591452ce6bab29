package handlers

import (
	"GuardianLink/pkg/response"

	"github.com/gin-gonic/gin"
)

type MessageRequest struct {
	Text string `json:"text"`
}

type ReactionRequest struct {
	Emoji string `json:"emoji"`
}

type RoomRequest struct {
	Name string `json:"name"`
}

type JoinRequest struct {
	Code string `json:"code"`
}

func (h *Handlers) handleListChats(c *gin.Context) {
	response.Success(c, "success", h.Chat.Chats())
}

func (h *Handlers) handlePublicChat(c *gin.Context) {
	chat, err := h.Chat.PublicChat()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", chat)
}

func (h *Handlers) handleGetChat(c *gin.Context) {
	chat, err := h.Chat.Chat(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", gin.H{"chat": chat, "replyPending": h.Chat.Pending(chat.ID)})
}

func (h *Handlers) handleSendMessage(c *gin.Context) {
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", nil)
		return
	}
	chatID := c.Param("id")
	msg, err := h.Chat.SendMessage(c.Request.Context(), chatID, req.Text)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "message sent", gin.H{"message": msg, "replyPending": h.Chat.Pending(chatID)})
}

// handleRequestReply 同步等待 persona 回复
func (h *Handlers) handleRequestReply(c *gin.Context) {
	msg, err := h.Chat.RequestReply(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "reply received", msg)
}

func (h *Handlers) handleReact(c *gin.Context) {
	var req ReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", nil)
		return
	}
	msg, err := h.Chat.React(c.Request.Context(), c.Param("id"), c.Param("mid"), req.Emoji)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", msg)
}

func (h *Handlers) handleSearch(c *gin.Context) {
	hits, err := h.Chat.Search(c.Request.Context(), c.Param("id"), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", hits)
}

func (h *Handlers) handleListRooms(c *gin.Context) {
	response.Success(c, "success", h.Chat.Rooms())
}

func (h *Handlers) handleCreateRoom(c *gin.Context) {
	var req RoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", nil)
		return
	}
	room, err := h.Chat.CreateRoom(c.Request.Context(), req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "room created", room)
}

func (h *Handlers) handleJoinRoom(c *gin.Context) {
	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request", nil)
		return
	}
	room, err := h.Chat.JoinRoom(c.Request.Context(), req.Code)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "room joined", room)
}

func (h *Handlers) handleLeaveRoom(c *gin.Context) {
	room, err := h.Chat.LeaveRoom(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "room left", room)
}

func (h *Handlers) handleDeleteRoom(c *gin.Context) {
	if err := h.Chat.DeleteRoom(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "room deleted", nil)
}

func (h *Handlers) handleQuickMessages(c *gin.Context) {
	response.Success(c, "success", h.Chat.QuickMessages())
}

func (h *Handlers) handleListUsers(c *gin.Context) {
	response.Success(c, "success", h.Chat.Users())
}

func (h *Handlers) handleGetUser(c *gin.Context) {
	u, err := h.Chat.User(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", u)
}

func (h *Handlers) handleRequestChat(c *gin.Context) {
	if err := h.Chat.RequestChat(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "request sent", nil)
}

func (h *Handlers) handleOpenPrivateChat(c *gin.Context) {
	chat, err := h.Chat.OpenPrivateChat(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "success", chat)
}
