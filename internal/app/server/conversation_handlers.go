package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jinford/shiori/internal/core/conversation"
)

type completionRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

func (s *Server) handleCreateConversation(c *gin.Context) {
	conv, err := s.conversations.StartConversation(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, conversationView(conv))
}

func (s *Server) handleListConversations(c *gin.Context) {
	opts := conversation.ListOptions{
		Sort:  c.DefaultQuery("sort", "updated_at"),
		Order: c.DefaultQuery("order_by", "desc"),
	}
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		opts.Limit = parsed
	}
	if raw := c.Query("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset"})
			return
		}
		opts.Offset = parsed
	}

	conversations, err := s.conversations.ListConversations(c.Request.Context(), currentUserID(c), opts)
	if err != nil {
		s.respondError(c, err)
		return
	}

	views := make([]gin.H, 0, len(conversations))
	for _, conv := range conversations {
		views = append(views, conversationView(conv))
	}
	c.JSON(http.StatusOK, gin.H{"conversations": views})
}

func (s *Server) handleGetConversation(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	conv, messages, err := s.conversations.GetConversation(c.Request.Context(), currentUserID(c), conversationID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	messageViews := make([]gin.H, 0, len(messages))
	for _, msg := range messages {
		messageViews = append(messageViews, messageView(msg))
	}

	view := conversationView(conv)
	view["messages"] = messageViews
	c.JSON(http.StatusOK, view)
}

// handleCompletion は質問への回答を生成し、会話に記録して返す
func (s *Server) handleCompletion(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	var req completionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
		return
	}

	answer, err := s.conversations.CompleteTurn(c.Request.Context(), currentUserID(c), conversationID, req.Prompt)
	if err != nil {
		s.respondError(c, err)
		return
	}

	sources := make([]gin.H, 0, len(answer.Sources))
	for _, source := range answer.Sources {
		sources = append(sources, gin.H{
			"id":      source.ID,
			"title":   source.Title,
			"authors": source.Authors,
			"content": source.Content,
		})
	}

	view := messageView(answer.Message)
	view["prompt"] = answer.Prompt
	view["sources"] = sources
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleGetMessage(c *gin.Context) {
	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	msg, err := s.conversations.GetMessage(c.Request.Context(), currentUserID(c), messageID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, messageView(msg))
}

func conversationView(conv *conversation.Conversation) gin.H {
	return gin.H{
		"uuid":                    conv.ID,
		"name":                    conv.Name,
		"model":                   conv.Model,
		"current_leaf_message_id": conv.CurrentLeafMessageID,
		"message_count":           conv.MessageCount,
		"created_at":              conv.CreatedAt,
		"updated_at":              conv.UpdatedAt,
	}
}

func messageView(msg *conversation.Message) gin.H {
	return gin.H{
		"id":              msg.ID,
		"conversation_id": msg.ConversationID,
		"parent_id":       msg.ParentID,
		"index":           msg.Index,
		"sender":          msg.Sender,
		"content":         msg.Content,
		"source_ids":      msg.SourceIDs,
		"created_at":      msg.CreatedAt,
	}
}
