package server

import (
	"net/http"
	"strconv"

	"github.com/Luismorlan/socialmux/feed"
	"github.com/Luismorlan/socialmux/model"
	"github.com/Luismorlan/socialmux/social"
	"github.com/gin-gonic/gin"
)

// Handlers exposes each engine operation as a named procedure taking a typed
// input object and returning either {data} or {error: {kind, message}}. The
// acting user id always comes from the "sub" header populated by the auth
// middleware; it is trusted, never re-verified here.
type Handlers struct {
	Engine   *social.Engine
	Composer *feed.Composer
}

func NewHandlers(engine *social.Engine, composer *feed.Composer) *Handlers {
	return &Handlers{Engine: engine, Composer: composer}
}

// RegisterRoutes binds every procedure under /api.
func (h *Handlers) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api")

	api.POST("/friends/request", h.SendFriendRequest)
	api.POST("/friends/accept", h.AcceptFriendRequest)
	api.POST("/friends/reject", h.RejectFriendRequest)
	api.POST("/friends/remove", h.RemoveFriend)
	api.POST("/friends/block", h.BlockUser)
	api.POST("/friends/unblock", h.UnblockUser)
	api.GET("/friends", h.GetFriends)
	api.GET("/friends/mutual", h.GetMutualFriends)
	api.GET("/friends/status", h.GetFriendRequestStatus)

	api.POST("/follow", h.Follow)
	api.POST("/unfollow", h.Unfollow)
	api.GET("/followers", h.GetFollowers)
	api.GET("/following", h.GetFollowing)

	api.GET("/feed", h.GetFeed)
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func respondData(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

func respondError(c *gin.Context, err error) {
	kind := social.KindOf(err)
	c.JSON(statusOf(kind), gin.H{"error": errorBody{Kind: string(kind), Message: err.Error()}})
}

func statusOf(kind social.ErrorKind) int {
	switch kind {
	case social.KindSelfReference, social.KindInvalidState:
		return http.StatusBadRequest
	case social.KindAuthorization:
		return http.StatusForbidden
	case social.KindNotFound:
		return http.StatusNotFound
	case social.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// actingUser reads the authenticated user id placed in the "sub" header by
// the auth middleware.
func actingUser(c *gin.Context) string {
	return c.Request.Header.Get("sub")
}

type userIdInput struct {
	UserId string `json:"userId" binding:"required"`
}

type requestIdInput struct {
	RequestId string `json:"requestId" binding:"required"`
}

func (h *Handlers) SendFriendRequest(c *gin.Context) {
	var input struct {
		ReceiverId string `json:"receiverId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, social.NewInvalidStateError(err.Error()))
		return
	}
	edge, err := h.Engine.SendRequest(c.Request.Context(), actingUser(c), input.ReceiverId)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, edge)
}

func (h *Handlers) AcceptFriendRequest(c *gin.Context) {
	var input requestIdInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, social.NewInvalidStateError(err.Error()))
		return
	}
	edge, err := h.Engine.AcceptRequest(c.Request.Context(), input.RequestId, actingUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, edge)
}

func (h *Handlers) RejectFriendRequest(c *gin.Context) {
	var input requestIdInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, social.NewInvalidStateError(err.Error()))
		return
	}
	edge, err := h.Engine.RejectRequest(c.Request.Context(), input.RequestId, actingUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, edge)
}

func (h *Handlers) RemoveFriend(c *gin.Context) {
	var input userIdInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, social.NewInvalidStateError(err.Error()))
		return
	}
	if err := h.Engine.RemoveFriend(c.Request.Context(), actingUser(c), input.UserId); err != nil {
		respondError(c, err)
		return
	}
	respondData(c, gin.H{"removed": true})
}

func (h *Handlers) BlockUser(c *gin.Context) {
	var input userIdInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, social.NewInvalidStateError(err.Error()))
		return
	}
	edge, err := h.Engine.BlockUser(c.Request.Context(), actingUser(c), input.UserId)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, edge)
}

func (h *Handlers) UnblockUser(c *gin.Context) {
	var input userIdInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, social.NewInvalidStateError(err.Error()))
		return
	}
	if err := h.Engine.UnblockUser(c.Request.Context(), actingUser(c), input.UserId); err != nil {
		respondError(c, err)
		return
	}
	respondData(c, gin.H{"unblocked": true})
}

// targetUser returns the userId query param, defaulting to the acting user,
// so "my friends" and "their friends" share one procedure.
func targetUser(c *gin.Context) string {
	if userId := c.Query("userId"); userId != "" {
		return userId
	}
	return actingUser(c)
}

func (h *Handlers) GetFriends(c *gin.Context) {
	users, err := h.Engine.GetFriends(c.Request.Context(), targetUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, users)
}

func (h *Handlers) GetMutualFriends(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	users, count, err := h.Engine.MutualFriends(c.Request.Context(), actingUser(c), c.Query("userId"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, gin.H{"list": users, "count": count})
}

func (h *Handlers) GetFriendRequestStatus(c *gin.Context) {
	status, err := h.Engine.GetFriendRequestStatus(c.Request.Context(), actingUser(c), c.Query("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, gin.H{"status": status})
}

func (h *Handlers) Follow(c *gin.Context) {
	var input userIdInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, social.NewInvalidStateError(err.Error()))
		return
	}
	changed, err := h.Engine.Follow(c.Request.Context(), actingUser(c), input.UserId)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, gin.H{"changed": changed})
}

func (h *Handlers) Unfollow(c *gin.Context) {
	var input userIdInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, social.NewInvalidStateError(err.Error()))
		return
	}
	changed, err := h.Engine.Unfollow(c.Request.Context(), actingUser(c), input.UserId)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, gin.H{"changed": changed})
}

func (h *Handlers) GetFollowers(c *gin.Context) {
	users, err := h.Engine.GetFollowers(c.Request.Context(), targetUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, users)
}

func (h *Handlers) GetFollowing(c *gin.Context) {
	users, err := h.Engine.GetFollowing(c.Request.Context(), targetUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, users)
}

func (h *Handlers) GetFeed(c *gin.Context) {
	cursor := 0
	if raw := c.Query("cursor"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, social.NewInvalidStateError("cursor must be an integer"))
			return
		}
		cursor = parsed
	}
	pageSize := 10
	if raw := c.Query("pageSize"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, social.NewInvalidStateError("pageSize must be an integer"))
			return
		}
		pageSize = parsed
	}
	mode := model.FeedModeChronological
	if c.Query("mode") == string(model.FeedModePersonalized) {
		mode = model.FeedModePersonalized
	}

	page, err := h.Composer.Compose(c.Request.Context(), actingUser(c), cursor, pageSize, mode)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, gin.H{
		"posts":        page.Items,
		"nextCursor":   page.NextCursor,
		"hasMorePages": page.HasMorePages,
		"stats":        page.Stats,
	})
}
