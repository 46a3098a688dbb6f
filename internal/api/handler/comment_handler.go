package handler

import (
	"encoding/json"
	"net/http"

	"herblog/internal/api/middleware"
	"herblog/internal/app/service"
	"herblog/internal/common"

	"github.com/go-chi/chi/v5"
)

type CommentHandler struct {
	commentService *service.CommentService
}

func NewCommentHandler(commentService *service.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

func (h *CommentHandler) RegisterRoutes(r chi.Router) {
	r.Get("/{postID}", h.listComments) // GET /api/comments/{postId}

	r.Group(func(protected chi.Router) {
		protected.Use(middleware.Authenticator)
		protected.Post("/{postID}", h.addComment)
	})
}

func (h *CommentHandler) listComments(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")
	comments, err := h.commentService.ListComments(r.Context(), postID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, comments)
}

func (h *CommentHandler) addComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	postID := chi.URLParam(r, "postID")

	var req service.AddCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	comment, err := h.commentService.AddComment(r.Context(), userID, postID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, comment)
}
