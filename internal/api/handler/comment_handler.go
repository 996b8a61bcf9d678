package handler

import (
	"net/http"

	"companion_hub/internal/api/middleware"
	"companion_hub/internal/app/service"
	"companion_hub/internal/common"

	"github.com/go-chi/chi/v5"
)

type CommentHandler struct {
	commentService *service.CommentService
}

func NewCommentHandler(cs *service.CommentService) *CommentHandler {
	return &CommentHandler{commentService: cs}
}

func (h *CommentHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator) // All comment routes require auth
	r.Delete("/{commentID}", h.deleteComment)
}

func (h *CommentHandler) deleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "commentID")
	if err != nil {
		common.RespondWithServiceError(w, "delete comment", err)
		return
	}

	if err := h.commentService.DeleteComment(r.Context(), id, callerFrom(r)); err != nil {
		common.RespondWithServiceError(w, "delete comment", err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Comment deleted")
}
