package handler

import (
	"net/http"

	"companion_hub/internal/api/middleware"
	"companion_hub/internal/app/service"
	"companion_hub/internal/common"

	"github.com/go-chi/chi/v5"
)

type PostHandler struct {
	postService    *service.PostService
	commentService *service.CommentService
}

func NewPostHandler(ps *service.PostService, cs *service.CommentService) *PostHandler {
	return &PostHandler{postService: ps, commentService: cs}
}

func (h *PostHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listPosts)       // GET /posts
	r.Get("/{postID}", h.getPost) // GET /posts/42

	r.Group(func(authed chi.Router) {
		authed.Use(middleware.Authenticator)
		authed.Post("/", h.createPost)                     // POST /posts
		authed.Post("/{postID}/comments", h.createComment) // POST /posts/42/comments
		if h.postService.Policy().PostDeleteNeedsAuth() {
			authed.Delete("/{postID}", h.deletePost)
		}
	})

	if !h.postService.Policy().PostDeleteNeedsAuth() {
		r.Delete("/{postID}", h.deletePost) // DELETE /posts/42, open by default
	}
}

func (h *PostHandler) listPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.postService.ListPosts(r.Context())
	if err != nil {
		common.RespondWithServiceError(w, "list posts", err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, posts)
}

func (h *PostHandler) getPost(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "postID")
	if err != nil {
		common.RespondWithServiceError(w, "get post", err)
		return
	}

	post, err := h.postService.GetPost(r.Context(), id)
	if err != nil {
		common.RespondWithServiceError(w, "get post", err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, post)
}

func (h *PostHandler) createPost(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.CreatePostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		common.RespondWithServiceError(w, "create post", err)
		return
	}

	post, err := h.postService.CreatePost(r.Context(), identity, req)
	if err != nil {
		common.RespondWithServiceError(w, "create post", err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, post)
}

func (h *PostHandler) deletePost(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "postID")
	if err != nil {
		common.RespondWithServiceError(w, "delete post", err)
		return
	}

	if err := h.postService.DeletePost(r.Context(), id, callerFrom(r)); err != nil {
		common.RespondWithServiceError(w, "delete post", err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "Post deleted")
}

func (h *PostHandler) createComment(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	postID, err := parseID(r, "postID")
	if err != nil {
		common.RespondWithServiceError(w, "create comment", err)
		return
	}

	var req service.CreateCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		common.RespondWithServiceError(w, "create comment", err)
		return
	}

	comment, err := h.commentService.CreateComment(r.Context(), identity, postID, req)
	if err != nil {
		common.RespondWithServiceError(w, "create comment", err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, comment)
}
