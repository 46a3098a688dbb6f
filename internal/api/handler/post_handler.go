package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"herblog/internal/api/middleware"
	"herblog/internal/app/service"
	"herblog/internal/common"
	"herblog/internal/platform/storage"

	"github.com/go-chi/chi/v5"
)

type PostHandler struct {
	postService *service.PostService
	images      storage.ImageStore
	maxUpload   int64
}

func NewPostHandler(postService *service.PostService, images storage.ImageStore, maxUpload int64) *PostHandler {
	return &PostHandler{postService: postService, images: images, maxUpload: maxUpload}
}

func (h *PostHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listPosts)       // GET /api/posts
	r.Get("/{postID}", h.getPost) // GET /api/posts/{id}

	r.Group(func(protected chi.Router) {
		protected.Use(middleware.Authenticator)
		protected.Post("/", h.createPost)
		protected.Put("/{postID}", h.updatePost)
		protected.Delete("/{postID}", h.deletePost)
	})
}

func (h *PostHandler) listPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.postService.ListPosts(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, posts)
}

func (h *PostHandler) getPost(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")
	post, err := h.postService.GetPost(r.Context(), postID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, post)
}

func (h *PostHandler) createPost(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req service.CreatePostRequest
	if isMultipart(r) {
		if err := r.ParseMultipartForm(h.maxUpload + 1<<20); err != nil {
			common.RespondWithError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
			return
		}
		req.Title = r.FormValue("title")
		req.Content = r.FormValue("content")
		if v := r.FormValue("image"); v != "" {
			req.Image = &v
		}
		ref, err := h.saveImage(r)
		if err != nil {
			common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
			return
		}
		if ref != nil {
			req.Image = ref
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
			return
		}
	}

	post, err := h.postService.CreatePost(r.Context(), userID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, post)
}

func (h *PostHandler) updatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	postID := chi.URLParam(r, "postID")

	var req service.UpdatePostRequest
	if isMultipart(r) {
		if err := r.ParseMultipartForm(h.maxUpload + 1<<20); err != nil {
			common.RespondWithError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
			return
		}
		// Only fields present in the form are treated as updates.
		if vs, ok := r.MultipartForm.Value["title"]; ok && len(vs) > 0 {
			req.Title = &vs[0]
		}
		if vs, ok := r.MultipartForm.Value["content"]; ok && len(vs) > 0 {
			req.Content = &vs[0]
		}
		if vs, ok := r.MultipartForm.Value["image"]; ok && len(vs) > 0 {
			req.Image = &vs[0]
		}
		ref, err := h.saveImage(r)
		if err != nil {
			common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
			return
		}
		if ref != nil {
			req.Image = ref
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
			return
		}
	}

	post, err := h.postService.UpdatePost(r.Context(), userID, postID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, post)
}

func (h *PostHandler) deletePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	postID := chi.URLParam(r, "postID")

	if err := h.postService.DeletePost(r.Context(), userID, postID); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// saveImage stores an optional "image" file part and returns its reference.
// MIME type must be image/* and the payload may not exceed the upload limit.
func (h *PostHandler) saveImage(r *http.Request) (*string, error) {
	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, fmt.Errorf("invalid image upload: %w", common.ErrBadRequest)
	}
	defer file.Close()

	if header.Size > h.maxUpload {
		return nil, fmt.Errorf("image exceeds upload limit of %d bytes: %w", h.maxUpload, common.ErrValidation)
	}
	if ct := header.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("only image uploads are allowed: %w", common.ErrValidation)
	}

	ref, err := h.images.Save(r.Context(), header.Filename, io.LimitReader(file, h.maxUpload))
	if err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}
	return &ref, nil
}
