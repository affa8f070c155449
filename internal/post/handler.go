package post

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taskgram/service/internal/imagestore"
	"github.com/taskgram/service/internal/middleware"
	"github.com/taskgram/service/internal/response"
	"github.com/taskgram/service/internal/upload"
)

// Handler holds HTTP handlers for post endpoints.
type Handler struct {
	svc   *Service
	debug bool
}

// NewHandler creates a new post Handler. When debug is true, 5xx responses
// carry the underlying error as detail.
func NewHandler(svc *Service, debug bool) *Handler {
	return &Handler{svc: svc, debug: debug}
}

type updateCaptionRequest struct {
	Caption string `json:"caption" example:"golden hour"`
}

type messageData struct {
	Message string `json:"message" example:"post removed"`
}

// Create godoc
//
//	@Summary		Create post
//	@Description	Upload an image (JPEG, PNG or GIF, at most 5 MB) with a caption.
//	@Tags			posts
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			caption	formData	string	true	"Caption"
//	@Param			image	formData	file	true	"Image file"
//	@Success		201		{object}	response.Envelope{data=Post}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		429		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/posts [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}
	staged, _ := upload.FromContext(r.Context())

	p, err := h.svc.Create(r.Context(), CreateInput{
		UserID:  userID,
		Caption: r.FormValue("caption"),
		File:    staged,
	})
	if err != nil {
		h.writeError(w, err, "error creating post")
		return
	}

	response.Created(w, p)
}

// List godoc
//
//	@Summary		List posts
//	@Description	Returns all posts, newest first, with the owner's name.
//	@Tags			posts
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	response.Envelope{data=[]Post}
//	@Failure		401	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/posts [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.List(r.Context())
	if err != nil {
		h.writeError(w, err, "server error")
		return
	}
	response.OK(w, posts)
}

// ListByUser godoc
//
//	@Summary		List a user's posts
//	@Description	Returns the posts of one user, newest first.
//	@Tags			posts
//	@Produce		json
//	@Security		BearerAuth
//	@Param			userId	path		string	true	"User ID"
//	@Success		200		{object}	response.Envelope{data=[]Post}
//	@Failure		401		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/posts/user/{userId} [get]
func (h *Handler) ListByUser(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.ListByUser(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		h.writeError(w, err, "server error")
		return
	}
	response.OK(w, posts)
}

// Get godoc
//
//	@Summary		Get post
//	@Tags			posts
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Post ID"
//	@Success		200	{object}	response.Envelope{data=Post}
//	@Failure		404	{object}	response.Envelope
//	@Router			/posts/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err, "server error")
		return
	}
	response.OK(w, p)
}

// UpdateCaption godoc
//
//	@Summary		Edit caption
//	@Description	Replace the caption of a post. Only the owner may edit.
//	@Tags			posts
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string					true	"Post ID"
//	@Param			request	body		updateCaptionRequest	true	"New caption"
//	@Success		200		{object}	response.Envelope{data=Post}
//	@Failure		400		{object}	response.Envelope
//	@Failure		403		{object}	response.Envelope
//	@Failure		404		{object}	response.Envelope
//	@Router			/posts/{id} [put]
func (h *Handler) UpdateCaption(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req updateCaptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	p, err := h.svc.UpdateCaption(r.Context(), chi.URLParam(r, "id"), userID, req.Caption)
	if err != nil {
		h.writeError(w, err, "error updating post")
		return
	}
	response.OK(w, p)
}

// Delete godoc
//
//	@Summary		Delete post
//	@Description	Delete a post and its hosted image. Only the owner may delete.
//	@Tags			posts
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Post ID"
//	@Success		200	{object}	response.Envelope{data=messageData}
//	@Failure		403	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/posts/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		h.writeError(w, err, "error deleting post")
		return
	}
	response.OK(w, messageData{Message: "post removed"})
}

// writeError maps the post error taxonomy to HTTP responses. fallback is
// the generic message used for unclassified 5xx errors.
func (h *Handler) writeError(w http.ResponseWriter, err error, fallback string) {
	var (
		vErr  *ValidationError
		upErr *imagestore.UploadError
		pErr  *PersistenceError
	)
	switch {
	case errors.Is(err, ErrCaptionRequired), errors.Is(err, ErrImageRequired):
		response.BadRequest(w, err.Error())
	case errors.As(err, &vErr):
		response.BadRequest(w, vErr.Reason)
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, "post not found")
	case errors.Is(err, ErrForbidden):
		response.Forbidden(w, "not authorized")
	case errors.As(err, &upErr):
		response.ServerError(w, "error uploading image", err, h.debug)
	case errors.As(err, &pErr):
		response.ServerError(w, "error saving post", err, h.debug)
	default:
		log.Printf("post: %s: %v", fallback, err)
		response.ServerError(w, fallback, err, h.debug)
	}
}
