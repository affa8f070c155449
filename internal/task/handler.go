package task

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taskgram/service/internal/middleware"
	"github.com/taskgram/service/internal/response"
)

// Handler holds HTTP handlers for task endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new task Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type createTaskRequest struct {
	Title       string `json:"title"       example:"Buy film"`
	Description string `json:"description" example:"Portra 400, two rolls"`
}

type updateStatusRequest struct {
	Status string `json:"status" example:"completed"`
}

// List godoc
//
//	@Summary		List tasks
//	@Description	Returns the caller's tasks, newest first.
//	@Tags			tasks
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	response.Envelope{data=[]Task}
//	@Failure		401	{object}	response.Envelope
//	@Router			/tasks [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}
	tasks, err := h.svc.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, tasks)
}

// Create godoc
//
//	@Summary		Create task
//	@Tags			tasks
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		createTaskRequest	true	"Task"
//	@Success		201		{object}	response.Envelope{data=Task}
//	@Failure		400		{object}	response.Envelope
//	@Router			/tasks [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	t, err := h.svc.Create(r.Context(), userID, req.Title, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Created(w, t)
}

// UpdateStatus godoc
//
//	@Summary		Update task status
//	@Tags			tasks
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string				true	"Task ID"
//	@Param			request	body		updateStatusRequest	true	"New status"
//	@Success		200		{object}	response.Envelope{data=Task}
//	@Failure		400		{object}	response.Envelope
//	@Failure		403		{object}	response.Envelope
//	@Failure		404		{object}	response.Envelope
//	@Router			/tasks/{id} [put]
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	t, err := h.svc.UpdateStatus(r.Context(), chi.URLParam(r, "id"), userID, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, t)
}

// Delete godoc
//
//	@Summary		Delete task
//	@Tags			tasks
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Task ID"
//	@Success		200	{object}	response.Envelope
//	@Failure		403	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Router			/tasks/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, map[string]string{"message": "task removed"})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrTitleRequired), errors.Is(err, ErrInvalidStatus):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, "task not found")
	case errors.Is(err, ErrForbidden):
		response.Forbidden(w, "not authorized")
	default:
		log.Printf("task: %v", err)
		response.InternalError(w)
	}
}
