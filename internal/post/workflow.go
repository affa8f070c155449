package post

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/taskgram/service/internal/imagestore"
	"github.com/taskgram/service/internal/metrics"
	"github.com/taskgram/service/internal/upload"
)

// State is a step of the post-creation workflow.
type State string

const (
	StateReceived  State = "received"
	StateValidated State = "validated"
	StateUploaded  State = "uploaded"
	StatePersisted State = "persisted"
	StateCleaned   State = "cleaned"
	StateFailed    State = "failed"
)

// ImageStore uploads staged images and removes remote ones.
type ImageStore interface {
	Upload(ctx context.Context, localPath string) (*imagestore.Image, error)
	// Delete is best-effort and reports failures itself.
	Delete(ctx context.Context, id string)
}

// CreateInput is what the HTTP layer hands to the workflow.
type CreateInput struct {
	UserID  string
	Caption string
	File    *upload.StagedFile
}

// WorkflowError is returned when creation fails. State is the last state
// the workflow reached before failing; Err is the classified cause
// (ErrCaptionRequired, *ValidationError, *imagestore.UploadError,
// *PersistenceError).
type WorkflowError struct {
	State State
	Err   error
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("create post (after %s): %v", e.State, e.Err)
}

func (e *WorkflowError) Unwrap() error { return e.Err }

// createRun is the mutable record of one workflow execution.
type createRun struct {
	in    CreateInput
	state State
	image *imagestore.Image
	post  *Post
}

type step struct {
	to State
	fn func(ctx context.Context, run *createRun) error
}

// workflow drives a post from received upload to persisted record. Steps
// run strictly in sequence; on failure the compensation for the last state
// reached is applied before the error is returned.
type workflow struct {
	store      Store
	images     ImageStore
	removeFile func(path string) error
}

func newWorkflow(store Store, images ImageStore) *workflow {
	return &workflow{store: store, images: images, removeFile: os.Remove}
}

func (wf *workflow) steps() []step {
	return []step{
		{to: StateValidated, fn: wf.validate},
		{to: StateUploaded, fn: wf.upload},
		{to: StatePersisted, fn: wf.persist},
	}
}

// run executes the workflow. On success the staged file has been removed
// (best-effort) and the persisted post is returned.
func (wf *workflow) run(ctx context.Context, in CreateInput) (*Post, error) {
	run := &createRun{in: in, state: StateReceived}
	run.in.Caption = strings.TrimSpace(run.in.Caption)

	if err := checkInput(run.in); err != nil {
		return nil, wf.fail(ctx, run, err)
	}

	for _, s := range wf.steps() {
		if err := s.fn(ctx, run); err != nil {
			return nil, wf.fail(ctx, run, err)
		}
		run.state = s.to
	}

	wf.removeStaged(run)
	run.state = StateCleaned
	return run.post, nil
}

func checkInput(in CreateInput) error {
	if in.File == nil || in.File.Path == "" {
		return ErrImageRequired
	}
	if in.Caption == "" {
		return ErrCaptionRequired
	}
	return nil
}

func (wf *workflow) validate(_ context.Context, run *createRun) error {
	return ValidateImage(run.in.File.ContentType, run.in.File.Size)
}

func (wf *workflow) upload(ctx context.Context, run *createRun) error {
	img, err := wf.images.Upload(ctx, run.in.File.Path)
	if err != nil {
		var upErr *imagestore.UploadError
		if !errors.As(err, &upErr) {
			err = &imagestore.UploadError{Err: err}
		}
		return err
	}
	run.image = img
	return nil
}

func (wf *workflow) persist(ctx context.Context, run *createRun) error {
	p := &Post{
		Caption:       run.in.Caption,
		ImageURL:      run.image.URL,
		RemoteImageID: run.image.ID,
		User:          Owner{ID: run.in.UserID},
		ImageMetadata: &ImageMetadata{
			Width:  run.image.Width,
			Height: run.image.Height,
			Format: run.image.Format,
			Size:   run.image.Bytes,
		},
	}
	// The remote object already exists; a client disconnect must not
	// abandon the insert half way.
	if err := wf.store.Create(context.WithoutCancel(ctx), p); err != nil {
		return &PersistenceError{Err: err}
	}
	run.post = p
	return nil
}

// fail applies the compensation owed by the last state reached and wraps
// err. Cleanup failures never replace err.
func (wf *workflow) fail(ctx context.Context, run *createRun, err error) error {
	reached := run.state
	if reached == StateUploaded {
		wf.images.Delete(ctx, run.image.ID)
	}
	wf.removeStaged(run)
	run.state = StateFailed

	metrics.WorkflowFailures.WithLabelValues(string(reached)).Inc()
	return &WorkflowError{State: reached, Err: err}
}

func (wf *workflow) removeStaged(run *createRun) {
	if run.in.File == nil || run.in.File.Path == "" {
		return
	}
	if err := wf.removeFile(run.in.File.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		metrics.CleanupWarnings.WithLabelValues("staged_file").Inc()
		log.Printf("cleanup warning: post: remove staged file %q: %v", run.in.File.Path, err)
	}
}
