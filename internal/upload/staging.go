// Package upload stages multipart file uploads on local disk before they are
// processed by a handler.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/taskgram/service/internal/response"
)

const (
	defaultMaxBody   = 32 << 20
	defaultMaxMemory = 8 << 20
)

// StagedFile is an uploaded file written to the staging directory. The
// handler that receives it owns the file and must remove it.
type StagedFile struct {
	Path        string
	Filename    string
	ContentType string
	Size        int64
}

type contextKey struct{}

// WithStagedFile returns a copy of ctx carrying f.
func WithStagedFile(ctx context.Context, f *StagedFile) context.Context {
	return context.WithValue(ctx, contextKey{}, f)
}

// FromContext returns the staged file attached by Stager.Single, if any.
func FromContext(ctx context.Context) (*StagedFile, bool) {
	f, ok := ctx.Value(contextKey{}).(*StagedFile)
	return f, ok && f != nil
}

// Stager writes one multipart file field to a staging directory.
type Stager struct {
	dir       string
	maxBody   int64
	maxMemory int64
}

// NewStager returns a Stager writing into dir.
func NewStager(dir string) *Stager {
	return &Stager{dir: dir, maxBody: defaultMaxBody, maxMemory: defaultMaxMemory}
}

// Single returns middleware that stages the file sent in form field name.
// Requests without that field pass through with no staged file; size and
// type policy is left to the handler.
func (s *Stager) Single(field string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > s.maxBody {
				response.BadRequest(w, "image exceeds the upload size limit")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)

			if err := r.ParseMultipartForm(s.maxMemory); err != nil {
				if errors.Is(err, http.ErrNotMultipart) {
					next.ServeHTTP(w, r)
					return
				}
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					response.BadRequest(w, "image exceeds the upload size limit")
					return
				}
				response.BadRequest(w, "invalid multipart form")
				return
			}
			defer r.MultipartForm.RemoveAll() //nolint:errcheck

			staged, err := s.stage(r, field)
			if err != nil {
				log.Printf("upload: stage %q: %v", field, err)
				response.InternalError(w)
				return
			}
			if staged == nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithStagedFile(r.Context(), staged)))
		})
	}
}

func (s *Stager) stage(r *http.Request, field string) (*StagedFile, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open form file: %w", err)
	}
	defer file.Close()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	path := filepath.Join(s.dir, "staged-"+uuid.NewString()+ext)
	dst, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create staged file: %w", err)
	}

	size, err := io.Copy(dst, file)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write staged file: %w", err)
	}

	return &StagedFile{
		Path:        path,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        size,
	}, nil
}
