package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"blogapi/internal/content"
	"blogapi/internal/storage"
)

// BlogHandler holds the state
type BlogHandler struct {
	Ingestor       *content.Ingestor
	Store          storage.Store
	Logger         *slog.Logger
	MaxFormMemory  int64
	MaxRequestSize int64
}

// NewBlogHandler creates the controller
func NewBlogHandler(ingestor *content.Ingestor, store storage.Store, maxFormMemory, maxRequestSize int64, logger *slog.Logger) *BlogHandler {
	return &BlogHandler{
		Ingestor:       ingestor,
		Store:          store,
		Logger:         logger,
		MaxFormMemory:  maxFormMemory,
		MaxRequestSize: maxRequestSize,
	}
}

// HandleCreatePost accepts a multipart submission with title, content and an
// optional thumbnail file. Any failure comes back as a 400 with the reason.
func (h *BlogHandler) HandleCreatePost() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxRequestSize)

		if err := r.ParseMultipartForm(h.MaxFormMemory); err != nil {
			h.BadRequest(w, r, "could not parse multipart form")
			return
		}
		defer r.MultipartForm.RemoveAll()

		input := content.IngestInput{
			Title:   r.FormValue("title"),
			Content: r.FormValue("content"),
		}

		file, header, err := r.FormFile("thumbnail")
		switch {
		case err == nil:
			defer file.Close()
			input.Thumbnail = &content.Upload{
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Data:        file,
			}
		case errors.Is(err, http.ErrMissingFile):
			// thumbnail is optional
		default:
			h.BadRequest(w, r, "could not read thumbnail upload")
			return
		}

		post, err := h.Ingestor.Ingest(r.Context(), input)
		if err != nil {
			h.Logger.Warn("submission rejected", "err", err)
			h.BadRequest(w, r, err.Error())
			return
		}

		writeJSON(w, http.StatusCreated, map[string]any{
			"message": "Blog post created successfully",
			"blog":    post,
		})
	})
}

// HandleListPosts returns every post, newest first.
func (h *BlogHandler) HandleListPosts() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts, err := h.Store.GetAllPosts(r.Context())
		if err != nil {
			h.InternalError(w, r, err)
			return
		}

		if len(posts) == 0 {
			h.NotFound(w, r, "No blogs found")
			return
		}

		writeJSON(w, http.StatusOK, posts)
	})
}

// HandleGetPost returns a single post by id.
func (h *BlogHandler) HandleGetPost() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		post, err := h.Store.GetPostByID(r.Context(), id)
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrNotFound):
				h.NotFound(w, r, "Blog not found")
			default:
				h.InternalError(w, r, err)
			}
			return
		}

		writeJSON(w, http.StatusOK, post)
	})
}
