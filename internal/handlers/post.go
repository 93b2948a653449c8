package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/socialfeed/internal/apperrors"
	"github.com/nkiryanov/socialfeed/internal/handlers/render"
	"github.com/nkiryanov/socialfeed/internal/logger"
	"github.com/nkiryanov/socialfeed/internal/models"
	"github.com/nkiryanov/socialfeed/internal/service/post"
)

type likeResponse struct {
	UserID   uuid.UUID `json:"userId"`
	Username string    `json:"username"`
	LikedAt  time.Time `json:"likedAt"`
}

type commentResponse struct {
	UserID      uuid.UUID `json:"userId"`
	Username    string    `json:"username"`
	Text        string    `json:"text"`
	CommentedAt time.Time `json:"commentedAt"`
}

type postResponse struct {
	ID        uuid.UUID         `json:"id"`
	UserID    uuid.UUID         `json:"userId"`
	Username  string            `json:"username"`
	Text      string            `json:"text"`
	Image     string            `json:"image"`
	Likes     []likeResponse    `json:"likes"`
	Comments  []commentResponse `json:"comments"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

func newPostResponse(p models.Post) postResponse {
	res := postResponse{
		ID:        p.ID,
		UserID:    p.UserID,
		Username:  p.Username,
		Text:      p.Text,
		Image:     p.Image,
		Likes:     make([]likeResponse, 0, len(p.Likes)),
		Comments:  make([]commentResponse, 0, len(p.Comments)),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	for _, l := range p.Likes {
		res.Likes = append(res.Likes, likeResponse(l))
	}
	for _, c := range p.Comments {
		res.Comments = append(res.Comments, commentResponse(c))
	}
	return res
}

// Id of post from path. Not uuid id can't match any post
func postIDFromPath(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	return id, err == nil
}

// Caller identity sent in body; empty means missing
type actor struct {
	UserID   string `json:"userId" validate:"omitempty,uuid"`
	Username string `json:"username"`
}

func (a actor) id() uuid.UUID {
	id, _ := uuid.Parse(a.UserID) // validated already, empty gives uuid.Nil
	return id
}

func handleListPosts(postService postService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts, err := postService.ListRecent(r.Context(), models.RecentPostsLimit)
		if err != nil {
			internalError(w, l, "Error fetching posts", err)
			return
		}

		res := make([]postResponse, 0, len(posts))
		for _, p := range posts {
			res = append(res, newPostResponse(p))
		}
		render.JSON(w, res)
	})
}

func handleCreatePost(postService postService, l logger.Logger) http.Handler {
	type request struct {
		actor
		Text  string `json:"text"`
		Image string `json:"image"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		p, err := postService.CreatePost(r.Context(), post.CreatePostParams{
			UserID:   data.id(),
			Username: data.Username,
			Text:     data.Text,
			Image:    data.Image,
		})

		switch {
		case err == nil:
			render.JSONWithStatus(w, newPostResponse(p), http.StatusCreated)
		case errors.Is(err, apperrors.ErrAuthorRequired):
			render.ServiceError(w, "User information is required", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrPostEmpty):
			render.ServiceError(w, "Post must have text or image", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrPostTextTooLong):
			render.ServiceError(w, "Post text must be at most 1000 characters", http.StatusBadRequest)
		default:
			internalError(w, l, "Error creating post", err)
		}
	})
}

func handleToggleLike(postService postService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		postID, ok := postIDFromPath(r)
		if !ok {
			render.ServiceError(w, "Post not found", http.StatusNotFound)
			return
		}

		data, err := render.BindAndValidate[actor](w, r)
		if err != nil {
			return
		}

		p, err := postService.ToggleLike(r.Context(), postID, data.id(), data.Username)

		switch {
		case err == nil:
			render.JSON(w, newPostResponse(p))
		case errors.Is(err, apperrors.ErrMissingFields):
			render.ServiceError(w, "User information is required", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrPostNotFound):
			render.ServiceError(w, "Post not found", http.StatusNotFound)
		default:
			internalError(w, l, "Error liking post", err)
		}
	})
}

func handleAddComment(postService postService, l logger.Logger) http.Handler {
	type request struct {
		actor
		Text string `json:"text"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		postID, ok := postIDFromPath(r)
		if !ok {
			render.ServiceError(w, "Post not found", http.StatusNotFound)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		p, err := postService.AddComment(r.Context(), postID, post.AddCommentParams{
			UserID:   data.id(),
			Username: data.Username,
			Text:     data.Text,
		})

		switch {
		case err == nil:
			render.JSON(w, newPostResponse(p))
		case errors.Is(err, apperrors.ErrMissingFields):
			render.ServiceError(w, "User information is required", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrCommentEmpty):
			render.ServiceError(w, "Comment text is required", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrCommentTooLong):
			render.ServiceError(w, "Comment text must be at most 500 characters", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrPostNotFound):
			render.ServiceError(w, "Post not found", http.StatusNotFound)
		default:
			internalError(w, l, "Error commenting on post", err)
		}
	})
}

func handleDeletePost(postService postService, l logger.Logger) http.Handler {
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		postID, ok := postIDFromPath(r)
		if !ok {
			render.ServiceError(w, "Post not found", http.StatusNotFound)
			return
		}

		err := postService.DeletePost(r.Context(), postID)

		switch {
		case err == nil:
			render.JSON(w, response{Message: "Post deleted successfully"})
		case errors.Is(err, apperrors.ErrPostNotFound):
			render.ServiceError(w, "Post not found", http.StatusNotFound)
		default:
			internalError(w, l, "Error deleting post", err)
		}
	})
}
