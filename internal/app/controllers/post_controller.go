package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/parivartan/hub/internal/app/models"
	"github.com/parivartan/hub/internal/app/models/dto"
	"github.com/parivartan/hub/internal/app/services"
	"github.com/parivartan/hub/internal/app/views"
	"github.com/parivartan/hub/internal/middleware"
	"github.com/parivartan/hub/internal/pkg/helpers"
)

// PostController serves the community feed.
type PostController struct {
	posts services.PostService
}

// NewPostController creates a new PostController
func NewPostController(posts services.PostService) *PostController {
	return &PostController{posts: posts}
}

// Feed lists one page of the posts matching ?q= with their comments and
// reactions, newest first.
func (c *PostController) Feed(ctx *gin.Context) {
	sess := middleware.SessionFrom(ctx)
	snap := sess.Store.Snapshot()
	actor := sess.Actor()

	authors := make(map[string]models.User, len(snap.Users))
	for _, u := range snap.Users {
		authors[u.ID] = u
	}

	posts := views.SearchPosts(snap.Posts, ctx.Query("q"))
	page, size := helpers.ParsePaginationParams(ctx)
	start, end := helpers.CalculateSliceIndices(page, size, len(posts))
	items := make([]dto.FeedItem, 0, end-start)
	for _, p := range posts[start:end] {
		item := dto.FeedItem{
			Post:      p,
			Comments:  views.CommentsFor(snap.Comments, p.ID),
			Reactions: views.PostReactionSummary(snap.Reactions, p.ID, actor.ID),
			Controls:  views.Controls(&actor, p.UserID, models.CapCreatePost, models.CapDeleteAnyContent),
		}
		if u, ok := authors[p.UserID]; ok {
			item.Author = &u
		}
		items = append(items, item)
	}
	respond(ctx, http.StatusOK, dto.PagedResponse{
		Items:      items,
		Pagination: helpers.NewPaginationInfo(int64(len(posts)), page, size),
	}, "")
}

func (c *PostController) CreatePost(ctx *gin.Context) {
	var req dto.CreatePostRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	post, err := c.posts.CreatePost(ctx.Request.Context(), middleware.SessionFrom(ctx), req.Content, req.Image)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, post, "")
}

func (c *PostController) DeletePost(ctx *gin.Context) {
	if err := c.posts.DeletePost(ctx.Request.Context(), middleware.SessionFrom(ctx), ctx.Param("id"), confirmFrom(ctx)); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, nil, "Post deleted")
}

func (c *PostController) AddComment(ctx *gin.Context) {
	var req dto.CommentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	comment, err := c.posts.AddComment(ctx.Request.Context(), middleware.SessionFrom(ctx), ctx.Param("id"), req.Content)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusCreated, comment, "")
}

func (c *PostController) DeleteComment(ctx *gin.Context) {
	if err := c.posts.DeleteComment(ctx.Request.Context(), middleware.SessionFrom(ctx), ctx.Param("commentId"), confirmFrom(ctx)); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, nil, "Comment deleted")
}

// React toggles the actor's reaction on a post.
func (c *PostController) React(ctx *gin.Context) {
	var req dto.ReactRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	reaction, err := c.posts.React(ctx.Request.Context(), middleware.SessionFrom(ctx), ctx.Param("id"), models.ReactionType(req.Type))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, dto.ReactionResponse{Reaction: reaction, Removed: reaction == nil}, "")
}
