package handlers

import (
	"unisocial/internal/protocol"
)

type PostContentRequest struct {
	Content string `json:"content"`
}

type PostIDRequest struct {
	PostID int64 `json:"postId" validate:"required,gt=0"`
}

type UpdatePostRequest struct {
	PostID  int64  `json:"postId" validate:"required,gt=0"`
	Content string `json:"content"`
}

// UserPostsRequest accepts targetUserId, falling back to userId.
type UserPostsRequest struct {
	TargetUserID int64 `json:"targetUserId" validate:"required_without=UserID"`
	UserID       int64 `json:"userId"`
}

func (r UserPostsRequest) target() int64 {
	if r.TargetUserID != 0 {
		return r.TargetUserID
	}
	return r.UserID
}

func (h *Handlers) CreatePost(c *protocol.Context) protocol.Response {
	var req PostContentRequest
	if err := h.bind(c, &req); err != nil {
		return fail(c, err)
	}

	post, err := h.PostService.CreatePost(c.Ctx, c.Session.UserID(), req.Content)
	if err != nil {
		return fail(c, err)
	}
	return protocol.OK().With("post", post)
}

func (h *Handlers) GetFeed(c *protocol.Context) protocol.Response {
	posts, err := h.PostService.GetFeed(c.Ctx, c.Session.UserID())
	if err != nil {
		return fail(c, err)
	}
	return protocol.OK().With("posts", posts)
}

func (h *Handlers) LikePost(c *protocol.Context) protocol.Response {
	var req PostIDRequest
	if err := h.bind(c, &req); err != nil {
		return fail(c, err)
	}

	liked, count, err := h.PostService.ToggleLike(c.Ctx, c.Session.UserID(), req.PostID)
	if err != nil {
		return fail(c, err)
	}
	return protocol.OK().
		Message("Like toggled").
		With("liked", liked).
		With("likeCount", count)
}

func (h *Handlers) BookmarkPost(c *protocol.Context) protocol.Response {
	var req PostIDRequest
	if err := h.bind(c, &req); err != nil {
		return fail(c, err)
	}

	bookmarked, err := h.PostService.ToggleBookmark(c.Ctx, c.Session.UserID(), req.PostID)
	if err != nil {
		return fail(c, err)
	}
	return protocol.OK().
		Message("Bookmark toggled").
		With("bookmarked", bookmarked)
}

func (h *Handlers) DeletePost(c *protocol.Context) protocol.Response {
	var req PostIDRequest
	if err := h.bind(c, &req); err != nil {
		return fail(c, err)
	}

	if err := h.PostService.DeletePost(c.Ctx, c.Session.UserID(), req.PostID); err != nil {
		return fail(c, err)
	}
	return protocol.OK().Message("Post deleted")
}

func (h *Handlers) UpdatePost(c *protocol.Context) protocol.Response {
	var req UpdatePostRequest
	if err := h.bind(c, &req); err != nil {
		return fail(c, err)
	}

	post, err := h.PostService.UpdatePost(c.Ctx, c.Session.UserID(), req.PostID, req.Content)
	if err != nil {
		return fail(c, err)
	}
	return protocol.OK().Message("Post updated").With("post", post)
}

func (h *Handlers) GetBookmarks(c *protocol.Context) protocol.Response {
	posts, err := h.PostService.GetBookmarkedPosts(c.Ctx, c.Session.UserID())
	if err != nil {
		return fail(c, err)
	}
	return protocol.OK().With("posts", posts)
}

// GetUserPosts computes liked/bookmarked for the session user, or nobody.
func (h *Handlers) GetUserPosts(c *protocol.Context) protocol.Response {
	var req UserPostsRequest
	if err := h.bind(c, &req); err != nil {
		return fail(c, err)
	}

	posts, err := h.PostService.GetUserPosts(c.Ctx, req.target(), c.Session.UserID())
	if err != nil {
		return fail(c, err)
	}
	return protocol.OK().With("posts", posts)
}

func (h *Handlers) GetPost(c *protocol.Context) protocol.Response {
	var req PostIDRequest
	if err := h.bind(c, &req); err != nil {
		return fail(c, err)
	}

	post, err := h.PostService.GetPost(c.Ctx, req.PostID, c.Session.UserID())
	if err != nil {
		return fail(c, err)
	}
	return protocol.OK().With("post", post)
}
