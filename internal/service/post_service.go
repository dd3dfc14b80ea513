package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"unisocial/internal/models"
	"unisocial/internal/repository"
)

const MaxPostLength = 500

type PostService interface {
	CreatePost(ctx context.Context, userID int64, content string) (*models.Post, error)
	GetFeed(ctx context.Context, viewerID int64) ([]models.Post, error)
	GetUserPosts(ctx context.Context, targetID, viewerID int64) ([]models.Post, error)
	GetPost(ctx context.Context, postID, viewerID int64) (*models.Post, error)
	GetBookmarkedPosts(ctx context.Context, userID int64) ([]models.Post, error)
	ToggleLike(ctx context.Context, userID, postID int64) (bool, int, error)
	ToggleBookmark(ctx context.Context, userID, postID int64) (bool, error)
	GetLikeCount(ctx context.Context, postID int64) (int, error)
	UpdatePost(ctx context.Context, requesterID, postID int64, content string) (*models.Post, error)
	DeletePost(ctx context.Context, requesterID, postID int64) error
}

type postService struct {
	postRepo repository.PostRepository
}

func NewPostService(postRepo repository.PostRepository) PostService {
	return &postService{postRepo: postRepo}
}

// normalizeContent trims the content and enforces 1..MaxPostLength characters.
func normalizeContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", models.ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > MaxPostLength {
		return "", models.ErrContentTooLong
	}
	return content, nil
}

func (p *postService) CreatePost(ctx context.Context, userID int64, content string) (*models.Post, error) {
	content, err := normalizeContent(content)
	if err != nil {
		return nil, err
	}

	post, err := p.postRepo.Create(ctx, userID, content)
	if err != nil {
		return nil, err
	}

	log.Debug().Int64("user_id", userID).Int64("post_id", post.ID).Msg("Пост создан")
	return post, nil
}

func (p *postService) GetFeed(ctx context.Context, viewerID int64) ([]models.Post, error) {
	return p.postRepo.Feed(ctx, viewerID, repository.FeedLimit)
}

func (p *postService) GetUserPosts(ctx context.Context, targetID, viewerID int64) ([]models.Post, error) {
	return p.postRepo.ByAuthor(ctx, targetID, viewerID, repository.FeedLimit)
}

func (p *postService) GetPost(ctx context.Context, postID, viewerID int64) (*models.Post, error) {
	return p.postRepo.GetByID(ctx, postID, viewerID)
}

func (p *postService) GetBookmarkedPosts(ctx context.Context, userID int64) ([]models.Post, error) {
	return p.postRepo.Bookmarked(ctx, userID, repository.FeedLimit)
}

func (p *postService) ToggleLike(ctx context.Context, userID, postID int64) (bool, int, error) {
	return p.postRepo.ToggleLike(ctx, userID, postID)
}

func (p *postService) ToggleBookmark(ctx context.Context, userID, postID int64) (bool, error) {
	return p.postRepo.ToggleBookmark(ctx, userID, postID)
}

func (p *postService) GetLikeCount(ctx context.Context, postID int64) (int, error) {
	return p.postRepo.LikeCount(ctx, postID)
}

func (p *postService) UpdatePost(ctx context.Context, requesterID, postID int64, content string) (*models.Post, error) {
	content, err := normalizeContent(content)
	if err != nil {
		return nil, err
	}

	if err := p.postRepo.Update(ctx, postID, requesterID, content); err != nil {
		return nil, err
	}

	return p.postRepo.GetByID(ctx, postID, requesterID)
}

func (p *postService) DeletePost(ctx context.Context, requesterID, postID int64) error {
	if err := p.postRepo.Delete(ctx, postID, requesterID); err != nil {
		return err
	}

	log.Debug().Int64("user_id", requesterID).Int64("post_id", postID).Msg("Пост удалён")
	return nil
}
