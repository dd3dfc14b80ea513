package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"unisocial/internal/database"
	"unisocial/internal/models"
)

// userColumns never includes password_hash; only the credential lookups read it.
const userColumns = `u.id, u.username, u.full_name, u.bio, u.avatar_url, u.created_at, u.updated_at,
	(SELECT COUNT(*) FROM follows f WHERE f.follower_id = u.id) AS following_count,
	(SELECT COUNT(*) FROM follows f WHERE f.followee_id = u.id) AS followers_count`

const (
	insertUserQuery = `INSERT INTO users (username, password_hash, full_name, bio, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`
	userByIDQuery              = `SELECT ` + userColumns + ` FROM users u WHERE u.id = ?`
	userByUsernameQuery        = `SELECT ` + userColumns + ` FROM users u WHERE u.username = ?`
	credentialsByIDQuery       = `SELECT ` + userColumns + `, u.password_hash FROM users u WHERE u.id = ?`
	credentialsByUsernameQuery = `SELECT ` + userColumns + `, u.password_hash FROM users u WHERE u.username = ?`
	searchUsersQuery           = `SELECT ` + userColumns + ` FROM users u
		WHERE LOWER(u.username) LIKE ? ESCAPE '\' OR LOWER(u.full_name) LIKE ? ESCAPE '\'
		ORDER BY u.username ASC LIMIT ?`
	userStatsQuery = `SELECT
		(SELECT COUNT(*) FROM posts p WHERE p.user_id = u.id) AS posts,
		(SELECT COUNT(*) FROM follows f WHERE f.followee_id = u.id) AS followers,
		(SELECT COUNT(*) FROM follows f WHERE f.follower_id = u.id) AS following
		FROM users u WHERE u.id = ?`
	avatarURLQuery      = `SELECT avatar_url FROM users WHERE id = ?`
	updateAvatarQuery   = `UPDATE users SET avatar_url = ?, updated_at = ? WHERE id = ?`
	updatePasswordQuery = `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`
	resetPasswordQuery  = `UPDATE users SET password_hash = ?, updated_at = ? WHERE username = ?`
	deleteUserQuery     = `DELETE FROM users WHERE id = ?`
)

type userRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, username, passwordHash, fullName, bio string) (*models.User, error) {
	now := time.Now().UTC()

	var id int64
	err := r.db.GetContext(ctx, &id, r.db.Rebind(insertUserQuery), username, passwordHash, fullName, bio, now, now)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, models.ErrUsernameTaken
		}
		return nil, models.NewStorageError("ошибка при создании пользователя", err)
	}

	return &models.User{
		ID:        id,
		Username:  username,
		FullName:  fullName,
		Bio:       bio,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (r *userRepository) getUser(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User

	err := r.db.GetContext(ctx, &user, r.db.Rebind(query), arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		return nil, models.NewStorageError("ошибка при получении пользователя", err)
	}

	return &user, nil
}

func (r *userRepository) getCredentials(ctx context.Context, query string, arg interface{}) (*models.Credentials, error) {
	var creds models.Credentials

	err := r.db.GetContext(ctx, &creds, r.db.Rebind(query), arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		return nil, models.NewStorageError("ошибка при получении учётных данных", err)
	}

	return &creds, nil
}

func (r *userRepository) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	return r.getUser(ctx, userByIDQuery, userID)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getUser(ctx, userByUsernameQuery, username)
}

func (r *userRepository) GetCredentialsByID(ctx context.Context, userID int64) (*models.Credentials, error) {
	return r.getCredentials(ctx, credentialsByIDQuery, userID)
}

func (r *userRepository) GetCredentialsByUsername(ctx context.Context, username string) (*models.Credentials, error) {
	return r.getCredentials(ctx, credentialsByUsernameQuery, username)
}

func (r *userRepository) UpdateProfile(ctx context.Context, userID int64, update models.ProfileUpdate) error {
	sets := []string{"updated_at = ?"}
	args := []interface{}{time.Now().UTC()}

	if update.FullName != nil {
		sets = append(sets, "full_name = ?")
		args = append(args, *update.FullName)
	}
	if update.Bio != nil {
		sets = append(sets, "bio = ?")
		args = append(args, *update.Bio)
	}
	if update.AvatarURL != nil {
		sets = append(sets, "avatar_url = ?")
		args = append(args, *update.AvatarURL)
	}
	args = append(args, userID)

	query := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	return r.execOne(ctx, "ошибка при обновлении профиля", query, args...)
}

func (r *userRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	return r.execOne(ctx, "ошибка при обновлении пароля", updatePasswordQuery, passwordHash, time.Now().UTC(), userID)
}

func (r *userRepository) UpdatePasswordByUsername(ctx context.Context, username, passwordHash string) error {
	return r.execOne(ctx, "ошибка при сбросе пароля", resetPasswordQuery, passwordHash, time.Now().UTC(), username)
}

func (r *userRepository) GetAvatarURL(ctx context.Context, userID int64) (*string, error) {
	var avatarURL *string

	err := r.db.GetContext(ctx, &avatarURL, r.db.Rebind(avatarURLQuery), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		return nil, models.NewStorageError("ошибка при получении аватара", err)
	}

	return avatarURL, nil
}

// SwapAvatarURL sets avatar_url (nil clears it) and returns the previous value.
func (r *userRepository) SwapAvatarURL(ctx context.Context, userID int64, avatarURL *string) (*string, error) {
	var previous *string

	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &previous, tx.Rebind(avatarURLQuery), userID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return models.ErrUserNotFound
			}
			return models.NewStorageError("ошибка при получении аватара", err)
		}

		if _, err := tx.ExecContext(ctx, tx.Rebind(updateAvatarQuery), avatarURL, time.Now().UTC(), userID); err != nil {
			return models.NewStorageError("ошибка при обновлении аватара", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return previous, nil
}

func (r *userRepository) Delete(ctx context.Context, userID int64) error {
	return r.execOne(ctx, "ошибка при удалении пользователя", deleteUserQuery, userID)
}

func (r *userRepository) Search(ctx context.Context, query string, limit int) ([]models.User, error) {
	pattern := "%" + escapeLike(r.foldCase(query)) + "%"

	users := []models.User{}
	err := r.db.SelectContext(ctx, &users, r.db.Rebind(searchUsersQuery), pattern, pattern, limit)
	if err != nil {
		return nil, models.NewStorageError("ошибка при поиске пользователей", err)
	}

	return users, nil
}

func (r *userRepository) Stats(ctx context.Context, userID int64) (*models.UserStats, error) {
	var stats models.UserStats

	err := r.db.GetContext(ctx, &stats, r.db.Rebind(userStatsQuery), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		return nil, models.NewStorageError("ошибка при получении статистики", err)
	}

	return &stats, nil
}

// execOne runs a single-row mutation; zero affected rows means the user is gone.
func (r *userRepository) execOne(ctx context.Context, op, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return models.NewStorageError(op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return models.NewStorageError("ошибка при проверке обновленных строк", err)
	}

	if rowsAffected == 0 {
		return models.ErrUserNotFound
	}

	return nil
}

// foldCase lowercases the query the way the database LOWER() does:
// PostgreSQL folds Unicode, SQLite only ASCII.
func (r *userRepository) foldCase(s string) string {
	if r.db.Dialect == database.DialectPostgres {
		return strings.ToLower(s)
	}
	return asciiLower(s)
}

func asciiLower(s string) string {
	return strings.Map(func(c rune) rune {
		if c >= 'A' && c <= 'Z' {
			return c + ('a' - 'A')
		}
		return c
	}, s)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
