package database

var tableNames = []string{"users", "posts", "likes", "bookmarks", "follows"}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		full_name TEXT NOT NULL DEFAULT '',
		bio TEXT NOT NULL DEFAULT '',
		avatar_url TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		content TEXT NOT NULL,
		image_url TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS likes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		post_id INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (user_id, post_id),
		FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
		FOREIGN KEY (post_id) REFERENCES posts (id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS bookmarks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		post_id INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (user_id, post_id),
		FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
		FOREIGN KEY (post_id) REFERENCES posts (id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS follows (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		follower_id INTEGER NOT NULL,
		followee_id INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (follower_id, followee_id),
		CHECK (follower_id <> followee_id),
		FOREIGN KEY (follower_id) REFERENCES users (id) ON DELETE CASCADE,
		FOREIGN KEY (followee_id) REFERENCES users (id) ON DELETE CASCADE
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		full_name TEXT NOT NULL DEFAULT '',
		bio TEXT NOT NULL DEFAULT '',
		avatar_url TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		content TEXT NOT NULL,
		image_url TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS likes (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		post_id BIGINT NOT NULL REFERENCES posts (id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, post_id)
	)`,
	`CREATE TABLE IF NOT EXISTS bookmarks (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		post_id BIGINT NOT NULL REFERENCES posts (id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, post_id)
	)`,
	`CREATE TABLE IF NOT EXISTS follows (
		id BIGSERIAL PRIMARY KEY,
		follower_id BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		followee_id BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (follower_id, followee_id),
		CHECK (follower_id <> followee_id)
	)`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_posts_user_id ON posts (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts (created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_likes_user_id ON likes (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_likes_post_id ON likes (post_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bookmarks_user_id ON bookmarks (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bookmarks_post_id ON bookmarks (post_id)`,
	`CREATE INDEX IF NOT EXISTS idx_follows_follower_id ON follows (follower_id)`,
	`CREATE INDEX IF NOT EXISTS idx_follows_followee_id ON follows (followee_id)`,
}

func schemaFor(dialect Dialect) []string {
	var tables []string
	if dialect == DialectPostgres {
		tables = postgresSchema
	} else {
		tables = sqliteSchema
	}

	statements := make([]string, 0, len(tables)+len(indexes))
	statements = append(statements, tables...)
	statements = append(statements, indexes...)
	return statements
}
