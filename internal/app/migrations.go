package app

// SQL-миграции встроены в код для упрощения деплоя.
// Версии применяются по порядку и записываются в schema_migrations.

var migration001Players = `
CREATE TABLE IF NOT EXISTS players (
    user_id BIGINT PRIMARY KEY,
    username VARCHAR(255),
    first_name VARCHAR(255),
    last_name VARCHAR(255),
    display_name VARCHAR(255) NOT NULL,
    balance INTEGER NOT NULL DEFAULT 0,
    fields_owned INTEGER NOT NULL DEFAULT 0,
    level INTEGER NOT NULL DEFAULT 1,
    xp INTEGER NOT NULL DEFAULT 0,
    is_blocked BOOLEAN NOT NULL DEFAULT FALSE,
    blocked_reason TEXT,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_players_username ON players(username);
`

var migration002Farm = `
CREATE TABLE IF NOT EXISTS inventories (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES players(user_id),
    item_key VARCHAR(64) NOT NULL,
    qty INTEGER NOT NULL DEFAULT 0,
    UNIQUE(user_id, item_key)
);
CREATE TABLE IF NOT EXISTS plots (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES players(user_id),
    idx INTEGER NOT NULL,
    crop_key VARCHAR(64),
    planted_at TIMESTAMP,
    UNIQUE(user_id, idx)
);
`

var migration003TrustGates = `
CREATE TABLE IF NOT EXISTS replay_stamps (
    id BIGSERIAL PRIMARY KEY,
    stamp_hash VARCHAR(64) UNIQUE NOT NULL,
    auth_date BIGINT NOT NULL,
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_replay_stamps_created_at ON replay_stamps(created_at);
CREATE TABLE IF NOT EXISTS action_nonces (
    user_id BIGINT PRIMARY KEY REFERENCES players(user_id),
    value VARCHAR(64) NOT NULL,
    expires_at TIMESTAMP NOT NULL
);
`

var migration004ActionLogs = `
CREATE TABLE IF NOT EXISTS action_logs (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    action VARCHAR(32) NOT NULL,
    detail TEXT NOT NULL DEFAULT '',
    outcome VARCHAR(16) NOT NULL DEFAULT 'attempt',
    amount INTEGER NOT NULL DEFAULT 0,
    old_balance INTEGER NOT NULL DEFAULT 0,
    new_balance INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_action_logs_window ON action_logs(user_id, action, created_at);
CREATE INDEX IF NOT EXISTS idx_action_logs_created_at ON action_logs(created_at);
`

var migration005Sessions = `
CREATE TABLE IF NOT EXISTS sessions (
    token VARCHAR(64) PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES players(user_id),
    created_at TIMESTAMP DEFAULT NOW(),
    expires_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id);
CREATE TABLE IF NOT EXISTS admin_sessions (
    id BIGSERIAL PRIMARY KEY,
    token VARCHAR(255) UNIQUE NOT NULL,
    created_at TIMESTAMP DEFAULT NOW(),
    expires_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS admin_login_attempts (
    id BIGSERIAL PRIMARY KEY,
    remote_addr VARCHAR(64) NOT NULL,
    success BOOLEAN NOT NULL DEFAULT FALSE,
    attempted_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_admin_login_attempts_addr ON admin_login_attempts(remote_addr, attempted_at);
`
