package postgres

var schema = []string{
	`CREATE TABLE IF NOT EXISTS blocks (
		number      BIGINT PRIMARY KEY,
		hash        TEXT NOT NULL,
		parent_hash TEXT NOT NULL,
		timestamp   BIGINT NOT NULL,
		gas_used    BIGINT NOT NULL,
		gas_limit   BIGINT NOT NULL,
		base_fee    TEXT,
		tx_count    BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		hash         TEXT PRIMARY KEY,
		block_number BIGINT NOT NULL REFERENCES blocks(number),
		tx_index     BIGINT NOT NULL,
		from_addr    TEXT NOT NULL,
		to_addr      TEXT,
		value        TEXT NOT NULL,
		gas_used     BIGINT NOT NULL,
		gas_price    TEXT NOT NULL,
		input        BYTEA NOT NULL,
		status       BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS logs (
		id           BIGSERIAL PRIMARY KEY,
		block_number BIGINT NOT NULL REFERENCES blocks(number),
		tx_hash      TEXT NOT NULL REFERENCES transactions(hash),
		log_index    BIGINT NOT NULL,
		address      TEXT NOT NULL,
		topic0       TEXT,
		topic1       TEXT,
		topic2       TEXT,
		topic3       TEXT,
		data         BYTEA
	)`,
	`CREATE TABLE IF NOT EXISTS traces (
		id           BIGSERIAL PRIMARY KEY,
		block_number BIGINT NOT NULL REFERENCES blocks(number),
		tx_hash      TEXT NOT NULL,
		tx_index     BIGINT NOT NULL,
		trace_json   TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sync_state (
		id         INTEGER PRIMARY KEY CHECK (id = 1),
		last_block BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tx_block ON transactions(block_number)`,
	`CREATE INDEX IF NOT EXISTS idx_tx_from ON transactions(from_addr)`,
	`CREATE INDEX IF NOT EXISTS idx_tx_to ON transactions(to_addr)`,
	`CREATE INDEX IF NOT EXISTS idx_logs_block ON logs(block_number)`,
	`CREATE INDEX IF NOT EXISTS idx_logs_address ON logs(address)`,
	`CREATE INDEX IF NOT EXISTS idx_logs_topic0 ON logs(topic0)`,
	`CREATE INDEX IF NOT EXISTS idx_traces_block ON traces(block_number)`,
	`CREATE INDEX IF NOT EXISTS idx_traces_tx ON traces(tx_hash)`,
}

const upsertSyncState = `
	INSERT INTO sync_state (id, last_block) VALUES (1, $1)
	ON CONFLICT (id) DO UPDATE SET last_block = EXCLUDED.last_block
`
