package sqlite

var schema = []string{
	`CREATE TABLE IF NOT EXISTS blocks (
		number      INTEGER PRIMARY KEY,
		hash        TEXT NOT NULL,
		parent_hash TEXT NOT NULL,
		timestamp   INTEGER NOT NULL,
		gas_used    INTEGER NOT NULL,
		gas_limit   INTEGER NOT NULL,
		base_fee    TEXT,
		tx_count    INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		hash         TEXT PRIMARY KEY,
		block_number INTEGER NOT NULL REFERENCES blocks(number),
		tx_index     INTEGER NOT NULL,
		from_addr    TEXT NOT NULL,
		to_addr      TEXT,
		value        TEXT NOT NULL,
		gas_used     INTEGER NOT NULL,
		gas_price    TEXT NOT NULL,
		input        BLOB NOT NULL,
		status       INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS logs (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		block_number INTEGER NOT NULL REFERENCES blocks(number),
		tx_hash      TEXT NOT NULL REFERENCES transactions(hash),
		log_index    INTEGER NOT NULL,
		address      TEXT NOT NULL,
		topic0       TEXT,
		topic1       TEXT,
		topic2       TEXT,
		topic3       TEXT,
		data         BLOB
	)`,
	`CREATE TABLE IF NOT EXISTS traces (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		block_number INTEGER NOT NULL REFERENCES blocks(number),
		tx_hash      TEXT NOT NULL,
		tx_index     INTEGER NOT NULL,
		trace_json   TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sync_state (
		id         INTEGER PRIMARY KEY CHECK (id = 1),
		last_block INTEGER NOT NULL
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

const (
	insertBlock = `INSERT OR IGNORE INTO blocks (
		number, hash, parent_hash, timestamp, gas_used, gas_limit, base_fee, tx_count
	) VALUES (:number, :hash, :parent_hash, :timestamp, :gas_used, :gas_limit, :base_fee, :tx_count)`

	insertTransaction = `INSERT OR IGNORE INTO transactions (
		hash, block_number, tx_index, from_addr, to_addr, value, gas_used, gas_price, input, status
	) VALUES (:hash, :block_number, :tx_index, :from_addr, :to_addr, :value, :gas_used, :gas_price, :input, :status)`

	insertLog = `INSERT INTO logs (
		block_number, tx_hash, log_index, address, topic0, topic1, topic2, topic3, data
	) VALUES (:block_number, :tx_hash, :log_index, :address, :topic0, :topic1, :topic2, :topic3, :data)`

	insertTrace = `INSERT INTO traces (
		block_number, tx_hash, tx_index, trace_json
	) VALUES (:block_number, :tx_hash, :tx_index, :trace_json)`

	upsertSyncState = `INSERT INTO sync_state (id, last_block) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET last_block = excluded.last_block`
)
