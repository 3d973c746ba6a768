package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	entry_time DATETIME NOT NULL,
	entry_price REAL NOT NULL,
	exit_time DATETIME NOT NULL,
	exit_price REAL NOT NULL,
	size REAL NOT NULL,
	fees REAL NOT NULL,
	pnl REAL NOT NULL,
	balance_after REAL NOT NULL,
	reason TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS equity (
	time DATETIME NOT NULL,
	balance REAL NOT NULL,
	equity REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_exit_time ON trades(exit_time);
CREATE INDEX IF NOT EXISTS idx_equity_time ON equity(time);
`
