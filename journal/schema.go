package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	strategy TEXT NOT NULL,
	asset TEXT NOT NULL,
	dataset TEXT NOT NULL,
	config BLOB,
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	bars INTEGER NOT NULL,
	initial_capital REAL NOT NULL,
	final_capital REAL NOT NULL,
	net_pl REAL NOT NULL,
	return_pct REAL NOT NULL,
	sharpe REAL NOT NULL,
	max_dd REAL NOT NULL,
	max_dd_pct REAL NOT NULL,
	commission REAL NOT NULL,
	trades INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL,
	win_rate REAL NOT NULL,
	avg_win REAL NOT NULL,
	avg_loss REAL NOT NULL,
	profit_factor REAL
);

CREATE TABLE IF NOT EXISTS trades (
	run_id TEXT NOT NULL,
	trade_id TEXT NOT NULL,
	asset TEXT NOT NULL,
	direction TEXT NOT NULL,
	quantity REAL NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	open_time DATETIME NOT NULL,
	close_time DATETIME NOT NULL,
	pnl REAL NOT NULL,
	pnl_pct REAL NOT NULL,
	commission REAL NOT NULL,
	PRIMARY KEY (run_id, trade_id)
);

CREATE TABLE IF NOT EXISTS orders (
	run_id TEXT NOT NULL,
	order_id TEXT NOT NULL,
	time DATETIME NOT NULL,
	asset TEXT NOT NULL,
	side TEXT NOT NULL,
	kind TEXT NOT NULL,
	quantity REAL NOT NULL,
	status TEXT NOT NULL,
	reason TEXT NOT NULL,
	filled_price REAL NOT NULL,
	commission REAL NOT NULL,
	PRIMARY KEY (run_id, order_id)
);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL,
	time DATETIME NOT NULL,
	cash REAL NOT NULL,
	equity REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id, close_time);
CREATE INDEX IF NOT EXISTS idx_equity_run ON equity(run_id, time);
`
