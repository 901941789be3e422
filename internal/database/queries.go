package database

const (
	// User queries
	queryInsertUser = `
		INSERT INTO users (id, name, email) VALUES (?, ?, ?)`

	queryGetUsers = `
		SELECT id, name, email, created_at, updated_at
		FROM users
		ORDER BY created_at`

	queryGetUserById = `
		SELECT id, name, email, created_at, updated_at
		FROM users
		WHERE id = ?`

	queryGetUserByEmail = `
		SELECT id, name, email, created_at, updated_at
		FROM users
		WHERE email = ?`

	// Holding queries
	queryGetHolding = `
		SELECT id, user_id, asset, amount, COALESCE(last_trade_id, ''), version, updated_at
		FROM holdings
		WHERE user_id = ? AND asset = ?`

	queryGetUserHoldings = `
		SELECT id, user_id, asset, amount, COALESCE(last_trade_id, ''), version, updated_at
		FROM holdings
		WHERE user_id = ?
		ORDER BY asset`

	queryInsertHolding = `
		INSERT INTO holdings (id, user_id, asset, amount, last_trade_id, version)
		VALUES (?, ?, ?, ?, ?, 1)`

	queryUpdateHoldingAmount = `
		UPDATE holdings
		SET amount = ?, last_trade_id = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND asset = ? AND version = ?`

	queryDeleteUserHoldings = `
		DELETE FROM holdings WHERE user_id = ?`

	// Lot queries
	queryInsertLot = `
		INSERT INTO lots (
			id, user_id, asset, amount, btc_spent,
			purchase_price_usd, btc_price_usd_at_purchase, created_at, locked_until
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryListActiveLots = `
		SELECT id, user_id, asset, amount, btc_spent,
		       purchase_price_usd, btc_price_usd_at_purchase, created_at, locked_until
		FROM lots
		WHERE user_id = ? AND asset = ? AND locked_until > ?
		ORDER BY created_at`

	queryListLots = `
		SELECT id, user_id, asset, amount, btc_spent,
		       purchase_price_usd, btc_price_usd_at_purchase, created_at, locked_until
		FROM lots
		WHERE user_id = ? AND asset = ?
		ORDER BY created_at`

	// Trade queries
	queryInsertTrade = `
		INSERT INTO trades (
			id, user_id, from_asset, to_asset, from_amount, to_amount,
			btc_price_usd, asset_price_usd, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryListTradesDesc = `
		SELECT id, user_id, from_asset, to_asset, from_amount, to_amount,
		       btc_price_usd, asset_price_usd, created_at
		FROM trades
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`

	queryListTradesAsc = `
		SELECT id, user_id, from_asset, to_asset, from_amount, to_amount,
		       btc_price_usd, asset_price_usd, created_at
		FROM trades
		WHERE user_id = ?
		ORDER BY created_at ASC, id ASC`

	// Asset price queries
	queryUpsertAssetPrice = `
		INSERT INTO assets (symbol, name, price_usd, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			price_usd = excluded.price_usd,
			updated_at = excluded.updated_at`

	queryGetAsset = `
		SELECT symbol, name, price_usd, updated_at
		FROM assets
		WHERE symbol = ?`

	queryListAssets = `
		SELECT symbol, name, price_usd, updated_at
		FROM assets
		ORDER BY symbol`
)
