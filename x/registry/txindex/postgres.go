package txindex

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	cmttypes "github.com/cometbft/cometbft/types"
	"github.com/lib/pq"

	"github.com/paw-chain/modelreg/x/registry/types"
)

var _ types.TxIndex = (*Postgres)(nil)

// DefaultPostgresTable is the table used when none is configured.
const DefaultPostgresTable = "registry_txs"

// Postgres stores transactions in a PostgreSQL table keyed by hash.
type Postgres struct {
	db    *sql.DB
	table string
}

// NewPostgres connects to connString and creates table if it does not exist.
func NewPostgres(ctx context.Context, connString, table string) (*Postgres, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if table == "" {
		table = DefaultPostgresTable
	}
	p := &Postgres{db: db, table: pq.QuoteIdentifier(table)}

	if err := p.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return p, nil
}

func (p *Postgres) initSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			tx_hash  BYTEA PRIMARY KEY,
			height   BIGINT NOT NULL,
			position INTEGER NOT NULL,
			tx       BYTEA NOT NULL
		)`, p.table))
	return err
}

// Get implements types.TxIndex.
func (p *Postgres) Get(ctx context.Context, hash []byte) (cmttypes.Tx, bool, error) {
	var tx []byte
	err := p.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT tx FROM %s WHERE tx_hash = $1`, p.table), hash,
	).Scan(&tx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query transaction: %w", err)
	}
	return cmttypes.Tx(tx), true, nil
}

// Index implements types.TxIndex. Re-indexing a hash overwrites its location.
func (p *Postgres) Index(ctx context.Context, height int64, position uint32, tx cmttypes.Tx) error {
	_, err := p.db.ExecContext(ctx,
		fmt.Sprintf(`
		INSERT INTO %s (tx_hash, height, position, tx) VALUES ($1, $2, $3, $4)
		ON CONFLICT (tx_hash) DO UPDATE SET height = EXCLUDED.height, position = EXCLUDED.position`, p.table),
		[]byte(tx.Hash()), height, int64(position), []byte(tx),
	)
	if err != nil {
		return fmt.Errorf("failed to index transaction: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// Ping checks the database is reachable.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}
