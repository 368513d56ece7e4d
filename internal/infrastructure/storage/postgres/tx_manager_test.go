package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestDefaultTxOptions(t *testing.T) {
	opts := DefaultTxOptions()
	assert.Equal(t, pgx.ReadCommitted, opts.IsolationLevel)
	assert.Equal(t, pgx.ReadWrite, opts.AccessMode)
	assert.Equal(t, 30*time.Second, opts.StatementTimeout)
}

func TestSnapshotTxOptions(t *testing.T) {
	opts := SnapshotTxOptions()
	assert.Equal(t, pgx.RepeatableRead, opts.IsolationLevel)
	assert.Equal(t, pgx.ReadOnly, opts.AccessMode)
	assert.Equal(t, DefaultTxOptions().StatementTimeout, opts.StatementTimeout)
}

func TestGetTx_OutsideTransaction(t *testing.T) {
	m := &TxManager{}
	assert.Nil(t, m.GetTx(context.Background()))
}
