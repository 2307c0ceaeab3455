package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFrom_EmptyRows(t *testing.T) {
	n, err := CopyFrom(context.TODO(), nil, "recon_rows", []string{"run_id", "sales_code"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFrom_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"recon_rows"}, []string{"run_id", "sales_code"}).WillReturnResult(3)

	rows := [][]any{{"r1", "OT90"}, {"r1", "LS01"}, {"r1", "POCAN01"}}
	n, err := CopyFrom(context.Background(), mock, "recon_rows", []string{"run_id", "sales_code"}, rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"recon_rows"}, []string{"run_id", "sales_code"}).
		WillReturnError(fmt.Errorf("copy failed"))

	rows := [][]any{{"r1", "OT90"}}
	_, err = CopyFrom(context.Background(), mock, "recon_rows", []string{"run_id", "sales_code"}, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO recon_rows")
	assert.NoError(t, mock.ExpectationsWereMet())
}
