package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGetContacts(t *testing.T) {
	rdb, mock := setupRepoDB(t)
	repo := NewWorkerRepository(rdb, zap.NewNop())

	rows := sqlmock.NewRows([]string{"worker_id", "name", "email"}).
		AddRow("worker-1", "Amal", "amal@farm.local").
		AddRow("worker-2", "Nimal", "nimal@farm.local")

	mock.ExpectQuery(regexp.QuoteMeta("FROM workers")).WillReturnRows(rows)

	contacts, err := repo.GetContacts(context.Background())

	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, "amal@farm.local", contacts[0].Email)
	assert.Equal(t, "Nimal", contacts[1].Name)
}

func TestGetContacts_QueryFailure(t *testing.T) {
	rdb, mock := setupRepoDB(t)
	repo := NewWorkerRepository(rdb, zap.NewNop())

	mock.ExpectQuery(regexp.QuoteMeta("FROM workers")).
		WillReturnError(errors.New("permission denied for table workers"))

	contacts, err := repo.GetContacts(context.Background())

	assert.Nil(t, contacts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query worker contacts")
}
