package repository

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"payday-service/internal/config"
	"payday-service/internal/database"
	"payday-service/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := database.Connect(config.DriverSQLite, dsn, zerolog.Nop())
	require.NoError(t, err)
	return db
}

func testPayout(address string) *model.Payout {
	return &model.Payout{
		Address:      address,
		AssetID:      10458941,
		Decimals:     6,
		Gross:        "1000.000000",
		Fee:          "15.000000",
		Net:          "985.000000",
		NetBaseUnits: 985000000,
		FeeBps:       150,
		Route:        model.RouteTreasury,
		Status:       model.StatusConfirmed,
		TxID:         "TX",
	}
}

func TestPayoutRepository_CreateGet(t *testing.T) {
	repo := NewPayoutRepository(newTestDB(t))

	p := testPayout("ADDR")
	require.NoError(t, repo.Create(p))
	assert.NotEmpty(t, p.ID)

	got, err := repo.GetByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Address, got.Address)
	assert.Equal(t, uint64(985000000), got.NetBaseUnits)
	assert.Equal(t, model.RouteTreasury, got.Route)

	_, err = repo.GetByID("missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPayoutRepository_LargestBaseUnits(t *testing.T) {
	repo := NewPayoutRepository(newTestDB(t))

	p := testPayout("ADDR")
	p.NetBaseUnits = math.MaxInt64
	require.NoError(t, repo.Create(p))

	got, err := repo.GetByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxInt64), got.NetBaseUnits)
}

func TestPayoutRepository_Update(t *testing.T) {
	repo := NewPayoutRepository(newTestDB(t))

	p := testPayout("ADDR")
	p.Status = model.StatusAwaitingSignature
	p.PendingTxn = []byte{1, 2, 3}
	require.NoError(t, repo.Create(p))

	p.Status = model.StatusConfirmed
	p.PendingTxn = nil
	p.ConfirmedRound = 77
	require.NoError(t, repo.Update(p))

	got, err := repo.GetByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, got.Status)
	assert.Empty(t, got.PendingTxn)
	assert.Equal(t, uint64(77), got.ConfirmedRound)
}

func TestPayoutRepository_ListByAddress(t *testing.T) {
	repo := NewPayoutRepository(newTestDB(t))

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		p := testPayout("ADDR")
		p.TxID = fmt.Sprintf("TX%d", i)
		p.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(p))
	}
	require.NoError(t, repo.Create(testPayout("OTHER")))

	got, err := repo.ListByAddress("ADDR", 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "TX2", got[0].TxID, "newest first")
	assert.Equal(t, "TX0", got[2].TxID)

	got, err = repo.ListByAddress("ADDR", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = repo.ListByAddress("NOBODY", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}
