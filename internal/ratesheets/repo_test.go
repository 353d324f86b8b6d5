package ratesheets

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/fenceops-backend/pkg/db/models"
	"github.com/angelmondragon/fenceops-backend/pkg/enums"
	"github.com/angelmondragon/fenceops-backend/pkg/migrate"
)

func setupRateSheetTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(migrate.Models()...))
	return db
}

func seedSheet(t *testing.T, db *gorm.DB, name string, active bool) *models.RateSheet {
	t.Helper()
	margin := decimal.NewFromInt(30)
	sheet := &models.RateSheet{
		Name:                       name,
		IsActive:                   active,
		PricingType:                enums.RateSheetPricingTypeFormula,
		DefaultMarginTargetPercent: &margin,
	}
	require.NoError(t, db.Create(sheet).Error)
	return sheet
}

func TestRepositoryResolvesOnlyActiveSheets(t *testing.T) {
	db := setupRateSheetTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	active := seedSheet(t, db, "Builder A", true)
	retired := seedSheet(t, db, "Builder A 2023", false)

	client := &models.Client{Name: "Builder A", DefaultRateSheetID: &active.ID}
	require.NoError(t, db.Create(client).Error)
	community := &models.Community{Name: "Oak Ridge", ClientID: &client.ID, RateSheetID: &retired.ID}
	require.NoError(t, db.Create(community).Error)
	bu := &models.BusinessUnitClass{Name: "Residential", DefaultRateSheetID: &active.ID}
	require.NoError(t, db.Create(bu).Error)

	got, err := repo.ActiveCommunityRateSheet(ctx, community.ID)
	require.NoError(t, err)
	assert.Nil(t, got, "inactive community sheet must not be effective")

	owner, err := repo.CommunityClientID(ctx, community.ID)
	require.NoError(t, err)
	require.NotNil(t, owner)
	assert.Equal(t, client.ID, *owner)

	got, err = repo.ActiveClientRateSheet(ctx, client.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, active.ID, got.ID)
	assert.Equal(t, "Builder A", got.Name)
	require.NotNil(t, got.DefaultMarginTargetPercent)
	assert.True(t, got.DefaultMarginTargetPercent.Equal(decimal.NewFromInt(30)))

	got, err = repo.ActiveBusinessUnitRateSheet(ctx, bu.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	missing, err := repo.CommunityClientID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepositoryResolverEndToEnd(t *testing.T) {
	db := setupRateSheetTestDB(t)
	repo := NewRepository(db)

	communitySheet := seedSheet(t, db, "Oak Ridge special", true)
	clientSheet := seedSheet(t, db, "Builder B", true)
	client := &models.Client{Name: "Builder B", DefaultRateSheetID: &clientSheet.ID}
	require.NoError(t, db.Create(client).Error)
	withSheet := &models.Community{Name: "Oak Ridge", ClientID: &client.ID, RateSheetID: &communitySheet.ID}
	withoutSheet := &models.Community{Name: "Pine Hollow", ClientID: &client.ID}
	require.NoError(t, db.Create(withSheet).Error)
	require.NoError(t, db.Create(withoutSheet).Error)

	resolver, err := NewResolver(repo)
	require.NoError(t, err)

	res := resolver.Resolve(context.Background(), PricingContext{CommunityID: &withSheet.ID})
	assert.Equal(t, enums.PricingSourceCommunity, res.Source)
	assert.Equal(t, communitySheet.ID, *res.RateSheetID)

	res = resolver.Resolve(context.Background(), PricingContext{CommunityID: &withoutSheet.ID})
	assert.Equal(t, enums.PricingSourceClient, res.Source)
	assert.Equal(t, clientSheet.ID, *res.RateSheetID)
	assert.False(t, res.Degraded())
}

func TestRepositoryFindItemAndSetActive(t *testing.T) {
	db := setupRateSheetTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	sheet := seedSheet(t, db, "Builder C", true)
	sku := &models.SKU{SKUCode: "WD-6-PRIV", SKUName: "6ft wood privacy", StandardCostPerFoot: decimal.NewFromInt(10), IsActive: true}
	require.NoError(t, db.Create(sku).Error)

	method := enums.ItemPricingMethodMargin
	target := decimal.NewFromInt(20)
	item := &models.RateSheetItem{RateSheetID: sheet.ID, SKUID: sku.ID, PricingMethod: &method, MarginTargetPercent: &target}
	require.NoError(t, db.Create(item).Error)

	dup := &models.RateSheetItem{RateSheetID: sheet.ID, SKUID: sku.ID}
	assert.Error(t, db.Create(dup).Error, "one item per sheet and sku")

	found, err := repo.FindItem(ctx, sheet.ID, sku.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.NotNil(t, found.PricingMethod)
	assert.Equal(t, enums.ItemPricingMethodMargin, *found.PricingMethod)

	none, err := repo.FindItem(ctx, sheet.ID, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, none)

	updated, err := repo.SetActive(ctx, sheet.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	_, err = repo.SetActive(ctx, uuid.New(), true)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryAssignmentVersion(t *testing.T) {
	db := setupRateSheetTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	_, err := repo.AssignmentVersion(ctx)
	require.Error(t, err, "sqlite schema has no version table")

	require.NoError(t, db.Exec("CREATE TABLE rate_sheet_assignment_version (id integer PRIMARY KEY, version bigint NOT NULL)").Error)
	_, err = repo.AssignmentVersion(ctx)
	require.Error(t, err, "missing row")

	require.NoError(t, db.Exec("INSERT INTO rate_sheet_assignment_version (id, version) VALUES (1, 7)").Error)
	version, err := repo.AssignmentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), version)
}
