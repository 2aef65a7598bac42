package patients

import (
	"context"
	"errors"
	"testing"

	"patient-intake-server/internal/apperrors"
	"patient-intake-server/internal/models"
	"patient-intake-server/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestFindByIDSeededDemoPatients(t *testing.T) {
	dir := NewDirectory(testutil.NewSeededDB(t), zap.NewNop())
	ctx := context.Background()

	tests := []struct {
		id, first, last string
	}{
		{"1234", "John", "Doe"},
		{"5678", "Jane", "Smith"},
		{"9012", "Alex", "Johnson"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			p, err := dir.FindByID(ctx, tt.id)
			require.NoError(t, err)
			require.NotNil(t, p)
			assert.Equal(t, tt.first, p.FirstName)
			assert.Equal(t, tt.last, p.LastName)
			assert.Len(t, p.ExistingConditions, 1)
		})
	}
}

func TestFindByIDMissingIsNotAnError(t *testing.T) {
	dir := NewDirectory(testutil.NewSeededDB(t), zap.NewNop())

	p, err := dir.FindByID(context.Background(), "0000")
	assert.NoError(t, err)
	assert.Nil(t, p)
}

func TestCreateThenFindRoundTrip(t *testing.T) {
	dir := NewDirectory(testutil.NewTestDB(t), zap.NewNop())
	ctx := context.Background()

	created, err := dir.Create(ctx, NewPatient{
		FirstName:          "Maria",
		LastName:           "Garcia",
		DateOfBirth:        "1982-04-09",
		Phone:              "555-010-2020",
		ExistingConditions: []string{"Hypertension", "Asthma", "Hypertension"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Nil(t, created.Email)

	found, err := dir.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, found)

	assert.Equal(t, "Maria", found.FirstName)
	assert.Equal(t, "Garcia", found.LastName)
	assert.Equal(t, "555-010-2020", found.Phone)
	assert.Equal(t, "1982-04-09", found.DateOfBirth)
	assert.ElementsMatch(t, []string{"Asthma", "Hypertension"}, found.ExistingConditions)
	assert.ElementsMatch(t, created.ExistingConditions, found.ExistingConditions)
}

func TestCreateWithoutConditions(t *testing.T) {
	dir := NewDirectory(testutil.NewTestDB(t), zap.NewNop())
	ctx := context.Background()

	created, err := dir.Create(ctx, NewPatient{
		FirstName: "Sam", LastName: "Lee", DateOfBirth: "2001-12-30", Phone: "555-000-1111", Email: "sam@example.com",
	})
	require.NoError(t, err)
	require.NotNil(t, created.Email)

	found, err := dir.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, found.ExistingConditions)
	assert.Equal(t, "sam@example.com", *found.Email)
}

func TestStoreFailuresAreStoreErrors(t *testing.T) {
	db := testutil.NewTestDB(t)
	dir := NewDirectory(db, zap.NewNop())
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = dir.FindByID(context.Background(), "1234")
	assert.True(t, apperrors.IsStore(err))

	_, err = dir.Create(context.Background(), NewPatient{FirstName: "A", LastName: "B", DateOfBirth: "2000-01-01", Phone: "1"})
	assert.True(t, apperrors.IsStore(err))
}

func TestCreateRollsBackPatientWhenConditionsFail(t *testing.T) {
	db := testutil.NewTestDB(t)
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_conditions", func(tx *gorm.DB) {
		if tx.Statement.Table == "patient_conditions" {
			_ = tx.AddError(errors.New("conditions table unavailable"))
		}
	}))
	dir := NewDirectory(db, zap.NewNop())

	_, err := dir.Create(context.Background(), NewPatient{
		FirstName: "Ana", LastName: "Silva", DateOfBirth: "1970-07-07", Phone: "555", ExistingConditions: []string{"Arthritis"},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsStore(err))

	var count int64
	require.NoError(t, db.Model(&models.Patient{}).Count(&count).Error)
	assert.Zero(t, count, "patient row must be rolled back with its conditions")
}
