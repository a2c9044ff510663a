package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kendall-kelly/cafe-manager-api/models"
	"github.com/kendall-kelly/cafe-manager-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaffService_Create_GeneratesUniqueCodes(t *testing.T) {
	f := newFixture(t)
	svc := NewStaffService(f.db)

	seen := map[string]bool{f.staff.StaffCode: true}
	for i := 0; i < 25; i++ {
		staff, err := svc.Create(context.Background(), f.manager, StaffInput{Name: "Barista", Position: "barista"})
		require.NoError(t, err)
		assert.Len(t, staff.StaffCode, 3)
		assert.False(t, seen[staff.StaffCode], "duplicate staff code %s", staff.StaffCode)
		seen[staff.StaffCode] = true
		assert.True(t, staff.Active)
	}
	assert.Equal(t, models.ActionAddStaff, lastAudit(t, f.db).Action)
}

func TestStaffService_Create_RetriesOnCollision(t *testing.T) {
	f := newFixture(t)
	svc := NewStaffService(f.db)
	codes := []string{f.staff.StaffCode, f.staff.StaffCode, "555"}
	svc.codeFn = func() string {
		c := codes[0]
		codes = codes[1:]
		return c
	}

	staff, err := svc.Create(context.Background(), f.manager, StaffInput{Name: "Ben", Position: "cashier"})
	require.NoError(t, err)
	assert.Equal(t, "555", staff.StaffCode)
}

func TestStaffService_Create_GivesUpAfterRepeatedCollisions(t *testing.T) {
	f := newFixture(t)
	svc := NewStaffService(f.db)
	svc.codeFn = func() string { return f.staff.StaffCode }

	_, err := svc.Create(context.Background(), f.manager, StaffInput{Name: "Ben", Position: "cashier"})
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "STAFF_CODE_EXHAUSTED", ce.Code)
	assert.Equal(t, int64(1), countRows(t, f.db, &models.Staff{}))
}

func TestStaffService_Create_ExplicitCode(t *testing.T) {
	f := newFixture(t)
	svc := NewStaffService(f.db)

	staff, err := svc.Create(context.Background(), f.admin, StaffInput{StaffCode: "B-7", Name: "Ben", Position: "chef", Contact: "555-0101"})
	require.NoError(t, err)
	assert.Equal(t, "B-7", staff.StaffCode)

	_, err = svc.Create(context.Background(), f.admin, StaffInput{StaffCode: "B-7", Name: "Bo", Position: "chef"})
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "STAFF_CODE_EXISTS", ce.Code)
}

func TestStaffService_Create_Validation(t *testing.T) {
	f := newFixture(t)
	svc := NewStaffService(f.db)

	_, err := svc.Create(context.Background(), f.manager, StaffInput{Name: "", Position: "barista"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "name", ve.Field)

	_, err = svc.Create(context.Background(), f.manager, StaffInput{Name: "Ben", Position: "owner"})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "position", ve.Field)

	_, err = svc.Create(context.Background(), f.manager, StaffInput{Name: strings.Repeat("ö", 101), Position: "barista"})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "name", ve.Field)

	staff, err := svc.Create(context.Background(), f.manager, StaffInput{Name: strings.Repeat("ö", 100), Position: "barista"})
	require.NoError(t, err, "length is counted in characters, not bytes")
	assert.Equal(t, strings.Repeat("ö", 100), staff.Name)

	_, err = svc.Create(context.Background(), f.clerk, StaffInput{Name: "Ben", Position: "barista"})
	var authErr *AuthorizationError
	assert.ErrorAs(t, err, &authErr)
}

func TestStaffService_Update(t *testing.T) {
	f := newFixture(t)
	svc := NewStaffService(f.db)
	other := testutil.CreateStaff(t, f.db, "202", "Ben")

	updated, err := svc.Update(context.Background(), f.manager, f.staff.ID, StaffUpdate{Active: boolPtr(false), Contact: strPtr("555")})
	require.NoError(t, err)
	assert.False(t, updated.Active)
	assert.Equal(t, "555", updated.Contact)
	assert.Equal(t, "Asha", updated.Name)
	assert.Equal(t, "101", updated.StaffCode, "code only changes when asked")

	_, err = svc.Update(context.Background(), f.manager, f.staff.ID, StaffUpdate{StaffCode: strPtr(other.StaffCode)})
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "STAFF_CODE_EXISTS", ce.Code)

	updated, err = svc.Update(context.Background(), f.manager, f.staff.ID, StaffUpdate{StaffCode: strPtr("777")})
	require.NoError(t, err)
	assert.Equal(t, "777", updated.StaffCode)
	assert.Equal(t, models.ActionUpdateStaff, lastAudit(t, f.db).Action)

	_, err = svc.Update(context.Background(), f.manager, 999, StaffUpdate{Name: strPtr("x")})
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestStaffService_Delete(t *testing.T) {
	f := newFixture(t)
	svc := NewStaffService(f.db)
	idle := testutil.CreateStaff(t, f.db, "303", "Cleo")
	testutil.CreateOrderAt(t, f.db, f.staff.ID, time.Now().UTC(), "3.00")

	err := svc.Delete(context.Background(), f.manager, f.staff.ID)
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "STAFF_HAS_ORDERS", ce.Code)

	require.NoError(t, svc.Delete(context.Background(), f.manager, idle.ID))
	assert.Equal(t, models.ActionDeleteStaff, lastAudit(t, f.db).Action)

	var nf *NotFoundError
	assert.ErrorAs(t, svc.Delete(context.Background(), f.manager, idle.ID), &nf)
}

func TestStaffService_GetAndList(t *testing.T) {
	f := newFixture(t)
	svc := NewStaffService(f.db)
	retired := &models.Staff{StaffCode: "404", Name: "Zed", Position: models.PositionCleaner, Active: false}
	require.NoError(t, f.db.Create(retired).Error)

	all, err := svc.List(context.Background(), f.manager, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Asha", all[0].Name)

	active, err := svc.List(context.Background(), f.manager, true)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	got, err := svc.Get(context.Background(), f.admin, retired.ID)
	require.NoError(t, err)
	assert.Equal(t, "Zed", got.Name)

	_, err = svc.List(context.Background(), f.clerk, false)
	var authErr *AuthorizationError
	assert.ErrorAs(t, err, &authErr)
}
