package application

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/oksasatya/medtracker/internal/domain/entity"
	"github.com/oksasatya/medtracker/pkg/helpers"
)

func newAdminFixture(t *testing.T) (*AdminService, *healthFixture) {
	t.Helper()
	hf := newHealthFixture(t)
	users := NewUserService(hf.users, helpers.NewJWTManager("s", 0), nil, nil, nil, "", nil, nil)
	return NewAdminService(users, hf.svc, hf.users, nil), hf
}

func TestRequireAdmin(t *testing.T) {
	admin, hf := newAdminFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, admin.RequireAdmin(ctx, hf.user.ID), ErrNotAdmin)
	assert.ErrorIs(t, admin.RequireAdmin(ctx, "ghost"), ErrAuthorization)

	require.NoError(t, hf.users.SetAdmin(ctx, hf.user.ID, true))
	assert.NoError(t, admin.RequireAdmin(ctx, hf.user.ID))

	require.NoError(t, hf.users.Deactivate(ctx, hf.user.ID))
	assert.ErrorIs(t, admin.RequireAdmin(ctx, hf.user.ID), ErrNotAdmin)
}

func TestUserHealthAlwaysHasList(t *testing.T) {
	admin, hf := newAdminFixture(t)
	ctx := context.Background()

	u, views, err := admin.UserHealth(ctx, hf.user.ID)
	require.NoError(t, err)
	assert.Equal(t, hf.user.ID, u.ID)
	assert.NotNil(t, views)
	assert.Empty(t, views)

	_, _, err = admin.UserHealth(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAdminDeleteRecordAndDeactivate(t *testing.T) {
	admin, hf := newAdminFixture(t)
	ctx := context.Background()

	rec, _, err := hf.svc.RecordMeasurement(ctx, hf.user.ID, normalInput())
	require.NoError(t, err)
	other := &entity.User{FirstName: "John", LastName: "Roe", Email: "john@example.com"}
	require.NoError(t, hf.users.Create(ctx, other))
	assert.ErrorIs(t, admin.DeleteRecord(ctx, other.ID, rec.ID), ErrRecordNotFound)
	assert.ErrorIs(t, admin.DeleteRecord(ctx, "ghost", rec.ID), ErrUserNotFound)
	require.NoError(t, admin.DeleteRecord(ctx, hf.user.ID, rec.ID))

	require.NoError(t, admin.DeactivateUser(ctx, hf.user.ID))
	stored, err := hf.users.GetByID(ctx, hf.user.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	users, err := admin.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

type memStore struct {
	path string
	data []byte
	err  error
}

func (m *memStore) Upload(_ context.Context, objectPath, _ string, r io.Reader) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.path = objectPath
	m.data, _ = io.ReadAll(r)
	return "https://storage.googleapis.com/bucket/" + objectPath, nil
}

func TestReports(t *testing.T) {
	admin, hf := newAdminFixture(t)
	ctx := context.Background()
	rs := NewReportService(hf.svc, admin, nil, "MedTracker", nil)

	rec, _, err := hf.svc.RecordMeasurement(ctx, hf.user.ID, normalInput())
	require.NoError(t, err)

	pdf, err := rs.RecordPDF(ctx, hf.user.ID, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "medical-record-2024-03-01.pdf", pdf.Name)
	assert.True(t, bytes.HasPrefix(pdf.Data, []byte("%PDF-")))

	_, err = rs.RecordPDF(ctx, "other", rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = rs.ArchiveRecordPDF(ctx, hf.user.ID, rec.ID)
	assert.ErrorIs(t, err, ErrUnavailable)

	store := &memStore{}
	rs.Store = store
	url, err := rs.ArchiveRecordPDF(ctx, hf.user.ID, rec.ID)
	require.NoError(t, err)
	assert.Contains(t, url, "reports/"+hf.user.ID+"/"+rec.ID)
	assert.True(t, bytes.HasPrefix(store.data, []byte("%PDF-")))

	store.err = errors.New("quota")
	_, err = rs.ArchiveRecordPDF(ctx, hf.user.ID, rec.ID)
	assert.ErrorIs(t, err, ErrPersistence)

	xlsx, err := rs.ExportUserXLSX(ctx, hf.user.ID)
	require.NoError(t, err)
	wb, err := excelize.OpenReader(bytes.NewReader(xlsx.Data))
	require.NoError(t, err)
	defer func() { _ = wb.Close() }()
	assert.Equal(t, []string{"Records", "Classifications"}, wb.GetSheetList())
	v, err := wb.GetCellValue("Records", "A2")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", v)

	chart, err := rs.TrendChart(ctx, hf.user.ID)
	require.NoError(t, err)
	assert.Contains(t, string(chart.Data), "Blood Sugar")
}

func TestAdminReadsDeactivatedUsers(t *testing.T) {
	admin, hf := newAdminFixture(t)
	ctx := context.Background()
	rs := NewReportService(hf.svc, admin, nil, "MedTracker", nil)

	rec, _, err := hf.svc.RecordMeasurement(ctx, hf.user.ID, normalInput())
	require.NoError(t, err)
	require.NoError(t, admin.DeactivateUser(ctx, hf.user.ID))
	require.NoError(t, admin.DeactivateUser(ctx, hf.user.ID))

	_, err = admin.Users.GetProfile(ctx, hf.user.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)

	u, views, err := admin.UserHealth(ctx, hf.user.ID)
	require.NoError(t, err)
	assert.False(t, u.IsActive)
	assert.Len(t, views, 1)

	_, err = rs.RecordPDF(ctx, hf.user.ID, rec.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
	pdf, err := rs.UserRecordPDF(ctx, hf.user.ID, rec.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf.Data, []byte("%PDF-")))

	require.NoError(t, admin.DeleteRecord(ctx, hf.user.ID, rec.ID))
	assert.Equal(t, 0, hf.records.Live())
}
