package state

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_GeneratesStableDeviceID(t *testing.T) {
	dir := t.TempDir()

	first, err := Load(dir, "desk phone")
	require.NoError(t, err)

	_, err = uuid.Parse(first.DeviceID)
	require.NoError(t, err, "device id is a uuid")
	assert.NotEmpty(t, first.DeviceName)
	assert.NotEmpty(t, first.DeviceModel)
	assert.Equal(t, "desk phone", first.DeviceRemark)

	second, err := Load(dir, "desk phone")
	require.NoError(t, err)
	assert.Equal(t, first.DeviceID, second.DeviceID, "id survives restarts")
}

func TestLoad_RemarkCanChange(t *testing.T) {
	dir := t.TempDir()

	first, err := Load(dir, "old remark")
	require.NoError(t, err)

	second, err := Load(dir, "new remark")
	require.NoError(t, err)
	assert.Equal(t, first.DeviceID, second.DeviceID)
	assert.Equal(t, "new remark", second.DeviceRemark)
}

func TestLoad_DistinctDirsGetDistinctIDs(t *testing.T) {
	a, err := Load(t.TempDir(), "")
	require.NoError(t, err)
	b, err := Load(t.TempDir(), "")
	require.NoError(t, err)
	assert.NotEqual(t, a.DeviceID, b.DeviceID)
}
