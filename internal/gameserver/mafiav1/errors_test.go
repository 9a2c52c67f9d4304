package mafiav1_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/partygames/mafia/internal/gameserver/mafiav1"
)

func TestActionUnavailableStatus_RoundTrip(t *testing.T) {
	err := mafiav1.ActionUnavailableStatus("VOTE is not available", []string{"SLEEP", "SHOW_MAFIA"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Contains(t, err.Error(), "VOTE is not available")

	available, ok := mafiav1.AvailableFromStatus(err)
	require.True(t, ok)
	assert.Equal(t, []string{"SLEEP", "SHOW_MAFIA"}, available)
}

func TestActionUnavailableStatus_EmptySet(t *testing.T) {
	available, ok := mafiav1.AvailableFromStatus(mafiav1.ActionUnavailableStatus("nothing to do", nil))
	require.True(t, ok)
	assert.Empty(t, available)
}

func TestAvailableFromStatus_WithoutDetail(t *testing.T) {
	_, ok := mafiav1.AvailableFromStatus(status.Error(codes.InvalidArgument, "bad target"))
	assert.False(t, ok)
	_, ok = mafiav1.AvailableFromStatus(errors.New("plain"))
	assert.False(t, ok)
	_, ok = mafiav1.AvailableFromStatus(nil)
	assert.False(t, ok)
}
