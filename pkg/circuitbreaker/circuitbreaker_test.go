package circuitbreaker_test

import (
	"errors"
	"testing"

	"github.com/scp-network/scpx-wallet/pkg/circuitbreaker"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker(t *testing.T) {
	t.Run("Execute", testExecute())
	t.Run("Trip", testTrip())
}

func testExecute() func(*testing.T) {
	return func(t *testing.T) {
		cb := circuitbreaker.NewCircuitBreaker("test")

		res, err := circuitbreaker.Execute(cb, func() (int, error) {
			return 42, nil
		})
		require.NoError(t, err)
		require.Equal(t, 42, res)

		expectedErr := errors.New("boom")
		res, err = circuitbreaker.Execute(cb, func() (int, error) {
			return 0, expectedErr
		})
		require.ErrorIs(t, err, expectedErr)
		require.Zero(t, res)
	}
}

func testTrip() func(*testing.T) {
	return func(t *testing.T) {
		cb := circuitbreaker.NewCircuitBreaker("trip")

		failing := func() (string, error) {
			return "", errors.New("unavailable")
		}
		for i := 0; i <= circuitbreaker.MaxNumOfFailingRequests; i++ {
			circuitbreaker.Execute(cb, failing)
		}
		require.Equal(t, gobreaker.StateOpen, cb.State())

		_, err := circuitbreaker.Execute(cb, func() (string, error) {
			return "ok", nil
		})
		require.ErrorIs(t, err, gobreaker.ErrOpenState)
	}
}
