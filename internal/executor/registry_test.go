package executor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naskhq/nask/internal/domain"
)

func TestRegisterAndLookup(t *testing.T) {
	t.Parallel()
	r := NewRegistry()

	r.Register("echo", Executor{
		Run: func(_ context.Context, p domain.Payload) (json.RawMessage, error) {
			return json.Marshal(p.Input)
		},
	})

	exec, err := r.Lookup("echo")
	require.NoError(t, err)

	result, err := exec.Run(context.Background(), domain.Payload{Input: 42})
	require.NoError(t, err)
	assert.Equal(t, "42", string(result))
}

func TestLookupUnknownType(t *testing.T) {
	t.Parallel()
	r := NewRegistry()

	_, err := r.Lookup("unknown")
	assert.ErrorIs(t, err, domain.ErrInvalidTaskType)
}

func TestRegisterReplacesExisting(t *testing.T) {
	t.Parallel()
	r := NewRegistry()

	r.Register("echo", Executor{Run: func(context.Context, domain.Payload) (json.RawMessage, error) {
		return json.RawMessage(`"first"`), nil
	}})
	r.Register("echo", Executor{Run: func(context.Context, domain.Payload) (json.RawMessage, error) {
		return json.RawMessage(`"second"`), nil
	}})

	exec, err := r.Lookup("echo")
	require.NoError(t, err)
	result, err := exec.Run(context.Background(), domain.Payload{})
	require.NoError(t, err)
	assert.Equal(t, `"second"`, string(result))
}

func TestValidateWrapsExecutorError(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	r.Register("picky", Executor{
		Run: func(context.Context, domain.Payload) (json.RawMessage, error) { return nil, nil },
		ValidatePayload: func(p domain.Payload) error {
			if p.Input != 7 {
				return errors.New("only sevens accepted")
			}
			return nil
		},
	})

	assert.NoError(t, r.Validate("picky", domain.Payload{Input: 7}))

	err := r.Validate("picky", domain.Payload{Input: 8})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "only sevens accepted")
}

func TestTypes(t *testing.T) {
	t.Parallel()
	r := BuiltinRegistry()
	assert.ElementsMatch(t,
		[]domain.TaskType{domain.TaskTypeSleep, domain.TaskTypePrime, domain.TaskTypeFibonacci},
		r.Types())
}
