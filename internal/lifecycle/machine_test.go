package lifecycle

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/Rrens/teamhub/internal/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResource struct {
	state   State
	runtime RuntimeState
}

func (f *fakeResource) CurrentState() State           { return f.state }
func (f *fakeResource) SetState(s State)              { f.state = s }
func (f *fakeResource) GetRuntimeState() RuntimeState { return f.runtime }

func TestNext_WildcardOperations(t *testing.T) {
	ops := map[Operation]State{
		BeginCreating:    Creating,
		BeginUpdating:    Updating,
		BeginDeleting:    Deleting,
		ScheduleUpdating: UpdateScheduled,
		ScheduleDeleting: DeletionScheduled,
		SetOK:            OK,
		SetErred:         Erred,
	}

	for op, want := range ops {
		for _, from := range States {
			got, err := Next(from, op)
			require.NoError(t, err, "%s from %s", op, from)
			assert.Equal(t, want, got, "%s from %s", op, from)
		}
	}
}

func TestNext_RecoverOnlyFromErred(t *testing.T) {
	got, err := Next(Erred, Recover)
	require.NoError(t, err)
	assert.Equal(t, OK, got)

	for _, from := range States {
		if from == Erred {
			continue
		}
		got, err := Next(from, Recover)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidTransition))
		assert.Equal(t, from, got)

		var transitionErr *TransitionError
		require.True(t, errors.As(err, &transitionErr))
		assert.Equal(t, Recover, transitionErr.Op)
		assert.Equal(t, from, transitionErr.From)
	}
}

func TestNext_UnknownOperation(t *testing.T) {
	_, err := Next(OK, Operation("explode"))
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidTransition))
}

func TestApply_LeavesStateOnFailure(t *testing.T) {
	res := &fakeResource{state: Creating}

	err := Apply(res, Recover)
	assert.Error(t, err)
	assert.Equal(t, Creating, res.state)

	require.NoError(t, Apply(res, SetErred))
	assert.Equal(t, Erred, res.state)

	require.NoError(t, Apply(res, Recover))
	assert.Equal(t, OK, res.state)
}

func TestApply_DoesNotEnforceSequencing(t *testing.T) {
	res := &fakeResource{state: Creating}

	require.NoError(t, Apply(res, BeginDeleting))
	assert.Equal(t, Deleting, res.state)
}

func TestGuards(t *testing.T) {
	t.Run("update requires OK", func(t *testing.T) {
		assert.NoError(t, UpdateGuard.Check(&fakeResource{state: OK}))

		err := UpdateGuard.Check(&fakeResource{state: Erred})
		appErr, ok := apperr.As(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusConflict, appErr.HTTPStatus)
		assert.Equal(t, "Valid states for operation: OK.", appErr.Message)
	})

	t.Run("delete requires OK or Erred", func(t *testing.T) {
		assert.NoError(t, DeleteGuard.Check(&fakeResource{state: OK}))
		assert.NoError(t, DeleteGuard.Check(&fakeResource{state: Erred}))

		err := DeleteGuard.Check(&fakeResource{state: Creating})
		appErr, ok := apperr.As(err)
		require.True(t, ok)
		assert.Equal(t, "Valid states for operation: OK, Erred.", appErr.Message)
	})

	t.Run("guard does not alter state", func(t *testing.T) {
		res := &fakeResource{state: Updating}
		_ = UpdateGuard.Check(res)
		assert.Equal(t, Updating, res.state)
	})

	t.Run("runtime guard", func(t *testing.T) {
		guard := RequireRuntimeState(InService)
		assert.NoError(t, guard.Check(&fakeResource{runtime: InService}))

		err := guard.Check(&fakeResource{runtime: Requested})
		appErr, ok := apperr.As(err)
		require.True(t, ok)
		assert.Equal(t, "Valid runtime states for operation: IN_SERVICE.", appErr.Message)
	})
}

func TestState_TextEncoding(t *testing.T) {
	data, err := json.Marshal(map[string]State{"state": CreationScheduled})
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"Creation Scheduled"}`, string(data))

	var decoded struct {
		State State `json:"state"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"state":"DELETION_SCHEDULED"}`), &decoded))
	assert.Equal(t, DeletionScheduled, decoded.State)

	_, err = ParseState("Sleeping")
	assert.Error(t, err)
}
