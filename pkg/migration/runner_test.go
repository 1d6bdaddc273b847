package migration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStep struct {
	name   string
	result *Result
	err    error
	runs   int
	order  *[]string
}

func (s *fakeStep) Name() string { return s.name }

func (s *fakeStep) Run(_ context.Context, _ *Context) (*Result, error) {
	s.runs++
	if s.order != nil {
		*s.order = append(*s.order, s.name)
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestRunnerRunsStepsInDeclaredOrder(t *testing.T) {
	var order []string
	steps := []Step{
		&fakeStep{name: "categories", result: &Result{Success: true, Count: 3}, order: &order},
		&fakeStep{name: "products", result: &Result{Success: true, Count: 7}, order: &order},
		&fakeStep{name: "orders", result: &Result{Success: true, Count: 2}, order: &order},
	}

	runner := NewRunner(steps, nil, nil, testLogger())
	outcomes, err := runner.Run(context.Background(), NewContext())

	require.NoError(t, err)
	assert.Equal(t, []string{"categories", "products", "orders"}, order)
	require.Len(t, outcomes, 3)
	assert.Equal(t, 3, outcomes[0].Count)
	assert.Equal(t, 7, outcomes[1].Count)
	assert.Equal(t, 2, outcomes[2].Count)
	for _, o := range outcomes {
		assert.True(t, o.Success)
		assert.False(t, o.Skipped)
	}
}

func TestRunnerSkipsDisabledSteps(t *testing.T) {
	disabled := &fakeStep{name: "translations", result: &Result{Success: true, Count: 9}}
	enabledStep := &fakeStep{name: "products", result: &Result{Success: true, Count: 4}}

	enabled := func(name string) bool { return name != "translations" }
	runner := NewRunner([]Step{enabledStep, disabled}, enabled, nil, testLogger())

	outcomes, err := runner.Run(context.Background(), NewContext())

	require.NoError(t, err)
	assert.Equal(t, 1, enabledStep.runs)
	assert.Equal(t, 0, disabled.runs)
	require.Len(t, outcomes, 2)
	assert.False(t, outcomes[0].Skipped)
	assert.True(t, outcomes[1].Skipped)
}

func TestRunnerStopsAfterFatalStepError(t *testing.T) {
	boom := errors.New("target unreachable")
	first := &fakeStep{name: "prepare", err: boom}
	second := &fakeStep{name: "categories", result: &Result{Success: true}}

	runner := NewRunner([]Step{first, second}, nil, nil, testLogger())
	outcomes, err := runner.Run(context.Background(), NewContext())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStepFailed))
	assert.Contains(t, err.Error(), "prepare")
	assert.Equal(t, 0, second.runs, "later steps must not run after a fatal error")

	require.Len(t, outcomes, 2)
	assert.False(t, outcomes[0].Success)
	assert.True(t, outcomes[1].Skipped)
}

func TestRunnerAnnotatesDomainErrorsWithStage(t *testing.T) {
	failing := &fakeStep{name: "prepare", err: NewMigrationErrorf(KindConfig, "source database unreachable")}

	runner := NewRunner([]Step{failing}, nil, nil, testLogger())
	_, err := runner.Run(context.Background(), NewContext())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStepFailed))
	assert.Contains(t, err.Error(), "configuration [prepare]")
}

func TestRunnerPartialStepIsNotFatal(t *testing.T) {
	partial := &fakeStep{name: "products", result: &Result{Success: false, Count: 90, Failed: 10}}
	next := &fakeStep{name: "orders", result: &Result{Success: true, Count: 5}}

	runner := NewRunner([]Step{partial, next}, nil, nil, testLogger())
	outcomes, err := runner.Run(context.Background(), NewContext())

	require.NoError(t, err)
	assert.Equal(t, 1, next.runs)
	assert.False(t, outcomes[0].Success)
	assert.Equal(t, 10, outcomes[0].Failed)
	assert.True(t, outcomes[1].Success)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00h 00m 00s"},
		{59 * time.Second, "00h 00m 59s"},
		{61 * time.Second, "00h 01m 01s"},
		{3600 * time.Second, "01h 00m 00s"},
		{2*time.Hour + 5*time.Minute + 32*time.Second, "02h 05m 32s"},
		{25*time.Hour + 1*time.Second, "25h 00m 01s"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.d))
	}
}
