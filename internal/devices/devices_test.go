package devices_test

import (
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wheelibin/dusk/internal/devices"
	"github.com/wheelibin/dusk/mocks"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{Level: log.FatalLevel})

type fakeOutput struct {
	id     string
	err    error
	values chan int
}

func newFakeOutput(id string) *fakeOutput {
	return &fakeOutput{id: id, values: make(chan int, 100)}
}

func (o *fakeOutput) ID() string   { return o.id }
func (o *fakeOutput) Name() string { return o.id + " lamp" }
func (o *fakeOutput) SetTemperature(temperature int) error {
	o.values <- temperature
	return o.err
}

func next(t *testing.T, o *fakeOutput) int {
	t.Helper()
	select {
	case v := <-o.values:
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("no temperature reached %s", o.id)
	}
	return 0
}

func Test_Registry_Commit(t *testing.T) {

	t.Run("fans out to every output and journals the commit", func(t *testing.T) {
		journal := mocks.NewMockDevicesJournal(t)
		journal.On("Add", mock.Anything, mock.Anything).Return(nil)
		journal.On("RecordCommit", "a", 4500, mock.Anything).Return(nil).Once()
		journal.On("RecordCommit", "b", 4500, mock.Anything).Return(nil).Once()

		r := devices.NewRegistry(logger, journal)
		a, b := newFakeOutput("a"), newFakeOutput("b")
		r.Add(a)
		r.Add(b)

		r.Commit(4500)

		assert.Equal(t, 4500, next(t, a))
		assert.Equal(t, 4500, next(t, b))
		r.Close()
	})

	t.Run("failures are journalled", func(t *testing.T) {
		failure := errors.New("unreachable")
		journal := mocks.NewMockDevicesJournal(t)
		journal.On("Add", "a", "a lamp").Return(nil)
		journal.On("RecordFailure", "a", failure).Return(nil).Once()

		r := devices.NewRegistry(logger, journal)
		a := newFakeOutput("a")
		a.err = failure
		r.Add(a)

		r.Commit(3000)
		assert.Equal(t, 3000, next(t, a))
		r.Close()
	})

	t.Run("works without a journal", func(t *testing.T) {
		r := devices.NewRegistry(logger, nil)
		a := newFakeOutput("a")
		r.Add(a)
		r.Commit(6000)
		assert.Equal(t, 6000, next(t, a))
		r.Close()
	})

	t.Run("a late output gets the last committed temperature", func(t *testing.T) {
		r := devices.NewRegistry(logger, nil)
		defer r.Close()
		r.Commit(5200)

		a := newFakeOutput("a")
		r.Add(a)
		assert.Equal(t, 5200, next(t, a))
	})
}

func Test_Registry_AddRemove(t *testing.T) {

	r := devices.NewRegistry(logger, nil)
	defer r.Close()

	var mu sync.Mutex
	var added []string
	r.OnAdded(func(name string) {
		mu.Lock()
		defer mu.Unlock()
		added = append(added, name)
	})

	r.Add(newFakeOutput("b"))
	r.Add(newFakeOutput("a"))
	assert.Equal(t, []string{"a", "b"}, r.IDs())

	mu.Lock()
	assert.Equal(t, []string{"b lamp", "a lamp"}, added)
	mu.Unlock()

	assert.True(t, r.Remove("a"))
	assert.False(t, r.Remove("a"))
	assert.Equal(t, []string{"b"}, r.IDs())
}

func Test_Registry_ClosedIgnoresAdds(t *testing.T) {
	r := devices.NewRegistry(logger, nil)
	r.Close()
	r.Add(newFakeOutput("a"))
	assert.Empty(t, r.IDs())
}

func Test_CommandOutput(t *testing.T) {

	t.Run("substitutes the temperature", func(t *testing.T) {
		o := devices.NewCommandOutput(logger, "redshift", "redshift -P -O {{temperature}}")
		assert.Equal(t, "redshift -P -O 3400", o.Command(3400))
		assert.Equal(t, "command-redshift", o.ID())
		assert.Equal(t, "redshift", o.Name())
	})

	t.Run("runs the command", func(t *testing.T) {
		file := t.TempDir() + "/out"
		o := devices.NewCommandOutput(logger, "echo", "echo {{temperature}} > "+file)
		require.NoError(t, o.SetTemperature(4200))

		content, err := os.ReadFile(file)
		require.NoError(t, err)
		assert.Equal(t, "4200\n", string(content))
	})

	t.Run("a failing command is an error", func(t *testing.T) {
		o := devices.NewCommandOutput(logger, "false", "exit 3")
		assert.Error(t, o.SetTemperature(4200))
	})
}

func Test_LogOutput(t *testing.T) {
	o := devices.NewLogOutput(logger)
	assert.NoError(t, o.SetTemperature(6500))
	assert.Equal(t, "log", o.ID())
}
