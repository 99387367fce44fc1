package lifecycle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type server struct {
	started, closed int
}

func (s *server) Close_() { s.closed++ }

func (*server) String() string { return "SERVER" }

func TestDefaultManager(t *testing.T) {
	t.Parallel()

	srv := &server{}
	manager := NewDefaultManager(srv)
	require.NoError(t, manager.Start(func(s *server) error { s.started++; return nil }))

	err := manager.Start(func(s *server) error { s.started++; return nil })
	targetError := &StartedAlreadyError{}
	require.ErrorAs(t, err, &targetError)

	manager.Close()
	manager.Close()
	require.Equal(t, 1, srv.started)
	require.Equal(t, 1, srv.closed)
}

func TestDefaultManagerStartError(t *testing.T) {
	t.Parallel()

	manager := NewDefaultManager(&server{})
	err := manager.Start(func(*server) error { return errors.New("listen failed") })
	require.EqualError(t, err, "listen failed")
}

func TestDefaultManagerCloseBeforeStart(t *testing.T) {
	t.Parallel()

	srv := &server{}
	manager := NewDefaultManager(srv)
	manager.Close()
	require.Equal(t, 1, srv.closed)

	err := manager.Start(func(s *server) error { s.started++; return nil })
	targetError := &StartedAfterCloseError{}
	require.ErrorAs(t, err, &targetError)
	require.Zero(t, srv.started)
}
