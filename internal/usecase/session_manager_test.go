package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
)

var (
	errRedisDown       = errors.New("redis down")
	errSessionNotFound = errors.New("session not found")
)

type mockSessionRepo struct {
	mock.Mock
}

func (that *mockSessionRepo) CreateOrUpdate(ctx context.Context, session *entity.Session) error {
	args := that.Called(ctx, session)
	return args.Error(0)
}

func (that *mockSessionRepo) GetByID(ctx context.Context, id string) (*entity.Session, error) {
	args := that.Called(ctx, id)
	session, _ := args.Get(0).(*entity.Session)
	return session, args.Error(1)
}

// Update runs fn on the session given to Return, like a store without contention would.
func (that *mockSessionRepo) Update(ctx context.Context, id string, fn func(session *entity.Session) error) error {
	args := that.Called(ctx, id)

	session, _ := args.Get(0).(*entity.Session)
	if session == nil {
		return args.Error(1)
	}

	if err := fn(session); err != nil {
		return err
	}

	return args.Error(1)
}

func (that *mockSessionRepo) DeleteByID(ctx context.Context, id string) error {
	args := that.Called(ctx, id)
	return args.Error(0)
}

// versionedSessionRepo keeps one session in memory and commits an update only
// when no other update committed since it was read, retrying otherwise.
// The first read of every caller waits until all callers have read.
type versionedSessionRepo struct {
	mu      sync.Mutex
	session entity.Session
	version int
	reads   sync.WaitGroup
}

func (that *versionedSessionRepo) CreateOrUpdate(context.Context, *entity.Session) error {
	return errors.New("not supported")
}

func (that *versionedSessionRepo) GetByID(context.Context, string) (*entity.Session, error) {
	return nil, errors.New("not supported")
}

func (that *versionedSessionRepo) DeleteByID(context.Context, string) error {
	return errors.New("not supported")
}

func (that *versionedSessionRepo) Update(_ context.Context, _ string, fn func(session *entity.Session) error) error {
	for attempt := 0; ; attempt++ {
		that.mu.Lock()
		session := that.session
		session.History = append([]entity.Board(nil), that.session.History...)
		version := that.version
		that.mu.Unlock()

		if attempt == 0 {
			that.reads.Done()
			that.reads.Wait()
		}

		if err := fn(&session); err != nil {
			return err
		}

		that.mu.Lock()
		if that.version == version {
			that.session = session
			that.version++
			that.mu.Unlock()
			return nil
		}
		that.mu.Unlock()
	}
}

func (that *versionedSessionRepo) stored() entity.Session {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.session
}

func newManager(t *testing.T) (*SessionManager, *mockSessionRepo) {
	t.Helper()

	repo := &mockSessionRepo{}
	t.Cleanup(func() { repo.AssertExpectations(t) })

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	return NewSessionManager(logger, repo), repo
}

// wonSession - X completed the top row at snapshot 5.
func wonSession(id string) *entity.Session {
	x, o, e := entity.PlayerX, entity.PlayerO, entity.EmptyCell

	return &entity.Session{
		ID: id,
		History: []entity.Board{
			{},
			{x},
			{x, e, e, e, o},
			{x, x, e, e, o},
			{x, x, e, o, o},
			{x, x, x, o, o},
		},
		CurrentMove: 5,
	}
}

func TestSessionManager_CreateSession(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates and stores an empty session", func(t *testing.T) {
		// Given: a repository accepting the new session
		manager, repo := newManager(t)

		repo.On("CreateOrUpdate", ctx, mock.MatchedBy(func(s *entity.Session) bool {
			return s.ID != "" && len(s.History) == 1 && s.CurrentMove == 0
		})).Return(nil).Once()

		// When: creating a session
		view, err := manager.CreateSession(ctx)

		// Then: an empty game with X to move is returned
		require.NoError(t, err)
		assert.NotEmpty(t, view.SessionID)
		assert.Equal(t, entity.Board{}, view.Board)
		assert.Equal(t, entity.PlayerX, view.NextPlayer)
		assert.Equal(t, []string{"Go to game start"}, view.Moves)
	})

	t.Run("Returns error if the repository fails", func(t *testing.T) {
		// Given: a failing repository
		manager, repo := newManager(t)

		repo.On("CreateOrUpdate", ctx, mock.AnythingOfType("*entity.Session")).Return(errRedisDown).Once()

		// When: creating a session
		view, err := manager.CreateSession(ctx)

		// Then: the error is returned
		require.ErrorIs(t, err, errRedisDown)
		assert.Nil(t, view)
	})
}

func TestSessionManager_GetSession(t *testing.T) {
	ctx := context.Background()

	t.Run("Returns the view of the stored session", func(t *testing.T) {
		manager, repo := newManager(t)

		repo.On("GetByID", ctx, "s1").Return(wonSession("s1"), nil).Once()

		view, err := manager.GetSession(ctx, "s1")

		require.NoError(t, err)
		assert.Equal(t, entity.PlayerX, view.Winner)
		assert.Equal(t, "Winner: X", view.Status)
		assert.Equal(t, 6, view.HistoryLength)
	})

	t.Run("Returns error if the session is missing", func(t *testing.T) {
		manager, repo := newManager(t)

		repo.On("GetByID", ctx, "nope").Return(nil, errSessionNotFound).Once()

		view, err := manager.GetSession(ctx, "nope")

		require.ErrorIs(t, err, errSessionNotFound)
		assert.Nil(t, view)
	})

	t.Run("Returns error if the stored history is corrupt", func(t *testing.T) {
		manager, repo := newManager(t)

		corrupt := &entity.Session{ID: "bad", History: []entity.Board{{entity.PlayerO}}}
		repo.On("GetByID", ctx, "bad").Return(corrupt, nil).Once()

		view, err := manager.GetSession(ctx, "bad")

		require.ErrorIs(t, err, apperror.ErrCorruptHistory)
		assert.Nil(t, view)
	})
}

func TestSessionManager_MakeMove(t *testing.T) {
	ctx := context.Background()

	t.Run("Successful move is stored", func(t *testing.T) {
		// Given: a fresh session
		manager, repo := newManager(t)

		stored := &entity.Session{ID: "s1", History: []entity.Board{{}}}
		repo.On("Update", ctx, "s1").Return(stored, nil).Once()

		// When: X plays the center
		view, err := manager.MakeMove(ctx, "s1", 4)

		// Then: the new state is returned and stored
		require.NoError(t, err)
		assert.Equal(t, entity.PlayerX, view.Board[4])
		assert.Equal(t, entity.PlayerO, view.NextPlayer)
		assert.Equal(t, 1, view.CurrentMove)
		assert.Equal(t, &entity.Session{
			ID:          "s1",
			History:     []entity.Board{{}, {entity.EmptyCell, entity.EmptyCell, entity.EmptyCell, entity.EmptyCell, entity.PlayerX}},
			CurrentMove: 1,
		}, stored)
	})

	t.Run("Move after a win is rejected and not stored", func(t *testing.T) {
		// Given: a won session
		manager, repo := newManager(t)

		stored := wonSession("s1")
		repo.On("Update", ctx, "s1").Return(stored, nil).Once()

		// When: O tries to play
		view, err := manager.MakeMove(ctx, "s1", 8)

		// Then: a rejection is returned with the unchanged view
		require.ErrorIs(t, err, apperror.ErrGameFinished)
		require.NotNil(t, view)
		assert.Equal(t, 5, view.CurrentMove)
		assert.Equal(t, entity.EmptyCell, view.Board[8])
		assert.Equal(t, wonSession("s1"), stored)
	})

	t.Run("Out of range cell is an index error", func(t *testing.T) {
		manager, repo := newManager(t)

		repo.On("Update", ctx, "s1").Return(&entity.Session{ID: "s1", History: []entity.Board{{}}}, nil).Once()

		_, err := manager.MakeMove(ctx, "s1", 9)

		require.ErrorIs(t, err, apperror.ErrInvalidCell)
	})

	t.Run("Move after jump branches the stored history", func(t *testing.T) {
		// Given: a won session rewound to snapshot 2
		manager, repo := newManager(t)

		stored := wonSession("s1")
		stored.CurrentMove = 2
		repo.On("Update", ctx, "s1").Return(stored, nil).Once()

		// When: X plays cell 5
		view, err := manager.MakeMove(ctx, "s1", 5)

		// Then: the future was discarded
		require.NoError(t, err)
		assert.Equal(t, 4, view.HistoryLength)
		assert.Len(t, stored.History, 4)
		assert.Equal(t, 3, stored.CurrentMove)
	})

	t.Run("Returns error if the session is missing", func(t *testing.T) {
		manager, repo := newManager(t)

		repo.On("Update", ctx, "nope").Return(nil, errSessionNotFound).Once()

		view, err := manager.MakeMove(ctx, "nope", 0)

		require.ErrorIs(t, err, errSessionNotFound)
		assert.Nil(t, view)
	})

	t.Run("Returns error if saving fails", func(t *testing.T) {
		manager, repo := newManager(t)

		repo.On("Update", ctx, "s1").Return(&entity.Session{ID: "s1", History: []entity.Board{{}}}, errRedisDown).Once()

		view, err := manager.MakeMove(ctx, "s1", 0)

		require.ErrorIs(t, err, errRedisDown)
		assert.Nil(t, view)
	})

	t.Run("Concurrent moves on one session are both kept", func(t *testing.T) {
		// Given: two requests that read the same empty session
		repo := &versionedSessionRepo{session: entity.Session{ID: "s1", History: []entity.Board{{}}}}
		repo.reads.Add(2)
		manager := NewSessionManager(slog.New(slog.NewJSONHandler(io.Discard, nil)), repo)

		// When: they play different cells at the same time
		var wg sync.WaitGroup
		views := make([]*entity.GameView, 2)
		errs := make([]error, 2)

		for i, cell := range []int{0, 8} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				views[i], errs[i] = manager.MakeMove(ctx, "s1", cell)
			}()
		}

		wg.Wait()

		// Then: both moves are stored, one after the other
		require.NoError(t, errs[0])
		require.NoError(t, errs[1])

		stored := repo.stored()
		require.Len(t, stored.History, 3)
		assert.Equal(t, 2, stored.CurrentMove)

		final := stored.History[2]
		assert.Equal(t, 2, final.Filled())
		assert.ElementsMatch(t, []entity.Mark{entity.PlayerX, entity.PlayerO}, []entity.Mark{final[0], final[8]})

		// And: each caller saw the state its own move produced
		assert.ElementsMatch(t, []int{1, 2}, []int{views[0].CurrentMove, views[1].CurrentMove})
		assert.True(t, views[0].Board == final || views[1].Board == final, "one view shows the final board")
	})
}

func TestSessionManager_JumpTo(t *testing.T) {
	ctx := context.Background()

	t.Run("Jump is stored without truncating", func(t *testing.T) {
		manager, repo := newManager(t)

		stored := wonSession("s1")
		repo.On("Update", ctx, "s1").Return(stored, nil).Once()

		view, err := manager.JumpTo(ctx, "s1", 1)

		require.NoError(t, err)
		assert.Equal(t, entity.PlayerO, view.NextPlayer)
		assert.Equal(t, entity.EmptyCell, view.Winner)
		assert.Equal(t, "Next player: O", view.Status)
		assert.Len(t, stored.History, 6)
		assert.Equal(t, 1, stored.CurrentMove)
	})

	t.Run("Out of range move is an index error", func(t *testing.T) {
		manager, repo := newManager(t)

		stored := wonSession("s1")
		repo.On("Update", ctx, "s1").Return(stored, nil).Once()

		view, err := manager.JumpTo(ctx, "s1", 6)

		require.ErrorIs(t, err, apperror.ErrInvalidMove)
		assert.Equal(t, 5, view.CurrentMove)
		assert.Equal(t, 5, stored.CurrentMove)
	})

	t.Run("Corrupt stored history is not an index error", func(t *testing.T) {
		manager, repo := newManager(t)

		repo.On("Update", ctx, "bad").Return(&entity.Session{ID: "bad", History: []entity.Board{{entity.PlayerO}}}, nil).Once()

		view, err := manager.JumpTo(ctx, "bad", 0)

		require.ErrorIs(t, err, apperror.ErrCorruptHistory)
		assert.Nil(t, view)
	})
}

func TestSessionManager_EndSession(t *testing.T) {
	ctx := context.Background()

	t.Run("Deletes the session", func(t *testing.T) {
		manager, repo := newManager(t)

		repo.On("DeleteByID", ctx, "s1").Return(nil).Once()

		require.NoError(t, manager.EndSession(ctx, "s1"))
	})

	t.Run("Returns error if deleting fails", func(t *testing.T) {
		manager, repo := newManager(t)

		repo.On("DeleteByID", ctx, "s1").Return(errRedisDown).Once()

		require.ErrorIs(t, manager.EndSession(ctx, "s1"), errRedisDown)
	})
}
