package middleware

import (
	"context"
	"errors"
	"testing"

	"vocabsrs/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"
)

type mockAuthorizer struct {
	mock.Mock
}

func (m *mockAuthorizer) EnsureLearnerExists(ctx context.Context, learnerID int64) error {
	return m.Called(ctx, learnerID).Error(0)
}

func (m *mockAuthorizer) IsAuthorized(ctx context.Context, learnerID int64) (bool, error) {
	args := m.Called(ctx, learnerID)
	return args.Bool(0), args.Error(1)
}

// fakeContext records what the middleware sends
type fakeContext struct {
	tele.Context
	sender   *tele.User
	message  *tele.Message
	callback *tele.Callback
	sent     []interface{}
	answered []*tele.CallbackResponse
}

func (f *fakeContext) Sender() *tele.User { return f.sender }
func (f *fakeContext) Message() *tele.Message { return f.message }
func (f *fakeContext) Callback() *tele.Callback { return f.callback }
func (f *fakeContext) Text() string {
	if f.message == nil {
		return ""
	}
	return f.message.Text
}

func (f *fakeContext) Send(what interface{}, _ ...interface{}) error {
	f.sent = append(f.sent, what)
	return nil
}

func (f *fakeContext) Respond(resp ...*tele.CallbackResponse) error {
	f.answered = append(f.answered, resp...)
	return nil
}

func textContext(id int64, text string) *fakeContext {
	return &fakeContext{sender: &tele.User{ID: id}, message: &tele.Message{Text: text}}
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name        string
		ctx         *fakeContext
		authorized  bool
		authErr     error
		ensureErr   error
		expectNext  bool
		expectSent  interface{}
		expectAlert bool
	}{
		{
			name:       "authorized learner passes",
			ctx:        textContext(1, "/stats"),
			authorized: true,
			expectNext: true,
		},
		{
			name:       "start command passes",
			ctx:        textContext(2, "/start"),
			expectNext: true,
		},
		{
			name:       "password attempt passes",
			ctx:        textContext(3, "hunter2"),
			expectNext: true,
		},
		{
			name:       "other command is blocked",
			ctx:        textContext(4, "/stats"),
			expectSent: msgAskPassword,
		},
		{
			name:        "callback is blocked with an alert",
			ctx:         &fakeContext{sender: &tele.User{ID: 5}, callback: &tele.Callback{ID: "cb"}},
			expectAlert: true,
		},
		{
			name:       "authorization lookup fails",
			ctx:        textContext(6, "hi"),
			authErr:    errors.New("db down"),
			expectSent: msgError,
		},
		{
			name:       "learner upsert fails",
			ctx:        textContext(7, "hi"),
			ensureErr:  errors.New("db down"),
			expectSent: msgError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := new(mockAuthorizer)
			id := tt.ctx.sender.ID
			auth.On("EnsureLearnerExists", mock.Anything, id).Return(tt.ensureErr)
			auth.On("IsAuthorized", mock.Anything, id).Return(tt.authorized, tt.authErr).Maybe()

			called := false
			next := func(tele.Context) error {
				called = true
				return nil
			}

			err := AuthMiddleware(auth, testutil.NewTestLogger())(next)(tt.ctx)
			require.NoError(t, err)

			assert.Equal(t, tt.expectNext, called)
			if tt.expectSent != nil {
				assert.Equal(t, []interface{}{tt.expectSent}, tt.ctx.sent)
			}
			if tt.expectAlert {
				require.Len(t, tt.ctx.answered, 1)
				assert.True(t, tt.ctx.answered[0].ShowAlert)
			}
		})
	}
}
