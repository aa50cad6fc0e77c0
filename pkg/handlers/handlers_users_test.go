package handlers_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"portal/pkg/gate"
	"portal/pkg/handlers"
	"portal/pkg/user"
)

type mockUserService struct {
	mock.Mock
}

func (m *mockUserService) Register(ctx context.Context, form user.RegisterForm) (*user.User, error) {
	args := m.Called(form.Username)
	if u := args.Get(0); u != nil {
		return u.(*user.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestCreateUser(t *testing.T) {
	m := new(mockUserService)
	m.On("Register", "newuser").Return(&user.User{ID: "id", Username: "newuser", Password: "$2a$hash"}, nil)
	m.On("Register", "existing").Return(nil, user.ErrUserExists)
	m.On("Register", "bad").Return(nil, fmt.Errorf("%w: password must be at least 8 characters", user.ErrInvalidForm))
	m.On("Register", "broken").Return(nil, errors.New("lookup user: connection reset"))

	handler := handlers.NewUserHandler(m, logger)

	tests := []struct {
		name           string
		username       string
		expectedStatus int
		expectedBody   string
	}{
		{"Created", "newuser", http.StatusCreated, `"username":"newuser"`},
		{"Already exists", "existing", http.StatusUnprocessableEntity, "already exists"},
		{"Invalid form", "bad", http.StatusBadRequest, "at least 8 characters"},
		{"Unexpected error", "broken", http.StatusInternalServerError, "internal server error"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			body := fmt.Sprintf(`{"username":%q,"password":"password1","role":"patient"}`, test.username)
			req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			req = req.WithContext(gate.WithSummary(req.Context(), summary))
			rr := httptest.NewRecorder()

			handler.Create(rr, req)

			assert.Equal(t, test.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), test.expectedBody)
			assert.NotContains(t, rr.Body.String(), "$2a$hash")
			assert.NotContains(t, rr.Body.String(), "connection reset")
		})
	}

	m.AssertExpectations(t)
}
