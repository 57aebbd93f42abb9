package broker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockBroker implements Broker for testing
type MockBroker struct {
	ListToolsFunc            func(ctx context.Context, toolkit string) ([]Descriptor, error)
	AuthorizeFunc            func(ctx context.Context, toolName, userID string) (*Authorization, error)
	WaitForAuthorizationFunc func(ctx context.Context, auth *Authorization) (*Authorization, error)
	ExecuteFunc              func(ctx context.Context, toolName, userID string, args map[string]any) (string, error)

	Authorized []string
}

func (m *MockBroker) ListTools(ctx context.Context, toolkit string) ([]Descriptor, error) {
	if m.ListToolsFunc != nil {
		return m.ListToolsFunc(ctx, toolkit)
	}
	return nil, nil
}

func (m *MockBroker) Authorize(ctx context.Context, toolName, userID string) (*Authorization, error) {
	m.Authorized = append(m.Authorized, toolName)
	if m.AuthorizeFunc != nil {
		return m.AuthorizeFunc(ctx, toolName, userID)
	}
	return &Authorization{Status: AuthCompleted}, nil
}

func (m *MockBroker) WaitForAuthorization(ctx context.Context, auth *Authorization) (*Authorization, error) {
	if m.WaitForAuthorizationFunc != nil {
		return m.WaitForAuthorizationFunc(ctx, auth)
	}
	return &Authorization{ID: auth.ID, Status: AuthCompleted}, nil
}

func (m *MockBroker) Execute(ctx context.Context, toolName, userID string, args map[string]any) (string, error) {
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, toolName, userID, args)
	}
	return "", nil
}

// MockNotifier implements Notifier for testing
type MockNotifier struct {
	URLs map[string]string
}

func (m *MockNotifier) AuthorizationRequired(toolName, url string) {
	if m.URLs == nil {
		m.URLs = map[string]string{}
	}
	m.URLs[toolName] = url
}

func imgflipTools() []Descriptor {
	return []Descriptor{
		{Name: "Imgflip_SearchMemes", QualifiedName: "Imgflip.SearchMemes", Toolkit: "Imgflip"},
		{Name: "Imgflip_GetPopularMemes", QualifiedName: "Imgflip.GetPopularMemes", Toolkit: "Imgflip"},
		{Name: "Imgflip_CreateMeme", QualifiedName: "Imgflip.CreateMeme", Toolkit: "Imgflip"},
	}
}

func TestDiscover_AuthorizesEveryToolInOrder(t *testing.T) {
	b := &MockBroker{
		ListToolsFunc: func(ctx context.Context, toolkit string) ([]Descriptor, error) {
			assert.Equal(t, "Imgflip", toolkit)
			return imgflipTools(), nil
		},
	}

	tools, err := Discover(context.Background(), b, "user@example.com", []string{"Imgflip"}, &MockNotifier{})

	require.NoError(t, err)
	require.Len(t, tools, 3)
	assert.Equal(t, []string{"Imgflip.SearchMemes", "Imgflip.GetPopularMemes", "Imgflip.CreateMeme"}, b.Authorized)
	assert.Equal(t, "Imgflip_CreateMeme", tools[2].Name())
}

func TestDiscover_PendingAuthorization_ShowsURLAndWaits(t *testing.T) {
	var waited []string
	b := &MockBroker{
		ListToolsFunc: func(ctx context.Context, toolkit string) ([]Descriptor, error) {
			return imgflipTools()[2:], nil
		},
		AuthorizeFunc: func(ctx context.Context, toolName, userID string) (*Authorization, error) {
			return &Authorization{ID: "auth-1", Status: AuthPending, URL: "https://auth.example/approve"}, nil
		},
		WaitForAuthorizationFunc: func(ctx context.Context, auth *Authorization) (*Authorization, error) {
			waited = append(waited, auth.ID)
			return &Authorization{ID: auth.ID, Status: AuthCompleted}, nil
		},
	}
	n := &MockNotifier{}

	tools, err := Discover(context.Background(), b, "u", []string{"Imgflip"}, n)

	require.NoError(t, err)
	assert.Len(t, tools, 1)
	assert.Equal(t, "https://auth.example/approve", n.URLs["Imgflip_CreateMeme"])
	assert.Equal(t, []string{"auth-1"}, waited)
}

func TestDiscover_FailedAuthorization_Aborts(t *testing.T) {
	b := &MockBroker{
		ListToolsFunc: func(ctx context.Context, toolkit string) ([]Descriptor, error) {
			return imgflipTools(), nil
		},
		AuthorizeFunc: func(ctx context.Context, toolName, userID string) (*Authorization, error) {
			if toolName == "Imgflip.GetPopularMemes" {
				return &Authorization{Status: AuthFailed}, nil
			}
			return &Authorization{Status: AuthCompleted}, nil
		},
	}

	tools, err := Discover(context.Background(), b, "u", []string{"Imgflip"}, nil)

	assert.ErrorIs(t, err, ErrAuthorization)
	assert.Contains(t, err.Error(), "Imgflip_GetPopularMemes")
	assert.Nil(t, tools)
	// Stops at the first failure
	assert.Equal(t, []string{"Imgflip.SearchMemes", "Imgflip.GetPopularMemes"}, b.Authorized)
}

func TestDiscover_AuthorizeError_WrapsErrAuthorization(t *testing.T) {
	b := &MockBroker{
		ListToolsFunc: func(ctx context.Context, toolkit string) ([]Descriptor, error) {
			return imgflipTools()[:1], nil
		},
		AuthorizeFunc: func(ctx context.Context, toolName, userID string) (*Authorization, error) {
			return nil, errors.New("403 forbidden")
		},
	}

	_, err := Discover(context.Background(), b, "u", []string{"Imgflip"}, nil)

	assert.ErrorIs(t, err, ErrAuthorization)
}

func TestDiscover_WaitError_WrapsErrAuthorization(t *testing.T) {
	b := &MockBroker{
		ListToolsFunc: func(ctx context.Context, toolkit string) ([]Descriptor, error) {
			return imgflipTools()[:1], nil
		},
		AuthorizeFunc: func(ctx context.Context, toolName, userID string) (*Authorization, error) {
			return &Authorization{ID: "a", Status: AuthPending}, nil
		},
		WaitForAuthorizationFunc: func(ctx context.Context, auth *Authorization) (*Authorization, error) {
			return nil, context.DeadlineExceeded
		},
	}

	_, err := Discover(context.Background(), b, "u", []string{"Imgflip"}, &MockNotifier{})

	assert.ErrorIs(t, err, ErrAuthorization)
}

func TestDiscover_ListError(t *testing.T) {
	boom := errors.New("unreachable")
	b := &MockBroker{
		ListToolsFunc: func(ctx context.Context, toolkit string) ([]Descriptor, error) {
			return nil, boom
		},
	}

	_, err := Discover(context.Background(), b, "u", []string{"Imgflip"}, nil)

	assert.ErrorIs(t, err, boom)
	assert.Empty(t, b.Authorized)
}

func TestDiscover_DuplicateNamesAcrossToolkits_Skipped(t *testing.T) {
	b := &MockBroker{
		ListToolsFunc: func(ctx context.Context, toolkit string) ([]Descriptor, error) {
			return imgflipTools()[:1], nil
		},
	}

	tools, err := Discover(context.Background(), b, "u", []string{"Imgflip", "Imgflip"}, nil)

	require.NoError(t, err)
	assert.Len(t, tools, 1)
}

func TestRemoteTool_ExecutesQualifiedNameAsUser(t *testing.T) {
	var gotName, gotUser string
	var gotArgs map[string]any
	b := &MockBroker{
		ExecuteFunc: func(ctx context.Context, toolName, userID string, args map[string]any) (string, error) {
			gotName, gotUser, gotArgs = toolName, userID, args
			return "https://i.imgflip.com/abc123.jpg", nil
		},
	}
	d := imgflipTools()[2]
	args := map[string]any{"template_id": "181913649"}

	out, err := RemoteTool(b, d, "user@example.com").Execute(context.Background(), args)

	require.NoError(t, err)
	assert.Equal(t, "https://i.imgflip.com/abc123.jpg", out)
	assert.Equal(t, "Imgflip.CreateMeme", gotName)
	assert.Equal(t, "user@example.com", gotUser)
	assert.Equal(t, args, gotArgs)
}
