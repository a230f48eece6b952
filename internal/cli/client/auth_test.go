package client

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func offlineLogin(apiURL, adminKey string) loginOptions {
	return loginOptions{apiURL: apiURL, adminKey: adminKey, keyGiven: true, noVerify: true, out: &bytes.Buffer{}}
}

func TestAuthLogin_StoresSettings(t *testing.T) {
	useTempConfig(t)

	require.NoError(t, runAuthLogin(context.Background(), offlineLogin("https://api.sevakai.in/", "  admin-secret-key  ")))

	config, err := LoadGlobalConfig()
	require.NoError(t, err)
	require.NotNil(t, config)
	assert.Equal(t, "https://api.sevakai.in", config.APIURL)
	assert.Equal(t, "admin-secret-key", config.AdminKey)
}

func TestAuthLogin_OverwritesExisting(t *testing.T) {
	useTempConfig(t)
	require.NoError(t, SaveGlobalConfig(&GlobalConfig{APIURL: "http://old.example.com", AdminKey: "old"}))

	require.NoError(t, runAuthLogin(context.Background(), offlineLogin("http://new.example.com", "")))

	config, err := LoadGlobalConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://new.example.com", config.APIURL)
	assert.Empty(t, config.AdminKey)
}

func TestAuthLogin_PromptsForKey(t *testing.T) {
	useTempConfig(t)
	out := &bytes.Buffer{}

	err := runAuthLogin(context.Background(), loginOptions{
		apiURL:   "http://localhost:8080",
		noVerify: true,
		in:       strings.NewReader("typed-key\n"),
		out:      out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Enter admin key")

	config, err := LoadGlobalConfig()
	require.NoError(t, err)
	assert.Equal(t, "typed-key", config.AdminKey)
}

func TestAuthLogin_RejectsInvalidURL(t *testing.T) {
	configPath := useTempConfig(t)

	for _, u := range []string{"", "localhost:8080", "ftp://example.com", "http://"} {
		err := runAuthLogin(context.Background(), offlineLogin(u, "key"))
		assert.Error(t, err, u)
	}
	assert.NoFileExists(t, configPath)
}

func TestAuthLogin_VerifiesAgainstServer(t *testing.T) {
	t.Run("accepted key", func(t *testing.T) {
		useTempConfig(t)
		api, f := newFakeAPI(t, "")

		opts := offlineLogin(api.BaseURL(), "admin-key")
		opts.noVerify = false
		require.NoError(t, runAuthLogin(context.Background(), opts))

		assert.Equal(t, []string{"GET /health", "GET /newsletter/subscriptions"}, f.requests)
	})

	t.Run("rejected key is not saved", func(t *testing.T) {
		configPath := useTempConfig(t)
		api, _ := newFakeAPI(t, "")

		opts := offlineLogin(api.BaseURL(), "wrong-key")
		opts.noVerify = false
		err := runAuthLogin(context.Background(), opts)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "admin key rejected")
		assert.NoFileExists(t, configPath)
	})

	t.Run("public access only checks health", func(t *testing.T) {
		useTempConfig(t)
		api, f := newFakeAPI(t, "")

		opts := offlineLogin(api.BaseURL(), "")
		opts.noVerify = false
		require.NoError(t, runAuthLogin(context.Background(), opts))

		assert.Equal(t, []string{"GET /health"}, f.requests)
	})

	t.Run("unreachable server", func(t *testing.T) {
		configPath := useTempConfig(t)

		opts := offlineLogin("http://127.0.0.1:1", "")
		opts.noVerify = false
		err := runAuthLogin(context.Background(), opts)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "not reachable")
		assert.NoFileExists(t, configPath)
	})
}

func TestAuthLogout_RemovesConfig(t *testing.T) {
	configPath := useTempConfig(t)
	require.NoError(t, SaveGlobalConfig(&GlobalConfig{APIURL: defaultAPIURL}))

	require.NoError(t, runAuthLogout())
	assert.NoFileExists(t, configPath)
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "***", maskKey("short"))
	assert.Equal(t, "abcd...wxyz", maskKey("abcdefghijklmnopqrstuvwxyz"))
}
