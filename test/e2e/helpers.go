//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/cloo-solutions/sevakai/internal/api/handlers"
	"github.com/cloo-solutions/sevakai/internal/config"
	"github.com/cloo-solutions/sevakai/internal/openai"
	"github.com/cloo-solutions/sevakai/internal/repository"
	"github.com/cloo-solutions/sevakai/internal/server"
	"github.com/cloo-solutions/sevakai/internal/service"
	"github.com/cloo-solutions/sevakai/internal/storage"
	"github.com/cloo-solutions/sevakai/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	adminKey     = "e2e-admin-key-0123456789"
	knowledgeKey = "knowledge/e2e.md"
)

// knowledgeDoc is published to object storage so the server indexes it instead of the embedded copy.
const knowledgeDoc = `# SevakAI (e2e)

## Company Overview
SevakAI connects households in Hyderabad with verified domestic helpers.

## Services Offered
Maids, cooks and nannies. All services are booked through the app.

## Pricing
Basic plan costs Rs 999 per month. Premium plan costs Rs 1999 per month.

## Contact Information
Call +91 98765 43210.
`

// E2ETestEnv is one running sevakd stack backed by real containers.
// Everything it starts is released through t.Cleanup.
type E2ETestEnv struct {
	T          *testing.T
	Ctx        context.Context
	Pool       *pgxpool.Pool
	S3Client   *storage.S3Client
	OpenAI     *FakeOpenAI
	ServerURL  string
	BinaryDir  string
	HTTPClient *http.Client
}

// SetupE2EEnv starts Postgres and RustFS, publishes knowledgeDoc and serves the API.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	t.Helper()
	ctx := context.Background()

	pool := testutil.NewTestPool(ctx, t, testutil.NewPostgresContainer(ctx, t))
	s3C := testutil.NewRustFSContainer(ctx, t)

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     testutil.S3AccessKey,
		SecretAccessKey: testutil.S3SecretKey,
		Bucket:          "sevakai-e2e",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to create S3 client: %v", err)
	}
	if err := s3Client.EnsureBucket(ctx); err != nil {
		t.Fatalf("failed to create bucket: %v", err)
	}
	if err := s3Client.PutObject(ctx, knowledgeKey, []byte(knowledgeDoc), storage.MarkdownContentType); err != nil {
		t.Fatalf("failed to publish knowledge document: %v", err)
	}

	fake := newFakeOpenAI(t)
	srv := httptest.NewServer(newRouter(t, pool, s3Client, fake.URL()))
	t.Cleanup(srv.Close)

	return &E2ETestEnv{
		T:          t,
		Ctx:        ctx,
		Pool:       pool,
		S3Client:   s3Client,
		OpenAI:     fake,
		ServerURL:  srv.URL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// BuildBinaries compiles sevakd and sevak into a per-test directory.
func (e *E2ETestEnv) BuildBinaries() {
	e.T.Helper()
	e.BinaryDir = e.T.TempDir()

	for _, name := range []string{"sevakd", "sevak"} {
		cmd := exec.Command("go", "build", "-o", filepath.Join(e.BinaryDir, name), "./cmd/"+name)
		cmd.Dir = "../.."
		if out, err := cmd.CombinedOutput(); err != nil {
			e.T.Fatalf("failed to build %s: %v\n%s", name, err, out)
		}
	}
}

// RunSevak runs the sevak CLI against the test server with an isolated config dir.
func (e *E2ETestEnv) RunSevak(withAdminKey bool, args ...string) (string, error) {
	cmd := exec.Command(filepath.Join(e.BinaryDir, "sevak"), args...)
	cmd.Dir = e.T.TempDir()
	env := append(os.Environ(),
		"SEVAK_API_URL="+e.ServerURL,
		"XDG_CONFIG_HOME="+cmd.Dir,
		"HOME="+cmd.Dir,
	)
	if withAdminKey {
		env = append(env, "SEVAK_ADMIN_API_KEY="+adminKey)
	} else {
		env = append(env, "SEVAK_ADMIN_API_KEY=")
	}
	cmd.Env = env
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// APIResponse represents a standard API response
type APIResponse struct {
	StatusCode int             `json:"-"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error,omitempty"`
}

// Get performs a GET request
func (e *E2ETestEnv) Get(path, authToken string) (*APIResponse, error) {
	return e.doRequest(http.MethodGet, path, nil, authToken)
}

// Post performs a POST request
func (e *E2ETestEnv) Post(path string, body interface{}, authToken string) (*APIResponse, error) {
	return e.doRequest(http.MethodPost, path, body, authToken)
}

// Delete performs a DELETE request
func (e *E2ETestEnv) Delete(path, authToken string) (*APIResponse, error) {
	return e.doRequest(http.MethodDelete, path, nil, authToken)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}, authToken string) (*APIResponse, error) {
	url := e.ServerURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}

	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	apiResp := APIResponse{StatusCode: resp.StatusCode}
	if len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, &apiResp); err != nil {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
	}

	if resp.StatusCode >= 400 {
		return &apiResp, fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiResp.Error)
	}

	return &apiResp, nil
}

// newRouter wires the production stack: Postgres repositories, the S3
// knowledge document and an OpenAI client pointed at the fake.
func newRouter(t *testing.T, pool *pgxpool.Pool, s3Client *storage.S3Client, openAIURL string) http.Handler {
	t.Helper()
	ctx := context.Background()

	index, err := service.LoadKnowledgeIndex(ctx, service.KnowledgeSource{
		ObjectKey: knowledgeKey,
		Objects:   s3Client,
	}, nil)
	if err != nil {
		t.Fatalf("failed to load knowledge: %v", err)
	}

	bot, err := config.DefaultChatbot()
	if err != nil {
		t.Fatalf("failed to load chatbot persona: %v", err)
	}

	completer := openai.NewClientWithConfig(openai.Config{APIKey: "sk-e2e", BaseURL: openAIURL})
	chatSvc := service.NewChatService(index, bot, completer, repository.NewChatEventRepository(pool), service.DefaultChatOptions(), nil)
	sessionSvc := service.NewSessionService(chatSvc, 30*time.Minute, nil)

	return server.NewRouter(server.RouterConfig{
		ChatHandler:       handlers.NewChatHandler(sessionSvc),
		KnowledgeHandler:  handlers.NewKnowledgeHandler(service.NewKnowledgeService(index)),
		NewsletterHandler: handlers.NewNewsletterHandler(service.NewNewsletterService(repository.NewSubscriberRepository(pool), nil)),
		AdminAPIKey:       adminKey,
		ChatAvailable:     chatSvc.Available(),
	})
}

// systemPrompt extracts the system message from a recorded completion request.
func systemPrompt(req map[string]interface{}) string {
	msgs, _ := req["messages"].([]interface{})
	for _, m := range msgs {
		msg, _ := m.(map[string]interface{})
		if msg["role"] == "system" {
			s, _ := msg["content"].(string)
			return s
		}
	}
	return ""
}
