package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/dealops/dealflow/config"
)

const (
	adminEmail  = "admin@test.io"
	defaultPass = "super-secret-1"
)

func testServerConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Sandbox:     true,
		DBPath:      t.TempDir() + "/",
		DBName:      "test",
		TokenSecret: "test-secret",
		TokenAge:    6,
		AdminEmail:  adminEmail,
		AdminPass:   defaultPass,
	}
	cfg.Bucket.User = "user"
	cfg.Bucket.Login = "login"
	cfg.Bucket.Deal = "deal"
	cfg.Bucket.Bid = "bid"
	cfg.Bucket.Negotiation = "negotiation"
	cfg.Bucket.Connection = "connection"
	return cfg
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	return newTestServerCfg(t, nil)
}

func newTestServerCfg(t *testing.T, mod func(*config.Config)) (*Server, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ping", func(c *gin.Context) { c.String(200, "pong") })

	cfg := testServerConfig(t)
	if mod != nil {
		mod(cfg)
	}
	srv, err := New(cfg, r)
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return srv, ts
}

// rst is a minimal request helper bound to one signed-in identity.
type rst struct {
	t     *testing.T
	base  string
	token string
}

func (r *rst) do(method, path string, body, out interface{}) int {
	r.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(r.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, r.base+"/api/v1"+path, &buf)
	require.NoError(r.t, err)
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(r.t, err)
	defer resp.Body.Close()
	if out != nil {
		json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode
}

type M map[string]interface{}

// signUpAndIn provisions the user and returns a client with their token.
func signUpAndIn(t *testing.T, ts *httptest.Server, email, scope string) *rst {
	t.Helper()
	c := &rst{t: t, base: ts.URL}

	code := c.do("POST", "/signUp", M{
		"name": email, "email": email, "type": scope, "pass": defaultPass,
	}, nil)
	require.Equal(t, 200, code)

	return signInAs(t, ts, email)
}

func signInAs(t *testing.T, ts *httptest.Server, email string) *rst {
	t.Helper()
	c := &rst{t: t, base: ts.URL}
	var resp struct {
		Id    string `json:"id"`
		Token string `json:"token"`
	}
	code := c.do("POST", "/signIn", M{"email": email, "pass": defaultPass}, &resp)
	require.Equal(t, 200, code)
	require.NotEmpty(t, resp.Token)
	c.token = resp.Token
	return c
}

func shareDeal(pct int) M {
	return M{
		"offer": M{
			"dealType": "revenueShare",
			"revShare": M{"percent": pct},
		},
		"terms": "net 30, monthly attribution report",
	}
}

func shareBid(pct int) M {
	return M{
		"offer": M{
			"dealType": "revenueShare",
			"revShare": M{"percent": pct},
		},
	}
}
