package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/slateroom/slateroom-agent/internal/config"
)

// apiClient talks to a locally running agent daemon.
type apiClient struct {
	baseURL string
	token   string
	client  *http.Client
}

func newAPIClient(cctx *commandContext) (*apiClient, error) {
	addr := cctx.addrFlag
	if addr == "" {
		cfg, err := config.Load(cctx.configFlag)
		if err != nil {
			return nil, err
		}
		addr = fmt.Sprintf("http://127.0.0.1:%d", cfg.Agent.Port)
	}

	token := cctx.tokenFlag
	if token == "" {
		token = os.Getenv("SLATEROOM_API_TOKEN")
	}
	if token == "" {
		return nil, fmt.Errorf("no API token: pass --token or set SLATEROOM_API_TOKEN (printed by the daemon at startup)")
	}

	return &apiClient{
		baseURL: addr,
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (c *apiClient) get(path string, out interface{}) error {
	return c.do(http.MethodGet, path, nil, out)
}

func (c *apiClient) post(path string, body, out interface{}) error {
	return c.do(http.MethodPost, path, body, out)
}

func (c *apiClient) do(method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("agent not reachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("agent returned status %d", resp.StatusCode)
	}

	if out != nil {
		return json.Unmarshal(data, out)
	}
	return nil
}
