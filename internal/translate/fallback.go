package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	PublicEngineName      = "public"
	DefaultPublicEndpoint = "https://translate.googleapis.com"
)

// PublicEndpoint is the keyless query-style fallback. It answers with a
// nested array: [[["hello","hola",...],...],null,"es",...].
type PublicEndpoint struct {
	baseURL string
	client  *http.Client
}

func NewPublicEndpoint(baseURL string, timeout time.Duration) *PublicEndpoint {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &PublicEndpoint{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *PublicEndpoint) Name() string { return PublicEngineName }

func (p *PublicEndpoint) Translate(ctx context.Context, req Request) (Result, error) {
	source := req.SourceLang
	if source == "" {
		source = "auto"
	}
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", source)
	q.Set("tl", req.TargetLang)
	q.Set("dt", "t")
	q.Set("q", req.Text)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/translate_a/single?"+q.Encode(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return parseNested(raw)
}

// parseNested joins the first string of every row in element 0 and reads the
// detected language from element 2.
func parseNested(raw []byte) (Result, error) {
	var top []json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return Result{}, fmt.Errorf("decode response: %w", err)
	}
	if len(top) == 0 {
		return Result{}, fmt.Errorf("decode response: empty payload")
	}

	var rows [][]json.RawMessage
	if err := json.Unmarshal(top[0], &rows); err != nil {
		return Result{}, fmt.Errorf("decode segments: %w", err)
	}
	var b strings.Builder
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		var seg string
		if err := json.Unmarshal(row[0], &seg); err != nil {
			continue
		}
		b.WriteString(seg)
	}

	var res Result
	res.Text = b.String()
	if len(top) > 2 {
		_ = json.Unmarshal(top[2], &res.DetectedLanguage)
	}
	return res, nil
}
