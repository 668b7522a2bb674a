package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	domain "github.com/organcare/webapp/internal/domain/analysis"
	historydomain "github.com/organcare/webapp/internal/domain/history"
)

// Client talks to the backend analysis API. It implements the Analyzer and
// ResultsAPI ports. The session token is forwarded as a bearer credential.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Analyze submits one multipart analysis request: repeated "images" parts
// plus the organ and the four patient-info fields. Non-2xx responses become
// *analysis.RequestError with the server's detail string when present.
func (c *Client) Analyze(ctx context.Context, token string, req domain.Request) (*domain.Result, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	for _, img := range req.Images {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="images"; filename="%s"`, quoteEscaper.Replace(img.FileName)))
		ct := img.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(part, img.Content); err != nil {
			return nil, fmt.Errorf("read staged image %q: %w", img.FileName, err)
		}
	}

	fields := map[string]string{
		"organ":           string(req.Organ),
		"age":             req.Patient.Age,
		"symptoms":        req.Patient.Symptoms,
		"medical_history": req.Patient.MedicalHistory,
		"additional_info": req.Patient.AdditionalInfo,
	}
	for _, name := range []string{"organ", "age", "symptoms", "medical_history", "additional_info"} {
		if err := mw.WriteField(name, fields[name]); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/analyze", body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	setAuth(httpReq, token)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeError(resp)
	}

	var res domain.Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode analysis response: %w", err)
	}
	return &res, nil
}

// ListResults fetches the stored results for the session, in server order.
func (c *Client) ListResults(ctx context.Context, token string) ([]historydomain.StoredResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/results", nil)
	if err != nil {
		return nil, err
	}
	setAuth(httpReq, token)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeError(resp)
	}

	var list []historydomain.StoredResult
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	return list, nil
}

// DeleteResult deletes one stored result. The backend delete is idempotent,
// so a 404 counts as success.
func (c *Client) DeleteResult(ctx context.Context, token, id string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/results/"+id, nil)
	if err != nil {
		return err
	}
	setAuth(httpReq, token)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

func setAuth(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func decodeError(resp *http.Response) error {
	var payload struct {
		Detail string `json:"detail"`
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	_ = json.Unmarshal(body, &payload)
	return &domain.RequestError{Status: resp.StatusCode, Detail: payload.Detail}
}
