package syncclient

import (
	"context"
	"encoding/json"
	"net/http"
)

// codeResponse is shared by POST /generate-code and GET /code.
type codeResponse struct {
	Code string `json:"code"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type codeRequest struct {
	Code string `json:"code"`
}

// GenerateCode asks the server for a fresh account code. The code is the
// credential shared across a user's devices.
func (c *Client) GenerateCode(ctx context.Context) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, "/generate-code", nil, false)
	if err != nil {
		return "", &Error{Kind: KindTransient, Op: "generate-code", Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.classify("generate-code", resp)
	}

	var body codeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", &Error{Kind: KindTransient, Op: "generate-code", Message: "undecodable response", Err: err}
	}
	return body.Code, nil
}

// Login checks a code against the server, stamping its last login time.
func (c *Client) Login(ctx context.Context, code string) error {
	resp, err := c.do(ctx, http.MethodPost, "/login", codeRequest{Code: code}, false)
	if err != nil {
		return &Error{Kind: KindTransient, Op: "login", Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.classify("login", resp)
	}
	return nil
}

// GenerateToken exchanges a code for its bearer token. Issuing is idempotent:
// a code that already has a token gets the same one back, so a second device
// can enroll with just the code.
func (c *Client) GenerateToken(ctx context.Context, code string) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, "/generate-token", codeRequest{Code: code}, false)
	if err != nil {
		return "", &Error{Kind: KindTransient, Op: "generate-token", Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.classify("generate-token", resp)
	}

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", &Error{Kind: KindTransient, Op: "generate-token", Message: "undecodable response", Err: err}
	}
	return body.Token, nil
}

// Code returns the account code bound to the client's token, letting a
// logged-in device display the code for enrolling another device.
func (c *Client) Code(ctx context.Context) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/code", nil, true)
	if err != nil {
		return "", &Error{Kind: KindTransient, Op: "code", Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.classify("code", resp)
	}

	var body codeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", &Error{Kind: KindTransient, Op: "code", Message: "undecodable response", Err: err}
	}
	return body.Code, nil
}
