package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Timeout for the outbound verification call. The remote service is the only
// variable-latency dependency in the request path, so it never gets to block
// a request indefinitely.
const verifyTimeout = 5 * time.Second

// ErrVerificationFailed covers every gate failure: missing token, remote
// rejection, and transport errors. Callers treat them all as a rejected
// request.
var ErrVerificationFailed = errors.New("captcha verification failed")

// Recorder receives the outcome of each verification ("ok", "rejected",
// "error", "skipped") for metrics.
type Recorder func(outcome string)

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

type Verifier struct {
	secret    string
	verifyURL string
	client    *http.Client
	record    Recorder
}

// NewVerifier builds a gate against the given siteverify endpoint. An empty
// secret disables the gate entirely, which is the dev-mode default.
func NewVerifier(secret, verifyURL string, record Recorder) *Verifier {
	if record == nil {
		record = func(string) {}
	}

	return &Verifier{
		secret:    secret,
		verifyURL: verifyURL,
		client:    &http.Client{Timeout: verifyTimeout},
		record:    record,
	}
}

func (v *Verifier) Enabled() bool {
	return v.secret != ""
}

// Verify checks the client-supplied challenge token with the remote service.
// Any failure, including the call itself erroring out, rejects the request.
func (v *Verifier) Verify(ctx context.Context, token, remoteIP string) error {
	if !v.Enabled() {
		v.record("skipped")
		return nil
	}

	if token == "" {
		v.record("rejected")
		return ErrVerificationFailed
	}

	data := url.Values{}
	data.Set("secret", v.secret)
	data.Set("response", token)
	if remoteIP != "" {
		data.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(data.Encode()))

	if err != nil {
		v.record("error")
		return fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)

	if err != nil {
		v.record("error")
		return fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}

	defer func() { _ = resp.Body.Close() }()

	var result siteverifyResponse

	err = json.NewDecoder(resp.Body).Decode(&result)

	if err != nil {
		v.record("error")
		return fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}

	if !result.Success {
		v.record("rejected")
		return ErrVerificationFailed
	}

	v.record("ok")
	return nil
}
