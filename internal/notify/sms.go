package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/venkatesh-palenso/palenso-api/pkg/httpclient"
)

// smsGatewayName labels breaker metrics and upstream errors.
const smsGatewayName = "sms-gateway"

type smsRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// HTTPSMSSender posts text messages to a JSON SMS gateway behind a circuit
// breaker.
type HTTPSMSSender struct {
	client *httpclient.CircuitBreakerClient
	url    string
	apiKey string
}

func NewHTTPSMSSender(client *httpclient.CircuitBreakerClient, url, apiKey string) *HTTPSMSSender {
	return &HTTPSMSSender{client: client, url: url, apiKey: apiKey}
}

func (s *HTTPSMSSender) Name() string { return "http-sms" }

func (s *HTTPSMSSender) Send(ctx context.Context, msg *Message) error {
	req, err := httpclient.NewJSONRequest(ctx, http.MethodPost, s.url, smsRequest{To: msg.To, Body: msg.Text})
	if err != nil {
		return err
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("sms send: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return httpclient.ParseResponseError(resp, smsGatewayName)
	}
	_ = resp.Body.Close()
	return nil
}
