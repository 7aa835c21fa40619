package oneclick

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"

	"github.com/danielsotopino/api-transbank/pkg/httpclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	APIPath = "/rswebpaytransaction/api/oneclick/v1.2"

	InscriptionsEndpoint = APIPath + "/inscriptions"
	TransactionsEndpoint = APIPath + "/transactions"
	CaptureEndpoint      = TransactionsEndpoint + "/capture"

	tracerName = "github.com/danielsotopino/api-transbank/pkg/oneclick"
)

// Gateway is the settlement network. Every call is synchronous and bounded by
// the caller's context.
type Gateway interface {
	StartInscription(ctx context.Context, request StartInscriptionRequest) (StartInscriptionResponse, error)
	FinishInscription(ctx context.Context, token string) (FinishInscriptionResponse, error)
	DeleteInscription(ctx context.Context, request DeleteInscriptionRequest) error
	Authorize(ctx context.Context, request AuthorizeRequest) (TransactionResponse, error)
	Status(ctx context.Context, buyOrder, commerceCode string) (TransactionResponse, error)
	Capture(ctx context.Context, request CaptureRequest) (CaptureResponse, error)
	Refund(ctx context.Context, request RefundRequest) (RefundResponse, error)
}

type gateway struct {
	client httpclient.HTTPClient
	config Config
	tracer trace.Tracer
}

func NewGateway(cfg Config, client httpclient.HTTPClient) Gateway {
	return &gateway{config: cfg, client: client, tracer: otel.Tracer(tracerName)}
}

func (g *gateway) StartInscription(ctx context.Context, request StartInscriptionRequest) (StartInscriptionResponse, error) {
	var response StartInscriptionResponse
	err := g.call(ctx, "StartInscription", http.MethodPost, InscriptionsEndpoint, request, &response)
	return response, err
}

func (g *gateway) FinishInscription(ctx context.Context, token string) (FinishInscriptionResponse, error) {
	var response FinishInscriptionResponse
	err := g.call(ctx, "FinishInscription", http.MethodPut, InscriptionsEndpoint+"/"+url.PathEscape(token), nil, &response)
	return response, err
}

func (g *gateway) DeleteInscription(ctx context.Context, request DeleteInscriptionRequest) error {
	return g.call(ctx, "DeleteInscription", http.MethodDelete, InscriptionsEndpoint, request, nil)
}

func (g *gateway) Authorize(ctx context.Context, request AuthorizeRequest) (TransactionResponse, error) {
	var response TransactionResponse
	err := g.call(ctx, "Authorize", http.MethodPost, TransactionsEndpoint, request, &response)
	return response, err
}

func (g *gateway) Status(ctx context.Context, buyOrder, commerceCode string) (TransactionResponse, error) {
	path := TransactionsEndpoint + "/" + url.PathEscape(buyOrder)
	if commerceCode != "" {
		path += "?commerce_code=" + url.QueryEscape(commerceCode)
	}

	var response TransactionResponse
	err := g.call(ctx, "Status", http.MethodGet, path, nil, &response)
	return response, err
}

func (g *gateway) Capture(ctx context.Context, request CaptureRequest) (CaptureResponse, error) {
	var response CaptureResponse
	err := g.call(ctx, "Capture", http.MethodPut, CaptureEndpoint, request, &response)
	return response, err
}

func (g *gateway) Refund(ctx context.Context, request RefundRequest) (RefundResponse, error) {
	var response RefundResponse
	path := TransactionsEndpoint + "/" + url.PathEscape(request.BuyOrder) + "/refunds"
	err := g.call(ctx, "Refund", http.MethodPost, path, request, &response)
	return response, err
}

func (g *gateway) call(ctx context.Context, operation, method, path string, request, response any) error {
	ctx, span := g.tracer.Start(ctx, "oneclick."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("oneclick.path", path),
		))
	defer span.End()

	err := g.send(ctx, method, path, request, response, span)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return err
}

func (g *gateway) send(ctx context.Context, method, path string, request, response any, span trace.Span) error {
	var body io.Reader
	if request != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(request); err != nil {
			return fmt.Errorf("encoding error: %w", err)
		}
		body = &buf
	}

	headers := g.headers(ctx)
	endpoint := g.config.URL() + path

	var (
		resp *http.Response
		err  error
	)
	switch method {
	case http.MethodGet:
		resp, err = g.client.Get(ctx, endpoint, headers)
	case http.MethodPost:
		resp, err = g.client.Post(ctx, endpoint, body, headers)
	case http.MethodPut:
		resp, err = g.client.Put(ctx, endpoint, body, headers)
	case http.MethodDelete:
		resp, err = g.client.Delete(ctx, endpoint, body, headers)
	default:
		return fmt.Errorf("unsupported method %s", method)
	}

	if err != nil {
		if isTimeout(err) {
			return ErrTimeout
		}

		return err
	}

	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	switch {
	case resp.StatusCode == StatusNoContent:
		return nil
	case resp.StatusCode == StatusOK:
		if response == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
			return fmt.Errorf("decoding error: %w", err)
		}
		return nil
	}

	var gatewayErr errorResponse
	_ = json.NewDecoder(resp.Body).Decode(&gatewayErr)

	return withMessage(MapStatusToError(resp.StatusCode), gatewayErr.ErrorMessage)
}

func (g *gateway) headers(ctx context.Context) map[string]string {
	commerceCode, apiKey := g.config.credentials()

	headers := map[string]string{
		"Content-Type":       "application/json",
		"Tbk-Api-Key-Id":     commerceCode,
		"Tbk-Api-Key-Secret": apiKey,
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.MapCarrier(headers))

	return headers
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
