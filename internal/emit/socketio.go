package emit

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/vk/projweave/internal/ctxlog"
	"github.com/vk/projweave/internal/descriptor"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Events exchanged with the build host.
const (
	EventResolved = "descriptor:resolved"
	EventAccepted = "descriptor:accepted"
	EventRejected = "descriptor:rejected"
)

// DefaultTimeout bounds a socket.io handoff when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// ErrRejected is returned when the build host refuses a manifest.
var ErrRejected = errors.New("manifest rejected by build host")

// SocketIOEmitter pushes manifests to a build host listening on socket.io.
type SocketIOEmitter struct {
	URL                string
	Namespace          string
	Timeout            time.Duration
	InsecureSkipVerify bool
}

type ackResult struct {
	err error
}

// Emit connects, sends the manifest as a descriptor:resolved event and waits
// for the host to acknowledge it with the same request id.
func (e *SocketIOEmitter) Emit(ctx context.Context, m *descriptor.Manifest) error {
	requestID := uuid.NewString()
	logger := ctxlog.FromContext(ctx).With("emitter", "socketio", "url", e.URL, "request_id", requestID)
	logger.Debug("Emitter started.")
	defer logger.Debug("Emitter finished.")

	payload, err := NewPayload(requestID, m)
	if err != nil {
		return err
	}

	parsedURL, err := url.Parse(e.URL)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return fmt.Errorf("failed to parse URL: %q must be absolute", e.URL)
	}

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	opts := socket.DefaultOptions()
	if parsedURL.Path != "" && parsedURL.Path != "/" {
		opts.SetPath(parsedURL.Path)
	}
	if e.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification.")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	namespace := e.Namespace
	if namespace == "" {
		namespace = "/"
	}

	var isConnected atomic.Bool
	done := make(chan ackResult, 1)
	finish := func(r ackResult) {
		select {
		case done <- r:
		default:
		}
	}

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)
	defer func() {
		logger.Debug("Disconnecting socket client.")
		io.Disconnect()
	}()

	io.On(types.EventName("connect"), func(...any) {
		isConnected.Store(true)
		logger.Info("Connected to build host.", "namespace", namespace, "sid", io.Id())
		io.Emit(EventResolved, payload)
	})

	io.On(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("failed to connect to %s", e.URL)
		if len(errs) > 0 {
			if cause, ok := errs[0].(error); ok {
				err = fmt.Errorf("failed to connect to %s: %w", e.URL, cause)
			}
		}
		finish(ackResult{err: err})
	})

	io.On(types.EventName(EventAccepted), func(args ...any) {
		if matchAck(requestID, args...) {
			finish(ackResult{})
		}
	})

	io.On(types.EventName(EventRejected), func(args ...any) {
		if matchAck(requestID, args...) {
			finish(ackResult{err: fmt.Errorf("%w: %s", ErrRejected, ackReason(args...))})
		}
	})

	io.Connect()

	select {
	case <-opCtx.Done():
		if err := ctx.Err(); err != nil {
			return err
		}
		if isConnected.Load() {
			return fmt.Errorf("timed out after %s waiting for %s", timeout, EventAccepted)
		}
		return fmt.Errorf("timed out after %s waiting for connection", timeout)
	case res := <-done:
		if res.err == nil {
			logger.Info("Manifest accepted by build host.")
		}
		return res.err
	}
}

// NewPayload builds the descriptor:resolved event body. The manifest is
// flattened to plain JSON values so the socket.io encoder sees only maps,
// slices and scalars.
func NewPayload(requestID string, m *descriptor.Manifest) (map[string]any, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	var manifest map[string]any
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	return map[string]any{
		"request_id": requestID,
		"manifest":   manifest,
	}, nil
}

// matchAck reports whether an acknowledgement carries requestID.
func matchAck(requestID string, args ...any) bool {
	if len(args) == 0 {
		return false
	}
	switch v := args[0].(type) {
	case string:
		return v == requestID
	case map[string]any:
		id, _ := v["request_id"].(string)
		return id == requestID
	default:
		return false
	}
}

func ackReason(args ...any) string {
	if len(args) > 0 {
		if v, ok := args[0].(map[string]any); ok {
			if reason, ok := v["error"].(string); ok && reason != "" {
				return reason
			}
		}
	}
	return "no reason given"
}
