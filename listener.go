package nordigen

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	slogecho "github.com/samber/slog-echo"
)

// confirmationHTML is always sent back on the callback connection. It is a
// courtesy to the human sitting in the browser and is decoupled from
// whether the request actually carried a usable reference.
const confirmationHTML = `<html>
<body>
<h2>Thank You!</h2>
<p>You can now go back to the tool :)</p>
</body>
</html>
`

// listenerShutdownTimeout bounds the graceful drain after the first
// callback request has been answered.
const listenerShutdownTimeout = 5 * time.Second

type callbackResult struct {
	ref string
	err error
}

// CallbackListener hosts the single-shot local HTTP endpoint the bank's
// authentication flow redirects the user's browser to. Exactly one request
// is processed; afterwards the socket is closed and the listener cannot be
// reused, regardless of whether that one exchange produced a reference.
type CallbackListener struct {
	e      *echo.Echo
	ln     net.Listener
	log    *slog.Logger
	used   atomic.Bool
	result chan callbackResult
}

// NewCallbackListener binds the loopback callback address immediately so a
// port conflict surfaces before the consent link is handed to the user.
// A busy port yields ErrBind; the caller must ensure the port is free,
// there is no retry here.
func NewCallbackListener(addr string, logger *slog.Logger) (*CallbackListener, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBind, addr, err)
	}

	l := &CallbackListener{
		ln:     ln,
		log:    logger,
		result: make(chan callbackResult, 1),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(slogecho.New(logger))
	e.Any("/", l.handleCallback)
	e.Any("/*", l.handleCallback)
	l.e = e

	return l, nil
}

// Addr returns the bound listen address, useful when the configured port
// was 0.
func (l *CallbackListener) Addr() string {
	return l.ln.Addr().String()
}

// RedirectURL returns the URL the provider should send the bank's redirect
// to.
func (l *CallbackListener) RedirectURL() string {
	return "http://" + l.Addr()
}

// Wait serves requests until the first one has been processed, then shuts
// the server down and returns that request's outcome: the value of its
// `ref` query parameter, or a *ProtocolError describing why none could be
// extracted. The wait is bounded by ctx; cancellation closes the socket
// with nothing persisted anywhere.
func (l *CallbackListener) Wait(ctx context.Context) (string, error) {
	if !l.used.CompareAndSwap(false, true) {
		return "", ErrListenerUsed
	}

	srv := &http.Server{Handler: l.e}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(l.ln)
	}()

	select {
	case <-ctx.Done():
		srv.Close()
		return "", fmt.Errorf("waiting for callback: %w", ctx.Err())
	case err := <-serveErr:
		return "", fmt.Errorf("callback server failed: %w", err)
	case res := <-l.result:
		shutdownCtx, cancel := context.WithTimeout(context.Background(), listenerShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			srv.Close()
		}
		return res.ref, res.err
	}
}

// Close releases the socket. It is safe to call whether or not Wait ran.
func (l *CallbackListener) Close() error {
	return l.ln.Close()
}

func (l *CallbackListener) handleCallback(c echo.Context) error {
	ref, err := extractRef(c.Request())
	if err != nil {
		l.log.Warn("bad callback request", "err", err)
	}

	// Only the first request decides the outcome; stragglers still get
	// the confirmation page below.
	select {
	case l.result <- callbackResult{ref: ref, err: err}:
	default:
	}

	return c.HTML(http.StatusOK, confirmationHTML)
}

// extractRef validates the redirect request and pulls the provider's
// reference out of its query string. The query is parsed leniently:
// `&`-separated pairs, anything that does not split into exactly key=value
// is skipped.
func extractRef(r *http.Request) (string, error) {
	if r.Method != http.MethodGet {
		return "", &ProtocolError{Reason: fmt.Sprintf("unexpected method: %s", r.Method)}
	}

	rawQuery := r.URL.RawQuery
	if rawQuery == "" {
		return "", &ProtocolError{Reason: "no parameters"}
	}

	params := map[string]string{}
	for _, pair := range strings.Split(rawQuery, "&") {
		kv := strings.Split(pair, "=")
		if len(kv) != 2 {
			continue
		}
		params[kv[0]] = kv[1]
	}

	ref, ok := params["ref"]
	if !ok {
		return "", &ProtocolError{Reason: "missing ref"}
	}

	return ref, nil
}
