// Package harness runs HTTP listeners for the test process and waits for remote services to
// become reachable.
package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	httpListenerTimeout = time.Second * 10
	pollInterval        = time.Millisecond * 10
)

// Server is an HTTP listener started by StartServer.
type Server struct {
	server   *http.Server
	listener net.Listener
	baseURL  string
}

// StartServer listens on addr (such as ":8111", or "127.0.0.1:0" for any free port) and serves
// the handler. HEAD requests to any path answer 200 so that it can detect when the listener is
// active; it does not return until then.
func StartServer(addr string, handler http.Handler) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	port := listener.Addr().(*net.TCPAddr).Port
	s := &Server{
		listener: listener,
		baseURL:  fmt.Sprintf("http://localhost:%d", port),
		server: &http.Server{
			Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodHead {
					w.WriteHeader(200)
					return
				}
				handler.ServeHTTP(w, r)
			}),
			ReadHeaderTimeout: httpListenerTimeout,
		},
	}
	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic(err)
		}
	}()

	// Wait till the server is definitely listening for requests before we run any tests
	poll := func() error {
		resp, err := http.DefaultClient.Head(s.baseURL)
		if err != nil {
			return err
		}
		_ = resp.Body.Close()
		if resp.StatusCode != 200 {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		return nil
	}
	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(pollInterval), uint64(httpListenerTimeout/pollInterval))
	if err := backoff.Retry(poll, b); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("could not detect own listener at %s: %w", s.baseURL, err)
	}
	return s, nil
}

// BaseURL returns the URL of the listener, using the host name localhost.
func (s *Server) BaseURL() string {
	return s.baseURL
}

// Close stops the listener.
func (s *Server) Close() error {
	return s.server.Shutdown(context.Background())
}

// WaitForService polls a URL until it gives any HTTP response, printing progress to output. It
// is used to make sure an implementation is up before any test runs.
func WaitForService(url string, timeout time.Duration, output io.Writer) error {
	fmt.Fprintf(output, "Connecting to %s", url)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Millisecond * 100
	b.MaxElapsedTime = timeout
	err := backoff.Retry(func() error {
		fmt.Fprintf(output, ".")
		resp, err := http.DefaultClient.Head(url)
		if err != nil {
			return err
		}
		_ = resp.Body.Close()
		return nil
	}, b)
	fmt.Fprintln(output)
	if err != nil {
		return fmt.Errorf("timed out, result of last query was: %w", err)
	}
	return nil
}
