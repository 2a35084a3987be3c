package doi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const sampleBibTeX = `@article{Smith_2020, title={A Test Paper}, journal={Journal of Testing}, year={2020}, month=mar}`

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, NewClient(WithBaseURL(srv.URL), WithRateLimit(1000))
}

func TestClient_Resolve(t *testing.T) {
	var gotPath, gotAccept, gotUA string
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAccept = r.Header.Get("Accept")
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("\n " + sampleBibTeX + "\n"))
	})
	c.userAgent = "bibfetch-test"

	got, err := c.Resolve(context.Background(), "https://doi.org/10.1234/test")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != sampleBibTeX {
		t.Errorf("Resolve() = %q, want trimmed BibTeX", got)
	}
	if gotPath != "/10.1234/test" {
		t.Errorf("path = %q, want /10.1234/test", gotPath)
	}
	if gotAccept != AcceptBibTeX {
		t.Errorf("Accept = %q, want %q", gotAccept, AcceptBibTeX)
	}
	if gotUA != "bibfetch-test" {
		t.Errorf("User-Agent = %q", gotUA)
	}
}

func TestClient_ResolveArXiv(t *testing.T) {
	var gotPath string
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(sampleBibTeX))
	})

	if _, err := c.Resolve(context.Background(), "2106.15928"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if gotPath != "/10.48550/arXiv.2106.15928" {
		t.Errorf("path = %q, want /10.48550/arXiv.2106.15928", gotPath)
	}
}

func TestClient_ResolveErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"not found", http.StatusNotFound, "DOI Not Found", IsNotFound},
		{"rate limited", http.StatusTooManyRequests, "slow down", IsRateLimited},
		{"server error", http.StatusInternalServerError, "boom", func(err error) bool {
			var apiErr *APIError
			return errors.As(err, &apiErr) && apiErr.StatusCode == 500 && apiErr.Message == "boom"
		}},
		{"html instead of bibtex", http.StatusOK, "<html></html>", func(err error) bool {
			return errors.Is(err, ErrInvalidResponse)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := c.Resolve(context.Background(), "10.1234/test")
			if err == nil {
				t.Fatal("Resolve() error = nil")
			}
			if !tt.check(err) {
				t.Errorf("Resolve() error = %v, wrong classification", err)
			}
		})
	}
}

func TestClient_ResolveNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(WithBaseURL(url), WithRateLimit(1000))
	_, err := c.Resolve(context.Background(), "10.1234/test")
	if !errors.Is(err, ErrNetworkError) {
		t.Errorf("Resolve() error = %v, want ErrNetworkError", err)
	}
}

func TestClient_ResolveEmptyID(t *testing.T) {
	c := NewClient()
	if _, err := c.Resolve(context.Background(), "  "); !IsNotFound(err) {
		t.Errorf("Resolve(empty) error = %v, want not found", err)
	}
}

func TestClient_ResolveCancelled(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleBibTeX))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Resolve(ctx, "10.1234/test"); err == nil {
		t.Error("Resolve() with cancelled context should fail")
	}
}

func TestClient_URL(t *testing.T) {
	c := NewClient()
	if got := c.URL("2106.15928"); got != "https://dx.doi.org/10.48550/arXiv.2106.15928" {
		t.Errorf("URL() = %q", got)
	}
}
