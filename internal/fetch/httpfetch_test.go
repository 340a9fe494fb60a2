package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func serverMock() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>
			<head><title> Sample Page </title></head>
			<body>
				<a href="/foo/bar">foo</a>
				<a href="/foo/bar">foo again</a>
				<a href="/image.png">img</a>
				<link rel="canonical" href="https://example.com/canonical/" />
				hello world hello
			</body>
		</html>`))
	})
	return httptest.NewServer(mux)
}

func TestFetchParsesTitleTermsAndLinks(t *testing.T) {
	server := serverMock()
	defer server.Close()

	f := New("test-agent", 5*time.Second)
	page, err := f.Fetch(context.Background(), server.URL+"/page")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if page.Title != "Sample Page" {
		t.Errorf("Title = %q, want %q", page.Title, "Sample Page")
	}

	wantLinks := map[string]bool{
		server.URL + "/foo/bar":            true,
		"https://example.com/canonical/": true,
	}
	if len(page.Links) != len(wantLinks) {
		t.Fatalf("Links = %v, want %d deduplicated links", page.Links, len(wantLinks))
	}
	for _, l := range page.Links {
		if !wantLinks[l] {
			t.Errorf("unexpected link %q", l)
		}
	}

	foundHello := false
	for _, term := range page.Terms {
		if term == "hello" {
			foundHello = true
		}
	}
	if !foundHello {
		t.Errorf("Terms = %v, expected a stemmed \"hello\"", page.Terms)
	}
}

func TestFetchRejectsNonOKStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	f := New("test-agent", 5*time.Second)
	if _, err := f.Fetch(context.Background(), server.URL+"/missing"); err == nil {
		t.Fatal("expected an error for a 404 response")
	}
}

func TestFetchDisallowedByRobotsTxt(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /private\n"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	f := New("test-agent", 5*time.Second)
	if _, err := f.Fetch(context.Background(), server.URL+"/private/page"); err == nil {
		t.Fatal("expected an error for a robots.txt-disallowed URL")
	}
}
