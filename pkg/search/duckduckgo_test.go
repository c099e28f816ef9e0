package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

const resultPage = `<html><body>
<div class="result">
  <a rel="nofollow" class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.exploit-db.com%2Fexploits%2F50383&amp;rut=abc">Apache 2.4.49 - Path Traversal &amp; RCE</a>
  <a class="result__snippet" href="#">Proof of concept for <b>CVE-2021-41773</b> path traversal.</a>
</div>
<div class="result">
  <a rel="nofollow" class="result__a" href="https://nvd.nist.gov/vuln/detail/CVE-2021-41773">NVD - CVE-2021-41773</a>
  <a class="result__snippet" href="#">CVSS score 7.5 high severity.</a>
</div>
</body></html>`

func TestParseResults(t *testing.T) {
	got := parseResults(resultPage, 10)

	want := []Result{
		{
			URL:     "https://www.exploit-db.com/exploits/50383",
			Title:   "Apache 2.4.49 - Path Traversal & RCE",
			Snippet: "Proof of concept for CVE-2021-41773 path traversal.",
		},
		{
			URL:     "https://nvd.nist.gov/vuln/detail/CVE-2021-41773",
			Title:   "NVD - CVE-2021-41773",
			Snippet: "CVSS score 7.5 high severity.",
		},
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseResults() got = %+v, want %+v", got, want)
	}
}

func TestParseResultsBounded(t *testing.T) {
	got := parseResults(resultPage, 1)

	if len(got) != 1 {
		t.Errorf("parseResults() returned %d results, want 1", len(got))
	}
}

func TestSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("q") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte(resultPage))
	}))
	defer server.Close()

	d := &DuckDuckGo{
		Cli:      server.Client(),
		Endpoint: server.URL,
	}

	results, err := d.Search(context.Background(), "CVE-2021-41773 exploit", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Errorf("Search() returned %d results, want 2", len(results))
	}
}
