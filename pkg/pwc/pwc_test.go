package pwc

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/papers/", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/papers/":
			switch r.URL.Query().Get("arxiv_id") {
			case "2401.00001":
				fmt.Fprint(w, `{"count": 1, "results": [{"id": "sparse-attention"}]}`)
			case "2401.00002":
				fmt.Fprint(w, `{"count": 1, "results": [{"id": "no-code"}]}`)
			case "2401.00003":
				fmt.Fprint(w, `<html>moved</html>`)
			default:
				fmt.Fprint(w, `{"count": 0, "results": []}`)
			}
		case "/papers/sparse-attention/repositories/":
			fmt.Fprint(w, `{"count": 2, "results": [{"url": "https://github.com/a/b"}, {"url": "https://github.com/c/d"}]}`)
		case "/papers/no-code/repositories/":
			fmt.Fprint(w, `{"count": 0, "results": []}`)
		default:
			http.NotFound(w, r)
		}
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := NewClient(ts.URL+"/", ts.Client())

	testCases := []struct {
		name    string
		id      string
		want    string
		wantErr bool
	}{
		{name: "repository found", id: "2401.00001", want: "https://github.com/a/b"},
		{name: "paper without repositories", id: "2401.00002", want: ""},
		{name: "unknown paper", id: "2401.09999", want: ""},
		{name: "non json reply", id: "2401.00003", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := c.CodeURL(context.Background(), tc.id)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCodeURLServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := NewClient(ts.URL, nil).CodeURL(context.Background(), "2401.00001")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
