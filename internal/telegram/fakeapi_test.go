package telegram

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

type apiCall struct {
	Method string
	Body   map[string]any
	Form   map[string]string
	File   []byte
}

// fakeAPI is a minimal Bot API server that records every call.
type fakeAPI struct {
	t      *testing.T
	server *httptest.Server

	mu      sync.Mutex
	calls   []apiCall
	fail    map[string]string
	nextID  int64
	updates [][]Update
}

func newFakeAPI(t *testing.T) *fakeAPI {
	f := &fakeAPI{t: t, fail: make(map[string]string), nextID: 500}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeAPI) client() *Client {
	return NewClient("test-token").WithBaseURL(f.server.URL)
}

func (f *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	call := apiCall{Method: method}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(32 << 20); err == nil {
			call.Form = map[string]string{}
			for k, v := range r.MultipartForm.Value {
				call.Form[k] = v[0]
			}
			for _, fh := range r.MultipartForm.File {
				file, _ := fh[0].Open()
				call.File, _ = io.ReadAll(file)
				call.Form["filename"] = fh[0].Filename
				file.Close()
			}
		}
	} else {
		_ = json.NewDecoder(r.Body).Decode(&call.Body)
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	desc, failing := f.fail[method]
	var result string
	switch method {
	case "sendMessage", "sendPhoto", "sendAudio":
		f.nextID++
		result = fmt.Sprintf(`{"message_id":%d}`, f.nextID)
	case "sendMediaGroup":
		f.nextID++
		result = fmt.Sprintf(`[{"message_id":%d}]`, f.nextID)
	case "getUpdates":
		result = "[]"
		if len(f.updates) > 0 {
			data, _ := json.Marshal(f.updates[0])
			f.updates = f.updates[1:]
			result = string(data)
		}
	default:
		result = "true"
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if failing {
		fmt.Fprintf(w, `{"ok":false,"error_code":400,"description":%q}`, desc)
		return
	}
	fmt.Fprintf(w, `{"ok":true,"result":%s}`, result)
}

func (f *fakeAPI) failWith(method, description string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[method] = description
}

func (f *fakeAPI) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Method
	}
	return out
}

func (f *fakeAPI) callsTo(method string) []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []apiCall
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeAPI) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}
