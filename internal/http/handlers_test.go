package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/golang/mock/gomock"

	"github.com/vokinneberg/research-assistant/internal/assistant"
	"github.com/vokinneberg/research-assistant/internal/types"
)

func TestHandler_SearchHandler(t *testing.T) {
	tests := []struct {
		name       string
		form       url.Values
		cookie     string
		setupMocks func(*MockSessions, *MockAssistant)
		wantCookie bool
	}{
		{
			name:   "submits query for existing session",
			form:   url.Values{"query": {"What is Kubernetes?"}},
			cookie: "s1",
			setupMocks: func(sessions *MockSessions, a *MockAssistant) {
				sessions.EXPECT().Get("s1").Return(a, true)
				a.EXPECT().Submit("What is Kubernetes?").Return(true)
			},
		},
		{
			name:   "empty query still redirects",
			form:   url.Values{"query": {"   "}},
			cookie: "s1",
			setupMocks: func(sessions *MockSessions, a *MockAssistant) {
				sessions.EXPECT().Get("s1").Return(a, true)
				a.EXPECT().Submit("   ").Return(false)
			},
		},
		{
			name: "creates session without cookie",
			form: url.Values{"query": {"q"}},
			setupMocks: func(sessions *MockSessions, a *MockAssistant) {
				sessions.EXPECT().Create().Return("new-id", a)
				a.EXPECT().Submit("q").Return(true)
			},
			wantCookie: true,
		},
		{
			name:   "replaces expired session",
			form:   url.Values{"query": {"q"}},
			cookie: "gone",
			setupMocks: func(sessions *MockSessions, a *MockAssistant) {
				sessions.EXPECT().Get("gone").Return(nil, false)
				sessions.EXPECT().Create().Return("new-id", a)
				a.EXPECT().Submit("q").Return(true)
			},
			wantCookie: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockSessions := NewMockSessions(ctrl)
			mockAssistant := NewMockAssistant(ctrl)
			tt.setupMocks(mockSessions, mockAssistant)

			handler := NewHandlers(mockSessions)

			req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(tt.form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tt.cookie})
			}
			w := httptest.NewRecorder()

			handler.SearchHandler(w, req)

			if w.Code != http.StatusSeeOther {
				t.Errorf("SearchHandler() status = %d, want %d", w.Code, http.StatusSeeOther)
			}
			if loc := w.Header().Get("Location"); loc != "/" {
				t.Errorf("SearchHandler() Location = %q, want %q", loc, "/")
			}

			cookies := w.Result().Cookies()
			if tt.wantCookie {
				if len(cookies) != 1 || cookies[0].Name != SessionCookie || cookies[0].Value != "new-id" {
					t.Errorf("SearchHandler() cookies = %v, want %s=new-id", cookies, SessionCookie)
				}
				if len(cookies) == 1 && !cookies[0].HttpOnly {
					t.Errorf("SearchHandler() session cookie must be HttpOnly")
				}
			} else if len(cookies) != 0 {
				t.Errorf("SearchHandler() unexpected cookies %v", cookies)
			}
		})
	}
}

func TestHandler_PageHandler(t *testing.T) {
	tests := []struct {
		name         string
		view         assistant.View
		wantDisabled bool
		wantSelector string
		wantText     string
	}{
		{
			name:         "loading",
			view:         assistant.View{Query: "q", State: assistant.Loading{}},
			wantDisabled: true,
			wantSelector: "#loading",
		},
		{
			name:         "failed",
			view:         assistant.View{Query: "q", State: assistant.Failed{Message: "Search failed"}},
			wantSelector: "#error",
			wantText:     "Search failed",
		},
		{
			name: "success",
			view: assistant.View{Query: "q", State: assistant.Success{Result: &types.SearchResult{
				Answer: "Kubernetes is a container orchestration platform",
			}}},
			wantSelector: ".answer",
			wantText:     "Kubernetes is a container orchestration platform",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockSessions := NewMockSessions(ctrl)
			mockAssistant := NewMockAssistant(ctrl)
			mockSessions.EXPECT().Get("s1").Return(mockAssistant, true)
			mockAssistant.EXPECT().View().Return(tt.view)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "s1"})
			w := httptest.NewRecorder()

			NewHandlers(mockSessions).PageHandler(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("PageHandler() status = %d, want %d", w.Code, http.StatusOK)
			}
			if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
				t.Errorf("PageHandler() Content-Type = %q, want text/html", ct)
			}

			doc, err := goquery.NewDocumentFromReader(w.Body)
			if err != nil {
				t.Fatalf("PageHandler() invalid HTML: %v", err)
			}

			_, disabled := doc.Find("button[type=submit]").Attr("disabled")
			if disabled != tt.wantDisabled {
				t.Errorf("PageHandler() submit disabled = %v, want %v", disabled, tt.wantDisabled)
			}

			sel := doc.Find(tt.wantSelector)
			if sel.Length() != 1 {
				t.Fatalf("PageHandler() found %d elements for %q, want 1", sel.Length(), tt.wantSelector)
			}
			if tt.wantText != "" && sel.Text() != tt.wantText {
				t.Errorf("PageHandler() %s text = %q, want %q", tt.wantSelector, sel.Text(), tt.wantText)
			}
		})
	}
}

func TestHandler_StateHandler(t *testing.T) {
	result := &types.SearchResult{Answer: "A", Sources: []types.Source{{Title: "Wiki", URL: "https://x"}}}

	tests := []struct {
		name string
		view assistant.View
		want types.StateResponse
	}{
		{
			name: "idle",
			view: assistant.View{State: assistant.Idle{}},
			want: types.StateResponse{Status: "idle"},
		},
		{
			name: "loading",
			view: assistant.View{Query: "q", State: assistant.Loading{}},
			want: types.StateResponse{Status: "loading", Query: "q"},
		},
		{
			name: "failed",
			view: assistant.View{Query: "q", State: assistant.Failed{Message: "boom"}},
			want: types.StateResponse{Status: "failed", Query: "q", Error: "boom"},
		},
		{
			name: "success",
			view: assistant.View{Query: "q", State: assistant.Success{Result: result}},
			want: types.StateResponse{Status: "success", Query: "q", Result: result},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockSessions := NewMockSessions(ctrl)
			mockAssistant := NewMockAssistant(ctrl)
			mockSessions.EXPECT().Get("s1").Return(mockAssistant, true)
			mockAssistant.EXPECT().View().Return(tt.view)

			req := httptest.NewRequest(http.MethodGet, "/state", nil)
			req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "s1"})
			w := httptest.NewRecorder()

			NewHandlers(mockSessions).StateHandler(w, req)

			var got types.StateResponse
			if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
				t.Fatalf("StateHandler() invalid JSON response: %v", err)
			}
			if got.Status != tt.want.Status || got.Query != tt.want.Query || got.Error != tt.want.Error {
				t.Errorf("StateHandler() = %+v, want %+v", got, tt.want)
			}
			if (got.Result == nil) != (tt.want.Result == nil) {
				t.Errorf("StateHandler() result = %+v, want %+v", got.Result, tt.want.Result)
			}
			if got.Result != nil && got.Result.Answer != tt.want.Result.Answer {
				t.Errorf("StateHandler() answer = %q, want %q", got.Result.Answer, tt.want.Result.Answer)
			}
		})
	}
}

func TestHandler_StateHandler_DoesNotCreateSession(t *testing.T) {
	tests := []struct {
		name       string
		cookie     string
		setupMocks func(*MockSessions)
	}{
		{
			name:       "no cookie",
			setupMocks: func(*MockSessions) {},
		},
		{
			name:   "unknown session",
			cookie: "gone",
			setupMocks: func(sessions *MockSessions) {
				sessions.EXPECT().Get("gone").Return(nil, false)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			// Create is never expected, so a call to it fails the test.
			mockSessions := NewMockSessions(ctrl)
			tt.setupMocks(mockSessions)

			req := httptest.NewRequest(http.MethodGet, "/state", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tt.cookie})
			}
			w := httptest.NewRecorder()

			NewHandlers(mockSessions).StateHandler(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("StateHandler() status = %d, want %d", w.Code, http.StatusOK)
			}
			if cookies := w.Result().Cookies(); len(cookies) != 0 {
				t.Errorf("StateHandler() unexpected cookies %v", cookies)
			}

			var got types.StateResponse
			if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
				t.Fatalf("StateHandler() invalid JSON response: %v", err)
			}
			if got.Status != "idle" {
				t.Errorf("StateHandler() status = %q, want %q", got.Status, "idle")
			}
		})
	}
}

func TestHandler_HealthHandler(t *testing.T) {
	w := httptest.NewRecorder()
	NewHandlers(nil).HealthHandler(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	var response map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("HealthHandler() invalid JSON response: %v", err)
	}
	if response["status"] != "ok" {
		t.Errorf("HealthHandler() status = %q, want %q", response["status"], "ok")
	}
}

func TestErrorResponse(t *testing.T) {
	w := httptest.NewRecorder()
	errorResponse(w, http.StatusBadRequest, "Invalid form body", nil)

	if w.Code != http.StatusBadRequest {
		t.Errorf("errorResponse() status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	var response types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("errorResponse() invalid JSON response: %v", err)
	}
	if response.Error != "Bad Request" || response.Message != "Invalid form body" {
		t.Errorf("errorResponse() = %+v", response)
	}
}
