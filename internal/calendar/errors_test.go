package calendar

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/api/googleapi"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantTransient bool
	}{
		{"rate limited", &googleapi.Error{Code: http.StatusTooManyRequests}, true},
		{"server error", &googleapi.Error{Code: http.StatusInternalServerError}, true},
		{"bad gateway", &googleapi.Error{Code: http.StatusBadGateway}, true},
		{"not found", &googleapi.Error{Code: http.StatusNotFound}, false},
		{"forbidden", &googleapi.Error{Code: http.StatusForbidden}, false},
		{"bad request", &googleapi.Error{Code: http.StatusBadRequest}, false},
		{"plain network error", fmt.Errorf("dial tcp: connection refused"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError("test op", tt.err)
			if IsTransient(got) != tt.wantTransient {
				t.Errorf("IsTransient = %v, want %v", IsTransient(got), tt.wantTransient)
			}
			if IsPermanent(got) == tt.wantTransient {
				t.Errorf("IsPermanent = %v, want %v", IsPermanent(got), !tt.wantTransient)
			}
		})
	}
}

func TestClassifyError_Nil(t *testing.T) {
	if got := classifyError("op", nil); got != nil {
		t.Errorf("classifyError(nil) = %v, want nil", got)
	}
}

func TestClassifyError_PreservesCause(t *testing.T) {
	cause := &googleapi.Error{Code: http.StatusNotFound}
	got := classifyError("delete event", cause)

	var gerr *googleapi.Error
	if !errors.As(got, &gerr) {
		t.Fatal("classified error does not unwrap to the original googleapi.Error")
	}
	if gerr.Code != http.StatusNotFound {
		t.Errorf("unwrapped code = %d, want 404", gerr.Code)
	}
}
