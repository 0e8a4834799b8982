package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kozaktomas/face-enroll/internal/enroll"
)

type fakeEnroller struct {
	result *enroll.Result
	err    error
	got    enroll.Submission
}

func (f *fakeEnroller) Enroll(ctx context.Context, sub enroll.Submission) (*enroll.Result, error) {
	f.got = sub
	return f.result, f.err
}

func TestEncode_Success(t *testing.T) {
	enroller := &fakeEnroller{result: &enroll.Result{Vector: []float32{0.5, -0.25}}}
	handler := NewEncodeHandler(enroller)

	req := jsonRequest(t, http.MethodPost, "/api/encode", EncodeRequest{
		ImageFront: "data:image/jpeg;base64,AAAA",
		ImageLeft:  "BBBB",
		ImageRight: "CCCC",
	})
	recorder := httptest.NewRecorder()
	handler.Encode(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	assertContentType(t, recorder, "application/json")

	var resp EncodeResponse
	parseJSONResponse(t, recorder, &resp)
	if !resp.Success {
		t.Error("expected success")
	}
	if len(resp.Vector) != 2 || resp.Vector[1] != -0.25 {
		t.Errorf("unexpected vector %v", resp.Vector)
	}
	if resp.IsFallback == nil || *resp.IsFallback {
		t.Errorf("expected isFallback=false to be present, got %v", resp.IsFallback)
	}
	if enroller.got[enroll.SlotFront] != "data:image/jpeg;base64,AAAA" || enroller.got[enroll.SlotRight] != "CCCC" {
		t.Errorf("submission not mapped to slots: %v", enroller.got)
	}
}

func TestEncode_Fallback(t *testing.T) {
	handler := NewEncodeHandler(&fakeEnroller{result: &enroll.Result{Vector: []float32{1}, IsFallback: true}})

	recorder := httptest.NewRecorder()
	handler.Encode(recorder, jsonRequest(t, http.MethodPost, "/api/encode", `{"image_front": "AAAA"}`))

	assertStatusCode(t, recorder, http.StatusOK)
	var resp EncodeResponse
	parseJSONResponse(t, recorder, &resp)
	if resp.IsFallback == nil || !*resp.IsFallback {
		t.Error("expected isFallback=true")
	}

	var wire map[string]any
	parseJSONResponse(t, recorder, &wire)
	if wire["isFallback"] != true {
		t.Errorf("expected isFallback key in body, got %s", recorder.Body.String())
	}
}

func TestEncode_Failures(t *testing.T) {
	tests := []struct {
		name      string
		failure   *enroll.Failure
		wantIndex int
		wantScore bool
	}{
		{"missing input", &enroll.Failure{Code: enroll.CodeMissingInput, SlotIndex: 2, Message: "photo 2 missing"}, 2, false},
		{"decode failed", &enroll.Failure{Code: enroll.CodeDecodeFailed, SlotIndex: 3, Message: "could not read"}, 3, false},
		{"low confidence", &enroll.Failure{Code: enroll.CodeLowConfidence, SlotIndex: 1, Score: 0.42, Message: "no clear face"}, 1, true},
		{"missing front", &enroll.Failure{Code: enroll.CodeMissingFront, Message: "front required"}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewEncodeHandler(&fakeEnroller{err: tt.failure})

			recorder := httptest.NewRecorder()
			handler.Encode(recorder, jsonRequest(t, http.MethodPost, "/api/encode", `{}`))

			assertStatusCode(t, recorder, http.StatusBadRequest)
			var resp EncodeResponse
			parseJSONResponse(t, recorder, &resp)
			if resp.Success {
				t.Error("expected success=false")
			}
			if resp.ErrorCode != tt.failure.Code {
				t.Errorf("expected error_code %d, got %d", tt.failure.Code, resp.ErrorCode)
			}
			if resp.Message != tt.failure.Message {
				t.Errorf("expected message %q, got %q", tt.failure.Message, resp.Message)
			}
			if resp.PhotoIndex != tt.wantIndex {
				t.Errorf("expected photo_index %d, got %d", tt.wantIndex, resp.PhotoIndex)
			}
			if tt.wantScore && (resp.Score == nil || *resp.Score != 0.42) {
				t.Errorf("expected score 0.42, got %v", resp.Score)
			}
			if !tt.wantScore && resp.Score != nil {
				t.Errorf("expected no score, got %v", *resp.Score)
			}
		})
	}
}

func TestEncode_InternalError(t *testing.T) {
	handler := NewEncodeHandler(&fakeEnroller{err: errors.New("embedding server unreachable")})

	recorder := httptest.NewRecorder()
	handler.Encode(recorder, jsonRequest(t, http.MethodPost, "/api/encode", `{"image_front": "AAAA"}`))

	assertStatusCode(t, recorder, http.StatusInternalServerError)
	var resp EncodeResponse
	parseJSONResponse(t, recorder, &resp)
	if resp.ErrorCode != http.StatusInternalServerError {
		t.Errorf("expected error_code 500, got %d", resp.ErrorCode)
	}
	if resp.Message == "embedding server unreachable" {
		t.Error("internal error details must not leak to clients")
	}
}

func TestEncode_InvalidBody(t *testing.T) {
	bodies := map[string]string{
		"empty":        "",
		"invalid json": "{not json",
		"wrong type":   `{"image_front": 42}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			enroller := &fakeEnroller{}
			handler := NewEncodeHandler(enroller)

			recorder := httptest.NewRecorder()
			handler.Encode(recorder, httptest.NewRequest(http.MethodPost, "/api/encode", strings.NewReader(body)))

			assertStatusCode(t, recorder, http.StatusBadRequest)
			var resp EncodeResponse
			parseJSONResponse(t, recorder, &resp)
			if resp.ErrorCode != http.StatusBadRequest {
				t.Errorf("expected error_code 400, got %d", resp.ErrorCode)
			}
			if enroller.got != nil {
				t.Error("pipeline must not run for an invalid body")
			}
		})
	}
}
