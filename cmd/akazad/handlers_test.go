package main

import (
	"bytes"
	"net/http/httptest"
	"testing"
)

func TestHandleConvertBadBody(t *testing.T) {
	s := &Server{}
	req := httptest.NewRequest("POST", "/convert", bytes.NewBufferString("not json"))
	w := httptest.NewRecorder()
	s.handleConvert(w, req)
	if w.Code != 400 {
		t.Fatalf("expected 400 for invalid body, got %d", w.Code)
	}
}

func TestHandleCommitBadBody(t *testing.T) {
	s := &Server{}
	req := httptest.NewRequest("POST", "/commit", bytes.NewBufferString("not json"))
	w := httptest.NewRecorder()
	s.handleCommit(w, req)
	if w.Code != 400 {
		t.Fatalf("expected 400 for invalid body, got %d", w.Code)
	}
}
