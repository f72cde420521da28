package ytthumb

import (
	"errors"
	"fmt"
	"testing"

	"ytthumb/internal/pipeline"
	"ytthumb/internal/youtube"
)

func TestReexportedErrorsMatch(t *testing.T) {
	cause := &youtube.APIError{Op: "thumbnails.set", StatusCode: 403, Err: youtube.ErrQuotaExceeded}
	err := fmt.Errorf("run: %w", &pipeline.StageError{
		Stage: pipeline.StageUpload,
		Kind:  pipeline.KindUpload,
		Msg:   "set thumbnail",
		Err:   cause,
	})

	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("errors.As(%v, *StageError) = false", err)
	}
	if se.Stage != pipeline.StageUpload {
		t.Errorf("Stage = %q, want %q", se.Stage, pipeline.StageUpload)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Op != "thumbnails.set" {
		t.Errorf("errors.As(*APIError) = %v, want thumbnails.set", apiErr)
	}
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Error("errors.Is(err, ErrQuotaExceeded) = false")
	}
	if errors.Is(err, ErrNoComments) {
		t.Error("errors.Is(err, ErrNoComments) = true, want false")
	}
}
