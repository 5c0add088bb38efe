package apperr

import (
	"testing"

	"github.com/juju/errors"
)

func TestKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{errors.NotFoundf("animal 7"), "NotFound"},
		{errors.NotValidf("nombre"), "ValidationError"},
		{errors.Unauthorizedf("session"), "Unauthorized"},
		{errors.Forbiddenf("role usuario"), "Forbidden"},
		{Transitionf("adoptado -> reservado"), "InvalidTransition"},
		{Storagef(errors.New("conn reset"), "update animal"), "StorageError"},
		{errors.New("boom"), "StorageError"},
		{nil, ""},
	}
	for _, c := range cases {
		if got := Kind(c.err); got != c.want {
			t.Fatalf("Kind(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}

func TestStoragef_KeepsCauseAndNotFound(t *testing.T) {
	cause := errors.New("deadlock")
	err := Storagef(cause, "insert transition")
	if !errors.Is(err, Storage) || !errors.Is(err, cause) {
		t.Fatalf("expected Storage and cause in chain, got %v", err)
	}

	nf := errors.NotFoundf("animal 3")
	if got := Storagef(nf, "get animal"); got != nf {
		t.Fatalf("expected NotFound to pass through unchanged, got %v", got)
	}
}
